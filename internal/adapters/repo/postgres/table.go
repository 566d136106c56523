package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/phenrril/armstrong/internal/domain"
)

// table is the single-row CRUD shared by every per-ID resource.
type table[T any] struct {
	db   *gorm.DB
	kind string
}

func (t table[T]) Create(ctx context.Context, v *T) error {
	return wrap("create "+t.kind, t.db.WithContext(ctx).Create(v).Error)
}

func (t table[T]) Save(ctx context.Context, v *T) error {
	return wrap("save "+t.kind, t.db.WithContext(ctx).Save(v).Error)
}

// List returns rows in insertion (primary key) order.
func (t table[T]) List(ctx context.Context) ([]T, error) {
	list := []T{}
	if err := t.db.WithContext(ctx).Order("id").Find(&list).Error; err != nil {
		return nil, wrap("list "+t.kind, err)
	}
	return list, nil
}

func (t table[T]) FindByID(ctx context.Context, id uint) (*T, error) {
	var v T
	if err := t.db.WithContext(ctx).First(&v, id).Error; err != nil {
		return nil, wrap("find "+t.kind, err)
	}
	return &v, nil
}

func (t table[T]) Delete(ctx context.Context, id uint) error {
	res := t.db.WithContext(ctx).Delete(new(T), id)
	if res.Error != nil {
		return wrap("delete "+t.kind, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	if errors.Is(err, domain.ErrNotFound) {
		return err
	}
	var se *domain.StoreError
	if errors.As(err, &se) {
		return err
	}
	return &domain.StoreError{Op: op, Err: err}
}
