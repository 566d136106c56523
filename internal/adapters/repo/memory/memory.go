// Package memory is an in-process store with the same contract as the
// Postgres repositories. It backs DB_DRIVER=memory and the service tests.
package memory

import (
	"context"
	"sync"

	"github.com/phenrril/armstrong/internal/domain"
	"github.com/phenrril/armstrong/internal/jsonfield"
)

type table[T any] struct {
	mu    sync.Mutex
	next  uint
	rows  map[uint]T
	order []uint
	id    func(*T) *uint
}

func newTable[T any](id func(*T) *uint) *table[T] {
	return &table[T]{rows: map[uint]T{}, id: id}
}

func (t *table[T]) Create(ctx context.Context, v *T) error {
	if err := ctx.Err(); err != nil {
		return &domain.StoreError{Op: "create", Err: err}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	*t.id(v) = t.next
	t.rows[t.next] = *v
	t.order = append(t.order, t.next)
	return nil
}

func (t *table[T]) Save(ctx context.Context, v *T) error {
	if err := ctx.Err(); err != nil {
		return &domain.StoreError{Op: "save", Err: err}
	}
	id := *t.id(v)
	if id == 0 {
		return t.Create(ctx, v)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; !ok {
		t.order = append(t.order, id)
		if id > t.next {
			t.next = id
		}
	}
	t.rows[id] = *v
	return nil
}

func (t *table[T]) List(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.StoreError{Op: "list", Err: err}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.rows[id])
	}
	return out, nil
}

func (t *table[T]) FindByID(ctx context.Context, id uint) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.StoreError{Op: "find", Err: err}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &v, nil
}

func (t *table[T]) Delete(ctx context.Context, id uint) error {
	if err := ctx.Err(); err != nil {
		return &domain.StoreError{Op: "delete", Err: err}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; !ok {
		return domain.ErrNotFound
	}
	delete(t.rows, id)
	for i, o := range t.order {
		if o == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return nil
}

// update applies fn to the stored row under the table lock.
func (t *table[T]) update(ctx context.Context, id uint, fn func(*T) error) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.StoreError{Op: "update", Err: err}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if err := fn(&v); err != nil {
		return nil, &domain.StoreError{Op: "update", Err: err}
	}
	t.rows[id] = v
	return &v, nil
}

type ProductRepo struct{ *table[domain.Product] }

func NewProductRepo() *ProductRepo {
	return &ProductRepo{newTable(func(p *domain.Product) *uint { return &p.ID })}
}

func (r *ProductRepo) AppendImages(ctx context.Context, id uint, paths []string) (*domain.Product, error) {
	return r.update(ctx, id, func(p *domain.Product) error {
		images := jsonfield.StringList(jsonfield.Decode(p.Images, jsonfield.Array))
		b, err := jsonfield.Marshal(append(images, paths...))
		if err != nil {
			return err
		}
		p.Images = b
		return nil
	})
}

type BlogPostRepo struct{ *table[domain.BlogPost] }

func NewBlogPostRepo() *BlogPostRepo {
	return &BlogPostRepo{newTable(func(p *domain.BlogPost) *uint { return &p.ID })}
}

func (r *BlogPostRepo) AppendImages(ctx context.Context, id uint, paths []string) (*domain.BlogPost, error) {
	return r.update(ctx, id, func(p *domain.BlogPost) error {
		images := jsonfield.StringList(jsonfield.Decode(p.Images, jsonfield.Array))
		b, err := jsonfield.Marshal(append(images, paths...))
		if err != nil {
			return err
		}
		p.Images = b
		return nil
	})
}

type RequestRepo struct{ *table[domain.Request] }

func NewRequestRepo() *RequestRepo {
	return &RequestRepo{newTable(func(r *domain.Request) *uint { return &r.ID })}
}

type ReviewRepo struct{ *table[domain.Review] }

func NewReviewRepo() *ReviewRepo {
	return &ReviewRepo{newTable(func(r *domain.Review) *uint { return &r.ID })}
}

type CompanyInfoRepo struct {
	mu   sync.Mutex
	next uint
	row  *domain.CompanyInfo
}

func NewCompanyInfoRepo() *CompanyInfoRepo { return &CompanyInfoRepo{} }

func (r *CompanyInfoRepo) Replace(ctx context.Context, c *domain.CompanyInfo) error {
	if err := ctx.Err(); err != nil {
		return &domain.StoreError{Op: "replace company info", Err: err}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	c.ID = r.next
	cp := *c
	r.row = &cp
	return nil
}

func (r *CompanyInfoRepo) Get(ctx context.Context) (*domain.CompanyInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.StoreError{Op: "get company info", Err: err}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.row == nil {
		return nil, domain.ErrNotFound
	}
	cp := *r.row
	return &cp, nil
}
