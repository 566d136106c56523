package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/phenrril/armstrong/internal/domain"
)

// RequestUC handles callback requests. They are never edited after creation.
type RequestUC struct {
	Requests domain.RequestRepo
}

type RequestInput struct {
	Name    string `json:"name" validate:"required,max=100"`
	Phone   string `json:"phone" validate:"required,max=20"`
	Comment string `json:"comment" validate:"required"`
}

func (uc *RequestUC) Create(ctx context.Context, in RequestInput) (*domain.Request, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	req := &domain.Request{Name: in.Name, Phone: in.Phone, Comment: in.Comment}
	if err := uc.Requests.Create(ctx, req); err != nil {
		return nil, err
	}
	log.Info().Uint("request_id", req.ID).Msg("request created")
	return req, nil
}

func (uc *RequestUC) List(ctx context.Context) ([]domain.Request, error) {
	return uc.Requests.List(ctx)
}

func (uc *RequestUC) Get(ctx context.Context, id uint) (*domain.Request, error) {
	if id == 0 {
		return nil, domain.ErrNotFound
	}
	return uc.Requests.FindByID(ctx, id)
}

func (uc *RequestUC) Delete(ctx context.Context, id uint) error {
	if id == 0 {
		return domain.ErrNotFound
	}
	return uc.Requests.Delete(ctx, id)
}

type ReviewUC struct {
	Reviews domain.ReviewRepo
	Now     func() time.Time
}

type ReviewInput struct {
	Name   string `json:"name" validate:"required,max=100"`
	Review string `json:"review" validate:"required"`
}

// Create stamps created_at once; later edits never touch it.
func (uc *ReviewUC) Create(ctx context.Context, in ReviewInput) (*domain.Review, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	rv := &domain.Review{Name: in.Name, Review: in.Review, CreatedAt: uc.now()}
	if err := uc.Reviews.Create(ctx, rv); err != nil {
		return nil, err
	}
	log.Info().Uint("review_id", rv.ID).Msg("review created")
	return rv, nil
}

func (uc *ReviewUC) List(ctx context.Context) ([]domain.Review, error) {
	return uc.Reviews.List(ctx)
}

func (uc *ReviewUC) Get(ctx context.Context, id uint) (*domain.Review, error) {
	if id == 0 {
		return nil, domain.ErrNotFound
	}
	return uc.Reviews.FindByID(ctx, id)
}

func (uc *ReviewUC) Delete(ctx context.Context, id uint) error {
	if id == 0 {
		return domain.ErrNotFound
	}
	return uc.Reviews.Delete(ctx, id)
}

// AdminSave creates (id == 0) or edits name and text of a review.
func (uc *ReviewUC) AdminSave(ctx context.Context, id uint, in ReviewInput) (*domain.Review, error) {
	if id == 0 {
		return uc.Create(ctx, in)
	}
	if err := check(in); err != nil {
		return nil, err
	}
	rv, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rv.Name = in.Name
	rv.Review = in.Review
	if err := uc.Reviews.Save(ctx, rv); err != nil {
		return nil, err
	}
	return rv, nil
}

func (uc *ReviewUC) now() time.Time {
	if uc.Now != nil {
		return uc.Now().UTC()
	}
	return time.Now().UTC()
}
