package usecase

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/phenrril/armstrong/internal/domain"
	"github.com/phenrril/armstrong/internal/jsonfield"
)

type BlogUC struct {
	Posts    domain.BlogPostRepo
	Uploader *ImageUploader
}

type BlogPostInput struct {
	Title   string          `json:"title" validate:"required,max=255"`
	Content string          `json:"content" validate:"required"`
	Images  any             `json:"images" validate:"required"`
	Uploads []domain.Upload `json:"-"`
}

type BlogPostForm struct {
	Title   string          `json:"title" validate:"required,max=255"`
	Content string          `json:"content" validate:"required"`
	Uploads []domain.Upload `json:"-"`
}

func (uc *BlogUC) Create(ctx context.Context, in BlogPostInput) (*domain.BlogPost, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	images, err := jsonfield.ParseStringList(in.Images)
	if err != nil {
		return nil, malformed("images", err)
	}
	added, err := uc.Uploader.Store(ctx, in.Uploads)
	if err != nil {
		return nil, err
	}
	post := &domain.BlogPost{Title: in.Title, Content: in.Content}
	if post.Images, err = storeJSON("images", append(images, added...)); err != nil {
		return nil, err
	}
	if err := uc.Posts.Create(ctx, post); err != nil {
		return nil, err
	}
	log.Info().Uint("blog_post_id", post.ID).Msg("blog post created")
	return post, nil
}

func (uc *BlogUC) List(ctx context.Context) ([]domain.BlogPost, error) {
	return uc.Posts.List(ctx)
}

func (uc *BlogUC) Get(ctx context.Context, id uint) (*domain.BlogPost, error) {
	if id == 0 {
		return nil, domain.ErrNotFound
	}
	return uc.Posts.FindByID(ctx, id)
}

func (uc *BlogUC) Delete(ctx context.Context, id uint) error {
	if id == 0 {
		return domain.ErrNotFound
	}
	return uc.Posts.Delete(ctx, id)
}

func (uc *BlogUC) AddImages(ctx context.Context, id uint, files []domain.Upload) (*domain.BlogPost, error) {
	if _, err := uc.Get(ctx, id); err != nil {
		return nil, err
	}
	paths, err := uc.Uploader.Store(ctx, files)
	if err != nil {
		return nil, err
	}
	return uc.Posts.AppendImages(ctx, id, paths)
}

// AdminSave creates (id == 0) or updates a post; uploads are appended.
func (uc *BlogUC) AdminSave(ctx context.Context, id uint, f BlogPostForm) (*domain.BlogPost, error) {
	if err := check(f); err != nil {
		return nil, err
	}
	post := &domain.BlogPost{}
	if id != 0 {
		existing, err := uc.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		post = existing
	}
	added, err := uc.Uploader.Store(ctx, f.Uploads)
	if err != nil {
		return nil, err
	}
	if len(added) > 0 || id == 0 {
		images := jsonfield.StringList(jsonfield.Decode(post.Images, jsonfield.Array))
		if post.Images, err = storeJSON("images", append(images, added...)); err != nil {
			return nil, err
		}
	}
	post.Title = f.Title
	post.Content = f.Content

	if id == 0 {
		err = uc.Posts.Create(ctx, post)
	} else {
		err = uc.Posts.Save(ctx, post)
	}
	if err != nil {
		return nil, err
	}
	log.Info().Uint("blog_post_id", post.ID).Int("uploaded", len(added)).Msg("blog post saved from admin")
	return post, nil
}
