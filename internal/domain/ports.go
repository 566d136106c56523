package domain

import (
	"context"
	"io"
)

// Repo is the single-row CRUD contract shared by every per-ID resource kind.
type Repo[T any] interface {
	Create(ctx context.Context, v *T) error
	Save(ctx context.Context, v *T) error
	List(ctx context.Context) ([]T, error)
	FindByID(ctx context.Context, id uint) (*T, error)
	Delete(ctx context.Context, id uint) error
}

type ProductRepo interface {
	Repo[Product]
	// AppendImages reads the stored images list, appends paths and stores it back.
	AppendImages(ctx context.Context, id uint, paths []string) (*Product, error)
}

type BlogPostRepo interface {
	Repo[BlogPost]
	AppendImages(ctx context.Context, id uint, paths []string) (*BlogPost, error)
}

type RequestRepo interface {
	Repo[Request]
}

type ReviewRepo interface {
	Repo[Review]
}

type CompanyInfoRepo interface {
	// Replace discards every existing row and inserts c, atomically.
	Replace(ctx context.Context, c *CompanyInfo) error
	Get(ctx context.Context) (*CompanyInfo, error)
}

// FileStorage persists uploaded content and returns its public path.
type FileStorage interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// Upload is one submitted file, independent of the transport that carried it.
type Upload struct {
	Filename string
	Size     int64
	Open     func() (io.ReadCloser, error)
}
