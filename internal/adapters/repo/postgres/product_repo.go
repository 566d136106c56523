package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/phenrril/armstrong/internal/domain"
	"github.com/phenrril/armstrong/internal/jsonfield"
)

type ProductRepo struct{ table[domain.Product] }

func NewProductRepo(db *gorm.DB) *ProductRepo {
	return &ProductRepo{table[domain.Product]{db: db, kind: "product"}}
}

// AppendImages reads the stored list, appends paths and writes it back in one
// transaction. A stored value that is not a list is replaced by paths alone.
func (r *ProductRepo) AppendImages(ctx context.Context, id uint, paths []string) (*domain.Product, error) {
	var p domain.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, id).Error; err != nil {
			return err
		}
		images := jsonfield.StringList(jsonfield.Decode(p.Images, jsonfield.Array))
		b, err := jsonfield.Marshal(append(images, paths...))
		if err != nil {
			return err
		}
		p.Images = b
		return tx.Model(&p).Update("images", p.Images).Error
	})
	if err != nil {
		return nil, wrap("append product images", err)
	}
	return &p, nil
}

type BlogPostRepo struct{ table[domain.BlogPost] }

func NewBlogPostRepo(db *gorm.DB) *BlogPostRepo {
	return &BlogPostRepo{table[domain.BlogPost]{db: db, kind: "blog post"}}
}

func (r *BlogPostRepo) AppendImages(ctx context.Context, id uint, paths []string) (*domain.BlogPost, error) {
	var post domain.BlogPost
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&post, id).Error; err != nil {
			return err
		}
		images := jsonfield.StringList(jsonfield.Decode(post.Images, jsonfield.Array))
		b, err := jsonfield.Marshal(append(images, paths...))
		if err != nil {
			return err
		}
		post.Images = b
		return tx.Model(&post).Update("images", post.Images).Error
	})
	if err != nil {
		return nil, wrap("append blog post images", err)
	}
	return &post, nil
}
