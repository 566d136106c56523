package postgres

import (
	"gorm.io/gorm"

	"github.com/phenrril/armstrong/internal/domain"
)

type RequestRepo struct{ table[domain.Request] }

func NewRequestRepo(db *gorm.DB) *RequestRepo {
	return &RequestRepo{table[domain.Request]{db: db, kind: "request"}}
}

type ReviewRepo struct{ table[domain.Review] }

func NewReviewRepo(db *gorm.DB) *ReviewRepo {
	return &ReviewRepo{table[domain.Review]{db: db, kind: "review"}}
}
