package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/phenrril/armstrong/internal/domain"
)

type CompanyInfoRepo struct{ db *gorm.DB }

func NewCompanyInfoRepo(db *gorm.DB) *CompanyInfoRepo { return &CompanyInfoRepo{db: db} }

// Replace deletes every row and inserts c inside one transaction, so readers
// never observe an empty table between the two steps.
func (r *CompanyInfoRepo) Replace(ctx context.Context, c *domain.CompanyInfo) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&domain.CompanyInfo{}).Error; err != nil {
			return err
		}
		c.ID = 0
		return tx.Create(c).Error
	})
	return wrap("replace company info", err)
}

func (r *CompanyInfoRepo) Get(ctx context.Context) (*domain.CompanyInfo, error) {
	var c domain.CompanyInfo
	if err := r.db.WithContext(ctx).First(&c).Error; err != nil {
		return nil, wrap("get company info", err)
	}
	return &c, nil
}
