package postgres

import (
	"gorm.io/gorm"

	"github.com/phenrril/armstrong/internal/domain"
)

// Migrate creates or upgrades the five catalog tables. The column defaults
// let rows written by other components pick up the same empty JSON shapes.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.CompanyInfo{}, &domain.Product{}, &domain.BlogPost{}, &domain.Request{}, &domain.Review{},
	); err != nil {
		return err
	}
	stmts := []string{
		"ALTER TABLE company_info ALTER COLUMN social_links SET DEFAULT '{}'::jsonb",
		"ALTER TABLE products ALTER COLUMN attributes SET DEFAULT '{}'::jsonb",
		"ALTER TABLE products ALTER COLUMN images SET DEFAULT '[]'::jsonb",
		"ALTER TABLE blog_posts ALTER COLUMN images SET DEFAULT '[]'::jsonb",
		"ALTER TABLE reviews ALTER COLUMN created_at SET DEFAULT now()",
	}
	for _, s := range stmts {
		if err := db.Exec(s).Error; err != nil {
			return err
		}
	}
	return nil
}
