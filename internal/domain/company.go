package domain

import (
	"time"

	"gorm.io/datatypes"
)

// CompanyInfo holds the storefront contact block. There is at most one row.
type CompanyInfo struct {
	ID          uint           `gorm:"primaryKey"`
	Phone       string         `gorm:"size:20;not null"`
	Email       string         `gorm:"size:254;not null"`
	Address     string         `gorm:"size:255;not null"`
	SocialLinks datatypes.JSON `gorm:"type:jsonb"` // channel -> URL, absent keys are not configured
}

func (CompanyInfo) TableName() string { return "company_info" }

// Request is a callback request left by a storefront visitor.
type Request struct {
	ID      uint   `gorm:"primaryKey"`
	Name    string `gorm:"size:100;not null"`
	Phone   string `gorm:"size:20;not null"`
	Comment string `gorm:"type:text"`
}

func (Request) TableName() string { return "requests" }

type Review struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"size:100;not null"`
	Review    string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Review) TableName() string { return "reviews" }
