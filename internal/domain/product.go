package domain

import (
	"gorm.io/datatypes"
)

// Product is a catalog item. Attributes is a sparse object of free-form
// attribute name to value, Images an ordered list of public paths.
type Product struct {
	ID             uint           `gorm:"primaryKey"`
	Title          string         `gorm:"size:255;not null"`
	Attributes     datatypes.JSON `gorm:"type:jsonb"`
	Guarantee      string         `gorm:"size:50"`
	Region         string         `gorm:"size:100"`
	PriceRetail    int
	PriceWholesale int
	PriceBulk      int
	Description    string         `gorm:"type:text"`
	Images         datatypes.JSON `gorm:"type:jsonb"`
}

func (Product) TableName() string { return "products" }

type BlogPost struct {
	ID      uint           `gorm:"primaryKey"`
	Title   string         `gorm:"size:255;not null"`
	Content string         `gorm:"type:text;not null"`
	Images  datatypes.JSON `gorm:"type:jsonb"`
}

func (BlogPost) TableName() string { return "blog_posts" }
