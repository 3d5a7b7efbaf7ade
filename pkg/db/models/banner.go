package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Banner is a promotional image linked to a product.
type Banner struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Image     string    `gorm:"column:image;not null"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Product   *Product  `gorm:"foreignKey:ProductID"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (b *Banner) BeforeCreate(*gorm.DB) error {
	assignID(&b.ID)
	return nil
}
