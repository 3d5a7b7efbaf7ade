package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog listing. OrderCount is bumped by checkout and
// drives the top-selling sort.
type Product struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name        string          `gorm:"column:name;not null"`
	Description *string         `gorm:"column:description"`
	Images      pq.StringArray  `gorm:"column:images;type:text[];not null;default:'{}'"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Category    string          `gorm:"column:category;not null;index"`
	Stock       *int            `gorm:"column:stock"`
	SKU         *string         `gorm:"column:sku"`
	OrderCount  int64           `gorm:"column:order_count;not null;default:0;index"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	if p.Images == nil {
		p.Images = pq.StringArray{}
	}
	return nil
}

// PrimaryImage returns the first non-empty image, if any.
func (p *Product) PrimaryImage() string {
	if p == nil {
		return ""
	}
	for _, img := range p.Images {
		if trimmed := strings.TrimSpace(img); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
