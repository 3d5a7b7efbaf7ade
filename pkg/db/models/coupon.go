package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Coupon is a discount code. Code is stored uppercase.
type Coupon struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Code           string             `gorm:"column:code;not null;uniqueIndex"`
	DiscountType   enums.DiscountType `gorm:"column:discount_type;type:text;not null"`
	DiscountValue  decimal.Decimal    `gorm:"column:discount_value;type:numeric(12,2);not null"`
	MinOrderAmount decimal.Decimal    `gorm:"column:min_order_amount;type:numeric(12,2);not null;default:0"`
	ExpiresAt      time.Time          `gorm:"column:expires_at;not null"`
	UsageLimit     int                `gorm:"column:usage_limit;not null;default:1"`
	UsedCount      int                `gorm:"column:used_count;not null;default:0"`
	IsActive       bool               `gorm:"column:is_active;not null"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Coupon) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}

// Exhausted reports whether every allowed use has been consumed.
func (c *Coupon) Exhausted() bool {
	return c.UsedCount >= c.UsageLimit
}
