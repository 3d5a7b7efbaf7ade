package coupons

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Quote is the outcome of validating a code against a cart total.
type Quote struct {
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
	NewTotal decimal.Decimal `json:"new_total"`
}

type ValidateRequest struct {
	Code      string          `json:"code" validate:"required"`
	CartTotal decimal.Decimal `json:"cart_total"`
}

type CouponDTO struct {
	ID             uuid.UUID          `json:"id"`
	Code           string             `json:"code"`
	DiscountType   enums.DiscountType `json:"discount_type"`
	DiscountValue  decimal.Decimal    `json:"discount_value"`
	MinOrderAmount decimal.Decimal    `json:"min_order_amount"`
	ExpiresAt      time.Time          `json:"expires_at"`
	UsageLimit     int                `json:"usage_limit"`
	UsedCount      int                `json:"used_count"`
	IsActive       bool               `json:"is_active"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

func FromModel(c *models.Coupon) CouponDTO {
	return CouponDTO{
		ID:             c.ID,
		Code:           c.Code,
		DiscountType:   c.DiscountType,
		DiscountValue:  c.DiscountValue,
		MinOrderAmount: c.MinOrderAmount,
		ExpiresAt:      c.ExpiresAt,
		UsageLimit:     c.UsageLimit,
		UsedCount:      c.UsedCount,
		IsActive:       c.IsActive,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

type CreateCouponInput struct {
	Code           string             `json:"code" validate:"required"`
	DiscountType   enums.DiscountType `json:"discount_type" validate:"required"`
	DiscountValue  decimal.Decimal    `json:"discount_value"`
	MinOrderAmount decimal.Decimal    `json:"min_order_amount"`
	ExpiresAt      time.Time          `json:"expires_at" validate:"required"`
	UsageLimit     *int               `json:"usage_limit,omitempty" validate:"omitempty,min=1"`
	IsActive       *bool              `json:"is_active,omitempty"`
}

type UpdateCouponInput struct {
	Code           *string             `json:"code,omitempty"`
	DiscountType   *enums.DiscountType `json:"discount_type,omitempty"`
	DiscountValue  *decimal.Decimal    `json:"discount_value,omitempty"`
	MinOrderAmount *decimal.Decimal    `json:"min_order_amount,omitempty"`
	ExpiresAt      *time.Time          `json:"expires_at,omitempty"`
	UsageLimit     *int                `json:"usage_limit,omitempty" validate:"omitempty,min=1"`
	IsActive       *bool               `json:"is_active,omitempty"`
}
