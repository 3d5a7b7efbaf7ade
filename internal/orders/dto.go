package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// ItemInput is one line of an order request.
type ItemInput struct {
	ProductID uuid.UUID       `json:"product_id" validate:"required"`
	Name      string          `json:"name" validate:"required"`
	Quantity  int             `json:"quantity" validate:"min=1"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// AppliedCoupon is a coupon discount already validated against the subtotal.
type AppliedCoupon struct {
	Code     string
	Discount decimal.Decimal
}

// CreateOrderInput is everything the ledger needs to persist an order.
type CreateOrderInput struct {
	UserID          uuid.UUID
	Items           []ItemInput
	ShippingAddress types.Address
	PaymentMethod   enums.PaymentMethod
	Coupon          *AppliedCoupon
}

type OrderItemDTO struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
	// Current catalog data; empty when the product no longer exists.
	DisplayName string `json:"display_name,omitempty"`
	Image       string `json:"image,omitempty"`
}

type OrderDTO struct {
	ID              uuid.UUID           `json:"id"`
	UserID          uuid.UUID           `json:"user_id"`
	Items           []OrderItemDTO      `json:"items"`
	ShippingAddress types.Address       `json:"shipping_address"`
	PaymentMethod   enums.PaymentMethod `json:"payment_method"`
	TotalAmount     decimal.Decimal     `json:"total_amount"`
	DiscountAmount  decimal.Decimal     `json:"discount_amount"`
	PayableAmount   decimal.Decimal     `json:"payable_amount"`
	CouponCode      *string             `json:"coupon_code,omitempty"`
	Status          enums.OrderStatus   `json:"status"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// AdminOrderList is one page of every order plus the overall count.
type AdminOrderList struct {
	Orders []OrderDTO
	Total  int64
	Page   int
	Limit  int
}

// UserOrderList is one page of a single user's orders.
type UserOrderList struct {
	Orders []OrderDTO
	Page   int
	Limit  int
}

// UpdateStatusRequest is the admin status change payload.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func FromModel(o *models.Order) OrderDTO {
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemDTO{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal(),
		})
	}
	return OrderDTO{
		ID:              o.ID,
		UserID:          o.UserID,
		Items:           items,
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   o.PaymentMethod,
		TotalAmount:     o.TotalAmount,
		DiscountAmount:  o.DiscountAmount,
		PayableAmount:   o.PayableAmount,
		CouponCode:      o.CouponCode,
		Status:          o.Status,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}
