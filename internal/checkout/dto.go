package checkout

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// LineItem is the client's snapshot of one cart line at checkout time.
type LineItem struct {
	ProductID uuid.UUID       `json:"productId" validate:"required"`
	Name      string          `json:"name" validate:"required"`
	Quantity  int             `json:"quantity" validate:"min=1"`
	Price     decimal.Decimal `json:"price"`
}

// PlaceOrderRequest is the POST /orders/checkout body.
type PlaceOrderRequest struct {
	Items           []LineItem     `json:"items"`
	PaymentMethod   string         `json:"paymentMethod" validate:"required"`
	ShippingAddress *types.Address `json:"shippingAddress"`
	CouponCode      *string        `json:"couponCode,omitempty"`
}

// PlaceOrderInput is a checkout request bound to the authenticated user.
type PlaceOrderInput struct {
	UserID          uuid.UUID
	Items           []LineItem
	PaymentMethod   enums.PaymentMethod
	ShippingAddress *types.Address
	CouponCode      *string
}

func (r PlaceOrderRequest) Input(userID uuid.UUID) PlaceOrderInput {
	return PlaceOrderInput{
		UserID:          userID,
		Items:           r.Items,
		PaymentMethod:   enums.PaymentMethod(r.PaymentMethod),
		ShippingAddress: r.ShippingAddress,
		CouponCode:      r.CouponCode,
	}
}
