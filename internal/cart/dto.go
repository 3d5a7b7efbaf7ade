package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// AddItemInput is one line of an add-to-cart request.
type AddItemInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

type AddItemsInput struct {
	Items []AddItemInput `json:"items" validate:"required,min=1,dive"`
}

// CartItemDTO is a cart line with the current catalog name, price and image.
type CartItemDTO struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image,omitempty"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type CartDTO struct {
	ID       *uuid.UUID      `json:"id,omitempty"`
	UserID   uuid.UUID       `json:"user_id"`
	Items    []CartItemDTO   `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

func emptyCart(userID uuid.UUID) *CartDTO {
	return &CartDTO{UserID: userID, Items: []CartItemDTO{}, Subtotal: decimal.Zero}
}

func fromModel(record *models.Cart) *CartDTO {
	id := record.ID
	out := &CartDTO{ID: &id, UserID: record.UserID, Items: make([]CartItemDTO, 0, len(record.Items)), Subtotal: decimal.Zero}
	for _, item := range record.Items {
		line := CartItemDTO{ProductID: item.ProductID, Quantity: item.Quantity, Price: decimal.Zero}
		if item.Product != nil {
			line.Name = item.Product.Name
			line.Price = item.Product.Price
			line.Image = item.Product.PrimaryImage()
		}
		line.LineTotal = line.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		out.Subtotal = out.Subtotal.Add(line.LineTotal)
		out.Items = append(out.Items, line)
	}
	return out
}
