package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// ProductDTO represents the product payload returned to clients.
type ProductDTO struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Images      []string        `json:"images"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Stock       *int            `json:"stock,omitempty"`
	SKU         *string         `json:"sku,omitempty"`
	OrderCount  int64           `json:"order_count"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func FromModel(p *models.Product) ProductDTO {
	images := []string(p.Images)
	if images == nil {
		images = []string{}
	}
	return ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Images:      images,
		Price:       p.Price,
		Category:    p.Category,
		Stock:       p.Stock,
		SKU:         p.SKU,
		OrderCount:  p.OrderCount,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func fromModels(rows []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name        string          `json:"name" validate:"required"`
	Description *string         `json:"description,omitempty"`
	Images      []string        `json:"images,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category" validate:"required"`
	Stock       *int            `json:"stock,omitempty" validate:"omitempty,min=0"`
	SKU         *string         `json:"sku,omitempty"`
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Images      *[]string        `json:"images,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Stock       *int             `json:"stock,omitempty" validate:"omitempty,min=0"`
	SKU         *string          `json:"sku,omitempty"`
}

// ProductListResult is one page of the browse endpoint.
type ProductListResult struct {
	Products []ProductDTO
	Total    int64
	Page     int
	Limit    int
}
