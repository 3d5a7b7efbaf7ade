package wishlist

import (
	"time"

	"github.com/google/uuid"

	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// ItemRequest is the body of the add and remove endpoints.
type ItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
}

// WishlistItemDTO is a saved product plus when it was saved.
type WishlistItemDTO struct {
	Product product.ProductDTO `json:"product"`
	AddedAt time.Time          `json:"added_at"`
}

// WishlistDTO is the user's full wishlist.
type WishlistDTO struct {
	UserID uuid.UUID         `json:"user_id"`
	Items  []WishlistItemDTO `json:"items"`
}

func toDTO(userID uuid.UUID, rows []models.WishlistItem) *WishlistDTO {
	items := make([]WishlistItemDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, WishlistItemDTO{
			Product: product.FromModel(row.Product),
			AddedAt: row.CreatedAt,
		})
	}
	return &WishlistDTO{UserID: userID, Items: items}
}
