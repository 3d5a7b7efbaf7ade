package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// CartItemRepository manages persistent cart items.
type CartItemRepository struct {
	repo.Base
}

// NewCartItemRepository binds the repository to the provided DB handle.
func NewCartItemRepository(db *gorm.DB) *CartItemRepository {
	return &CartItemRepository{Base: repo.NewBase(db)}
}

// Upsert inserts the item or overwrites the quantity of an existing line.
func (r *CartItemRepository) Upsert(ctx context.Context, tx *gorm.DB, cartID, productID uuid.UUID, quantity int) error {
	item := models.CartItem{CartID: cartID, ProductID: productID, Quantity: quantity}
	return r.Conn(ctx, tx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
	}).Create(&item).Error
}

// RemoveForUser deletes one product line from the user's cart and reports
// whether a row was removed.
func (r *CartItemRepository) RemoveForUser(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	res := r.DB(ctx).Exec(
		`DELETE FROM cart_items WHERE product_id = ? AND cart_id IN (SELECT id FROM carts WHERE user_id = ?)`,
		productID, userID,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ClearForUser empties the user's cart in one statement. The cart row is kept.
func (r *CartItemRepository) ClearForUser(ctx context.Context, userID uuid.UUID) error {
	return r.DB(ctx).Exec(
		`DELETE FROM cart_items WHERE cart_id IN (SELECT id FROM carts WHERE user_id = ?)`,
		userID,
	).Error
}
