package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// CartRepository manages the per-user cart row.
type CartRepository struct {
	repo.Base
}

func NewCartRepository(db *gorm.DB) *CartRepository {
	return &CartRepository{Base: repo.NewBase(db)}
}

// Ensure returns the user's cart id, creating the row when missing. Concurrent
// callers converge on the same row through the unique user_id.
func (r *CartRepository) Ensure(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (uuid.UUID, error) {
	conn := r.Conn(ctx, tx)
	record := models.Cart{UserID: userID}
	err := conn.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&record).Error
	if err != nil {
		return uuid.Nil, err
	}

	var found models.Cart
	if err := conn.Select("id").Where("user_id = ?", userID).First(&found).Error; err != nil {
		return uuid.Nil, err
	}
	return found.ID, nil
}

// FindByUser loads the cart with items and their products.
func (r *CartRepository) FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var record models.Cart
	err := r.DB(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Items.Product").
		Where("user_id = ?", userID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}
