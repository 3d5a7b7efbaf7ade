package product

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// OrderCountDelta is the quantity to add to one product's order counter.
type OrderCountDelta struct {
	ProductID uuid.UUID
	Quantity  int
}

// Repository wires together all product-related persistence helpers.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// FindByID loads the product without associations.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs returns the products that exist among ids, keyed by id.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	out := make(map[uuid.UUID]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Product
	if err := r.DB(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.DB(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func (r *Repository) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.DB(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// Delete removes the product and reports whether a row existed.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.DB(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// List pages products newest first, optionally filtered by category.
func (r *Repository) List(ctx context.Context, p pagination.Params, category string) ([]models.Product, int64, error) {
	q := r.DB(ctx).Model(&models.Product{})
	if c := strings.TrimSpace(category); c != "" {
		q = q.Where("category = ?", c)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Product
	if err := q.Order("created_at DESC").Scopes(repo.Paginate(p)).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// TopSelling returns the most ordered products.
func (r *Repository) TopSelling(ctx context.Context, limit int) ([]models.Product, error) {
	var rows []models.Product
	err := r.DB(ctx).
		Order("order_count DESC").
		Order("created_at DESC").
		Limit(pagination.NormalizeLimit(limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// BulkIncrementOrderCount applies every delta in a single transaction. Each
// update is an in-place increment so concurrent checkouts never lose counts.
func (r *Repository) BulkIncrementOrderCount(ctx context.Context, deltas []OrderCountDelta) error {
	if len(deltas) == 0 {
		return nil
	}
	return r.DB(ctx).Transaction(func(tx *gorm.DB) error {
		for _, d := range deltas {
			if d.Quantity <= 0 {
				continue
			}
			err := tx.Model(&models.Product{}).
				Where("id = ?", d.ProductID).
				UpdateColumn("order_count", gorm.Expr("order_count + ?", d.Quantity)).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}
