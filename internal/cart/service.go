package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

// Service exposes cart persistence operations. Carts are always keyed by the
// authenticated user.
type Service interface {
	AddItems(ctx context.Context, userID uuid.UUID, items []AddItemInput) (*CartDTO, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*CartDTO, error)
	Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type ServiceParams struct {
	Carts    *CartRepository
	Items    *CartItemRepository
	Tx       txRunner
	Products productLoader
	Logger   *logger.Logger
}

type service struct {
	carts    *CartRepository
	items    *CartItemRepository
	tx       txRunner
	products productLoader
	logg     *logger.Logger
}

func NewService(p ServiceParams) (Service, error) {
	if p.Carts == nil || p.Items == nil {
		return nil, fmt.Errorf("cart repositories required")
	}
	if p.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if p.Products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{carts: p.Carts, items: p.Items, tx: p.Tx, products: p.Products, logg: logg}, nil
}

// AddItems upserts every line. Products missing from the catalog are skipped.
func (s *service) AddItems(ctx context.Context, userID uuid.UUID, items []AddItemInput) (*CartDTO, error) {
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "items are required")
	}
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if item.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
		}
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
		}
		ids = append(ids, item.ProductID)
	}

	known, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartID, err := s.carts.Ensure(ctx, tx, userID)
		if err != nil {
			return err
		}
		for _, item := range items {
			if _, ok := known[item.ProductID]; !ok {
				s.logg.Warn(s.logg.WithField(ctx, "product_id", item.ProductID.String()), "skipping unknown product")
				continue
			}
			if err := s.items.Upsert(ctx, tx, cartID, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart items")
	}
	return s.Get(ctx, userID)
}

func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*CartDTO, error) {
	removed, err := s.items.RemoveForUser(ctx, userID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	if !removed {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found in cart")
	}
	return s.Get(ctx, userID)
}

// Get returns the cart, or an empty one if the user never added anything.
func (s *service) Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	record, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return emptyCart(userID), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return fromModel(record), nil
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.items.ClearForUser(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}
