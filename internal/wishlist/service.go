package wishlist

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type productLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service exposes wishlist operations. Add and Remove return the updated list.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*WishlistDTO, error)
	Add(ctx context.Context, userID, productID uuid.UUID) (*WishlistDTO, error)
	Remove(ctx context.Context, userID, productID uuid.UUID) (*WishlistDTO, error)
}

type service struct {
	repo     *Repository
	products productLookup
}

// NewService builds a wishlist service backed by the provided repository.
func NewService(repo *Repository, products productLookup) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wishlist repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product lookup required")
	}
	return &service{repo: repo, products: products}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*WishlistDTO, error) {
	rows, err := s.repo.ListItems(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wishlist")
	}
	return toDTO(userID, rows), nil
}

func (s *service) Add(ctx context.Context, userID, productID uuid.UUID) (*WishlistDTO, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if err := s.repo.AddItem(ctx, userID, productID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add wishlist item")
	}
	return s.Get(ctx, userID)
}

func (s *service) Remove(ctx context.Context, userID, productID uuid.UUID) (*WishlistDTO, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}
	if err := s.repo.RemoveItem(ctx, userID, productID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove wishlist item")
	}
	return s.Get(ctx, userID)
}
