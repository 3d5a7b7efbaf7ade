package banners

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type CreateBannerInput struct {
	Image     string    `json:"image" validate:"required"`
	ProductID uuid.UUID `json:"product_id" validate:"required"`
}

type BannerDTO struct {
	ID        uuid.UUID           `json:"id"`
	Image     string              `json:"image"`
	ProductID uuid.UUID           `json:"product_id"`
	Product   *product.ProductDTO `json:"product,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

func fromModel(b *models.Banner) BannerDTO {
	dto := BannerDTO{ID: b.ID, Image: b.Image, ProductID: b.ProductID, CreatedAt: b.CreatedAt}
	if b.Product != nil {
		p := product.FromModel(b.Product)
		dto.Product = &p
	}
	return dto
}

type productLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service manages homepage banners.
type Service interface {
	List(ctx context.Context) ([]BannerDTO, error)
	Create(ctx context.Context, input CreateBannerInput) (*BannerDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo     *Repository
	products productLookup
}

func NewService(repo *Repository, products productLookup) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("banner repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product lookup required")
	}
	return &service{repo: repo, products: products}, nil
}

func (s *service) List(ctx context.Context) ([]BannerDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list banners")
	}
	out := make([]BannerDTO, 0, len(rows))
	for i := range rows {
		out = append(out, fromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, input CreateBannerInput) (*BannerDTO, error) {
	image := strings.TrimSpace(input.Image)
	if image == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image is required")
	}
	p, err := s.products.FindByID(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	banner := &models.Banner{Image: image, ProductID: p.ID}
	if err := s.repo.Create(ctx, banner); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create banner")
	}
	banner.Product = p
	dto := fromModel(banner)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	found, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete banner")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "Banner not found")
	}
	return nil
}
