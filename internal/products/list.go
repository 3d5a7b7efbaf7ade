package product

import (
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// ListProductsInput captures the inputs needed to paginate/filter the catalog.
type ListProductsInput struct {
	Category   string
	Pagination pagination.Params
}
