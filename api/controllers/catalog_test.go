package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/internal/coupons"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/wishlist"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

type stubProducts struct {
	list     *product.ProductListResult
	top      []product.ProductDTO
	err      error
	input    product.ListProductsInput
	topLimit int
}

func (s *stubProducts) CreateProduct(ctx context.Context, input product.CreateProductInput) (*product.ProductDTO, error) {
	return &product.ProductDTO{ID: uuid.New(), Name: input.Name, Price: input.Price}, s.err
}

func (s *stubProducts) UpdateProduct(ctx context.Context, id uuid.UUID, input product.UpdateProductInput) (*product.ProductDTO, error) {
	return &product.ProductDTO{ID: id}, s.err
}

func (s *stubProducts) DeleteProduct(ctx context.Context, id uuid.UUID) error { return s.err }

func (s *stubProducts) GetProduct(ctx context.Context, id uuid.UUID) (*product.ProductDTO, error) {
	return &product.ProductDTO{ID: id}, s.err
}

func (s *stubProducts) ListProducts(ctx context.Context, input product.ListProductsInput) (*product.ProductListResult, error) {
	s.input = input
	return s.list, s.err
}

func (s *stubProducts) TopSelling(ctx context.Context, limit int) ([]product.ProductDTO, error) {
	s.topLimit = limit
	return s.top, s.err
}

func TestListProductsFiltersAndPages(t *testing.T) {
	svc := &stubProducts{list: &product.ProductListResult{
		Products: []product.ProductDTO{{ID: uuid.New(), Name: "Mug"}},
		Total:    11,
		Page:     2,
		Limit:    1,
	}}

	resp := httptest.NewRecorder()
	ListProducts(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/products?category=kitchen&page=2&limit=1", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "kitchen", svc.input.Category)
	require.Equal(t, pagination.Params{Page: 2, Limit: 1}, svc.input.Pagination)

	var envelope struct {
		Page  int                  `json:"page"`
		Limit int                  `json:"limit"`
		Count int64                `json:"count"`
		Data  []product.ProductDTO `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.Equal(t, 2, envelope.Page)
	require.EqualValues(t, 11, envelope.Count)
	require.Len(t, envelope.Data, 1)
}

func TestTopSellingLimit(t *testing.T) {
	svc := &stubProducts{top: []product.ProductDTO{}}

	resp := httptest.NewRecorder()
	TopSellingProducts(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/orders/top-selling", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, defaultTopSellingLimit, svc.topLimit)

	resp = httptest.NewRecorder()
	TopSellingProducts(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/orders/top-selling?limit=0", nil))
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestAdminCreateProduct(t *testing.T) {
	resp := httptest.NewRecorder()
	body := `{"name":"Mug","price":"12.50","category":"kitchen"}`
	AdminCreateProduct(&stubProducts{}, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, resp.Code)
	var envelope struct {
		Data product.ProductDTO `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.Equal(t, "Mug", envelope.Data.Name)
	require.True(t, decimal.RequireFromString("12.50").Equal(envelope.Data.Price))
}

func TestGetProductNotFound(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/products/{id}", GetProduct(&stubProducts{err: pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")}, nil))

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/products/"+uuid.NewString(), nil))
	require.Equal(t, http.StatusNotFound, resp.Code)
	require.Contains(t, resp.Body.String(), "Product not found")
}

type stubCoupons struct {
	coupons.Service
	quote *coupons.Quote
	err   error
	total decimal.Decimal
}

func (s *stubCoupons) Validate(ctx context.Context, code string, cartTotal decimal.Decimal) (*coupons.Quote, error) {
	s.total = cartTotal
	return s.quote, s.err
}

func TestValidateCoupon(t *testing.T) {
	svc := &stubCoupons{quote: &coupons.Quote{Code: "SAVE10", Discount: decimal.NewFromInt(10), NewTotal: decimal.NewFromInt(90)}}

	resp := httptest.NewRecorder()
	ValidateCoupon(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/coupons/validate", strings.NewReader(`{"code":"SAVE10","cart_total":100}`)))

	require.Equal(t, http.StatusOK, resp.Code)
	require.True(t, decimal.NewFromInt(100).Equal(svc.total))

	var envelope struct {
		Data coupons.Quote `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.True(t, decimal.NewFromInt(90).Equal(envelope.Data.NewTotal))
}

func TestValidateCouponExpired(t *testing.T) {
	svc := &stubCoupons{err: pkgerrors.New(pkgerrors.CodeExpired, "coupon has expired")}
	resp := httptest.NewRecorder()
	ValidateCoupon(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/coupons/validate", strings.NewReader(`{"code":"OLD","cart_total":"50"}`)))

	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Contains(t, resp.Body.String(), string(pkgerrors.CodeExpired))
}

type stubWishlist struct {
	added   uuid.UUID
	removed uuid.UUID
}

func (s *stubWishlist) Get(ctx context.Context, userID uuid.UUID) (*wishlist.WishlistDTO, error) {
	return &wishlist.WishlistDTO{UserID: userID}, nil
}

func (s *stubWishlist) Add(ctx context.Context, userID, productID uuid.UUID) (*wishlist.WishlistDTO, error) {
	s.added = productID
	return &wishlist.WishlistDTO{UserID: userID}, nil
}

func (s *stubWishlist) Remove(ctx context.Context, userID, productID uuid.UUID) (*wishlist.WishlistDTO, error) {
	s.removed = productID
	return &wishlist.WishlistDTO{UserID: userID}, nil
}

func TestWishlistAddAndRemove(t *testing.T) {
	svc := &stubWishlist{}
	productID := uuid.New()
	body := `{"product_id":"` + productID.String() + `"}`

	resp := httptest.NewRecorder()
	WishlistAdd(svc, nil).ServeHTTP(resp, withUser(httptest.NewRequest(http.MethodPost, "/api/v1/wishlist/add", strings.NewReader(body)), uuid.New()))
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, productID, svc.added)

	resp = httptest.NewRecorder()
	WishlistRemove(svc, nil).ServeHTTP(resp, withUser(httptest.NewRequest(http.MethodPost, "/api/v1/wishlist/remove", strings.NewReader(body)), uuid.New()))
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, productID, svc.removed)
}

func TestWishlistAddRequiresProduct(t *testing.T) {
	svc := &stubWishlist{}
	resp := httptest.NewRecorder()
	WishlistAdd(svc, nil).ServeHTTP(resp, withUser(httptest.NewRequest(http.MethodPost, "/api/v1/wishlist/add", strings.NewReader(`{}`)), uuid.New()))
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Equal(t, uuid.Nil, svc.added)
}
