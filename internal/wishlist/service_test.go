package wishlist

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func newWishlist(t *testing.T) (Service, *product.Repository) {
	t.Helper()
	conn := dbtest.Open(t)
	products := product.NewRepository(conn)
	svc, err := NewService(NewRepository(conn), products)
	require.NoError(t, err)
	return svc, products
}

func seed(t *testing.T, repo *product.Repository, name string) uuid.UUID {
	t.Helper()
	p, err := repo.Create(context.Background(), &models.Product{Name: name, Category: "kitchen", Price: decimal.NewFromInt(5)})
	require.NoError(t, err)
	return p.ID
}

func TestAddIsIdempotent(t *testing.T) {
	svc, products := newWishlist(t)
	ctx := context.Background()
	userID := uuid.New()
	mug := seed(t, products, "Mug")

	_, err := svc.Add(ctx, userID, mug)
	require.NoError(t, err)
	out, err := svc.Add(ctx, userID, mug)
	require.NoError(t, err)

	require.Len(t, out.Items, 1)
	assert.Equal(t, mug, out.Items[0].Product.ID)
	assert.Equal(t, "Mug", out.Items[0].Product.Name)
}

func TestAddUnknownProduct(t *testing.T) {
	svc, _ := newWishlist(t)
	_, err := svc.Add(context.Background(), uuid.New(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.Add(context.Background(), uuid.New(), uuid.Nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestRemoveAndIsolation(t *testing.T) {
	svc, products := newWishlist(t)
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()
	mug := seed(t, products, "Mug")
	plate := seed(t, products, "Plate")

	_, err := svc.Add(ctx, alice, mug)
	require.NoError(t, err)
	_, err = svc.Add(ctx, alice, plate)
	require.NoError(t, err)
	_, err = svc.Add(ctx, bob, mug)
	require.NoError(t, err)

	out, err := svc.Remove(ctx, alice, mug)
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, plate, out.Items[0].Product.ID)

	// removing something absent is fine
	_, err = svc.Remove(ctx, alice, mug)
	require.NoError(t, err)

	other, err := svc.Get(ctx, bob)
	require.NoError(t, err)
	assert.Len(t, other.Items, 1)
}

func TestGetSkipsDeletedProducts(t *testing.T) {
	svc, products := newWishlist(t)
	ctx := context.Background()
	userID := uuid.New()
	mug := seed(t, products, "Mug")
	_, err := svc.Add(ctx, userID, mug)
	require.NoError(t, err)

	found, err := products.Delete(ctx, mug)
	require.NoError(t, err)
	require.True(t, found)

	out, err := svc.Get(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, out.Items)
}
