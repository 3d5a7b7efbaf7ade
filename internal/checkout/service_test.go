package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/coupons"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type recordingConfirmer struct {
	orders []uuid.UUID
	err    error
}

func (r *recordingConfirmer) OrderConfirmed(_ context.Context, order *models.Order) error {
	r.orders = append(r.orders, order.ID)
	return r.err
}

// brokenCatalog fails every call; lookups and counter bumps are both best effort.
type brokenCatalog struct{}

func (brokenCatalog) FindByIDs(context.Context, []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	return nil, errors.New("catalog offline")
}

func (brokenCatalog) BulkIncrementOrderCount(context.Context, []product.OrderCountDelta) error {
	return errors.New("catalog offline")
}

type checkoutFixture struct {
	svc      Service
	conn     *gorm.DB
	products *product.Repository
	carts    cart.Service
	notifier *recordingConfirmer
	registry *prometheus.Registry
}

type fixtureOption func(*ServiceParams)

func newCheckoutFixture(t *testing.T, opts ...fixtureOption) *checkoutFixture {
	t.Helper()
	client := dbtest.Client(t)
	conn := client.DB()

	products := product.NewRepository(conn)
	ledger, err := orders.NewService(orders.ServiceParams{Repo: orders.NewRepository(conn), Tx: client})
	require.NoError(t, err)
	couponSvc, err := coupons.NewService(coupons.NewRepository(conn), nil)
	require.NoError(t, err)
	cartSvc, err := cart.NewService(cart.ServiceParams{
		Carts:    cart.NewCartRepository(conn),
		Items:    cart.NewCartItemRepository(conn),
		Tx:       client,
		Products: products,
	})
	require.NoError(t, err)

	f := &checkoutFixture{
		conn:     conn,
		products: products,
		carts:    cartSvc,
		notifier: &recordingConfirmer{},
		registry: prometheus.NewRegistry(),
	}
	params := ServiceParams{
		Orders:   ledger,
		Catalog:  products,
		Coupons:  couponSvc,
		Carts:    cartSvc,
		Notifier: f.notifier,
		Metrics:  metrics.NewCheckoutMetrics(f.registry),
	}
	for _, opt := range opts {
		opt(&params)
	}
	f.svc, err = NewService(params)
	require.NoError(t, err)
	return f
}

func (f *checkoutFixture) seedProduct(t *testing.T, name, price string) models.Product {
	t.Helper()
	p, err := f.products.Create(context.Background(), &models.Product{
		Name:     name,
		Category: "kitchen",
		Price:    decimal.RequireFromString(price),
	})
	require.NoError(t, err)
	return *p
}

func (f *checkoutFixture) orderCount(t *testing.T, id uuid.UUID) int64 {
	t.Helper()
	p, err := f.products.FindByID(context.Background(), id)
	require.NoError(t, err)
	return p.OrderCount
}

func (f *checkoutFixture) countOrders(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.conn.Model(&models.Order{}).Count(&n).Error)
	return n
}

func (f *checkoutFixture) stepCount(t *testing.T, step, outcome string) float64 {
	t.Helper()
	mfs, err := f.registry.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != "checkout_post_commit_steps_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["step"] == step && labels["outcome"] == outcome {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func mugCheckout(userID uuid.UUID, mug models.Product) PlaceOrderInput {
	return PlaceOrderInput{
		UserID:          userID,
		Items:           []LineItem{{ProductID: mug.ID, Name: "Mug", Quantity: 2, Price: decimal.NewFromInt(10)}},
		PaymentMethod:   enums.PaymentMethodCashOnDelivery,
		ShippingAddress: &types.Address{Street: "1 Main St"},
	}
}

func TestPlaceOrderCommitsAndRunsPostCommitSteps(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	mug := f.seedProduct(t, "Mug", "10")

	_, err := f.carts.AddItems(ctx, userID, []cart.AddItemInput{{ProductID: mug.ID, Quantity: 2}})
	require.NoError(t, err)

	order, err := f.svc.PlaceOrder(ctx, mugCheckout(userID, mug))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(20).Equal(order.TotalAmount))
	assert.Equal(t, enums.OrderStatusPending, order.Status)

	assert.Equal(t, int64(2), f.orderCount(t, mug.ID))
	cleared, err := f.carts.Get(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, cleared.Items)
	assert.Equal(t, []uuid.UUID{order.ID}, f.notifier.orders)

	for _, step := range []string{stepIncrementOrderCount, stepClearCart, stepSendConfirmation} {
		assert.Equal(t, 1.0, f.stepCount(t, step, metrics.OutcomeSuccess), step)
	}
	assert.Zero(t, f.stepCount(t, stepConsumeCoupon, metrics.OutcomeSuccess))
}

// cancelAfterCreate simulates a client that hangs up once the order commits.
type cancelAfterCreate struct {
	next   orderCreator
	cancel context.CancelFunc
}

func (c cancelAfterCreate) Create(ctx context.Context, input orders.CreateOrderInput) (*models.Order, error) {
	order, err := c.next.Create(ctx, input)
	c.cancel()
	return order, err
}

func TestPlaceOrderPostCommitSurvivesCancelledRequest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newCheckoutFixture(t, func(p *ServiceParams) {
		p.Orders = cancelAfterCreate{next: p.Orders, cancel: cancel}
	})
	userID := uuid.New()
	mug := f.seedProduct(t, "Mug", "10")

	_, err := f.carts.AddItems(context.Background(), userID, []cart.AddItemInput{{ProductID: mug.ID, Quantity: 1}})
	require.NoError(t, err)

	order, err := f.svc.PlaceOrder(ctx, mugCheckout(userID, mug))
	require.NoError(t, err)
	require.Error(t, ctx.Err())

	assert.Equal(t, int64(2), f.orderCount(t, mug.ID))
	cleared, err := f.carts.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, cleared.Items)
	assert.Equal(t, []uuid.UUID{order.ID}, f.notifier.orders)
	for _, step := range []string{stepIncrementOrderCount, stepClearCart, stepSendConfirmation} {
		assert.Equal(t, 1.0, f.stepCount(t, step, metrics.OutcomeSuccess), step)
	}
}

func TestPlaceOrderSumsDuplicateProducts(t *testing.T) {
	f := newCheckoutFixture(t)
	mug := f.seedProduct(t, "Mug", "10")
	in := mugCheckout(uuid.New(), mug)
	in.Items = append(in.Items, LineItem{ProductID: mug.ID, Name: "Mug", Quantity: 3, Price: decimal.NewFromInt(10)})

	order, err := f.svc.PlaceOrder(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(50).Equal(order.TotalAmount))
	assert.Equal(t, int64(5), f.orderCount(t, mug.ID))
}

func TestPlaceOrderRejectsEmptyCart(t *testing.T) {
	f := newCheckoutFixture(t)
	in := mugCheckout(uuid.New(), models.Product{ID: uuid.New()})
	in.Items = nil

	_, err := f.svc.PlaceOrder(context.Background(), in)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Contains(t, pkgerrors.As(err).Message(), "cart is empty")
	assert.Zero(t, f.countOrders(t))
	assert.Empty(t, f.notifier.orders)
}

func TestPlaceOrderRequiresStreet(t *testing.T) {
	f := newCheckoutFixture(t)
	mug := f.seedProduct(t, "Mug", "10")

	for name, addr := range map[string]*types.Address{
		"missing": nil,
		"blank":   {Street: "   ", City: "Springfield"},
	} {
		t.Run(name, func(t *testing.T) {
			in := mugCheckout(uuid.New(), mug)
			in.ShippingAddress = addr
			_, err := f.svc.PlaceOrder(context.Background(), in)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
		})
	}
	assert.Zero(t, f.countOrders(t))
	assert.Zero(t, f.orderCount(t, mug.ID))
}

func TestPlaceOrderLedgerFailureHasNoSideEffects(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	mug := f.seedProduct(t, "Mug", "10")
	_, err := f.carts.AddItems(ctx, userID, []cart.AddItemInput{{ProductID: mug.ID, Quantity: 1}})
	require.NoError(t, err)

	in := mugCheckout(userID, mug)
	in.PaymentMethod = "Crypto"
	_, err = f.svc.PlaceOrder(ctx, in)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	assert.Zero(t, f.countOrders(t))
	assert.Zero(t, f.orderCount(t, mug.ID))
	current, err := f.carts.Get(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, current.Items, 1)
	assert.Empty(t, f.notifier.orders)
}

func TestPlaceOrderTrustsSubmittedPrice(t *testing.T) {
	f := newCheckoutFixture(t)
	mug := f.seedProduct(t, "Mug", "12.50")

	order, err := f.svc.PlaceOrder(context.Background(), mugCheckout(uuid.New(), mug))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(20).Equal(order.TotalAmount))
	assert.True(t, decimal.NewFromInt(10).Equal(order.Items[0].UnitPrice))
}

func TestPlaceOrderAppliesAndConsumesCoupon(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	mug := f.seedProduct(t, "Mug", "50")
	require.NoError(t, f.conn.Create(&models.Coupon{
		Code:          "SAVE10",
		DiscountType:  enums.DiscountTypePercentage,
		DiscountValue: decimal.NewFromInt(10),
		ExpiresAt:     time.Now().Add(24 * time.Hour),
		UsageLimit:    1,
		IsActive:      true,
	}).Error)

	in := mugCheckout(uuid.New(), mug)
	in.Items[0].Price = decimal.NewFromInt(50)
	code := "save10"
	in.CouponCode = &code

	order, err := f.svc.PlaceOrder(ctx, in)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(order.TotalAmount))
	assert.True(t, decimal.NewFromInt(10).Equal(order.DiscountAmount))
	assert.True(t, decimal.NewFromInt(90).Equal(order.PayableAmount))

	var stored models.Coupon
	require.NoError(t, f.conn.First(&stored, "code = ?", "SAVE10").Error)
	assert.Equal(t, 1, stored.UsedCount)
	assert.Equal(t, 1.0, f.stepCount(t, stepConsumeCoupon, metrics.OutcomeSuccess))

	_, err = f.svc.PlaceOrder(ctx, in)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeLimitReached))
	assert.Equal(t, int64(1), f.countOrders(t))
}

func TestPlaceOrderRejectsUnknownCoupon(t *testing.T) {
	f := newCheckoutFixture(t)
	mug := f.seedProduct(t, "Mug", "10")
	in := mugCheckout(uuid.New(), mug)
	code := "NOPE"
	in.CouponCode = &code

	_, err := f.svc.PlaceOrder(context.Background(), in)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Zero(t, f.countOrders(t))
}

func TestPlaceOrderSwallowsPostCommitFailures(t *testing.T) {
	f := newCheckoutFixture(t, func(p *ServiceParams) { p.Catalog = brokenCatalog{} })
	f.notifier.err = errors.New("smtp down")
	mug := f.seedProduct(t, "Mug", "10")

	order, err := f.svc.PlaceOrder(context.Background(), mugCheckout(uuid.New(), mug))
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, int64(1), f.countOrders(t))

	assert.Equal(t, 1.0, f.stepCount(t, stepIncrementOrderCount, metrics.OutcomeFailure))
	assert.Equal(t, 1.0, f.stepCount(t, stepSendConfirmation, metrics.OutcomeFailure))
	assert.Equal(t, 1.0, f.stepCount(t, stepClearCart, metrics.OutcomeSuccess))
}

func TestOrderCountDeltasKeepsFirstSeenOrder(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	deltas := orderCountDeltas([]models.OrderItem{
		{ProductID: a, Quantity: 1},
		{ProductID: b, Quantity: 2},
		{ProductID: a, Quantity: 4},
	})
	assert.Equal(t, []product.OrderCountDelta{{ProductID: a, Quantity: 5}, {ProductID: b, Quantity: 2}}, deltas)
}

func TestNewServiceRequiresCollaborators(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.Error(t, err)
}
