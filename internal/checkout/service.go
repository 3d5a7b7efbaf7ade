package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/internal/coupons"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

const (
	stepConsumeCoupon       = "consume_coupon"
	stepIncrementOrderCount = "increment_order_count"
	stepClearCart           = "clear_cart"
	stepSendConfirmation    = "send_confirmation"
)

type orderCreator interface {
	Create(ctx context.Context, input orders.CreateOrderInput) (*models.Order, error)
}

type catalog interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
	BulkIncrementOrderCount(ctx context.Context, deltas []product.OrderCountDelta) error
}

type couponEngine interface {
	Validate(ctx context.Context, code string, cartTotal decimal.Decimal) (*coupons.Quote, error)
	Consume(ctx context.Context, code string) error
}

type cartClearer interface {
	Clear(ctx context.Context, userID uuid.UUID) error
}

type confirmationSender interface {
	OrderConfirmed(ctx context.Context, order *models.Order) error
}

// Service turns a checkout request into a committed order.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error)
}

type ServiceParams struct {
	Orders   orderCreator
	Catalog  catalog
	Coupons  couponEngine
	Carts    cartClearer
	Notifier confirmationSender
	Metrics  *metrics.CheckoutMetrics
	Logger   *logger.Logger
	Now      func() time.Time
}

type service struct {
	orders   orderCreator
	catalog  catalog
	coupons  couponEngine
	carts    cartClearer
	notifier confirmationSender
	metrics  *metrics.CheckoutMetrics
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds the checkout service. Coupons and Notifier are optional.
func NewService(p ServiceParams) (Service, error) {
	if p.Orders == nil {
		return nil, fmt.Errorf("order ledger required")
	}
	if p.Catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	if p.Carts == nil {
		return nil, fmt.Errorf("cart store required")
	}
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		orders:   p.Orders,
		catalog:  p.Catalog,
		coupons:  p.Coupons,
		carts:    p.Carts,
		notifier: p.Notifier,
		metrics:  p.Metrics,
		logg:     logg,
		now:      now,
	}, nil
}

// PlaceOrder validates the request, creates the order and then runs the
// post-commit steps. Once the order exists the call succeeds; step failures
// are logged and counted, never returned.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error) {
	started := s.now()
	ctx = s.logg.WithUserID(ctx, input.UserID.String())

	order, applied, err := s.commit(ctx, input)
	if err != nil {
		s.metrics.ObserveCheckout(metrics.OutcomeFailure, s.now().Sub(started))
		return nil, err
	}
	s.metrics.IncOrderPlaced(string(order.PaymentMethod))

	// The order is committed; a client disconnect must not abort the follow-up steps.
	ctx = s.logg.WithOrderID(context.WithoutCancel(ctx), order.ID.String())
	if err := s.afterCommit(ctx, input.UserID, order, applied); err != nil {
		s.logg.Error(ctx, "checkout post-commit steps failed", err)
	}
	s.logg.Info(ctx, "order placed")
	s.metrics.ObserveCheckout(metrics.OutcomeSuccess, s.now().Sub(started))
	return order, nil
}

func (s *service) commit(ctx context.Context, input PlaceOrderInput) (*models.Order, *orders.AppliedCoupon, error) {
	if len(input.Items) == 0 {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if !input.ShippingAddress.HasStreet() {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address required")
	}

	items := make([]orders.ItemInput, 0, len(input.Items))
	subtotal := decimal.Zero
	for _, item := range input.Items {
		items = append(items, orders.ItemInput{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.Price,
		})
		subtotal = subtotal.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	s.warnOnPriceDrift(ctx, input.Items)

	var applied *orders.AppliedCoupon
	if input.CouponCode != nil && strings.TrimSpace(*input.CouponCode) != "" {
		if s.coupons == nil {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "coupons are not available")
		}
		quote, err := s.coupons.Validate(ctx, *input.CouponCode, subtotal)
		if err != nil {
			return nil, nil, err
		}
		applied = &orders.AppliedCoupon{Code: quote.Code, Discount: quote.Discount}
	}

	order, err := s.orders.Create(ctx, orders.CreateOrderInput{
		UserID:          input.UserID,
		Items:           items,
		ShippingAddress: *input.ShippingAddress,
		PaymentMethod:   input.PaymentMethod,
		Coupon:          applied,
	})
	if err != nil {
		return nil, nil, err
	}
	return order, applied, nil
}

// warnOnPriceDrift logs items whose submitted price no longer matches the
// catalog. The submitted price is still what the order records.
func (s *service) warnOnPriceDrift(ctx context.Context, items []LineItem) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	current, err := s.catalog.FindByIDs(ctx, ids)
	if err != nil {
		return
	}
	for _, item := range items {
		p, ok := current[item.ProductID]
		if !ok || p.Price.Equal(item.Price) {
			continue
		}
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"product_id":      item.ProductID.String(),
			"submitted_price": item.Price.StringFixed(2),
			"catalog_price":   p.Price.StringFixed(2),
		}), "checkout price differs from catalog")
	}
}

type postCommitStep struct {
	name string
	run  func(ctx context.Context) error
}

func (s *service) afterCommit(ctx context.Context, userID uuid.UUID, order *models.Order, applied *orders.AppliedCoupon) error {
	steps := make([]postCommitStep, 0, 4)
	if applied != nil && s.coupons != nil {
		steps = append(steps, postCommitStep{stepConsumeCoupon, func(ctx context.Context) error {
			return s.coupons.Consume(ctx, applied.Code)
		}})
	}
	steps = append(steps,
		postCommitStep{stepIncrementOrderCount, func(ctx context.Context) error {
			return s.catalog.BulkIncrementOrderCount(ctx, orderCountDeltas(order.Items))
		}},
		postCommitStep{stepClearCart, func(ctx context.Context) error {
			return s.carts.Clear(ctx, userID)
		}},
	)
	if s.notifier != nil {
		steps = append(steps, postCommitStep{stepSendConfirmation, func(ctx context.Context) error {
			return s.notifier.OrderConfirmed(ctx, order)
		}})
	}

	var errs error
	for _, step := range steps {
		err := step.run(ctx)
		s.metrics.ObserveStep(step.name, err)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", step.name, err))
		}
	}
	return errs
}

// orderCountDeltas sums quantities per product, keeping first-seen order.
func orderCountDeltas(items []models.OrderItem) []product.OrderCountDelta {
	index := map[uuid.UUID]int{}
	deltas := make([]product.OrderCountDelta, 0, len(items))
	for _, item := range items {
		if i, ok := index[item.ProductID]; ok {
			deltas[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(deltas)
		deltas = append(deltas, product.OrderCountDelta{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return deltas
}
