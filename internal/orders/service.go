package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// Service is the order ledger. Orders are immutable except for status.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	Get(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) (*OrderDTO, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*UserOrderList, error)
	ListAll(ctx context.Context, params pagination.Params) (*AdminOrderList, error)
	Delete(ctx context.Context, orderID uuid.UUID) error
}

type ServiceParams struct {
	Repo     Repository
	Tx       txRunner
	Products productLookup
	Notifier DeliveryNotifier
	Logger   *logger.Logger
}

type service struct {
	repo     Repository
	tx       txRunner
	products productLookup
	notifier DeliveryNotifier
	logg     *logger.Logger
}

// NewService builds the ledger. Products and Notifier are optional.
func NewService(p ServiceParams) (Service, error) {
	if p.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if p.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:     p.Repo,
		tx:       p.Tx,
		products: p.Products,
		notifier: p.Notifier,
		logg:     logg,
	}, nil
}

// Create validates the snapshot, computes the total and persists the order
// and its items atomically.
func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	total := decimal.Zero
	items := make([]models.OrderItem, 0, len(input.Items))
	for i, in := range input.Items {
		item := models.OrderItem{
			ProductID: in.ProductID,
			Position:  i,
			Name:      strings.TrimSpace(in.Name),
			Quantity:  in.Quantity,
			UnitPrice: in.UnitPrice,
		}
		total = total.Add(item.LineTotal())
		items = append(items, item)
	}

	discount := decimal.Zero
	var couponCode *string
	if input.Coupon != nil {
		discount = input.Coupon.Discount
		if discount.IsNegative() || discount.GreaterThan(total) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount must be between 0 and the order total")
		}
		code := input.Coupon.Code
		couponCode = &code
	}

	order := &models.Order{
		UserID:          input.UserID,
		ShippingAddress: input.ShippingAddress.Normalized(),
		PaymentMethod:   input.PaymentMethod,
		TotalAmount:     total,
		DiscountAmount:  discount,
		PayableAmount:   total.Sub(discount),
		CouponCode:      couponCode,
		Status:          enums.OrderStatusPending,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateOrder(ctx, order); err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		return repo.CreateOrderItems(ctx, items)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}
	order.Items = items
	return order, nil
}

func validateCreate(input CreateOrderInput) error {
	if input.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	if !input.ShippingAddress.HasStreet() {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping address street is required")
	}
	if !input.PaymentMethod.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "payment method must be %q or %q",
			enums.PaymentMethodCashOnDelivery, enums.PaymentMethodBank)
	}
	for i, item := range input.Items {
		switch {
		case item.ProductID == uuid.Nil:
			return pkgerrors.Newf(pkgerrors.CodeValidation, "items[%d]: product_id is required", i)
		case strings.TrimSpace(item.Name) == "":
			return pkgerrors.Newf(pkgerrors.CodeValidation, "items[%d]: name is required", i)
		case item.Quantity < 1:
			return pkgerrors.Newf(pkgerrors.CodeValidation, "items[%d]: quantity must be at least 1", i)
		case item.UnitPrice.IsNegative():
			return pkgerrors.Newf(pkgerrors.CodeValidation, "items[%d]: unit price must be non-negative", i)
		}
	}
	return nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	dto := FromModel(order)
	return &dto, nil
}

// UpdateStatus moves the order forward along Pending -> Shipped -> Delivered.
// Reaching Delivered sends one best-effort notice.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) (*OrderDTO, error) {
	next, err := enums.ParseOrderStatus(strings.TrimSpace(status))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status")
	}

	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == next {
		dto := FromModel(order)
		return &dto, nil
	}
	if !order.Status.CanTransitionTo(next) {
		return nil, pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot move order from %s to %s", order.Status, next).
			WithDetails(map[string]any{"current_status": order.Status, "requested_status": next})
	}

	moved, err := s.repo.UpdateStatus(ctx, order.ID, order.Status, next)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	if !moved {
		// Lost a race with another status change; report the winner's state.
		return s.UpdateStatus(ctx, orderID, status)
	}

	order, err = s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if next == enums.OrderStatusDelivered {
		s.notifyDelivered(ctx, order)
	}
	dto := FromModel(order)
	return &dto, nil
}

func (s *service) notifyDelivered(ctx context.Context, order *models.Order) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.OrderDelivered(ctx, order); err != nil {
		s.logg.Error(s.logg.WithOrderID(ctx, order.ID.String()), "delivery notification failed", err)
	}
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*UserOrderList, error) {
	params = params.Normalize()
	rows, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list user orders")
	}
	return &UserOrderList{Orders: s.enrich(ctx, rows), Page: params.Page, Limit: params.Limit}, nil
}

func (s *service) ListAll(ctx context.Context, params pagination.Params) (*AdminOrderList, error) {
	params = params.Normalize()
	rows, total, err := s.repo.ListAll(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return &AdminOrderList{Orders: out, Total: total, Page: params.Page, Limit: params.Limit}, nil
}

func (s *service) Delete(ctx context.Context, orderID uuid.UUID) error {
	found, err := s.repo.Delete(ctx, orderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return nil
}

// enrich attaches current catalog name and image without touching the
// stored snapshot. Lookup failures leave the fields empty.
func (s *service) enrich(ctx context.Context, rows []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	if s.products == nil || len(rows) == 0 {
		return out
	}

	seen := map[uuid.UUID]struct{}{}
	ids := []uuid.UUID{}
	for _, o := range rows {
		for _, item := range o.Items {
			if _, ok := seen[item.ProductID]; !ok {
				seen[item.ProductID] = struct{}{}
				ids = append(ids, item.ProductID)
			}
		}
	}
	catalog, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		s.logg.Warn(ctx, "order item enrichment skipped: "+err.Error())
		return out
	}
	for i := range out {
		for j := range out[i].Items {
			if p, ok := catalog[out[i].Items[j].ProductID]; ok {
				out[i].Items[j].DisplayName = p.Name
				out[i].Items[j].Image = p.PrimaryImage()
			}
		}
	}
	return out
}

func (s *service) load(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}
