package notifications

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

// UserLookup resolves the recipient for an order.
type UserLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Notifier builds order emails and hands them to a Sender.
type Notifier struct {
	users   UserLookup
	sender  Sender
	driver  string
	metrics *metrics.NotificationMetrics
	logg    *logger.Logger
}

type NotifierParams struct {
	Users   UserLookup
	Sender  Sender
	Driver  string
	Metrics *metrics.NotificationMetrics
	Logger  *logger.Logger
}

func NewNotifier(p NotifierParams) (*Notifier, error) {
	if p.Users == nil {
		return nil, errors.New("user lookup required")
	}
	if p.Sender == nil {
		return nil, errors.New("sender required")
	}
	return &Notifier{
		users:   p.Users,
		sender:  p.Sender,
		driver:  p.Driver,
		metrics: p.Metrics,
		logg:    p.Logger,
	}, nil
}

func (n *Notifier) OrderConfirmed(ctx context.Context, order *models.Order) error {
	return n.notifyOrder(ctx, order, OrderConfirmation)
}

func (n *Notifier) OrderDelivered(ctx context.Context, order *models.Order) error {
	return n.notifyOrder(ctx, order, DeliveryNotice)
}

// Deliver sends a prebuilt message, e.g. welcome or password reset mail.
func (n *Notifier) Deliver(ctx context.Context, msg Message) error {
	err := n.sender.Send(ctx, msg)
	n.metrics.Observe(msg.Kind, n.driver, err)
	return err
}

func (n *Notifier) notifyOrder(ctx context.Context, order *models.Order, build func(*models.Order, *models.User) Message) error {
	if order == nil {
		return errors.New("order required")
	}
	user, err := n.users.FindByID(ctx, order.UserID)
	if err != nil {
		return fmt.Errorf("lookup order owner %s: %w", order.UserID, err)
	}
	msg := build(order, user)
	if err := n.Deliver(ctx, msg); err != nil {
		return err
	}
	if n.logg != nil {
		ctx = n.logg.WithOrderID(ctx, order.ID.String())
		n.logg.Debug(n.logg.WithField(ctx, "kind", msg.Kind), "notification sent")
	}
	return nil
}
