package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

const emailConsumer = "notification-email"

// Receiver is satisfied by *pubsub.Subscriber.
type Receiver interface {
	Receive(ctx context.Context, f func(context.Context, *pubsub.Message)) error
}

type claimer interface {
	Claim(ctx context.Context, consumer, messageID string) (bool, error)
	Release(ctx context.Context, consumer, messageID string) error
}

// Consumer drains the notification topic and delivers each message once.
type Consumer struct {
	subscription Receiver
	sender       Sender
	driver       string
	idempotency  claimer
	metrics      *metrics.NotificationMetrics
	logg         *logger.Logger
}

type ConsumerParams struct {
	Subscription Receiver
	Sender       Sender
	Driver       string
	Idempotency  claimer
	Metrics      *metrics.NotificationMetrics
	Logger       *logger.Logger
}

func NewConsumer(p ConsumerParams) (*Consumer, error) {
	if p.Subscription == nil {
		return nil, fmt.Errorf("notification subscription required")
	}
	if p.Sender == nil {
		return nil, fmt.Errorf("sender required")
	}
	if p.Idempotency == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if p.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		subscription: p.Subscription,
		sender:       p.Sender,
		driver:       p.Driver,
		idempotency:  p.Idempotency,
		metrics:      p.Metrics,
		logg:         p.Logger,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"kind":       msg.Attributes["kind"],
	})

	var payload Message
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		c.logg.Error(logCtx, "failed to decode notification", err)
		return processResult{ack: true}
	}
	if err := payload.validate(); err != nil {
		c.logg.Error(logCtx, "invalid notification payload", err)
		return processResult{ack: true}
	}

	claimed, err := c.idempotency.Claim(ctx, emailConsumer, msg.ID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if !claimed {
		c.logg.Info(logCtx, "message already processed")
		return processResult{ack: true}
	}

	err = c.sender.Send(ctx, payload)
	c.metrics.Observe(payload.Kind, c.driver, err)
	if err != nil {
		c.logg.Error(logCtx, "notification delivery failed", err)
		_ = c.idempotency.Release(ctx, emailConsumer, msg.ID)
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, "notification delivered")
	return processResult{ack: true}
}
