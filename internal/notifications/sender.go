package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// Message kinds; used as the metrics label and the Pub/Sub "kind" attribute.
const (
	KindOrderConfirmation = "order_confirmation"
	KindDeliveryNotice    = "delivery_notice"
	KindWelcome           = "welcome"
	KindPasswordReset     = "password_reset"
)

// Message is one plain-text email.
type Message struct {
	Kind           string `json:"kind"`
	RecipientEmail string `json:"recipient_email"`
	Subject        string `json:"subject"`
	Body           string `json:"body"`
}

func (m Message) validate() error {
	if strings.TrimSpace(m.RecipientEmail) == "" {
		return fmt.Errorf("recipient email is required")
	}
	if strings.TrimSpace(m.Subject) == "" {
		return fmt.Errorf("subject is required")
	}
	return nil
}

// Sender delivers a message through some transport.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the log and reports success. Dev only.
type LogSender struct {
	logg *logger.Logger
}

func NewLogSender(logg *logger.Logger) *LogSender {
	return &LogSender{logg: logg}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"kind":    msg.Kind,
			"to":      msg.RecipientEmail,
			"subject": msg.Subject,
		})
		s.logg.Info(ctx, "notification logged (log driver)")
	}
	return nil
}

// NewSender builds the sender for the configured driver. The pubsub driver
// needs a publisher; the others ignore it.
func NewSender(cfg config.NotificationsConfig, publisher Publisher, logg *logger.Logger) (Sender, error) {
	switch cfg.NormalizedDriver() {
	case config.NotificationDriverSMTP:
		return NewSMTPSender(cfg)
	case config.NotificationDriverPubSub:
		return NewPubSubSender(publisher)
	case config.NotificationDriverLog, "":
		return NewLogSender(logg), nil
	default:
		return nil, fmt.Errorf("unsupported notifications driver %q", cfg.Driver)
	}
}
