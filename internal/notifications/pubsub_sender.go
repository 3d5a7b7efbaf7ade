package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
)

// Publisher pushes a payload to a topic and returns the server message id.
type Publisher interface {
	Publish(ctx context.Context, data []byte, attrs map[string]string) (string, error)
}

// TopicPublisher adapts a Pub/Sub v2 publisher to Publisher.
type TopicPublisher struct {
	publisher *pubsub.Publisher
}

func NewTopicPublisher(p *pubsub.Publisher) *TopicPublisher {
	return &TopicPublisher{publisher: p}
}

func (t *TopicPublisher) Publish(ctx context.Context, data []byte, attrs map[string]string) (string, error) {
	if t == nil || t.publisher == nil {
		return "", errors.New("pubsub publisher not configured")
	}
	result := t.publisher.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs})
	return result.Get(ctx)
}

// Stop flushes pending publishes.
func (t *TopicPublisher) Stop() {
	if t != nil && t.publisher != nil {
		t.publisher.Stop()
	}
}

// PubSubSender hands messages to the notification worker through Pub/Sub.
type PubSubSender struct {
	publisher Publisher
}

func NewPubSubSender(publisher Publisher) (*PubSubSender, error) {
	if publisher == nil {
		return nil, errors.New("pubsub publisher is required")
	}
	return &PubSubSender{publisher: publisher}, nil
}

func (s *PubSubSender) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	if _, err := s.publisher.Publish(ctx, data, map[string]string{"kind": msg.Kind}); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}
