// Package idempotency guards message consumers against redelivery.
package idempotency

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

const processedScope = "msg:processed"

// Manager records processed message ids per consumer using SETNX with a TTL.
// Keys follow the `sf:idempotency:msg:processed:<consumer>:<message_id>` pattern.
type Manager struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

// NewManager builds a guard that remembers processed messages for ttl.
func NewManager(store redis.IdempotencyStore, ttl time.Duration) (*Manager, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &Manager{store: store, ttl: ttl}, nil
}

// Claim marks the message as processed. It returns false when another
// delivery already claimed it.
func (m *Manager) Claim(ctx context.Context, consumer, messageID string) (bool, error) {
	key, err := m.key(consumer, messageID)
	if err != nil {
		return false, err
	}
	return m.store.SetNX(ctx, key, "1", m.ttl)
}

// Release forgets a claim so a failed message can be retried on redelivery.
func (m *Manager) Release(ctx context.Context, consumer, messageID string) error {
	key, err := m.key(consumer, messageID)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

func (m *Manager) key(consumer, messageID string) (string, error) {
	consumer = strings.TrimSpace(consumer)
	messageID = strings.TrimSpace(messageID)
	if consumer == "" {
		return "", errors.New("consumer name is required")
	}
	if messageID == "" {
		return "", errors.New("message id is required")
	}
	return m.store.IdempotencyKey(processedScope, consumer+":"+messageID), nil
}
