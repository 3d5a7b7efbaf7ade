package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

type mockStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string)}
}

func (m *mockStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *mockStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *mockStore) AccessSessionKey(accessID string) string {
	return fmt.Sprintf("sess:%s", accessID)
}

func TestManagerGenerateAndRotate(t *testing.T) {
	store := newMockStore()
	manager := &Manager{store: store, ttl: time.Hour}

	ctx := context.Background()
	accessID := "access-123"
	token, err := manager.Generate(ctx, accessID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	stored := store.data[store.AccessSessionKey(accessID)]
	if stored == token || stored != digest(token) {
		t.Fatalf("expected token digest stored, got %q", stored)
	}

	if _, _, err := manager.Rotate(ctx, accessID, "wrong"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected invalid refresh token error, got %v", err)
	}

	newAccessID, newToken, err := manager.Rotate(ctx, accessID, token)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if _, exists := store.data[store.AccessSessionKey(accessID)]; exists {
		t.Fatalf("old access key left behind")
	}
	if got := store.data[store.AccessSessionKey(newAccessID)]; got != digest(newToken) {
		t.Fatalf("expected new token digest stored, got %q", got)
	}

	if _, _, err := manager.Rotate(ctx, accessID, token); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("reusing a rotated token should fail, got %v", err)
	}
}

func TestManagerRevokeAndHasSession(t *testing.T) {
	store := newMockStore()
	manager := &Manager{store: store, ttl: time.Hour}
	ctx := context.Background()

	if _, err := manager.Generate(ctx, "a1"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	ok, err := manager.HasSession(ctx, "a1")
	if err != nil || !ok {
		t.Fatalf("expected active session, ok=%v err=%v", ok, err)
	}
	if err := manager.Revoke(ctx, "a1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	ok, err = manager.HasSession(ctx, "a1")
	if err != nil || ok {
		t.Fatalf("expected no session after revoke, ok=%v err=%v", ok, err)
	}
	if _, err := manager.HasSession(ctx, " "); err == nil {
		t.Fatal("expected error for blank access id")
	}
}

func TestNewManagerValidatesTTL(t *testing.T) {
	store := newMockStore()
	if _, err := NewManager(store, config.JWTConfig{ExpirationMinutes: 60}); err == nil {
		t.Fatal("expected error without refresh ttl")
	}
	if _, err := NewManager(store, config.JWTConfig{ExpirationMinutes: 60, RefreshTokenTTLMinutes: 30}); err == nil {
		t.Fatal("expected error when refresh ttl is shorter than access ttl")
	}
	m, err := NewManager(store, config.JWTConfig{ExpirationMinutes: 60, RefreshTokenTTLMinutes: 120})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if m.TTL() != 2*time.Hour {
		t.Fatalf("unexpected ttl %s", m.TTL())
	}
	if _, err := NewManager(nil, config.JWTConfig{}); err == nil {
		t.Fatal("expected error for nil store")
	}
}
