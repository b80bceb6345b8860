package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store persists carts keyed by opaque session id.
type Store interface {
	Load(ctx context.Context, sessionID string) (*Cart, error)
	Save(ctx context.Context, sessionID string, cart *Cart) error
	Delete(ctx context.Context, sessionID string) error
}

type kv interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// RedisStore keeps carts in Redis with a sliding TTL, so abandoned
// carts expire together with the session.
type RedisStore struct {
	client kv
	ttl    time.Duration
}

// NewRedisStore builds a Redis-backed cart store.
func NewRedisStore(client kv, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if ttl <= 0 {
		return nil, errors.New("ttl must be positive")
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func cartKey(sessionID string) string {
	return "mk:cart:" + sessionID
}

// Load returns the stored cart, or a fresh empty cart when none exists.
func (s *RedisStore) Load(ctx context.Context, sessionID string) (*Cart, error) {
	if sessionID == "" {
		return nil, errors.New("session id is required")
	}
	payload, err := s.client.Get(ctx, cartKey(sessionID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return New(), nil
		}
		return nil, fmt.Errorf("load cart: %w", err)
	}
	var cart Cart
	if err := json.Unmarshal([]byte(payload), &cart); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	if cart.Entries == nil {
		cart.Entries = []Entry{}
	}
	return &cart, nil
}

// Save serializes and stores the cart, refreshing the TTL.
func (s *RedisStore) Save(ctx context.Context, sessionID string, cart *Cart) error {
	if sessionID == "" {
		return errors.New("session id is required")
	}
	if cart == nil {
		cart = New()
	}
	payload, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.client.Set(ctx, cartKey(sessionID), string(payload), s.ttl); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// Delete removes the stored cart.
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return errors.New("session id is required")
	}
	return s.client.Del(ctx, cartKey(sessionID))
}

// MemoryStore is an in-process cart store used by tests and local runs
// without Redis.
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[string]*Cart
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string]*Cart)}
}

func (s *MemoryStore) Load(ctx context.Context, sessionID string) (*Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.carts[sessionID]
	if !ok {
		return New(), nil
	}
	// return a copy so callers cannot mutate shared state
	clone := *stored
	clone.Entries = append([]Entry(nil), stored.Entries...)
	if stored.Discount != nil {
		discount := *stored.Discount
		clone.Discount = &discount
	}
	return &clone, nil
}

func (s *MemoryStore) Save(ctx context.Context, sessionID string, cart *Cart) error {
	if cart == nil {
		cart = New()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *cart
	clone.Entries = append([]Entry(nil), cart.Entries...)
	if cart.Discount != nil {
		discount := *cart.Discount
		clone.Discount = &discount
	}
	s.carts[sessionID] = &clone
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionID)
	return nil
}
