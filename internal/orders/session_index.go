package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionIndex remembers which order numbers a storefront session has
// placed. Confirmation lookups consult it so shoppers only ever see
// their own orders.
type SessionIndex interface {
	Record(ctx context.Context, sessionID, orderNumber string) error
	Contains(ctx context.Context, sessionID, orderNumber string) (bool, error)
}

type indexKV interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
}

// RedisSessionIndex keeps the per-session order numbers in Redis with
// the same TTL as the session itself.
type RedisSessionIndex struct {
	client indexKV
	ttl    time.Duration
}

// NewRedisSessionIndex builds a Redis-backed session order index.
func NewRedisSessionIndex(client indexKV, ttl time.Duration) (*RedisSessionIndex, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if ttl <= 0 {
		return nil, errors.New("ttl must be positive")
	}
	return &RedisSessionIndex{client: client, ttl: ttl}, nil
}

func sessionOrdersKey(sessionID string) string {
	return "mk:session-orders:" + sessionID
}

func (s *RedisSessionIndex) Record(ctx context.Context, sessionID, orderNumber string) error {
	if sessionID == "" {
		return errors.New("session id is required")
	}
	if orderNumber == "" {
		return errors.New("order number is required")
	}
	numbers, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}
	if slices.Contains(numbers, orderNumber) {
		return nil
	}
	payload, err := json.Marshal(append(numbers, orderNumber))
	if err != nil {
		return fmt.Errorf("encode session orders: %w", err)
	}
	if err := s.client.Set(ctx, sessionOrdersKey(sessionID), string(payload), s.ttl); err != nil {
		return fmt.Errorf("save session orders: %w", err)
	}
	return nil
}

func (s *RedisSessionIndex) Contains(ctx context.Context, sessionID, orderNumber string) (bool, error) {
	if sessionID == "" || orderNumber == "" {
		return false, nil
	}
	numbers, err := s.load(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return slices.Contains(numbers, orderNumber), nil
}

func (s *RedisSessionIndex) load(ctx context.Context, sessionID string) ([]string, error) {
	payload, err := s.client.Get(ctx, sessionOrdersKey(sessionID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("load session orders: %w", err)
	}
	var numbers []string
	if err := json.Unmarshal([]byte(payload), &numbers); err != nil {
		return nil, fmt.Errorf("decode session orders: %w", err)
	}
	return numbers, nil
}

// MemorySessionIndex is an in-process index used by tests and local
// runs without Redis.
type MemorySessionIndex struct {
	mu     sync.RWMutex
	orders map[string][]string
}

// NewMemorySessionIndex builds an empty in-memory index.
func NewMemorySessionIndex() *MemorySessionIndex {
	return &MemorySessionIndex{orders: make(map[string][]string)}
}

func (s *MemorySessionIndex) Record(ctx context.Context, sessionID, orderNumber string) error {
	if sessionID == "" {
		return errors.New("session id is required")
	}
	if orderNumber == "" {
		return errors.New("order number is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.orders[sessionID], orderNumber) {
		return nil
	}
	s.orders[sessionID] = append(s.orders[sessionID], orderNumber)
	return nil
}

func (s *MemorySessionIndex) Contains(ctx context.Context, sessionID, orderNumber string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Contains(s.orders[sessionID], orderNumber), nil
}
