package payments

import (
	"context"
	"testing"
	"time"
)

type fakeStore struct {
	values map[string]string
}

func (f *fakeStore) Get(ctx context.Context, key string) (string, error) {
	return f.values[key], nil
}

func (f *fakeStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if f.values == nil {
		f.values = map[string]string{}
	}
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = "1"
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return "mk:idempotency:" + scope + ":" + id
}

func (f *fakeStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func TestIdempotencyGuard_CheckAndMark(t *testing.T) {
	guard, err := NewIdempotencyGuard(&fakeStore{}, time.Hour, "stripe")
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}
	ctx := context.Background()

	duplicate, err := guard.CheckAndMark(ctx, "evt_1")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if duplicate {
		t.Fatalf("first delivery must not be a duplicate")
	}

	duplicate, err = guard.CheckAndMark(ctx, "evt_1")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !duplicate {
		t.Fatalf("second delivery must be a duplicate")
	}

	if err := guard.Delete(ctx, "evt_1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	duplicate, err = guard.CheckAndMark(ctx, "evt_1")
	if err != nil || duplicate {
		t.Fatalf("released event must be retryable, duplicate=%v err=%v", duplicate, err)
	}
}

func TestIdempotencyGuard_Validation(t *testing.T) {
	if _, err := NewIdempotencyGuard(nil, time.Hour, "stripe"); err == nil {
		t.Fatalf("expected error for nil store")
	}
	if _, err := NewIdempotencyGuard(&fakeStore{}, time.Hour, ""); err == nil {
		t.Fatalf("expected error for empty scope")
	}
	guard, _ := NewIdempotencyGuard(&fakeStore{}, time.Hour, "stripe")
	if _, err := guard.CheckAndMark(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty event id")
	}
}
