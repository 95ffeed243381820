//go:build !integration

package redis

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeRedis implements RedisClient with an in-memory counter map.
type fakeRedis struct {
	counts  map[string]int64
	expires map[string]time.Duration
	incrErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{counts: make(map[string]int64), expires: make(map[string]time.Duration)}
}

func (f *fakeRedis) Ping(ctx context.Context) error { return nil }

func (f *fakeRedis) Get(ctx context.Context, key string) (string, error) { return "", nil }

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return nil
}

func (f *fakeRedis) Incr(ctx context.Context, key string) (int64, error) {
	if f.incrErr != nil {
		return 0, f.incrErr
	}
	f.counts[key]++
	return f.counts[key], nil
}

func (f *fakeRedis) Expire(ctx context.Context, key string, expiration time.Duration) error {
	f.expires[key] = expiration
	return nil
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.counts, k)
	}
	return nil
}

func (f *fakeRedis) Close() error { return nil }

func TestRateLimiter_Allow(t *testing.T) {
	ctx := context.Background()

	t.Run("allows up to the limit, then denies", func(t *testing.T) {
		client := newFakeRedis()
		limiter := NewRateLimiter(client)

		for i := 0; i < 3; i++ {
			ok, err := limiter.Allow(ctx, "status_query:PASS_u_1", 3, time.Minute)
			if err != nil {
				t.Fatalf("call %d: %v", i+1, err)
			}
			if !ok {
				t.Fatalf("call %d denied under the limit", i+1)
			}
		}
		ok, err := limiter.Allow(ctx, "status_query:PASS_u_1", 3, time.Minute)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok {
			t.Fatal("fourth call in the window allowed")
		}
	})

	t.Run("window TTL is set on the first increment only", func(t *testing.T) {
		client := newFakeRedis()
		limiter := NewRateLimiter(client)

		_, _ = limiter.Allow(ctx, "k", 3, time.Minute)
		if client.expires["k"] != time.Minute {
			t.Fatalf("TTL = %v, want 1m", client.expires["k"])
		}
		client.expires["k"] = 0
		_, _ = limiter.Allow(ctx, "k", 3, time.Minute)
		if client.expires["k"] != 0 {
			t.Fatal("TTL reset on a subsequent increment")
		}
	})

	t.Run("keys are independent", func(t *testing.T) {
		client := newFakeRedis()
		limiter := NewRateLimiter(client)

		for i := 0; i < 3; i++ {
			_, _ = limiter.Allow(ctx, "status_query:PASS_a_1", 3, time.Minute)
		}
		ok, err := limiter.Allow(ctx, "status_query:PASS_b_1", 3, time.Minute)
		if err != nil || !ok {
			t.Fatalf("got (%v, %v), want fresh key allowed", ok, err)
		}
	})

	t.Run("redis failure denies", func(t *testing.T) {
		client := newFakeRedis()
		client.incrErr = errors.New("connection refused")
		limiter := NewRateLimiter(client)

		ok, err := limiter.Allow(ctx, "k", 3, time.Minute)
		if err == nil || ok {
			t.Fatalf("got (%v, %v), want denial with error", ok, err)
		}
	})
}
