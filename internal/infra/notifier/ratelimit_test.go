package notifier

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiter_Allow(t *testing.T) {
	t.Run("burst passes immediately", func(t *testing.T) {
		limiter := NewRateLimiter(2.0, 5)
		start := time.Now()
		for i := 0; i < 5; i++ {
			if err := limiter.Allow(context.Background()); err != nil {
				t.Fatalf("request %d: %v", i, err)
			}
		}
		if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
			t.Errorf("burst took %v", elapsed)
		}
	})

	t.Run("blocks past the bucket", func(t *testing.T) {
		limiter := NewRateLimiter(1.0, 1)
		if err := limiter.Allow(context.Background()); err != nil {
			t.Fatalf("first request: %v", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		if err := limiter.Allow(ctx); err == nil {
			t.Fatal("expected the second request to be refused before the deadline")
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		limiter := NewRateLimiter(0.001, 1)
		_ = limiter.Allow(context.Background())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := limiter.Allow(ctx); err == nil {
			t.Fatal("expected error on cancelled context")
		}
	})
}
