package security

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// LimiterStore holds fixed-window counters for the rate limiter. The
// in-memory store is correct for a single instance; multi-instance
// deployments use the redis store so throttling is cluster-wide.
type LimiterStore interface {
	// Increment bumps the counter for key, starting a new window of the
	// given length when none is active, and returns the current count.
	Increment(ctx context.Context, key string, window time.Duration) (int, error)
}

// RateLimiter enforces a fixed-window attempt limit per identifier.
// The window resets when it expires rather than sliding.
type RateLimiter struct {
	store       LimiterStore
	maxAttempts int
	window      time.Duration
}

// NewRateLimiter creates a limiter with the given policy. The platform
// default is 10 attempts per 60 seconds.
func NewRateLimiter(store LimiterStore, maxAttempts int, window time.Duration) *RateLimiter {
	return &RateLimiter{store: store, maxAttempts: maxAttempts, window: window}
}

// Allow reports whether identifier may proceed. Store errors fail open:
// a broken throttle must not take payments down with it.
func (rl *RateLimiter) Allow(ctx context.Context, identifier string) bool {
	count, err := rl.store.Increment(ctx, "ratelimit:"+identifier, rl.window)
	if err != nil {
		return true
	}
	return count <= rl.maxAttempts
}

type memoryWindow struct {
	count     int
	windowEnd time.Time
}

// MemoryLimiterStore is the in-process implementation.
type MemoryLimiterStore struct {
	mu      sync.Mutex
	windows map[string]*memoryWindow
}

func NewMemoryLimiterStore() *MemoryLimiterStore {
	return &MemoryLimiterStore{windows: make(map[string]*memoryWindow)}
}

func (s *MemoryLimiterStore) Increment(_ context.Context, key string, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	w, ok := s.windows[key]
	if !ok || now.After(w.windowEnd) {
		w = &memoryWindow{windowEnd: now.Add(window)}
		s.windows[key] = w
	}
	w.count++
	return w.count, nil
}

// RedisLimiterStore shares counters across instances.
type RedisLimiterStore struct {
	client *redis.Client
}

func NewRedisLimiterStore(client *redis.Client) *RedisLimiterStore {
	return &RedisLimiterStore{client: client}
}

func (s *RedisLimiterStore) Increment(ctx context.Context, key string, window time.Duration) (int, error) {
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("rate limit increment failed: %w", err)
	}
	if count == 1 {
		// First hit opens the window; later hits must not extend it.
		s.client.Expire(ctx, key, window)
	}
	return int(count), nil
}
