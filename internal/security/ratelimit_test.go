package security

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_FixedWindow(t *testing.T) {
	limiter := NewRateLimiter(NewMemoryLimiterStore(), 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow(ctx, "user:1"), "attempt %d should pass", i+1)
	}
	assert.False(t, limiter.Allow(ctx, "user:1"), "attempt over the limit should be blocked")

	// Other identifiers are unaffected.
	assert.True(t, limiter.Allow(ctx, "user:2"))
}

func TestMemoryLimiterStore_WindowReset(t *testing.T) {
	store := NewMemoryLimiterStore()
	ctx := context.Background()

	count, err := store.Increment(ctx, "k", 10*time.Millisecond)
	assert.NoError(t, err)
	assert.Equal(t, 1, count)

	count, _ = store.Increment(ctx, "k", 10*time.Millisecond)
	assert.Equal(t, 2, count)

	time.Sleep(15 * time.Millisecond)

	// Expired window starts over instead of sliding.
	count, _ = store.Increment(ctx, "k", 10*time.Millisecond)
	assert.Equal(t, 1, count)
}
