package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvideRedisClientFollowsConfig(t *testing.T) {
	assert.Nil(t, ProvideRedisClient(Config{}))

	client := ProvideRedisClient(Config{RedisAddr: "localhost:6379"})
	require.NotNil(t, client)
	defer client.Close()
	assert.Equal(t, "localhost:6379", client.Options().Addr)
}

func TestBoundaryAndLimiterFallBackToMemory(t *testing.T) {
	// Without Redis the in-process stores are used; both must still be
	// functional, not nil.
	assert.NotNil(t, ProvideBoundary(nil))
	assert.NotNil(t, ProvideRateLimiter(nil))
}
