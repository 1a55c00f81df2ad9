package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/medsouq/marketplace/internal/pricing/domain"
)

// DefaultCacheTTL is how long a computed result stays valid.
const DefaultCacheTTL = time.Hour

// Cache stores pricing results keyed by the request fingerprint.
type Cache interface {
	Get(ctx context.Context, key string) (*domain.Result, error)
	Set(ctx context.Context, key string, result *domain.Result, ttl time.Duration) error
}

// CacheKey fingerprints a pricing request. Two identical requests hit
// the same entry.
func CacheKey(in domain.Input) string {
	return fmt.Sprintf("pricing:%s:%s:%d:%s:%s",
		strings.ToLower(strings.TrimSpace(in.ServiceName)),
		strings.ToUpper(in.ICD11Code),
		in.Quantity,
		strings.ToLower(in.Region),
		strings.ToUpper(in.Currency))
}

// RedisCache is the shared cache used in deployment.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*domain.Result, error) {
	raw, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var result domain.Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, result *domain.Result, ttl time.Duration) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, ttl).Err()
}

// MemoryCache is a process-local cache for tests and single-instance
// runs.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryCacheEntry
}

type memoryCacheEntry struct {
	result    domain.Result
	expiresAt time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryCacheEntry)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (*domain.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, nil
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, nil
	}
	result := entry.result
	return &result, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, result *domain.Result, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryCacheEntry{result: *result, expiresAt: time.Now().Add(ttl)}
	return nil
}
