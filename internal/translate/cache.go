package translate

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Cache stores translation results keyed by (source text, target language).
type Cache interface {
	Get(ctx context.Context, text, target string) (string, bool)
	Set(ctx context.Context, text, target, translated string)
}

// MemoryCache is the per-session cache. Append-only for the lifetime of the
// process, like the original browser session cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]string
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]string)}
}

func (c *MemoryCache) Get(_ context.Context, text, target string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	translated, ok := c.entries[cacheKey(text, target)]
	return translated, ok
}

func (c *MemoryCache) Set(_ context.Context, text, target, translated string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[cacheKey(text, target)] = translated
}

// RedisCache shares translations across clients, cache-aside with a TTL.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, prefix: "translate:", ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, text, target string) (string, bool) {
	translated, err := c.client.Get(ctx, c.prefix+cacheKey(text, target)).Result()
	if err != nil {
		return "", false
	}
	return translated, true
}

func (c *RedisCache) Set(ctx context.Context, text, target, translated string) {
	c.client.Set(ctx, c.prefix+cacheKey(text, target), translated, c.ttl)
}

// cacheKey hashes the source text so keys stay bounded regardless of message
// length.
func cacheKey(text, target string) string {
	sum := sha1.Sum([]byte(text))
	return target + ":" + hex.EncodeToString(sum[:])
}
