package utils

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"tasknest/config"
)

// Cache is a fail-safe Redis wrapper: when Redis is missing or unreachable
// every read behaves like a miss and every write is a no-op, so callers
// never branch on cache errors.
type Cache struct {
	client *redis.Client
}

// NewCache returns a disabled cache (nil client) when Redis is not configured.
func NewCache(cfg config.RedisConfig) *Cache {
	if !cfg.Enabled {
		return &Cache{}
	}
	return &Cache{client: redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})}
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	res, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return res, true
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Set(ctx, key, value, ttl).Err()
}
