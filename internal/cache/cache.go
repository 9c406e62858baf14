// Package cache provides an optional Redis-backed cache for hot read paths.
//
// The cache is strictly best-effort: when REDIS_ADDR is unset, or Redis is
// unreachable at startup, New returns nil and every method on the nil
// receiver is a no-op. Callers never branch on cache availability.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

type Cache struct {
	client *redis.Client
	logger *slog.Logger
}

// New connects to Redis at addr. Returns nil (cache disabled) when addr is
// empty or the ping fails — the server keeps running without a cache.
func New(addr string, logger *slog.Logger) *Cache {
	if addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, continuing without cache",
			slog.String("addr", addr),
			slog.String("error", err.Error()),
		)
		return nil
	}

	logger.Info("redis cache connected", slog.String("addr", addr))
	return &Cache{client: client, logger: logger}
}

// Close releases the Redis connection.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

// GetJSON loads key into v. Returns false on miss, disabled cache, or any
// Redis/decoding error — a cache problem must never fail a request.
func (c *Cache) GetJSON(ctx context.Context, key string, v any) bool {
	if c == nil {
		return false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("cache get failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		c.logger.Warn("cache entry corrupt", slog.String("key", key), slog.String("error", err.Error()))
		return false
	}
	return true
}

// SetJSON stores v under key with the given TTL. Best-effort.
func (c *Cache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) {
	if c == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("cache encode failed", slog.String("key", key), slog.String("error", err.Error()))
		return
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.Warn("cache set failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

// DeletePrefix removes every key under the given prefix. Used to invalidate
// listing pages after a write.
func (c *Cache) DeletePrefix(ctx context.Context, prefix string) {
	if c == nil {
		return
	}
	iter := c.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			c.logger.Warn("cache delete failed", slog.String("key", iter.Val()), slog.String("error", err.Error()))
		}
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("cache scan failed", slog.String("prefix", prefix), slog.String("error", err.Error()))
	}
}
