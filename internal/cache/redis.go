package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var cacheOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "key_cache_operations_total",
		Help: "Total number of key cache operations",
	},
	[]string{"operation", "status"},
)

// RedisCache implements KeyCache on a Redis client.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, apiKey string) ([]byte, error) {
	data, err := c.client.Get(ctx, CacheKey(apiKey)).Bytes()
	if errors.Is(err, redis.Nil) {
		cacheOperationsTotal.WithLabelValues("get", "miss").Inc()
		return nil, ErrMiss
	}
	if err != nil {
		cacheOperationsTotal.WithLabelValues("get", "error").Inc()
		return nil, fmt.Errorf("cache get: %w", err)
	}
	cacheOperationsTotal.WithLabelValues("get", "hit").Inc()
	return data, nil
}

func (c *RedisCache) Set(ctx context.Context, apiKey string, snapshot []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, CacheKey(apiKey), snapshot, ttl).Err(); err != nil {
		cacheOperationsTotal.WithLabelValues("set", "error").Inc()
		return fmt.Errorf("cache set: %w", err)
	}
	cacheOperationsTotal.WithLabelValues("set", "ok").Inc()
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, apiKey string) error {
	if err := c.client.Del(ctx, CacheKey(apiKey)).Err(); err != nil {
		cacheOperationsTotal.WithLabelValues("delete", "error").Inc()
		return fmt.Errorf("cache delete: %w", err)
	}
	cacheOperationsTotal.WithLabelValues("delete", "ok").Inc()
	return nil
}

// Ping verifies cache connectivity for health reporting.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
