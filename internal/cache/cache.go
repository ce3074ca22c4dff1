// Package cache provides the TTL-bound side cache that accelerates API key
// lookups. The cache is an optimization: every caller must be able to fall
// back to the store when the cache is unavailable.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when no entry exists for the key.
var ErrMiss = errors.New("cache miss")

// keyPrefix namespaces API key entries so they cannot collide with unrelated
// cached values sharing the same Redis database.
const keyPrefix = "apiKey:"

// KeyCache stores serialized identity snapshots keyed by raw API key value.
type KeyCache interface {
	Get(ctx context.Context, apiKey string) ([]byte, error)
	Set(ctx context.Context, apiKey string, snapshot []byte, ttl time.Duration) error
	Delete(ctx context.Context, apiKey string) error
}

// CacheKey returns the namespaced cache key for an API key value.
func CacheKey(apiKey string) string {
	return keyPrefix + apiKey
}
