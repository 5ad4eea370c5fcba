package repositories

import (
	"context"
	"time"
)

type CacheRepositoryInterface interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	// Get returns ErrCacheMiss when the key is absent.
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, key ...string) error
	// DelPattern removes every key matching a glob pattern.
	DelPattern(ctx context.Context, pattern string) (int, error)
}
