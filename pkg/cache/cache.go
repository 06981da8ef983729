package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache: key not found")

// Cache stores JSON encoded values with an optional expiration.
// A zero expiration keeps the key until it is deleted.
type Cache interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	// IncrementWithExpire increments a counter and starts its expiration
	// window on the first increment.
	IncrementWithExpire(ctx context.Context, key string, window time.Duration) (int64, error)
	Close() error
}
