// Package cache provides the TTL cache that memoizes analytics results and
// keeps stale snapshots of data-access reads for fallback mode.
package cache

import (
	"context"
	"time"
)

// Store is a byte-oriented TTL key/value backend.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	Has(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) (bool, error)
	// DeletePattern removes every key matching a glob and returns how many went.
	DeletePattern(ctx context.Context, pattern string) (int, error)
}

// evictionReporter is implemented by stores that evict expired entries themselves.
type evictionReporter interface {
	Evictions() int64
	Len() int
}
