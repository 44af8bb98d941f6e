package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Prometheus metrics
var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "proplab_cache_hits_total",
		Help: "Total number of cache hits",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "proplab_cache_misses_total",
		Help: "Total number of cache misses",
	})

	cacheErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "proplab_cache_errors_total",
		Help: "Total number of cache backend errors",
	})
)

// Stats is a point-in-time snapshot of cache activity.
type Stats struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Sets      int64   `json:"sets"`
	Deletes   int64   `json:"deletes"`
	Errors    int64   `json:"errors"`
	Evictions int64   `json:"evictions"`
	Entries   int     `json:"entries"`
	HitRate   float64 `json:"hit_rate"`
}

// Cache stores JSON-encoded values in a Store and keeps hit/miss accounting.
// Backend errors are logged and treated as misses; the cache never fails a
// request on its own.
type Cache struct {
	store  Store
	logger *zap.SugaredLogger

	hits    atomic.Int64
	misses  atomic.Int64
	sets    atomic.Int64
	deletes atomic.Int64
	errors  atomic.Int64
}

// New creates a cache over the given backend.
func New(store Store, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{store: store, logger: logger.Sugar()}
}

// Get decodes the value stored under key into dest and reports whether it was found.
func (c *Cache) Get(ctx context.Context, key string, dest any) bool {
	payload, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.recordError("get", key, err)
		c.recordMiss()
		return false
	}
	if !ok {
		c.recordMiss()
		return false
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		c.recordError("decode", key, err)
		c.recordMiss()
		return false
	}
	c.hits.Add(1)
	cacheHits.Inc()
	return true
}

// Set stores value under key for ttl.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	if err := c.store.Set(ctx, key, payload, ttl); err != nil {
		c.recordError("set", key, err)
		return err
	}
	c.sets.Add(1)
	return nil
}

// Has reports whether a live entry exists for key. It does not count as a hit or miss.
func (c *Cache) Has(ctx context.Context, key string) bool {
	ok, err := c.store.Has(ctx, key)
	if err != nil {
		c.recordError("has", key, err)
		return false
	}
	return ok
}

// Delete removes key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	removed, err := c.store.Delete(ctx, key)
	if err != nil {
		c.recordError("delete", key, err)
		return err
	}
	if removed {
		c.deletes.Add(1)
	}
	return nil
}

// InvalidateByPattern removes every key matching the glob and returns the count.
func (c *Cache) InvalidateByPattern(ctx context.Context, pattern string) (int, error) {
	n, err := c.store.DeletePattern(ctx, pattern)
	if err != nil {
		c.recordError("invalidate", pattern, err)
		return n, fmt.Errorf("invalidate %q: %w", pattern, err)
	}
	c.deletes.Add(int64(n))
	c.logger.Infow("Cache invalidated", "pattern", pattern, "removed", n)
	return n, nil
}

// Stats returns the current counters.
func (c *Cache) Stats() Stats {
	s := Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Sets:    c.sets.Load(),
		Deletes: c.deletes.Load(),
		Errors:  c.errors.Load(),
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total) * 100
	}
	if r, ok := c.store.(evictionReporter); ok {
		s.Evictions = r.Evictions()
		s.Entries = r.Len()
	}
	return s
}

func (c *Cache) recordMiss() {
	c.misses.Add(1)
	cacheMisses.Inc()
}

func (c *Cache) recordError(op, key string, err error) {
	c.errors.Add(1)
	cacheErrors.Inc()
	c.logger.Warnw("Cache backend error", "op", op, "key", key, "error", err)
}

// GetOrCompute returns the cached value for key, or runs fn and caches its
// result. Errors from fn are returned as-is and never cached. Concurrent
// callers may compute the same key; the last write wins.
func GetOrCompute[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var cached T
	if c.Get(ctx, key, &cached) {
		return cached, nil
	}

	value, err := fn(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	// A failed write only costs a recompute next time.
	_ = c.Set(ctx, key, value, ttl)
	return value, nil
}
