// Package resilience keeps reads working while the data store is unhealthy.
//
// A Layer tracks one process-wide fallback state. Reads that fail flip the
// layer into fallback mode and are answered from the last good snapshot in
// the cache, or from a caller-provided default. While in fallback mode reads
// are only retried once an exponential backoff interval has passed.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/proplab/stats-api/internal/cache"
)

// Prometheus metrics
var (
	fallbackModeGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "proplab_fallback_mode",
		Help: "1 while data access is in fallback mode",
	})

	dataAccessFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "proplab_data_access_failures_total",
		Help: "Total number of failed data access calls",
	}, []string{"operation"})

	fallbackServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "proplab_fallback_served_total",
		Help: "Reads answered without the data store",
	}, []string{"source"})
)

// State is a snapshot of the fallback state.
type State struct {
	FallbackMode  bool      `json:"fallback_mode"`
	LastError     string    `json:"last_error,omitempty"`
	LastErrorTime time.Time `json:"last_error_time,omitempty"`
	RetryCount    int       `json:"retry_count"`
	NextRetryAt   time.Time `json:"next_retry_at,omitempty"`
}

// Config configures a Layer.
type Config struct {
	BaseInterval time.Duration
	MaxInterval  time.Duration
	SnapshotTTL  time.Duration

	// Probe is run by ForceRetry; typically the store's Ping.
	Probe func(ctx context.Context) error

	Logger *zap.Logger
	Now    func() time.Time
}

// Layer guards data access calls. The zero value is not usable; use New.
type Layer struct {
	cache       *cache.Cache
	base        time.Duration
	max         time.Duration
	snapshotTTL time.Duration
	probe       func(ctx context.Context) error
	logger      *zap.SugaredLogger
	now         func() time.Time

	mu          sync.Mutex
	fallback    bool
	lastErr     error
	lastErrTime time.Time
	retryCount  int
}

// New creates a Layer. snapshots may be nil, in which case failed reads can
// only be answered by a default value.
func New(snapshots *cache.Cache, cfg Config) *Layer {
	if cfg.BaseInterval <= 0 {
		cfg.BaseInterval = 5 * time.Second
	}
	if cfg.MaxInterval < cfg.BaseInterval {
		cfg.MaxInterval = 5 * time.Minute
		if cfg.MaxInterval < cfg.BaseInterval {
			cfg.MaxInterval = cfg.BaseInterval
		}
	}
	if cfg.SnapshotTTL <= 0 {
		cfg.SnapshotTTL = 24 * time.Hour
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Layer{
		cache:       snapshots,
		base:        cfg.BaseInterval,
		max:         cfg.MaxInterval,
		snapshotTTL: cfg.SnapshotTTL,
		probe:       cfg.Probe,
		logger:      cfg.Logger.Sugar(),
		now:         cfg.Now,
	}
}

// Backoff returns the wait after the given number of consecutive failures:
// base * 2^(retryCount-1), capped at the max interval.
func (l *Layer) Backoff(retryCount int) time.Duration {
	if retryCount <= 0 {
		return 0
	}
	d := l.base
	for i := 1; i < retryCount; i++ {
		d *= 2
		if d >= l.max {
			return l.max
		}
	}
	if d > l.max {
		return l.max
	}
	return d
}

// State returns the current fallback state.
func (l *Layer) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := State{
		FallbackMode:  l.fallback,
		LastErrorTime: l.lastErrTime,
		RetryCount:    l.retryCount,
	}
	if l.lastErr != nil {
		s.LastError = l.lastErr.Error()
	}
	if l.fallback {
		s.NextRetryAt = l.lastErrTime.Add(l.Backoff(l.retryCount))
	}
	return s
}

// InFallback reports whether the layer is currently in fallback mode.
func (l *Layer) InFallback() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fallback
}

// ForceRetry runs the health probe regardless of backoff. A passing probe
// returns the layer to normal mode.
func (l *Layer) ForceRetry(ctx context.Context) (State, error) {
	if l.probe == nil {
		return l.State(), errors.New("no health probe configured")
	}
	if err := l.probe(ctx); err != nil {
		l.recordFailure("retry_check", err)
		return l.State(), err
	}
	l.recordSuccess("retry_check")
	return l.State(), nil
}

// shouldAttempt reports whether a read should reach the store. In fallback
// mode it returns the last error so callers can report why they were skipped.
func (l *Layer) shouldAttempt() (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.fallback {
		return true, nil
	}
	if !l.now().Before(l.lastErrTime.Add(l.Backoff(l.retryCount))) {
		return true, nil
	}
	return false, l.lastErr
}

func (l *Layer) recordSuccess(op string) {
	l.mu.Lock()
	recovered := l.fallback
	l.fallback = false
	l.retryCount = 0
	l.mu.Unlock()

	if recovered {
		fallbackModeGauge.Set(0)
		l.logger.Infow("Data access recovered", "operation", op)
	}
}

func (l *Layer) recordFailure(op string, err error) {
	l.mu.Lock()
	entering := !l.fallback
	l.fallback = true
	l.lastErr = err
	l.lastErrTime = l.now()
	l.retryCount++
	retries := l.retryCount
	next := l.lastErrTime.Add(l.Backoff(retries))
	l.mu.Unlock()

	dataAccessFailures.WithLabelValues(op).Inc()
	if entering {
		fallbackModeGauge.Set(1)
		l.logger.Warnw("Data access failed, entering fallback mode", "operation", op, "error", err, "next_retry_at", next)
		return
	}
	l.logger.Warnw("Data access still failing", "operation", op, "error", err, "retry_count", retries, "next_retry_at", next)
}

type readOptions[T any] struct {
	def    T
	hasDef bool
}

// ReadOption customizes Execute.
type ReadOption[T any] func(*readOptions[T])

// WithDefault supplies the value served when the store and the snapshot are
// both unavailable.
func WithDefault[T any](v T) ReadOption[T] {
	return func(o *readOptions[T]) {
		o.def = v
		o.hasDef = true
	}
}

// Execute runs a read through the layer. On success the result is stored as
// a snapshot under key (skipped when key is empty). On failure, or while
// waiting out the backoff, it serves the snapshot, then the default, and
// otherwise returns a *DataAccessError.
func Execute[T any](ctx context.Context, l *Layer, op, key string, fn func(context.Context) (T, error), opts ...ReadOption[T]) (T, error) {
	var o readOptions[T]
	for _, opt := range opts {
		opt(&o)
	}

	attempt, lastErr := l.shouldAttempt()
	if attempt {
		v, err := fn(ctx)
		if err == nil {
			l.recordSuccess(op)
			if key != "" && l.cache != nil {
				_ = l.cache.Set(ctx, key, v, l.snapshotTTL)
			}
			return v, nil
		}
		l.recordFailure(op, err)
		return serveFallback(ctx, l, op, key, err, o)
	}
	return serveFallback(ctx, l, op, key, errors.Join(ErrBackoff, lastErr), o)
}

func serveFallback[T any](ctx context.Context, l *Layer, op, key string, cause error, o readOptions[T]) (T, error) {
	if key != "" && l.cache != nil {
		var snap T
		if l.cache.Get(ctx, key, &snap) {
			fallbackServed.WithLabelValues("snapshot").Inc()
			l.logger.Debugw("Serving snapshot", "operation", op, "key", key)
			return snap, nil
		}
	}
	if o.hasDef {
		fallbackServed.WithLabelValues("default").Inc()
		return o.def, nil
	}
	var zero T
	return zero, &DataAccessError{Operation: op, Err: cause}
}

// ExecuteWrite runs a write. Writes are always attempted and never served
// from a snapshot; a failure returns false and counts toward fallback state.
func ExecuteWrite[T any](ctx context.Context, l *Layer, op string, fn func(context.Context) (T, error)) (T, bool) {
	v, err := fn(ctx)
	if err != nil {
		l.recordFailure(op, err)
		var zero T
		return zero, false
	}
	l.recordSuccess(op)
	return v, true
}
