package cache

import (
	"context"
	"path"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

type entry struct {
	payload   []byte
	createdAt time.Time
	ttl       time.Duration
}

// expired reports whether now - createdAt > ttl.
func (e entry) expired(now time.Time) bool {
	return now.Sub(e.createdAt) > e.ttl
}

// MemoryStore is an in-process Store. Expired entries are dropped lazily on
// read and by a background sweep that runs on its own interval.
type MemoryStore struct {
	mu        sync.RWMutex
	entries   map[string]entry
	now       func() time.Time
	evictions atomic.Int64

	sweepInterval time.Duration
	logger        *zap.SugaredLogger
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}

// MemoryConfig configures a MemoryStore.
type MemoryConfig struct {
	SweepInterval time.Duration
	Logger        *zap.Logger
	Now           func() time.Time
}

// NewMemoryStore creates an empty store. Call Start to run the sweeper.
func NewMemoryStore(cfg MemoryConfig) *MemoryStore {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &MemoryStore{
		entries:       make(map[string]entry),
		now:           cfg.Now,
		sweepInterval: cfg.SweepInterval,
		logger:        cfg.Logger.Sugar(),
	}
}

// Start launches the periodic sweep.
func (s *MemoryStore) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.Sweep(); n > 0 {
					s.logger.Debugw("Cache sweep evicted entries", "evicted", n, "remaining", s.Len())
				}
			}
		}
	}()
	s.logger.Infow("Cache sweeper started", "interval", s.sweepInterval)
}

// Stop halts the sweeper and waits for it to exit.
func (s *MemoryStore) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// Sweep removes every expired entry and returns how many were evicted.
// Expired keys are collected under the read lock and removed one at a time,
// so concurrent Get/Set calls only ever wait for a single map operation.
func (s *MemoryStore) Sweep() int {
	now := s.now()

	s.mu.RLock()
	var stale []string
	for k, e := range s.entries {
		if e.expired(now) {
			stale = append(stale, k)
		}
	}
	s.mu.RUnlock()

	evicted := 0
	for _, k := range stale {
		s.mu.Lock()
		// Re-check: the key may have been rewritten since the scan.
		if e, ok := s.entries[k]; ok && e.expired(now) {
			delete(s.entries, k)
			evicted++
		}
		s.mu.Unlock()
	}
	s.evictions.Add(int64(evicted))
	return evicted
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if e.expired(s.now()) {
		s.mu.Lock()
		if cur, ok := s.entries[key]; ok && cur.expired(s.now()) {
			delete(s.entries, key)
			s.evictions.Add(1)
		}
		s.mu.Unlock()
		return nil, false, nil
	}
	return e.payload, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	s.mu.Lock()
	s.entries[key] = entry{payload: payload, createdAt: s.now(), ttl: ttl}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Has(ctx context.Context, key string) (bool, error) {
	_, ok, err := s.Get(ctx, key)
	return ok, err
}

func (s *MemoryStore) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; !ok {
		return false, nil
	}
	delete(s.entries, key)
	return true, nil
}

// DeletePattern matches keys with path.Match glob syntax (*, ?, [...]).
func (s *MemoryStore) DeletePattern(_ context.Context, pattern string) (int, error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for k := range s.entries {
		if ok, _ := path.Match(pattern, k); ok {
			delete(s.entries, k)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Evictions returns how many expired entries have been removed so far.
func (s *MemoryStore) Evictions() int64 {
	return s.evictions.Load()
}
