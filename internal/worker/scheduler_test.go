package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/proplab/stats-api/internal/cache"
	"github.com/proplab/stats-api/internal/resilience"
)

func TestScheduler_RunOnce(t *testing.T) {
	computer := &MockComputer{rowsPerPlayer: 2}
	writer := &MockWriter{}
	pool := newTestPool(computer, writer, PoolConfig{WorkerCount: 2, FlushInterval: time.Hour})
	pool.Start(context.Background())

	sched, err := NewScheduler(pool, &MockLister{Players: []string{"p1", "p2", "p3"}}, nil, "", nil)
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}

	info, err := sched.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	pool.Stop()

	if info.Enqueued != 3 || info.RunCount != 1 || info.RunID == "" {
		t.Errorf("unexpected run info: %+v", info)
	}
	if writer.Written() != 6 {
		t.Errorf("wrote %d rows, want 6", writer.Written())
	}
}

func TestScheduler_RunOnceListError(t *testing.T) {
	pool := newTestPool(&MockComputer{}, &MockWriter{}, PoolConfig{WorkerCount: 1})
	pool.Start(context.Background())
	defer pool.Stop()

	layer := resilience.New(nil, resilience.Config{BaseInterval: time.Minute})
	sched, err := NewScheduler(pool, &MockLister{Err: errors.New("db down")}, layer, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	info, err := sched.RunOnce(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !resilience.IsDataAccessError(err) {
		t.Errorf("expected data access error, got %v", err)
	}
	if info.ErrorCount != 1 || info.LastError == "" {
		t.Errorf("error not recorded: %+v", info)
	}
	if st := layer.State(); !st.FallbackMode || st.RetryCount != 1 {
		t.Errorf("listing failure not counted by the layer: %+v", st)
	}
}

func TestScheduler_RunOnceServesSnapshotInFallback(t *testing.T) {
	computer := &MockComputer{rowsPerPlayer: 1}
	writer := &MockWriter{}
	pool := newTestPool(computer, writer, PoolConfig{WorkerCount: 1, FlushInterval: time.Hour})
	pool.Start(context.Background())

	snapshots := cache.New(cache.NewMemoryStore(cache.MemoryConfig{}), nil)
	layer := resilience.New(snapshots, resilience.Config{BaseInterval: time.Minute})
	lister := &MockLister{Players: []string{"p1", "p2"}}
	sched, err := NewScheduler(pool, lister, layer, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sched.RunOnce(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}

	lister.Players, lister.Err = nil, errors.New("db down")
	info, err := sched.RunOnce(context.Background())
	pool.Stop()
	if err != nil {
		t.Fatalf("second run should fall back to the last listing: %v", err)
	}
	if info.Enqueued != 2 || !layer.InFallback() {
		t.Errorf("enqueued %d, fallback %v", info.Enqueued, layer.InFallback())
	}
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	pool := newTestPool(&MockComputer{}, &MockWriter{}, PoolConfig{})
	if _, err := NewScheduler(pool, &MockLister{}, nil, "every tuesday", nil); err == nil {
		t.Error("expected error for invalid cron spec")
	}
}

func TestScheduler_StartStop(t *testing.T) {
	pool := newTestPool(&MockComputer{}, &MockWriter{}, PoolConfig{})
	sched, err := NewScheduler(pool, &MockLister{}, nil, "0 6 * * *", nil)
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	sched.Start()
	sched.Stop()

	if sched.Info().Schedule != "0 6 * * *" {
		t.Errorf("schedule not recorded: %+v", sched.Info())
	}
}
