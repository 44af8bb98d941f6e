package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/proplab/stats-api/internal/cache"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

var errStore = errors.New("connection refused")

func newTestLayer(t *testing.T, probe func(context.Context) error) (*Layer, *clock) {
	t.Helper()
	clk := &clock{t: time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)}
	store := cache.NewMemoryStore(cache.MemoryConfig{Now: clk.Now})
	l := New(cache.New(store, zap.NewNop()), Config{
		BaseInterval: time.Second,
		MaxInterval:  10 * time.Second,
		SnapshotTTL:  time.Hour,
		Probe:        probe,
		Logger:       zap.NewNop(),
		Now:          clk.Now,
	})
	return l, clk
}

func ok(v []int) func(context.Context) ([]int, error) {
	return func(context.Context) ([]int, error) { return v, nil }
}

func fail(context.Context) ([]int, error) { return nil, errStore }

func TestExecute_ServesSnapshotOnFailure(t *testing.T) {
	l, _ := newTestLayer(t, nil)
	ctx := context.Background()

	got, err := Execute(ctx, l, "game_logs", "records:p1", ok([]int{1, 2, 3}))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, got)
	assert.False(t, l.InFallback())

	got, err = Execute(ctx, l, "game_logs", "records:p1", fail)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, got)

	s := l.State()
	assert.True(t, s.FallbackMode)
	assert.Equal(t, 1, s.RetryCount)
	assert.Equal(t, errStore.Error(), s.LastError)
}

func TestExecute_NoSnapshotNoDefault(t *testing.T) {
	l, _ := newTestLayer(t, nil)

	_, err := Execute(context.Background(), l, "game_logs", "records:p1", fail)
	require.Error(t, err)

	var dae *DataAccessError
	require.ErrorAs(t, err, &dae)
	assert.Equal(t, "game_logs", dae.Operation)
	assert.ErrorIs(t, err, errStore)
	assert.True(t, IsDataAccessError(err))
}

func TestExecute_DefaultValue(t *testing.T) {
	l, _ := newTestLayer(t, nil)

	got, err := Execute(context.Background(), l, "roster", "roster:g1:t1", fail, WithDefault([]int{}))
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.True(t, l.InFallback())
}

func TestExecute_SkipsStoreDuringBackoff(t *testing.T) {
	l, clk := newTestLayer(t, nil)
	ctx := context.Background()

	calls := 0
	counting := func(context.Context) ([]int, error) {
		calls++
		return nil, errStore
	}

	_, err := Execute(ctx, l, "game_logs", "", counting)
	require.Error(t, err)
	assert.Equal(t, 1, calls)

	// Within the 1s backoff the op is not attempted.
	clk.Advance(500 * time.Millisecond)
	_, err = Execute(ctx, l, "game_logs", "", counting)
	assert.ErrorIs(t, err, ErrBackoff)
	assert.ErrorIs(t, err, errStore)
	assert.Equal(t, 1, calls)

	clk.Advance(500 * time.Millisecond)
	_, err = Execute(ctx, l, "game_logs", "", counting)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrBackoff)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, l.State().RetryCount)
}

func TestExecute_RecoversOnSuccess(t *testing.T) {
	l, clk := newTestLayer(t, nil)
	ctx := context.Background()

	_, _ = Execute(ctx, l, "game_logs", "", fail)
	require.True(t, l.InFallback())

	clk.Advance(time.Second)
	got, err := Execute(ctx, l, "game_logs", "", ok([]int{7}))
	require.NoError(t, err)
	assert.Equal(t, []int{7}, got)

	s := l.State()
	assert.False(t, s.FallbackMode)
	assert.Zero(t, s.RetryCount)
	assert.True(t, s.NextRetryAt.IsZero())
}

func TestBackoff(t *testing.T) {
	l, _ := newTestLayer(t, nil)

	tests := []struct {
		retries int
		want    time.Duration
	}{
		{0, 0},
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 10 * time.Second},
		{50, 10 * time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, l.Backoff(tt.retries), "retries=%d", tt.retries)
	}
}

func TestState_NextRetryAt(t *testing.T) {
	l, clk := newTestLayer(t, nil)
	start := clk.Now()

	_, _ = Execute(context.Background(), l, "game_logs", "", fail)
	assert.Equal(t, start.Add(time.Second), l.State().NextRetryAt)

	clk.Advance(time.Second)
	_, _ = Execute(context.Background(), l, "game_logs", "", fail)
	assert.Equal(t, start.Add(time.Second).Add(2*time.Second), l.State().NextRetryAt)
}

func TestExecuteWrite(t *testing.T) {
	l, _ := newTestLayer(t, nil)
	ctx := context.Background()

	n, written := ExecuteWrite(ctx, l, "upsert_splits", func(context.Context) (int, error) { return 0, errStore })
	assert.False(t, written)
	assert.Zero(t, n)
	assert.True(t, l.InFallback())

	n, written = ExecuteWrite(ctx, l, "upsert_splits", func(context.Context) (int, error) { return 30, nil })
	assert.True(t, written)
	assert.Equal(t, 30, n)
	assert.False(t, l.InFallback())
}

func TestForceRetry(t *testing.T) {
	healthy := false
	l, _ := newTestLayer(t, func(context.Context) error {
		if healthy {
			return nil
		}
		return errStore
	})
	ctx := context.Background()

	_, _ = Execute(ctx, l, "game_logs", "", fail)

	s, err := l.ForceRetry(ctx)
	assert.ErrorIs(t, err, errStore)
	assert.True(t, s.FallbackMode)
	assert.Equal(t, 2, s.RetryCount)

	healthy = true
	s, err = l.ForceRetry(ctx)
	require.NoError(t, err)
	assert.False(t, s.FallbackMode)
}

func TestForceRetry_NoProbe(t *testing.T) {
	l, _ := newTestLayer(t, nil)
	_, err := l.ForceRetry(context.Background())
	assert.Error(t, err)
}
