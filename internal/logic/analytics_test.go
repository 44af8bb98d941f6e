package logic

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/proplab/stats-api/internal/cache"
	"github.com/proplab/stats-api/internal/models"
	"github.com/proplab/stats-api/internal/resilience"
)

type serviceFixture struct {
	svc    AnalyticsService
	logs   *mockGameLogStore
	splits *mockSplitsStore
	cache  *cache.Cache
	now    time.Time
}

func newServiceFixture(t *testing.T, records []models.GameRecord) *serviceFixture {
	t.Helper()
	now := time.Date(2025, 3, 2, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	c := cache.New(cache.NewMemoryStore(cache.MemoryConfig{Now: clock}), zap.NewNop())
	logs := &mockGameLogStore{records: records}
	splits := &mockSplitsStore{}
	layer := resilience.New(c, resilience.Config{
		BaseInterval: time.Second,
		MaxInterval:  time.Minute,
		Probe:        func(context.Context) error { return nil },
		Now:          clock,
	})

	svc := NewAnalyticsService(AnalyticsConfig{
		GameLogs:   logs,
		Roster:     &mockRoster{rosters: map[string][]models.GameRecord{"g00/T1": {{PlayerID: "star"}}}},
		Splits:     splits,
		Cache:      c,
		Resilience: layer,
		ResultTTL:  time.Minute,
		Logger:     zap.NewNop(),
		Now:        clock,
	})
	return &serviceFixture{svc: svc, logs: logs, splits: splits, cache: c, now: now}
}

func TestAnalyticsService_AnalyzeCaches(t *testing.T) {
	f := newServiceFixture(t, pointsLog(25, 18, 30, 20))
	ctx := context.Background()
	req := AnalysisRequest{PlayerID: "p1", Projection: "pts", Line: 20}

	res, err := f.svc.Analyze(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "p1", res.PlayerID)
	assert.Equal(t, 4, res.TotalGames)
	assert.Equal(t, 2, res.OverCount)

	again, err := f.svc.Analyze(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, res, again)
	assert.Equal(t, 1, f.logs.calls)

	// A different filter is a different key.
	_, err = f.svc.Analyze(ctx, AnalysisRequest{PlayerID: "p1", Projection: "pts", Line: 20, Filters: models.FilterSpec{LastN: 2}})
	require.NoError(t, err)
	assert.Equal(t, 2, f.logs.calls)
}

func TestAnalyticsService_InvalidProjection(t *testing.T) {
	f := newServiceFixture(t, pointsLog(10))

	_, err := f.svc.Analyze(context.Background(), AnalysisRequest{PlayerID: "p1", Projection: "dunks", Line: 1})
	assert.ErrorIs(t, err, models.ErrInvalidProjectionType)

	_, err = f.svc.GameOutcomes(context.Background(), AnalysisRequest{PlayerID: "p1", Projection: "", Line: 1})
	assert.ErrorIs(t, err, models.ErrInvalidProjectionType)
	assert.Zero(t, f.logs.calls)
}

func TestAnalyticsService_NoDataVersusUnreachable(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()

	res, err := f.svc.Analyze(ctx, AnalysisRequest{PlayerID: "p1", Projection: "pts", Line: 20})
	require.NoError(t, err)
	assert.True(t, res.NoDataAvailable)

	f.logs.err = errors.New("db down")
	_, err = f.svc.Analyze(ctx, AnalysisRequest{PlayerID: "p2", Projection: "pts", Line: 20})
	require.Error(t, err)
	assert.True(t, resilience.IsDataAccessError(err))
}

func TestAnalyticsService_FallbackServesSnapshot(t *testing.T) {
	f := newServiceFixture(t, pointsLog(25, 18))
	ctx := context.Background()

	_, err := f.svc.Analyze(ctx, AnalysisRequest{PlayerID: "p1", Projection: "pts", Line: 20})
	require.NoError(t, err)

	f.logs.err = errors.New("db down")
	// Different line misses the result cache but the records snapshot is used.
	res, err := f.svc.Analyze(ctx, AnalysisRequest{PlayerID: "p1", Projection: "pts", Line: 24})
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalGames)
	assert.Equal(t, 1, res.OverCount)
	assert.True(t, f.svc.FallbackState().FallbackMode)

	state, err := f.svc.ForceRetry(ctx)
	require.NoError(t, err)
	assert.False(t, state.FallbackMode)
}

func TestAnalyticsService_ExcludedTeammates(t *testing.T) {
	f := newServiceFixture(t, pointsLog(25, 18, 30))

	res, err := f.svc.Analyze(context.Background(), AnalysisRequest{
		PlayerID:   "p1",
		Projection: "pts",
		Line:       20,
		Filters:    models.FilterSpec{ExcludedTeammates: []string{"star"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalGames)
	assert.Equal(t, 1, res.OverCount)
}

func TestAnalyticsService_GameOutcomes(t *testing.T) {
	f := newServiceFixture(t, pointsLog(25, 18, 30))

	out, err := f.svc.GameOutcomes(context.Background(), AnalysisRequest{PlayerID: "p1", Projection: "pts", Line: 20})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "g02", out[0].GameID)
	assert.Equal(t, "g00", out[2].GameID)
}

func TestAnalyticsService_AdvancedMetrics(t *testing.T) {
	f := newServiceFixture(t, pointsLog(22, 18, 19, 15, 30))
	ctx := context.Background()

	m, err := f.svc.AdvancedMetrics(ctx, AdvancedRequest{PlayerID: "p1", Projection: "pts", Season: "2024-25"})
	require.NoError(t, err)
	assert.Equal(t, 5, m.GamesAnalyzed)
	assert.Equal(t, "2024-25", m.Season)
	assert.Equal(t, 3, m.LongestUnderStreak)

	_, err = f.svc.AdvancedMetrics(ctx, AdvancedRequest{PlayerID: "p1", Projection: "pts", Season: "2019-20"})
	assert.ErrorIs(t, err, models.ErrEmptyInput)

	_, err = f.svc.AdvancedMetrics(ctx, AdvancedRequest{PlayerID: "p1", Projection: "pts", Season: "last year"})
	assert.ErrorIs(t, err, models.ErrInvalidSeason)
}

func TestAnalyticsService_RollingSplits(t *testing.T) {
	f := newServiceFixture(t, pointsLog(25, 18, 30, 20, 22, 27))
	ctx := context.Background()

	rows, err := f.svc.ComputeRollingSplits(ctx, "p1")
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, f.now, rows[0].ComputedAt)

	require.NoError(t, f.splits.UpsertRollingSplits(ctx, rows))
	stored, err := f.svc.RollingSplits(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, stored, len(rows))
}

func TestAnalyticsService_InvalidateCache(t *testing.T) {
	f := newServiceFixture(t, pointsLog(25, 18))
	ctx := context.Background()
	req := AnalysisRequest{PlayerID: "p1", Projection: "pts", Line: 20}

	_, err := f.svc.Analyze(ctx, req)
	require.NoError(t, err)

	n, err := f.svc.InvalidateCache(ctx, cache.PlayerPattern(cache.PrefixAnalysis, "p1"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = f.svc.Analyze(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 2, f.logs.calls)
	assert.Equal(t, int64(1), f.svc.CacheStats().Deletes)
}
