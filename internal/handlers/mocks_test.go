package handlers

import (
	"context"
	"errors"

	"github.com/proplab/stats-api/internal/cache"
	"github.com/proplab/stats-api/internal/logic"
	"github.com/proplab/stats-api/internal/models"
	"github.com/proplab/stats-api/internal/resilience"
	"github.com/proplab/stats-api/internal/worker"
)

// MockAnalyticsService
type MockAnalyticsService struct {
	AnalyzeFunc              func(ctx context.Context, req logic.AnalysisRequest) (*models.AnalysisResult, error)
	GameOutcomesFunc         func(ctx context.Context, req logic.AnalysisRequest) ([]models.GameOutcome, error)
	AdvancedMetricsFunc      func(ctx context.Context, req logic.AdvancedRequest) (*models.AdvancedMetrics, error)
	RollingSplitsFunc        func(ctx context.Context, playerID string) ([]models.RollingSplit, error)
	ComputeRollingSplitsFunc func(ctx context.Context, playerID string) ([]models.RollingSplit, error)
	InvalidateCacheFunc      func(ctx context.Context, pattern string) (int, error)
	ForceRetryFunc           func(ctx context.Context) (resilience.State, error)

	Stats cache.Stats
	State resilience.State
}

func (m *MockAnalyticsService) Analyze(ctx context.Context, req logic.AnalysisRequest) (*models.AnalysisResult, error) {
	if m.AnalyzeFunc != nil {
		return m.AnalyzeFunc(ctx, req)
	}
	return &models.AnalysisResult{PlayerID: req.PlayerID, Projection: req.Projection, Line: req.Line}, nil
}

func (m *MockAnalyticsService) GameOutcomes(ctx context.Context, req logic.AnalysisRequest) ([]models.GameOutcome, error) {
	if m.GameOutcomesFunc != nil {
		return m.GameOutcomesFunc(ctx, req)
	}
	return []models.GameOutcome{}, nil
}

func (m *MockAnalyticsService) AdvancedMetrics(ctx context.Context, req logic.AdvancedRequest) (*models.AdvancedMetrics, error) {
	if m.AdvancedMetricsFunc != nil {
		return m.AdvancedMetricsFunc(ctx, req)
	}
	return &models.AdvancedMetrics{PlayerID: req.PlayerID, Projection: req.Projection, Season: req.Season}, nil
}

func (m *MockAnalyticsService) RollingSplits(ctx context.Context, playerID string) ([]models.RollingSplit, error) {
	if m.RollingSplitsFunc != nil {
		return m.RollingSplitsFunc(ctx, playerID)
	}
	return nil, nil
}

func (m *MockAnalyticsService) ComputeRollingSplits(ctx context.Context, playerID string) ([]models.RollingSplit, error) {
	if m.ComputeRollingSplitsFunc != nil {
		return m.ComputeRollingSplitsFunc(ctx, playerID)
	}
	return nil, nil
}

func (m *MockAnalyticsService) CacheStats() cache.Stats { return m.Stats }

func (m *MockAnalyticsService) InvalidateCache(ctx context.Context, pattern string) (int, error) {
	if m.InvalidateCacheFunc != nil {
		return m.InvalidateCacheFunc(ctx, pattern)
	}
	return 0, nil
}

func (m *MockAnalyticsService) FallbackState() resilience.State { return m.State }

func (m *MockAnalyticsService) ForceRetry(ctx context.Context) (resilience.State, error) {
	if m.ForceRetryFunc != nil {
		return m.ForceRetryFunc(ctx)
	}
	return m.State, nil
}

// MockSplitsRefresher
type MockSplitsRefresher struct {
	RunOnceFunc func(ctx context.Context) (worker.RunInfo, error)
	Last        worker.RunInfo
}

func (m *MockSplitsRefresher) RunOnce(ctx context.Context) (worker.RunInfo, error) {
	if m.RunOnceFunc != nil {
		return m.RunOnceFunc(ctx)
	}
	return m.Last, nil
}

func (m *MockSplitsRefresher) Info() worker.RunInfo { return m.Last }

// MockChecker
type MockChecker struct {
	Err error
}

func (m *MockChecker) Ping(ctx context.Context) error { return m.Err }

type MockQueue struct{ Depth int }

func (m *MockQueue) QueueDepth() int { return m.Depth }

var errStoreDown = errors.New("connection refused")
