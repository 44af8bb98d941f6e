package logic

import (
	"context"
	"time"

	"github.com/proplab/stats-api/internal/cache"
	"github.com/proplab/stats-api/internal/models"
	"github.com/proplab/stats-api/internal/resilience"
)

// GameLogStore returns a player's games, most recent first. A zero DateRange
// means all games.
type GameLogStore interface {
	GetPlayerGameLogs(ctx context.Context, playerID string, r models.DateRange) ([]models.GameRecord, error)
}

// RosterLookup returns the records of every player who appeared for teamID in gameID.
type RosterLookup interface {
	GetGameTeamRoster(ctx context.Context, gameID, teamID string) ([]models.GameRecord, error)
}

// SplitsStore persists precomputed rolling splits.
type SplitsStore interface {
	ListTrackedPlayers(ctx context.Context) ([]string, error)
	UpsertRollingSplits(ctx context.Context, rows []models.RollingSplit) error
	GetRollingSplits(ctx context.Context, playerID string) ([]models.RollingSplit, error)
}

// HealthChecker is implemented by stores that can be pinged.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// AnalyticsService is the engine's entry point.
type AnalyticsService interface {
	Analyze(ctx context.Context, req AnalysisRequest) (*models.AnalysisResult, error)
	GameOutcomes(ctx context.Context, req AnalysisRequest) ([]models.GameOutcome, error)
	AdvancedMetrics(ctx context.Context, req AdvancedRequest) (*models.AdvancedMetrics, error)
	RollingSplits(ctx context.Context, playerID string) ([]models.RollingSplit, error)
	ComputeRollingSplits(ctx context.Context, playerID string) ([]models.RollingSplit, error)

	CacheStats() cache.Stats
	InvalidateCache(ctx context.Context, pattern string) (int, error)
	FallbackState() resilience.State
	ForceRetry(ctx context.Context) (resilience.State, error)
}

// AnalysisRequest identifies one line-based analysis.
type AnalysisRequest struct {
	PlayerID   string
	Projection string
	Line       float64
	Filters    models.FilterSpec
}

// AdvancedRequest identifies one advanced-metrics computation. Season is
// "2024-25", "2024" or empty for all games.
type AdvancedRequest struct {
	PlayerID   string
	Projection string
	Season     string
}

// Clock is injected where results carry timestamps.
type Clock func() time.Time
