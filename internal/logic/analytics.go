package logic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/proplab/stats-api/internal/cache"
	"github.com/proplab/stats-api/internal/models"
	"github.com/proplab/stats-api/internal/resilience"
)

const defaultResultTTL = 5 * time.Minute

// Operation names reported by the resilience layer.
const (
	opGameLogs      = "game_logs"
	opRoster        = "roster"
	opRollingSplits = "rolling_splits"
)

// AnalyticsConfig wires the service's collaborators.
type AnalyticsConfig struct {
	GameLogs GameLogStore
	Roster   RosterLookup
	Splits   SplitsStore

	Cache      *cache.Cache
	Resilience *resilience.Layer

	ResultTTL         time.Duration
	RosterConcurrency int

	Logger *zap.Logger
	Now    Clock
}

type analyticsService struct {
	gameLogs GameLogStore
	splits   SplitsStore
	cache    *cache.Cache
	layer    *resilience.Layer
	filters  *FilterEngine
	ttl      time.Duration
	logger   *zap.SugaredLogger
	now      Clock
}

// NewAnalyticsService creates the analytics engine. Cache and Resilience are
// shared process-wide and must be constructed by the caller.
func NewAnalyticsService(cfg AnalyticsConfig) AnalyticsService {
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = defaultResultTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	s := &analyticsService{
		gameLogs: cfg.GameLogs,
		splits:   cfg.Splits,
		cache:    cfg.Cache,
		layer:    cfg.Resilience,
		ttl:      cfg.ResultTTL,
		logger:   cfg.Logger.Sugar(),
		now:      cfg.Now,
	}

	var roster RosterLookup
	if cfg.Roster != nil {
		roster = &resilientRoster{next: cfg.Roster, layer: cfg.Resilience}
	}
	s.filters = NewFilterEngine(roster, cfg.RosterConcurrency)
	return s
}

// Analyze returns the line-based analysis of a player's filtered game log.
func (s *analyticsService) Analyze(ctx context.Context, req AnalysisRequest) (*models.AnalysisResult, error) {
	p, err := models.ParseProjection(req.Projection)
	if err != nil {
		return nil, err
	}

	key := cache.AnalysisKey(req.PlayerID, p.Key, req.Line, req.Filters)
	return cache.GetOrCompute(ctx, s.cache, key, s.ttl, func(ctx context.Context) (*models.AnalysisResult, error) {
		records, err := s.filteredRecords(ctx, req.PlayerID, req.Filters)
		if err != nil {
			return nil, err
		}
		res := Analyze(records, p, req.Line)
		res.PlayerID = req.PlayerID
		return &res, nil
	})
}

// GameOutcomes returns the per-game over/under sequence, oldest first.
func (s *analyticsService) GameOutcomes(ctx context.Context, req AnalysisRequest) ([]models.GameOutcome, error) {
	p, err := models.ParseProjection(req.Projection)
	if err != nil {
		return nil, err
	}

	key := cache.OutcomesKey(req.PlayerID, p.Key, req.Line, req.Filters)
	return cache.GetOrCompute(ctx, s.cache, key, s.ttl, func(ctx context.Context) ([]models.GameOutcome, error) {
		records, err := s.filteredRecords(ctx, req.PlayerID, req.Filters)
		if err != nil {
			return nil, err
		}
		return BuildGameOutcomes(records, p, req.Line), nil
	})
}

// AdvancedMetrics returns consistency metrics for a season, or for every game
// when Season is empty. A player with no games returns models.ErrEmptyInput.
func (s *analyticsService) AdvancedMetrics(ctx context.Context, req AdvancedRequest) (*models.AdvancedMetrics, error) {
	p, err := models.ParseProjection(req.Projection)
	if err != nil {
		return nil, err
	}
	dr, err := models.SeasonRange(req.Season)
	if err != nil {
		return nil, err
	}

	key := cache.AdvancedKey(req.PlayerID, p.Key, req.Season)
	return cache.GetOrCompute(ctx, s.cache, key, s.ttl, func(ctx context.Context) (*models.AdvancedMetrics, error) {
		records, err := s.records(ctx, req.PlayerID, dr)
		if err != nil {
			return nil, err
		}
		m, err := ComputeAdvancedMetrics(records, p)
		if err != nil {
			return nil, fmt.Errorf("player %s: %w", req.PlayerID, err)
		}
		m.PlayerID = req.PlayerID
		m.Season = req.Season
		return &m, nil
	})
}

// RollingSplits returns the stored precomputed rows for a player.
func (s *analyticsService) RollingSplits(ctx context.Context, playerID string) ([]models.RollingSplit, error) {
	if s.splits == nil {
		return nil, errors.New("rolling splits store not configured")
	}
	return resilience.Execute(ctx, s.layer, opRollingSplits, cache.SplitsKey(playerID),
		func(ctx context.Context) ([]models.RollingSplit, error) {
			return s.splits.GetRollingSplits(ctx, playerID)
		})
}

// ComputeRollingSplits recomputes a player's rolling splits from the full
// game log without persisting them.
func (s *analyticsService) ComputeRollingSplits(ctx context.Context, playerID string) ([]models.RollingSplit, error) {
	records, err := s.records(ctx, playerID, models.DateRange{})
	if err != nil {
		return nil, err
	}
	return ComputeRollingSplits(playerID, records, s.now().UTC()), nil
}

func (s *analyticsService) CacheStats() cache.Stats {
	return s.cache.Stats()
}

func (s *analyticsService) InvalidateCache(ctx context.Context, pattern string) (int, error) {
	return s.cache.InvalidateByPattern(ctx, pattern)
}

func (s *analyticsService) FallbackState() resilience.State {
	return s.layer.State()
}

func (s *analyticsService) ForceRetry(ctx context.Context) (resilience.State, error) {
	return s.layer.ForceRetry(ctx)
}

func (s *analyticsService) records(ctx context.Context, playerID string, dr models.DateRange) ([]models.GameRecord, error) {
	return resilience.Execute(ctx, s.layer, opGameLogs, cache.RecordsKey(playerID, dr),
		func(ctx context.Context) ([]models.GameRecord, error) {
			return s.gameLogs.GetPlayerGameLogs(ctx, playerID, dr)
		})
}

func (s *analyticsService) filteredRecords(ctx context.Context, playerID string, spec models.FilterSpec) ([]models.GameRecord, error) {
	records, err := s.records(ctx, playerID, spec.DateRange())
	if err != nil {
		return nil, err
	}
	filtered, err := s.filters.Apply(ctx, records, spec)
	if err != nil {
		return nil, err
	}
	s.logger.Debugw("Filtered game log", "player", playerID, "fetched", len(records), "kept", len(filtered))
	return filtered, nil
}

// resilientRoster routes roster lookups through the resilience layer so a
// flaky store can still be answered from snapshots.
type resilientRoster struct {
	next  RosterLookup
	layer *resilience.Layer
}

func (r *resilientRoster) GetGameTeamRoster(ctx context.Context, gameID, teamID string) ([]models.GameRecord, error) {
	return resilience.Execute(ctx, r.layer, opRoster, cache.RosterKey(gameID, teamID),
		func(ctx context.Context) ([]models.GameRecord, error) {
			return r.next.GetGameTeamRoster(ctx, gameID, teamID)
		})
}
