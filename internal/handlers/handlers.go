package handlers

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/proplab/stats-api/internal/logic"
	"github.com/proplab/stats-api/internal/models"
	"github.com/proplab/stats-api/internal/resilience"
	"github.com/proplab/stats-api/internal/worker"
)

// SplitsRefresher triggers and reports rolling-splits precompute runs.
type SplitsRefresher interface {
	RunOnce(ctx context.Context) (worker.RunInfo, error)
	Info() worker.RunInfo
}

// QueueMonitor reports the precompute queue backlog.
type QueueMonitor interface {
	QueueDepth() int
}

// GameLogWriter stores ingested box scores.
type GameLogWriter interface {
	InsertGameLogs(ctx context.Context, records []models.GameRecord) (int, error)
	TrackPlayers(ctx context.Context, playerIDs ...string) error
}

type Config struct {
	Analytics logic.AnalyticsService
	Splits    SplitsRefresher
	Queue     QueueMonitor
	Writer    GameLogWriter
	// Resilience guards ingest writes; nil gets a private layer.
	Resilience *resilience.Layer
	// Checks are pinged by the readiness endpoint, keyed by dependency name.
	Checks map[string]logic.HealthChecker
	Logger *zap.Logger
}

type Handler struct {
	analytics logic.AnalyticsService
	splits    SplitsRefresher
	queue     QueueMonitor
	writer    GameLogWriter
	layer     *resilience.Layer
	checks    map[string]logic.HealthChecker
	logger    *zap.SugaredLogger
	validator *validator.Validate
}

func New(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	layer := cfg.Resilience
	if layer == nil {
		layer = resilience.New(nil, resilience.Config{Logger: logger})
	}
	v := validator.New()
	v.RegisterStructValidation(validateGameRecord, models.GameRecord{})
	return &Handler{
		analytics: cfg.Analytics,
		splits:    cfg.Splits,
		queue:     cfg.Queue,
		writer:    cfg.Writer,
		layer:     layer,
		checks:    cfg.Checks,
		logger:    logger.Sugar(),
		validator: v,
	}
}
