package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/proplab/stats-api/internal/resilience"
)

const opListTracked = "list_tracked_players"

// trackedSnapshotKey holds the last successful tracked-player listing.
const trackedSnapshotKey = "tracked:players"

// PlayerLister lists the players rolling splits are kept for.
type PlayerLister interface {
	ListTrackedPlayers(ctx context.Context) ([]string, error)
}

// RunInfo describes the most recent precompute run.
type RunInfo struct {
	RunID      string        `json:"run_id"`
	Schedule   string        `json:"schedule,omitempty"`
	LastRun    time.Time     `json:"last_run"`
	NextRun    time.Time     `json:"next_run,omitempty"`
	Enqueued   int           `json:"enqueued"`
	RunCount   int           `json:"run_count"`
	ErrorCount int           `json:"error_count"`
	LastError  string        `json:"last_error,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// Scheduler enqueues every tracked player into the pool on a cron schedule.
type Scheduler struct {
	pool    *Pool
	players PlayerLister
	layer   *resilience.Layer
	cron    *cron.Cron
	entryID cron.EntryID
	logger  *zap.SugaredLogger

	mu   sync.Mutex
	info RunInfo
}

// NewScheduler creates a scheduler. Listings go through layer so a dead store
// moves it into fallback mode; a nil layer gets a private one. An empty
// schedule disables the cron trigger; RunOnce still works.
func NewScheduler(pool *Pool, players PlayerLister, layer *resilience.Layer, schedule string, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if layer == nil {
		layer = resilience.New(nil, resilience.Config{Logger: logger})
	}
	s := &Scheduler{
		pool:    pool,
		players: players,
		layer:   layer,
		cron:    cron.New(),
		logger:  logger.Sugar(),
		info:    RunInfo{Schedule: schedule},
	}
	if schedule == "" {
		return s, nil
	}

	id, err := s.cron.AddFunc(schedule, func() {
		if _, err := s.RunOnce(context.Background()); err != nil {
			s.logger.Errorw("Scheduled rolling splits run failed", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule rolling splits %q: %w", schedule, err)
	}
	s.entryID = id
	return s, nil
}

// Start begins firing the cron schedule.
func (s *Scheduler) Start() {
	s.cron.Start()
	if s.entryID != 0 {
		s.logger.Infow("Rolling splits scheduled", "schedule", s.info.Schedule, "next_run", s.cron.Entry(s.entryID).Next)
	}
}

// Stop halts the cron schedule and waits for a running trigger, up to 5s.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		s.logger.Warn("Cron scheduler stop timed out")
	}
}

// RunOnce enqueues every tracked player under a fresh run id and returns it.
func (s *Scheduler) RunOnce(ctx context.Context) (RunInfo, error) {
	start := time.Now()
	runID := uuid.NewString()

	ids, err := resilience.Execute(ctx, s.layer, opListTracked, trackedSnapshotKey, s.players.ListTrackedPlayers)
	if err != nil {
		s.finish(runID, start, 0, err)
		return s.Info(), fmt.Errorf("list tracked players: %w", err)
	}

	enqueued := 0
	for _, id := range ids {
		if s.pool.Enqueue(Job{RunID: runID, PlayerID: id, Enqueued: start}) {
			enqueued++
		}
	}

	s.logger.Infow("Rolling splits run enqueued", "run", runID, "players", len(ids), "enqueued", enqueued)
	s.finish(runID, start, enqueued, nil)
	return s.Info(), nil
}

func (s *Scheduler) finish(runID string, start time.Time, enqueued int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info.RunID = runID
	s.info.LastRun = start
	s.info.Enqueued = enqueued
	s.info.RunCount++
	s.info.Duration = time.Since(start)
	if err != nil {
		s.info.ErrorCount++
		s.info.LastError = err.Error()
	}
	if s.entryID != 0 {
		s.info.NextRun = s.cron.Entry(s.entryID).Next
	}
}

// Info returns the most recent run.
func (s *Scheduler) Info() RunInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info
}
