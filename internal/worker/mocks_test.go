package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/proplab/stats-api/internal/models"
	"github.com/proplab/stats-api/internal/resilience"
)

// MockComputer returns rowsPerPlayer rows for every player except those in Fail.
type MockComputer struct {
	mu            sync.Mutex
	rowsPerPlayer int
	Fail          map[string]bool
	Calls         []string
}

func (m *MockComputer) ComputeRollingSplits(ctx context.Context, playerID string) ([]models.RollingSplit, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, playerID)
	m.mu.Unlock()

	if m.Fail[playerID] {
		return nil, errors.New("game log unavailable")
	}
	rows := make([]models.RollingSplit, m.rowsPerPlayer)
	for i := range rows {
		rows[i] = models.RollingSplit{PlayerID: playerID, Projection: "pts", Window: 5 * (i + 1)}
	}
	return rows, nil
}

func (m *MockComputer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MockWriter records upserted rows and can be switched to fail.
type MockWriter struct {
	mu      sync.Mutex
	Rows    []models.RollingSplit
	Batches int
	Err     error
}

func (m *MockWriter) UpsertRollingSplits(ctx context.Context, rows []models.RollingSplit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Batches++
	if m.Err != nil {
		return m.Err
	}
	m.Rows = append(m.Rows, rows...)
	return nil
}

func (m *MockWriter) Written() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Rows)
}

func (m *MockWriter) BatchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Batches
}

// MockLister returns a fixed player list.
type MockLister struct {
	Players []string
	Err     error
}

func (m *MockLister) ListTrackedPlayers(ctx context.Context) ([]string, error) {
	return m.Players, m.Err
}

func newTestPool(computer SplitsComputer, writer SplitsWriter, cfg PoolConfig) *Pool {
	cfg.Computer = computer
	cfg.Writer = writer
	cfg.Logger = zap.NewNop()
	if cfg.Resilience == nil {
		cfg.Resilience = resilience.New(nil, resilience.Config{BaseInterval: time.Millisecond})
	}
	return NewPool(cfg)
}
