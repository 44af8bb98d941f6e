// Package worker precomputes rolling splits in the background.
// A buffered job queue decouples scheduling from computation, providing:
// - Bounded concurrency for game-log reads
// - Batched upserts flushed on size or interval
// - A circuit breaker so a dead store stops a run early
// - Graceful shutdown that drains the queue and flushes
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/proplab/stats-api/internal/models"
	"github.com/proplab/stats-api/internal/resilience"
)

const opUpsertSplits = "upsert_rolling_splits"

// Prometheus metrics
var (
	playersEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "proplab_splits_players_enqueued_total",
		Help: "Total number of players queued for rolling-splits precomputation",
	})

	playersProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "proplab_splits_players_processed_total",
		Help: "Total number of players whose rolling splits were computed",
	})

	playersFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "proplab_splits_players_failed_total",
		Help: "Total number of players that failed or were skipped",
	})

	rowsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "proplab_splits_rows_written_total",
		Help: "Total number of rolling-split rows upserted",
	})

	rowsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "proplab_splits_rows_failed_total",
		Help: "Total number of rolling-split rows that could not be written",
	})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "proplab_splits_queue_depth",
		Help: "Current depth of the precompute queue",
	})

	batchUpsertDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "proplab_splits_batch_upsert_duration_seconds",
		Help:    "Duration of rolling-splits batch upserts",
		Buckets: prometheus.DefBuckets,
	})
)

// SplitsComputer computes a player's rolling splits from the game log.
type SplitsComputer interface {
	ComputeRollingSplits(ctx context.Context, playerID string) ([]models.RollingSplit, error)
}

// SplitsWriter persists rolling-split rows.
type SplitsWriter interface {
	UpsertRollingSplits(ctx context.Context, rows []models.RollingSplit) error
}

// Job represents one player to precompute
type Job struct {
	RunID    string
	PlayerID string
	Enqueued time.Time
}

// PoolConfig configures the worker pool
type PoolConfig struct {
	WorkerCount   int
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration
	FlushTimeout  time.Duration
	Computer      SplitsComputer
	Writer        SplitsWriter
	Resilience    *resilience.Layer
	Breaker       *gobreaker.CircuitBreaker
	Logger        *zap.Logger
}

// Pool manages a pool of precompute workers
type Pool struct {
	config   PoolConfig
	jobQueue chan Job
	breaker  *gobreaker.CircuitBreaker
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *zap.SugaredLogger
	stopOnce sync.Once
}

// NewBreaker builds the store-write circuit breaker. It opens after three
// consecutive failed batches and half-opens after timeout.
func NewBreaker(timeout time.Duration, logger *zap.SugaredLogger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "splits-store",
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warnw("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

// NewPool creates a new worker pool
func NewPool(cfg PoolConfig) *Pool {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 10000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}
	if cfg.FlushTimeout <= 0 {
		cfg.FlushTimeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Resilience == nil {
		cfg.Resilience = resilience.New(nil, resilience.Config{Logger: cfg.Logger})
	}

	logger := cfg.Logger.Sugar()
	breaker := cfg.Breaker
	if breaker == nil {
		breaker = NewBreaker(30*time.Second, logger)
	}

	return &Pool{
		config:   cfg,
		jobQueue: make(chan Job, cfg.QueueSize),
		breaker:  breaker,
		logger:   logger,
	}
}

// Start launches the worker goroutines
func (p *Pool) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)

	for i := 0; i < p.config.WorkerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	go p.reportQueueDepth()

	p.logger.Infow("Worker pool started",
		"workers", p.config.WorkerCount,
		"queueSize", p.config.QueueSize,
		"batchSize", p.config.BatchSize,
	)
}

// Stop closes the queue, waits for workers to drain it and flush, then
// cancels the pool context.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.logger.Info("Stopping worker pool...")
		close(p.jobQueue)
		p.wg.Wait()
		p.cancel()
		p.logger.Info("Worker pool stopped")
	})
}

// Enqueue adds a job to the queue. Blocks while the queue is full.
func (p *Pool) Enqueue(job Job) (queued bool) {
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now()
	}

	// Protect against sending on closed channel
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warnw("Failed to enqueue player (pool stopped)", "player", job.PlayerID)
			queued = false
		}
	}()

	select {
	case p.jobQueue <- job:
		playersEnqueued.Inc()
		return true
	case <-p.ctx.Done():
		p.logger.Warnw("Worker pool context canceled, dropping player", "player", job.PlayerID)
		return false
	}
}

// QueueDepth returns current queue size
func (p *Pool) QueueDepth() int {
	return len(p.jobQueue)
}

// BreakerState reports the store-write circuit breaker state.
func (p *Pool) BreakerState() gobreaker.State {
	return p.breaker.State()
}

func (p *Pool) reportQueueDepth() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			queueDepth.Set(float64(len(p.jobQueue)))
		}
	}
}

// worker computes splits per job and flushes rows in batches
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	batch := make([]models.RollingSplit, 0, p.config.BatchSize)
	ticker := time.NewTicker(p.config.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		start := time.Now()
		if err := p.writeBatch(batch); err != nil {
			p.logger.Errorw("Batch upsert failed",
				"worker", id,
				"batchSize", len(batch),
				"error", err,
			)
			rowsFailed.Add(float64(len(batch)))
		} else {
			p.logger.Debugw("Batch upserted", "worker", id, "batchSize", len(batch), "duration", time.Since(start))
			rowsWritten.Add(float64(len(batch)))
		}
		batchUpsertDuration.Observe(time.Since(start).Seconds())

		batch = batch[:0]
	}

	for {
		select {
		case job, ok := <-p.jobQueue:
			if !ok {
				flush()
				return
			}

			rows, err := p.process(job)
			if err != nil {
				p.logger.Warnw("Rolling splits skipped", "worker", id, "run", job.RunID, "player", job.PlayerID, "error", err)
				playersFailed.Inc()
				continue
			}
			playersProcessed.Inc()

			batch = append(batch, rows...)
			if len(batch) >= p.config.BatchSize {
				flush()
			}

		case <-ticker.C:
			flush()

		case <-p.ctx.Done():
			flush()
			return
		}
	}
}

// process computes one player's rows. While the breaker is open there is no
// point reading game logs for rows that cannot be written.
func (p *Pool) process(job Job) ([]models.RollingSplit, error) {
	if p.breaker.State() == gobreaker.StateOpen {
		return nil, gobreaker.ErrOpenState
	}
	return p.config.Computer.ComputeRollingSplits(p.ctx, job.PlayerID)
}

// writeBatch upserts rows through the breaker and the resilience write path.
func (p *Pool) writeBatch(rows []models.RollingSplit) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.FlushTimeout)
	defer cancel()

	_, err := p.breaker.Execute(func() (interface{}, error) {
		var writeErr error
		n, ok := resilience.ExecuteWrite(ctx, p.config.Resilience, opUpsertSplits, func(ctx context.Context) (int, error) {
			writeErr = p.config.Writer.UpsertRollingSplits(ctx, rows)
			return len(rows), writeErr
		})
		if !ok {
			if writeErr == nil {
				writeErr = errors.New("rolling splits upsert failed")
			}
			return nil, writeErr
		}
		return n, nil
	})
	return err
}
