// Command api serves player prop analytics over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/proplab/stats-api/internal/cache"
	"github.com/proplab/stats-api/internal/config"
	"github.com/proplab/stats-api/internal/handlers"
	"github.com/proplab/stats-api/internal/logic"
	"github.com/proplab/stats-api/internal/resilience"
	"github.com/proplab/stats-api/internal/store"
	"github.com/proplab/stats-api/internal/worker"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Server exited with error", zap.Error(err))
	}
	logger.Info("Server stopped")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	}
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	sugar := logger.Sugar()

	pool, err := store.OpenPostgres(ctx, cfg.PostgresURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	pg := store.NewPostgres(pool)
	if err := pg.EnsureSchema(ctx); err != nil {
		return err
	}
	checks := map[string]logic.HealthChecker{"postgres": pg}

	// Game logs and rosters come from Postgres unless the analytics replica is selected.
	var (
		gameLogs logic.GameLogStore  = pg
		roster   logic.RosterLookup  = pg
		probe    logic.HealthChecker = pg
	)
	if cfg.GameLogSource == config.SourceClickHouse {
		conn, err := store.OpenClickHouse(ctx, cfg.ClickHouseURL)
		if err != nil {
			return err
		}
		defer conn.Close()

		ch := store.NewClickHouse(conn)
		gameLogs, roster, probe = ch, ch, ch
		checks["clickhouse"] = ch
	}

	var backend cache.Store
	switch cfg.CacheBackend {
	case config.CacheRedis:
		client, err := cache.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()

		rs := cache.NewRedisStore(client, "proplab:")
		backend = rs
		checks["redis"] = rs
	default:
		mem := cache.NewMemoryStore(cache.MemoryConfig{
			SweepInterval: cfg.CacheSweepInterval,
			Logger:        logger,
		})
		mem.Start(ctx)
		defer mem.Stop()
		backend = mem
	}
	results := cache.New(backend, logger)

	layer := resilience.New(results, resilience.Config{
		BaseInterval: cfg.FallbackBaseInterval,
		MaxInterval:  cfg.FallbackMaxInterval,
		Probe:        probe.Ping,
		Logger:       logger,
	})

	analytics := logic.NewAnalyticsService(logic.AnalyticsConfig{
		GameLogs:          gameLogs,
		Roster:            roster,
		Splits:            pg,
		Cache:             results,
		Resilience:        layer,
		ResultTTL:         cfg.CacheTTL,
		RosterConcurrency: cfg.RosterLookupConcurrency,
		Logger:            logger,
	})

	workers := worker.NewPool(worker.PoolConfig{
		WorkerCount:   cfg.WorkerCount,
		QueueSize:     cfg.QueueSize,
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.FlushInterval,
		Computer:      analytics,
		Writer:        pg,
		Resilience:    layer,
		Logger:        logger,
	})
	workers.Start(ctx)

	scheduler, err := worker.NewScheduler(workers, pg, layer, cfg.SplitsCron, logger)
	if err != nil {
		workers.Stop()
		return err
	}
	scheduler.Start()

	h := handlers.New(handlers.Config{
		Analytics:  analytics,
		Splits:     scheduler,
		Queue:      workers,
		Writer:     pg,
		Resilience: layer,
		Checks:     checks,
		Logger:     logger,
	})

	router := h.Router(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sugar.Infow("HTTP server listening", "addr", srv.Addr, "env", cfg.Env,
			"gamelog_source", cfg.GameLogSource, "cache_backend", cfg.CacheBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sugar.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		scheduler.Stop()
		workers.Stop()
		return err
	})

	return g.Wait()
}
