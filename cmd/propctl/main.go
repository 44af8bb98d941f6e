// Command propctl runs the analytics engine against a local SQLite game log.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/proplab/stats-api/internal/cache"
	"github.com/proplab/stats-api/internal/logic"
	"github.com/proplab/stats-api/internal/resilience"
	"github.com/proplab/stats-api/internal/store"
)

var (
	dbPath  string
	asJSON  bool
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:           "propctl",
	Short:         "Player prop analytics tool",
	Long:          "Analyze player game logs against betting lines and maintain rolling splits in a local SQLite database.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	defaultDB := filepath.Join(mustUserHome(), ".proplab", "props.db")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDB, "path to SQLite database")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print JSON instead of tables")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log engine activity to stderr")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(outcomesCmd)
	rootCmd.AddCommand(advancedCmd)
	rootCmd.AddCommand(splitsCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(trackCmd)
	rootCmd.AddCommand(projectionsCmd)
}

func mustUserHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

// env bundles what every command needs: the opened store and an engine over it.
type env struct {
	db        *store.SQLite
	analytics logic.AnalyticsService
	layer     *resilience.Layer
	logger    *zap.Logger
}

func (e *env) Close() error {
	return e.db.Close()
}

func openEnv() (*env, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := store.OpenSQLite(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	logger := zap.NewNop()
	if verbose {
		if logger, err = zap.NewDevelopment(); err != nil {
			db.Close()
			return nil, err
		}
	}

	results := cache.New(cache.NewMemoryStore(cache.MemoryConfig{Logger: logger}), logger)
	layer := resilience.New(results, resilience.Config{
		BaseInterval: time.Second,
		MaxInterval:  30 * time.Second,
		Probe:        db.Ping,
		Logger:       logger,
	})

	return &env{
		db: db,
		analytics: logic.NewAnalyticsService(logic.AnalyticsConfig{
			GameLogs:   db,
			Roster:     db,
			Splits:     db,
			Cache:      results,
			Resilience: layer,
			Logger:     logger,
		}),
		layer:  layer,
		logger: logger,
	}, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
