package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/proplab/stats-api/internal/report"
	"github.com/proplab/stats-api/internal/worker"
)

var splitsWorkers int

var splitsCmd = &cobra.Command{
	Use:   "splits",
	Short: "Show or recompute precomputed rolling splits",
}

var splitsShowCmd = &cobra.Command{
	Use:   "show <player-id>",
	Short: "Print a player's stored rolling splits",
	Args:  cobra.ExactArgs(1),
	RunE:  runSplitsShow,
}

var splitsRefreshCmd = &cobra.Command{
	Use:   "refresh [player-id...]",
	Short: "Recompute rolling splits for the given players, or every tracked player",
	RunE:  runSplitsRefresh,
}

func init() {
	splitsRefreshCmd.Flags().IntVar(&splitsWorkers, "workers", 4, "concurrent players")
	splitsCmd.AddCommand(splitsShowCmd)
	splitsCmd.AddCommand(splitsRefreshCmd)
}

func runSplitsShow(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	splits, err := e.analytics.RollingSplits(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("load splits: %w", err)
	}
	if asJSON {
		return printJSON(splits)
	}
	report.PrintSplits(os.Stdout, splits)
	return nil
}

func runSplitsRefresh(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := cmd.Context()
	pool := worker.NewPool(worker.PoolConfig{
		WorkerCount:   splitsWorkers,
		QueueSize:     1000,
		BatchSize:     100,
		FlushInterval: time.Second,
		Computer:      e.analytics,
		Writer:        e.db,
		Resilience:    e.layer,
		Logger:        e.logger,
	})
	pool.Start(ctx)

	var info worker.RunInfo
	if len(args) == 0 {
		sched, err := worker.NewScheduler(pool, e.db, e.layer, "", e.logger)
		if err != nil {
			pool.Stop()
			return err
		}
		if info, err = sched.RunOnce(ctx); err != nil {
			pool.Stop()
			return err
		}
	} else {
		info = worker.RunInfo{RunID: uuid.NewString(), LastRun: time.Now()}
		for _, id := range args {
			if pool.Enqueue(worker.Job{RunID: info.RunID, PlayerID: id, Enqueued: info.LastRun}) {
				info.Enqueued++
			}
		}
	}
	pool.Stop()

	if e.layer.InFallback() {
		return fmt.Errorf("run %s: store writes failed: %s", info.RunID, e.layer.State().LastError)
	}
	if asJSON {
		return printJSON(info)
	}
	fmt.Printf("run %s: refreshed %d players in %s\n", info.RunID, info.Enqueued, time.Since(info.LastRun).Round(time.Millisecond))
	return nil
}
