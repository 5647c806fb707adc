package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"knowyourclient/internal/engine/analytics"
	"knowyourclient/internal/pkg/logger"
	"knowyourclient/internal/platform/config"
	"knowyourclient/internal/platform/database"
	"knowyourclient/internal/workers"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	once := flag.Bool("once", false, "Aggregate yesterday, purge, and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging, "worker")

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	repo := analytics.NewRepository(db)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *once {
		runMaintenance(ctx, repo, cfg.Retention.SnapshotDays)
		return
	}

	log.Info().Msg("starting background workers")
	runDailyWorker(ctx, repo, cfg.Retention.SnapshotDays)
	log.Info().Msg("workers stopped")
}

// runDailyWorker runs maintenance at 01:00 UTC every day until ctx is done.
func runDailyWorker(ctx context.Context, repo *analytics.Repository, retentionDays int) {
	for {
		now := time.Now().UTC()
		next := time.Date(now.Year(), now.Month(), now.Day()+1, 1, 0, 0, 0, time.UTC)
		log.Info().Dur("sleep", next.Sub(now)).Msg("daily worker sleeping")

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		runMaintenance(ctx, repo, retentionDays)
	}
}

func runMaintenance(ctx context.Context, repo *analytics.Repository, retentionDays int) {
	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	if err := workers.AggregateDailyStats(ctx, repo, yesterday); err != nil {
		log.Error().Err(err).Msg("daily stats aggregation failed")
	}
	if _, err := workers.PurgeOldSnapshots(ctx, repo, retentionDays); err != nil {
		log.Error().Err(err).Msg("snapshot purge failed")
	}
}
