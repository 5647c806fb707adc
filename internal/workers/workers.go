// Package workers holds the periodic maintenance jobs run by cmd/worker.
package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"knowyourclient/internal/engine/analytics"
)

type statsStore interface {
	ActiveSources(start, end int64) ([]string, error)
	ComputeDailyStats(sourceID, date string) (*analytics.DailyStat, error)
	UpsertDailyStats(stat *analytics.DailyStat) error
}

type purgeStore interface {
	DeleteBefore(ts int64) (int64, error)
}

// AggregateDailyStats computes and upserts daily stats for every source that
// received snapshots on date (UTC). It stops early when ctx is cancelled and
// keeps going past per-source failures, returning the first one.
func AggregateDailyStats(ctx context.Context, repo statsStore, date time.Time) error {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	dateStr := day.Format("2006-01-02")

	sources, err := repo.ActiveSources(day.UnixMilli(), day.Add(24*time.Hour).UnixMilli())
	if err != nil {
		return fmt.Errorf("list active sources for %s: %w", dateStr, err)
	}

	var firstErr error
	aggregated := 0
	for _, sourceID := range sources {
		if err := ctx.Err(); err != nil {
			return err
		}

		stat, err := repo.ComputeDailyStats(sourceID, dateStr)
		if err == nil {
			err = repo.UpsertDailyStats(stat)
		}
		if err != nil {
			log.Error().Err(err).Str("source_id", sourceID).Str("date", dateStr).Msg("failed to aggregate daily stats")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		aggregated++
	}

	log.Info().Str("date", dateStr).Int("sources", aggregated).Msg("aggregated daily stats")
	return firstErr
}

// PurgeOldSnapshots deletes snapshots received more than retentionDays ago.
// A non-positive retention keeps everything.
func PurgeOldSnapshots(ctx context.Context, repo purgeStore, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	n, err := repo.DeleteBefore(cutoff.UnixMilli())
	if err != nil {
		return 0, err
	}

	log.Info().Int64("deleted", n).Time("cutoff", cutoff).Msg("purged old snapshots")
	return n, nil
}
