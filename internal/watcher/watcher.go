package watcher

import (
	"context"
	"fmt"
	"time"

	"github.com/ajaysbsic/MarketIntel-sub001/internal/config"
	"github.com/ajaysbsic/MarketIntel-sub001/internal/logger"
	"github.com/ajaysbsic/MarketIntel-sub001/internal/models"
	"github.com/ajaysbsic/MarketIntel-sub001/internal/retry"
)

// APIClient defines the monitor API operations the watcher drives.
type APIClient interface {
	ListDueMonitors(ctx context.Context) ([]models.Monitor, error)
	Search(ctx context.Context, monitor *models.Monitor) (*models.SearchResponse, error)
	MarkChecked(ctx context.Context, monitorID string, checkedAt time.Time) error
	PurgeReports(ctx context.Context) (int64, error)
}

// Watcher runs check cycles against the monitor API.
type Watcher struct {
	client   APIClient
	logger   logger.Logger
	metrics  *Metrics
	interval time.Duration
	retryCfg retry.Config

	// now is swapped in tests to pin checkpoint times.
	now func() time.Time
}

// CycleStats summarizes one check cycle.
type CycleStats struct {
	Due       int
	Succeeded int
	Failed    int
	Purged    int64
}

func New(client APIClient, cfg config.WatcherConfig, metrics *Metrics, log logger.Logger) *Watcher {
	return &Watcher{
		client:   client,
		logger:   log,
		metrics:  metrics,
		interval: cfg.PollInterval,
		retryCfg: retry.Config{
			MaxAttempts: cfg.MaxRetries,
			Delay:       cfg.RetryDelay,
			IsRetryable: IsRetryable,
		},
		now: time.Now,
	}
}

// Run executes check cycles on the poll interval until the context ends.
// The first cycle runs immediately.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("Watcher starting",
		logger.Duration("poll_interval", w.interval),
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.RunCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Watcher stopped")
			return nil
		case <-ticker.C:
			w.RunCycle(ctx)
		}
	}
}

// RunCycle checks every due monitor once. A failing monitor is logged and
// skipped so the rest of the batch still runs; its checkpoint stays put and
// the next cycle picks it up again.
func (w *Watcher) RunCycle(ctx context.Context) CycleStats {
	start := w.now()
	var stats CycleStats

	var monitors []models.Monitor
	err := retry.Do(ctx, w.retryCfg, func() error {
		var listErr error
		monitors, listErr = w.client.ListDueMonitors(ctx)
		return listErr
	})
	if err != nil {
		w.logger.Error("Failed to list due monitors", logger.Error(err))
		w.metrics.RecordCycle(w.now().Sub(start))
		return stats
	}

	stats.Due = len(monitors)
	w.metrics.SetMonitorsDue(stats.Due)

	if stats.Due > 0 {
		w.logger.Info("Due monitors found", logger.Int("count", stats.Due))
	}

	for i := range monitors {
		monitor := &monitors[i]

		if ctx.Err() != nil {
			w.logger.Info("Cycle interrupted",
				logger.Int("remaining", stats.Due-stats.Succeeded-stats.Failed),
			)
			break
		}

		if checkErr := w.checkMonitor(ctx, monitor); checkErr != nil {
			stats.Failed++
			w.metrics.RecordCheck("failed")
			w.logger.Error("Monitor check failed",
				logger.String("monitor_id", monitor.ID),
				logger.String("keyword", monitor.Keyword),
				logger.Error(checkErr),
			)
			continue
		}

		stats.Succeeded++
		w.metrics.RecordCheck("success")
	}

	stats.Purged = w.purgeReports(ctx)

	w.metrics.RecordCycle(w.now().Sub(start))
	return stats
}

// checkMonitor runs one monitored search and advances the checkpoint. The
// checkpoint moves only after the API has stored the results; a monitor that
// fails here stays due and is retried next cycle.
func (w *Watcher) checkMonitor(ctx context.Context, monitor *models.Monitor) error {
	var resp *models.SearchResponse
	err := retry.Do(ctx, w.retryCfg, func() error {
		var searchErr error
		resp, searchErr = w.client.Search(ctx, monitor)
		return searchErr
	})
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	w.logger.Info("Monitor checked",
		logger.String("keyword", monitor.Keyword),
		logger.String("provider", resp.Provider),
		logger.Int("stored", resp.Stored),
		logger.Int("duplicates", resp.Duplicates),
	)

	checkedAt := w.now().UTC()
	err = retry.Do(ctx, w.retryCfg, func() error {
		return w.client.MarkChecked(ctx, monitor.ID, checkedAt)
	})
	if err != nil {
		return fmt.Errorf("advance checkpoint: %w", err)
	}

	return nil
}

// purgeReports asks the API to drop reports past retention. Purging is
// housekeeping; a failure is logged and never fails the cycle.
func (w *Watcher) purgeReports(ctx context.Context) int64 {
	if ctx.Err() != nil {
		return 0
	}

	purged, err := w.client.PurgeReports(ctx)
	if err != nil {
		w.logger.Warn("Report purge failed", logger.Error(err))
		return 0
	}

	w.metrics.RecordPurged(purged)
	if purged > 0 {
		w.logger.Info("Old reports purged", logger.Int64("purged", purged))
	}
	return purged
}
