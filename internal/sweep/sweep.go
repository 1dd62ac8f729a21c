package sweep

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/adhocore/gronx"

	"github.com/hliu/keepsake/internal/config"
	"github.com/hliu/keepsake/internal/ops"
)

// Start launches the background destruction sweeper if enabled and returns
// a cancel func. The sweeper is an eager complement to the lazy evaluation
// on every access path: it destroys records past auto_destroy_at while the
// process idles, so sealed-forever data does not linger on disk waiting
// for the next read.
func Start(ctx context.Context, database *sql.DB, cfg *config.Config, logger *slog.Logger) (context.CancelFunc, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.SweepDisabled {
		logger.Info("sweep_disabled")
		return func() {}, nil
	}

	cronExpr := cfg.SweepCron
	if cronExpr == "" {
		cronExpr = config.DefaultSweepCron
	}
	if !gronx.IsValid(cronExpr) {
		logger.Error("sweep_invalid_cron", "cron", cronExpr)
		return nil, fmt.Errorf("invalid sweep cron expression: %s", cronExpr)
	}

	ctx2, cancel := context.WithCancel(ctx)
	go run(ctx2, database, cronExpr, logger)

	logger.Info("sweep_scheduler_started", "cron", cronExpr)
	return cancel, nil
}

// run computes the next cron tick, sleeps until it, and sweeps. Errors are
// logged and the loop continues; a failed sweep only delays destruction
// until the next tick or the next lazy access.
func run(ctx context.Context, database *sql.DB, cronExpr string, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("sweep_scheduler_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("sweep_nexttick_failed", "cron", cronExpr, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				logger.Info("sweep_scheduler_stopping")
				return
			}
			continue
		}

		select {
		case <-time.After(time.Until(next)):
		case <-ctx.Done():
			logger.Info("sweep_scheduler_stopping")
			return
		}

		RunOnce(database, logger)
	}
}

// RunOnce performs a single sweep pass. Exposed so the MCP/CLI sweep
// surface and tests share the scheduler's code path.
func RunOnce(database *sql.DB, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	out, err := ops.Sweep(database)
	if err != nil {
		logger.Error("sweep_run_error", "error", err)
		return
	}
	if out.Destroyed > 0 {
		logger.Info("sweep_destroyed_records", "count", out.Destroyed, "swept_at", out.SweptAt)
	}
}
