package main

import (
	"context"
	"time"

	"pocketbook/internal/cli"
	applog "pocketbook/internal/log"
	"pocketbook/internal/services"
	"pocketbook/internal/worker"
)

// recurring-worker materializes due recurring expenses for every registered
// user at startup and then at each local midnight, so users who never sign in
// on a given day still get their transactions.
func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentWorker)
	logger.Info("Starting recurring-worker", "timezone", cfg.Timezone, "concurrency", cfg.WorkerConcurrency)

	backendResult := cli.OpenBackend(context.Background(), logger.Logger, cfg)
	store := backendResult.Store

	runner := worker.NewRecurringRunner(store, store,
		services.NewMaterializer(store, backendResult.Publisher), cfg.WorkerConcurrency)
	scheduler := services.NewMidnightScheduler("recurring-worker", runner.RunOnce, services.WithClock(cfg.Clock()))

	ctx, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, func(context.Context) {
		scheduler.Stop()
		if err := backendResult.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	// The midnight timer is armed even when the first run fails.
	if err := scheduler.Arm(ctx); err != nil {
		logger.Error("Initial materialization failed", "error", err)
	} else {
		logger.Info("Initial materialization complete")
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Recurring-worker shutdown complete")
}
