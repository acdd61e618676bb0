package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"pocketbook/internal/amqp"
	"pocketbook/internal/backend"
	"pocketbook/internal/cli"
	applog "pocketbook/internal/log"
	"pocketbook/internal/worker"
)

// sync-worker mirrors transactions into a spreadsheet. It backfills every
// stored transaction on startup, then follows transaction events from AMQP.
func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentWorker)
	logger.Info("Starting sync-worker", "queue", cfg.AMQPQueue)

	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required for sync-worker")
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	factory := backend.NewFactory(logger.Logger)
	backendResult, err := factory.CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err)
		os.Exit(1)
	}
	exporter, err := factory.CreateExporter(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize exporter", "error", err)
		os.Exit(1)
	}

	// The consumer needs its own client: the backend's publisher is optional
	// and skipped when the broker is down, the consumer retries instead.
	consumer, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}

	syncWorker := worker.NewSyncWorker(exporter, cfg.WorkerConcurrency)

	ctx, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, func(context.Context) {
		if err := consumer.Close(); err != nil {
			logger.Error("AMQP close error", "error", err)
		}
		if err := backendResult.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		count, err := syncWorker.Backfill(gctx, backendResult.Store, backendResult.Store)
		if err != nil {
			// The consumer keeps running; the next restart backfills again.
			logger.Error("Startup backfill failed", "error", err, "exported", count)
			return nil
		}
		logger.Info("Startup backfill complete", "exported", count)
		return nil
	})
	g.Go(func() error {
		return consumer.ConsumeTransactionEvents(gctx, syncWorker.HandleEvent)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Event consumption failed", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Sync-worker shutdown complete")
}
