package main

import (
	"context"
	"os"
	"time"

	"pocketbook/internal/cache"
	"pocketbook/internal/cli"
	"pocketbook/internal/core"
	apphttp "pocketbook/internal/http"
	applog "pocketbook/internal/log"
	"pocketbook/internal/services"
	"pocketbook/internal/session"
)

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentApp)
	logger.Info("Starting pocketbook", "backend", cfg.DataBackend, "timezone", cfg.Timezone)

	backendResult := cli.OpenBackend(context.Background(), logger.Logger, cfg)
	store := backendResult.Store

	profiles := cache.NewLRUCache[core.User](cfg.UserCacheSize, cfg.UserCacheTTL)
	caches := cache.NewManager()
	caches.Register("user_profiles", profiles)
	caches.StartCleanup(10 * time.Minute)

	now := cfg.Clock()
	materializer := services.NewMaterializer(store, backendResult.Publisher)
	svc := apphttp.Services{
		Users:        services.NewUserService(store, profiles),
		Expenses:     services.NewExpenseService(store),
		Transactions: services.NewTransactionService(store, backendResult.Publisher),
		Reports:      services.NewReportService(store, store),
		Sessions:     services.NewSessionManager(store, materializer, now),
	}

	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Provider:           session.HeaderProvider{Header: cfg.SessionHeader},
		Now:                now,
		Logger:             logger.WithComponent(applog.ComponentHTTP),
	})

	ctx, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		caches.Stop()
		if err := backendResult.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	logger.Info("Listening", "port", cfg.Port, "amqp_enabled", backendResult.Publisher != nil)
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully", "requests_served", srv.RequestCount())
}
