// Command financas-server serves the ledger queries and the refresh trigger
// over HTTP as JSON.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"financas/internal/cli"
	apphttp "financas/internal/http"
	"financas/internal/log"
	"financas/internal/refresh"
	"financas/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	res := cli.InitBackend(ctx, logger, cfg)
	if res.Cleanup != nil {
		defer res.Cleanup()
	}

	// refresh outcomes are published when a broker is reachable
	var notifier refresh.Notifier
	if cfg.AMQPURL != "" {
		amqpClient, err := cli.InitAMQP(logger, cfg)
		if err != nil {
			logger.Warn("AMQP unavailable, refresh outcomes will not be published", log.FieldError, err)
		} else {
			defer amqpClient.Close()
			notifier = amqpClient
		}
	}

	orch := cli.NewOrchestrator(logger, cfg, res, notifier)
	query, caches := cli.NewQueryService(logger, cfg, res)
	defer caches.Stop()

	if err := worker.NewRefreshWorker(orch, res.Store, logger).StartupRefresh(ctx); err != nil {
		// readyz stays 503 until a refresh succeeds
		logger.Error("Startup refresh failed", log.FieldError, err)
	}

	srv := apphttp.NewServer(":"+cfg.Port, query, orch,
		apphttp.WithLogger(logger),
		apphttp.WithRefreshRateLimit(cfg.RefreshRateLimit))

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = cfg.IngestionTimeout + 10*time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		drainCtx, drainCancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer drainCancel()
		if err := srv.Shutdown(drainCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Starting financas server", "port", cfg.Port, log.FieldBackend, cfg.LedgerBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
