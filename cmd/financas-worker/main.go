// Command financas-worker serves refresh requests from AMQP and, when
// REFRESH_INTERVAL is set, refreshes the ledger on a schedule.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"financas/internal/cli"
	"financas/internal/log"
	"financas/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap()
	logger = logger.WithComponent(log.ComponentWorker)

	logger.Info("Starting financas-worker",
		log.FieldBackend, cfg.LedgerBackend,
		"account_dir", cfg.AccountDir,
		"invoice_dir", cfg.InvoiceDir)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required by the worker")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	res := cli.InitBackend(ctx, logger, cfg)
	if res.Cleanup != nil {
		defer res.Cleanup()
	}

	amqpClient, err := cli.InitAMQP(logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	orch := cli.NewOrchestrator(logger, cfg, res, amqpClient)
	refreshWorker := worker.NewRefreshWorker(orch, res.Store, logger)

	logger.Info("Performing startup refresh check...")
	if err := refreshWorker.StartupRefresh(ctx); err != nil {
		// keep serving; the next request retries
		logger.Error("Startup refresh failed", log.FieldError, err)
	}

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, cancel)

	go func() {
		if err := amqpClient.ConsumeRefreshRequests(ctx, refreshWorker.HandleRefreshRequest); err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", log.FieldError, err)
			}
			cancel()
		}
	}()

	go refreshWorker.RunPeriodic(ctx, cfg.RefreshInterval)

	select {
	case <-shutdownCtx.Done():
		cli.WaitForShutdown(shutdownCtx, done)
	case <-ctx.Done():
		logger.Info("Worker stopped")
	}
	logger.Info("Worker shutdown complete")
}
