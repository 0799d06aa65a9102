// Package cli provides common initialization shared by the financas
// commands.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"financas/internal/amqp"
	"financas/internal/backend"
	"financas/internal/cache"
	"financas/internal/config"
	"financas/internal/log"
	"financas/internal/refresh"
	"financas/internal/services"
)

// SetupLogger builds the process logger at the given level, writing to out,
// and sets it as the default logger. An unknown level falls back to info.
func SetupLogger(level string, out io.Writer) *log.Logger {
	lvl, err := log.ParseLevel(level)
	logger := log.New(log.Config{
		Level:     lvl,
		Component: log.ComponentApp,
		Output:    out,
	})
	log.SetDefault(logger)
	if err != nil {
		logger.Warn("Unknown log level, using info", log.FieldError, err)
	}
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// Bootstrap loads .env and the configuration, then builds the logger at the
// configured level. Logs go to stderr so stdout stays free for results.
func Bootstrap() (*config.Config, *log.Logger) {
	LoadEnvFile()
	logger := SetupLogger(os.Getenv("LOG_LEVEL"), os.Stderr)
	return LoadAndValidateConfig(logger), logger
}

// InitBackend creates the ledger store selected by the configuration and
// restores its persisted generation. Exits the process on failure.
func InitBackend(ctx context.Context, logger *log.Logger, cfg *config.Config) *backend.BackendResult {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize ledger backend",
			log.FieldError, err,
			log.FieldBackend, bcfg.Type.String())
		os.Exit(1)
	}
	return res
}

// InitAMQP connects to the broker named by the configuration.
func InitAMQP(logger *log.Logger, cfg *config.Config) (*amqp.Client, error) {
	return amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue,
		amqp.WithEventsQueue(cfg.AMQPEventsQueue),
		amqp.WithLogger(logger))
}

// NewOrchestrator wires the refresh orchestrator; notifier may be nil.
func NewOrchestrator(logger *log.Logger, cfg *config.Config, res *backend.BackendResult, notifier refresh.Notifier) *refresh.Orchestrator {
	opts := []refresh.Option{refresh.WithLogger(logger)}
	if notifier != nil {
		opts = append(opts, refresh.WithNotifier(notifier))
	}
	return refresh.New(cfg.RefreshConfig(), res.Store, opts...)
}

// NewQueryService wires the query service with the configured cache. The
// returned manager must be stopped by the caller.
func NewQueryService(logger *log.Logger, cfg *config.Config, res *backend.BackendResult) (*services.QueryService, *cache.Manager) {
	qcfg := services.QueryConfig{
		Investments:   cfg.Investments(),
		DefaultWindow: cfg.DefaultMonthWindow,
	}
	opts := []services.QueryOption{services.WithQueryLogger(logger)}

	manager := cache.NewManager(logger)
	if cfg.QueryCacheSize > 0 {
		lru := cache.NewLRUCache[any](cfg.QueryCacheSize, cfg.QueryCacheTTL)
		manager.Register(lru)
		if cfg.QueryCacheTTL > 0 {
			manager.StartCleanup(cfg.QueryCacheTTL)
		}
		opts = append(opts, services.WithCache(lru))
	}
	return services.NewQueryService(res.Store, qcfg, opts...), manager
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func()) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup()
			}
			close(finished)
		}()

		select {
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached")
		case <-finished:
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
