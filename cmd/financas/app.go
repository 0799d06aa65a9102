package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"financas/internal/backend"
	"financas/internal/cache"
	"financas/internal/cli"
	"financas/internal/config"
	"financas/internal/core"
	"financas/internal/log"
	"financas/internal/refresh"
	"financas/internal/services"
)

// app holds the wiring shared by the subcommands. It is opened lazily so
// help and flag listing never touch the database.
type app struct {
	cfg    *config.Config
	logger *log.Logger
	res    *backend.BackendResult
	orch   *refresh.Orchestrator
	query  *services.QueryService
	caches *cache.Manager
}

func appFrom(args []interface{}) *app {
	return args[0].(*app)
}

func (a *app) open(ctx context.Context) {
	if a.res != nil {
		return
	}
	a.cfg, a.logger = cli.Bootstrap()
	a.logger = a.logger.WithComponent(log.ComponentCLI)
	a.res = cli.InitBackend(ctx, a.logger, a.cfg)
	a.orch = cli.NewOrchestrator(a.logger, a.cfg, a.res, nil)
	a.query, a.caches = cli.NewQueryService(a.logger, a.cfg, a.res)
}

// ledger makes sure a generation is visible, running a first refresh when
// none was ever published.
func (a *app) ledger(ctx context.Context) (*services.QueryService, error) {
	a.open(ctx)
	if a.query.Loaded() {
		return a.query, nil
	}
	a.logger.InfoContext(ctx, "No ledger generation yet, refreshing first")
	if _, err := a.orch.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("initial refresh: %w", err)
	}
	return a.query, nil
}

func (a *app) close() {
	if a.caches != nil {
		a.caches.Stop()
	}
	if a.res != nil && a.res.Cleanup != nil {
		if err := a.res.Cleanup(); err != nil {
			a.logger.Warn("Backend cleanup failed", log.FieldError, err)
		}
	}
}

// fail reports err and maps it to an exit status.
func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	if errors.Is(err, core.ErrInvalidQuery) {
		return subcommands.ExitUsageError
	}
	return subcommands.ExitFailure
}

func queryError(err error) error {
	return fmt.Errorf("%w: %w", core.ErrInvalidQuery, err)
}
