// Package worker serves refresh requests arriving over AMQP and keeps the
// ledger fresh on a schedule.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"financas/internal/amqp"
	"financas/internal/core"
	"financas/internal/ledger"
	"financas/internal/log"
	"financas/internal/refresh"
)

// Refresher is the refresh entry point the worker drives.
type Refresher interface {
	Refresh(ctx context.Context) (refresh.Result, error)
}

// RefreshWorker runs refreshes on behalf of remote requests.
type RefreshWorker struct {
	refresher Refresher
	store     *ledger.Store
	logger    *log.Logger
}

func NewRefreshWorker(refresher Refresher, store *ledger.Store, logger *log.Logger) *RefreshWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &RefreshWorker{
		refresher: refresher,
		store:     store,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// HandleRefreshRequest serves one request message. Only failures a retry
// could fix are returned; the outcome itself reaches listeners through the
// orchestrator's notifier.
func (w *RefreshWorker) HandleRefreshRequest(ctx context.Context, msg *amqp.RefreshRequestMessage) error {
	logger := w.logger.With(log.FieldRequestID, msg.RequestID)
	res, err := w.refresher.Refresh(ctx)
	switch {
	case err == nil:
		logger.InfoContext(ctx, "Refresh request served",
			log.FieldGeneration, res.Generation,
			log.FieldTriggeredBy, msg.RequestedBy)
		return nil
	case errors.Is(err, core.ErrRefreshInProgress):
		// the running refresh re-reads the exports anyway
		logger.InfoContext(ctx, "Refresh already running, request coalesced")
		return nil
	case errors.Is(err, core.ErrMalformedInput):
		logger.WarnContext(ctx, "Refresh rejected malformed exports", log.FieldError, err)
		return nil
	default:
		return fmt.Errorf("refresh: %w", err)
	}
}

// StartupRefresh restores the persisted generation and runs a refresh when
// nothing was persisted yet.
func (w *RefreshWorker) StartupRefresh(ctx context.Context) error {
	if err := w.store.Load(ctx); err != nil {
		return fmt.Errorf("load persisted ledger: %w", err)
	}
	if snap := w.store.Snapshot(); snap.Loaded() {
		w.logger.InfoContext(ctx, "Persisted ledger restored",
			log.FieldGeneration, snap.Generation,
			log.FieldEntries, snap.Len())
		return nil
	}

	w.logger.InfoContext(ctx, "No persisted ledger, running initial refresh")
	if _, err := w.refresher.Refresh(ctx); err != nil && !errors.Is(err, core.ErrRefreshInProgress) {
		return fmt.Errorf("initial refresh: %w", err)
	}
	return nil
}

// RunPeriodic refreshes every interval until ctx is done. A non-positive
// interval disables the schedule.
func (w *RefreshWorker) RunPeriodic(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		w.logger.InfoContext(ctx, "Periodic refresh disabled")
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.refresher.Refresh(ctx); err != nil {
				if errors.Is(err, core.ErrRefreshInProgress) {
					continue
				}
				w.logger.ErrorContext(ctx, "Periodic refresh failed", log.FieldError, err)
			}
		}
	}
}
