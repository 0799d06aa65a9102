// Package refresh rebuilds the ledger from the raw exports.
//
// A refresh runs Idle → Ingesting → Canonicalizing → Swapping → Idle. Any
// error moves it to Failed and back to Idle with the previous ledger
// generation still visible. Only one refresh runs at a time; a concurrent
// call is rejected instead of queued.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"financas/internal/canon"
	"financas/internal/core"
	"financas/internal/ledger"
	"financas/internal/log"
	"financas/internal/reader"
)

type State int32

const (
	Idle State = iota
	Ingesting
	Canonicalizing
	Swapping
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Ingesting:
		return "ingesting"
	case Canonicalizing:
		return "canonicalizing"
	case Swapping:
		return "swapping"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Config locates the raw exports and bounds the ingestion.
type Config struct {
	AccountDir string
	InvoiceDir string
	// Timeout bounds the file reads of a refresh. Zero means no bound
	// besides the caller's context.
	Timeout time.Duration
	Canon   canon.Config
}

// Result is the typed outcome of a refresh.
type Result struct {
	Generation     string        `json:"generation"`
	Success        bool          `json:"success"`
	Diagnostic     string        `json:"diagnostic,omitempty"`
	AccountEntries int           `json:"account_entries"`
	InvoiceEntries int           `json:"invoice_entries"`
	AccountFiles   int           `json:"account_files"`
	InvoiceFiles   int           `json:"invoice_files"`
	AccountMissing bool          `json:"account_missing,omitempty"`
	InvoiceMissing bool          `json:"invoice_missing,omitempty"`
	Discarded      int           `json:"discarded"`
	StartedAt      time.Time     `json:"started_at"`
	Duration       time.Duration `json:"duration"`
}

// Notifier is told about every finished refresh, successful or not.
type Notifier interface {
	RefreshCompleted(ctx context.Context, res Result) error
}

type Orchestrator struct {
	cfg      Config
	store    *ledger.Store
	canon    *canon.Canonicalizer
	notifier Notifier
	logger   *log.Logger

	mu      sync.Mutex
	state   atomic.Int32
	observe func(State)
}

type Option func(*Orchestrator)

func WithNotifier(n Notifier) Option {
	return func(o *Orchestrator) { o.notifier = n }
}

func WithLogger(l *log.Logger) Option {
	return func(o *Orchestrator) { o.logger = l.WithComponent(log.ComponentRefresh) }
}

func New(cfg Config, store *ledger.Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:    cfg,
		store:  store,
		canon:  canon.New(cfg.Canon),
		logger: log.Discard(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns the current refresh state.
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

func (o *Orchestrator) setState(s State) {
	o.state.Store(int32(s))
	if o.observe != nil {
		o.observe(s)
	}
}

// Refresh re-ingests both sources and publishes the result as a new ledger
// generation. It returns core.ErrRefreshInProgress without waiting when
// another refresh is running. The notifier is called once the orchestrator
// is idle again and accepts new refreshes.
func (o *Orchestrator) Refresh(ctx context.Context) (Result, error) {
	if !o.mu.TryLock() {
		return Result{Diagnostic: core.ErrRefreshInProgress.Error()}, core.ErrRefreshInProgress
	}
	res, logger, err := o.refreshLocked(ctx)

	if o.notifier != nil {
		if nerr := o.notifier.RefreshCompleted(context.WithoutCancel(ctx), res); nerr != nil {
			logger.WarnContext(ctx, "Refresh notification failed", log.FieldError, nerr)
		}
	}
	return res, err
}

// refreshLocked runs one refresh with o.mu held and releases it on return.
func (o *Orchestrator) refreshLocked(ctx context.Context) (Result, *log.Logger, error) {
	defer o.mu.Unlock()

	res := Result{
		Generation: uuid.NewString(),
		StartedAt:  time.Now(),
	}
	logger := o.logger.With(log.FieldGeneration, res.Generation)
	logger.InfoContext(ctx, "Refresh started",
		"account_dir", o.cfg.AccountDir,
		"invoice_dir", o.cfg.InvoiceDir)

	err := o.run(ctx, &res, logger)
	res.Duration = time.Since(res.StartedAt)
	if err != nil {
		stage := o.State()
		o.setState(Failed)
		res.Diagnostic = err.Error()
		logger.ErrorContext(ctx, "Refresh failed",
			append(log.NewFields().WithError(err).WithDuration(res.Duration).ToSlice(),
				log.FieldState, stage.String())...)
	} else {
		res.Success = true
		logger.InfoContext(ctx, "Refresh completed",
			"account_entries", res.AccountEntries,
			"invoice_entries", res.InvoiceEntries,
			log.FieldDiscarded, res.Discarded,
			log.FieldDuration, res.Duration.Milliseconds())
	}
	o.setState(Idle)
	return res, logger, err
}

func (o *Orchestrator) run(ctx context.Context, res *Result, logger *log.Logger) error {
	o.setState(Ingesting)
	accounts, invoices, err := o.ingest(ctx, res, logger)
	if err != nil {
		return err
	}

	o.setState(Canonicalizing)
	snap := &ledger.Snapshot{
		Generation: res.Generation,
		CreatedAt:  res.StartedAt,
		Account:    o.canon.Account(accounts),
	}
	snap.Invoice, res.Discarded = o.canon.Invoice(invoices)
	res.AccountEntries = len(snap.Account)
	res.InvoiceEntries = len(snap.Invoice)
	if res.Discarded > 0 {
		logger.InfoContext(ctx, "Invoice rows before cutoff discarded",
			log.FieldDiscarded, res.Discarded,
			"cutoff_year", o.cfg.Canon.InvoiceCutoffYear)
	}

	// the swap runs to completion once started
	o.setState(Swapping)
	if err := o.store.Replace(context.WithoutCancel(ctx), snap); err != nil {
		return fmt.Errorf("swap ledger: %w", err)
	}
	return nil
}

func (o *Orchestrator) ingest(ctx context.Context, res *Result, logger *log.Logger) ([]core.RawAccountRecord, []core.RawInvoiceRecord, error) {
	if o.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.Timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", core.ErrIngestionTimeout, err)
	}

	var (
		accounts   []core.RawAccountRecord
		invoices   []core.RawInvoiceRecord
		aRep, iRep reader.Report
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		accounts, aRep, err = reader.ReadAccounts(gctx, o.cfg.AccountDir)
		return err
	})
	g.Go(func() error {
		var err error
		invoices, iRep, err = reader.ReadInvoices(gctx, o.cfg.InvoiceDir)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			err = fmt.Errorf("%w: %v", core.ErrIngestionTimeout, err)
		}
		return nil, nil, fmt.Errorf("ingest: %w", err)
	}

	for _, rep := range []reader.Report{aRep, iRep} {
		if rep.Missing {
			logger.WarnContext(ctx, "Source has no files, ingesting it as empty",
				log.FieldSource, rep.Source,
				log.FieldDir, rep.Dir)
			continue
		}
		logger.DebugContext(ctx, "Source ingested",
			log.NewFields().WithIngestion(string(rep.Source), len(rep.Files), rep.Rows).ToSlice()...)
	}
	res.AccountFiles, res.AccountMissing = len(aRep.Files), aRep.Missing
	res.InvoiceFiles, res.InvoiceMissing = len(iRep.Files), iRep.Missing
	return accounts, invoices, nil
}
