// Package ledger holds the canonical ledger currently visible to readers.
//
// A Snapshot is immutable once published. Store.Replace swaps the visible
// snapshot with a single pointer store, so readers observe either the old or
// the new generation and never a mix of both.
package ledger

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"financas/internal/core"
	"financas/internal/log"
)

// Snapshot is one ledger generation: the full content of both sources as
// produced by a single successful ingestion.
type Snapshot struct {
	Generation string
	CreatedAt  time.Time
	Account    []core.LedgerEntry
	Invoice    []core.LedgerEntry
}

var empty = &Snapshot{}

// Entries returns the entries of one source, in encounter order.
func (s *Snapshot) Entries(src core.Source) []core.LedgerEntry {
	switch src {
	case core.SourceAccount:
		return s.Account
	case core.SourceInvoice:
		return s.Invoice
	default:
		return nil
	}
}

// Loaded reports whether the snapshot comes from an ingestion.
func (s *Snapshot) Loaded() bool {
	return s.Generation != ""
}

// Len returns the total number of entries across both sources.
func (s *Snapshot) Len() int {
	return len(s.Account) + len(s.Invoice)
}

// Persister stores ledger generations durably.
type Persister interface {
	// SaveGeneration atomically replaces the persisted ledger with snap.
	SaveGeneration(ctx context.Context, snap *Snapshot) error
	// LoadGeneration returns the last persisted generation, or nil when
	// nothing was ever saved.
	LoadGeneration(ctx context.Context) (*Snapshot, error)
}

// Store publishes ledger snapshots to concurrent readers.
type Store struct {
	current   atomic.Pointer[Snapshot]
	persister Persister
	logger    *log.Logger
}

// Option configures a Store
type Option func(*Store)

// WithPersister makes Replace persist each generation before publishing it.
func WithPersister(p Persister) Option {
	return func(s *Store) { s.persister = p }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l.WithComponent(log.ComponentLedger) }
}

func NewStore(opts ...Option) *Store {
	s := &Store{logger: log.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	s.current.Store(empty)
	return s
}

// Snapshot returns the visible generation. Before the first ingestion it is
// an empty snapshot, never nil.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// Replace persists snap, when a persister is configured, and then makes it
// the visible generation. On error the previous generation stays visible.
func (s *Store) Replace(ctx context.Context, snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("replace ledger: nil snapshot")
	}
	if s.persister != nil {
		if err := s.persister.SaveGeneration(ctx, snap); err != nil {
			return fmt.Errorf("persist generation %s: %w", snap.Generation, err)
		}
	}
	prev := s.current.Swap(snap)
	s.logger.InfoContext(ctx, "Ledger generation published",
		log.FieldGeneration, snap.Generation,
		"previous", prev.Generation,
		"account_entries", len(snap.Account),
		"invoice_entries", len(snap.Invoice))
	return nil
}

// Load restores the last persisted generation. It is a no-op without a
// persister or when nothing was persisted yet.
func (s *Store) Load(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	snap, err := s.persister.LoadGeneration(ctx)
	if err != nil {
		return fmt.Errorf("load generation: %w", err)
	}
	if snap == nil {
		s.logger.InfoContext(ctx, "No persisted ledger generation")
		return nil
	}
	s.current.Store(snap)
	s.logger.InfoContext(ctx, "Ledger generation restored",
		log.FieldGeneration, snap.Generation,
		log.FieldEntries, snap.Len())
	return nil
}
