package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"financas/internal/core"
	"financas/internal/ledger"

	_ "modernc.org/sqlite"
)

// SQLiteRepository persists ledger generations. It implements
// ledger.Persister.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

var _ ledger.Persister = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveGeneration replaces the persisted ledger with snap in one transaction.
func (r *SQLiteRepository) SaveGeneration(ctx context.Context, snap *ledger.Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	if err := q.DeleteEntries(ctx); err != nil {
		return fmt.Errorf("delete entries: %w", err)
	}
	if err := q.UpsertGeneration(ctx, LedgerGeneration{
		Generation: snap.Generation,
		CreatedAt:  snap.CreatedAt.UTC().Format(time.RFC3339Nano),
	}); err != nil {
		return fmt.Errorf("upsert generation: %w", err)
	}
	for _, src := range []core.Source{core.SourceAccount, core.SourceInvoice} {
		for i, e := range snap.Entries(src) {
			if err := q.InsertEntry(ctx, toRow(src, i, e)); err != nil {
				return fmt.Errorf("insert %s entry %d: %w", src, i, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit generation: %w", err)
	}

	slog.InfoContext(ctx, "Ledger generation saved to SQLite",
		"generation", snap.Generation,
		"account_entries", len(snap.Account),
		"invoice_entries", len(snap.Invoice))
	return nil
}

// LoadGeneration reads the persisted ledger back in encounter order. It
// returns nil when no generation was ever saved.
func (r *SQLiteRepository) LoadGeneration(ctx context.Context) (*ledger.Snapshot, error) {
	gen, err := r.queries.GetGeneration(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get generation: %w", err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, gen.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse generation timestamp: %w", err)
	}
	snap := &ledger.Snapshot{Generation: gen.Generation, CreatedAt: createdAt}

	if snap.Account, err = r.listEntries(ctx, core.SourceAccount); err != nil {
		return nil, err
	}
	if snap.Invoice, err = r.listEntries(ctx, core.SourceInvoice); err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "Ledger generation loaded from SQLite",
		"generation", snap.Generation,
		"entries", snap.Len())
	return snap, nil
}

// CountEntries returns the number of persisted entries of a source.
func (r *SQLiteRepository) CountEntries(ctx context.Context, src core.Source) (int64, error) {
	n, err := r.queries.CountEntries(ctx, string(src))
	if err != nil {
		return 0, fmt.Errorf("count %s entries: %w", src, err)
	}
	return n, nil
}

func (r *SQLiteRepository) listEntries(ctx context.Context, src core.Source) ([]core.LedgerEntry, error) {
	rows, err := r.queries.ListEntries(ctx, string(src))
	if err != nil {
		return nil, fmt.Errorf("list %s entries: %w", src, err)
	}
	out := make([]core.LedgerEntry, 0, len(rows))
	for _, row := range rows {
		e, err := fromRow(row)
		if err != nil {
			return nil, fmt.Errorf("decode %s entry %d: %w", src, row.Seq, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func toRow(src core.Source, seq int, e core.LedgerEntry) LedgerEntry {
	return LedgerEntry{
		Source:      string(src),
		Seq:         int64(seq),
		EntryID:     sql.NullString{String: e.ID, Valid: e.HasID},
		EntryDate:   e.Date.String(),
		Amount:      e.Amount.String(),
		Category:    e.Category,
		Description: e.Description,
	}
}

func fromRow(row LedgerEntry) (core.LedgerEntry, error) {
	src, err := core.ParseSource(row.Source)
	if err != nil {
		return core.LedgerEntry{}, err
	}
	date, err := core.ParseDate(row.EntryDate)
	if err != nil {
		return core.LedgerEntry{}, err
	}
	amount, err := decimal.NewFromString(row.Amount)
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("%w: %v", core.ErrInvalidAmount, err)
	}
	return core.LedgerEntry{
		ID:          row.EntryID.String,
		HasID:       row.EntryID.Valid,
		Date:        date,
		Amount:      amount,
		Category:    row.Category,
		Description: row.Description,
		Source:      src,
	}, nil
}
