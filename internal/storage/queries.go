package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	PrepareContext(context.Context, string) (*sql.Stmt, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type LedgerGeneration struct {
	Generation string
	CreatedAt  string
}

type LedgerEntry struct {
	Source      string
	Seq         int64
	EntryID     sql.NullString
	EntryDate   string
	Amount      string
	Category    string
	Description string
}

const getGeneration = `SELECT generation, created_at FROM ledger_generation WHERE id = 1`

func (q *Queries) GetGeneration(ctx context.Context) (LedgerGeneration, error) {
	row := q.db.QueryRowContext(ctx, getGeneration)
	var i LedgerGeneration
	err := row.Scan(&i.Generation, &i.CreatedAt)
	return i, err
}

const upsertGeneration = `INSERT INTO ledger_generation (id, generation, created_at)
VALUES (1, ?, ?)
ON CONFLICT (id) DO UPDATE SET generation = excluded.generation, created_at = excluded.created_at`

func (q *Queries) UpsertGeneration(ctx context.Context, arg LedgerGeneration) error {
	_, err := q.db.ExecContext(ctx, upsertGeneration, arg.Generation, arg.CreatedAt)
	return err
}

const deleteEntries = `DELETE FROM ledger_entries`

func (q *Queries) DeleteEntries(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteEntries)
	return err
}

const insertEntry = `INSERT INTO ledger_entries (source, seq, entry_id, entry_date, amount, category, description)
VALUES (?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertEntry(ctx context.Context, arg LedgerEntry) error {
	_, err := q.db.ExecContext(ctx, insertEntry,
		arg.Source,
		arg.Seq,
		arg.EntryID,
		arg.EntryDate,
		arg.Amount,
		arg.Category,
		arg.Description,
	)
	return err
}

const listEntries = `SELECT source, seq, entry_id, entry_date, amount, category, description
FROM ledger_entries
WHERE source = ?
ORDER BY seq`

func (q *Queries) ListEntries(ctx context.Context, source string) ([]LedgerEntry, error) {
	rows, err := q.db.QueryContext(ctx, listEntries, source)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LedgerEntry
	for rows.Next() {
		var i LedgerEntry
		if err := rows.Scan(
			&i.Source,
			&i.Seq,
			&i.EntryID,
			&i.EntryDate,
			&i.Amount,
			&i.Category,
			&i.Description,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countEntries = `SELECT COUNT(*) FROM ledger_entries WHERE source = ?`

func (q *Queries) CountEntries(ctx context.Context, source string) (int64, error) {
	row := q.db.QueryRowContext(ctx, countEntries, source)
	var count int64
	err := row.Scan(&count)
	return count, err
}
