// Package aggregate implements the read-side analytics over a ledger
// snapshot: ordering and running balance, per-month significance ranking,
// monthly rollups, category rollups and expense statistics.
//
// Every function is pure. Inputs are never mutated, and an empty ledger or
// a month selection with no entries yields an empty result.
package aggregate

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"financas/internal/core"
)

// Line is an entry paired with the running balance up to and including it.
type Line struct {
	Entry   core.LedgerEntry
	Balance decimal.Decimal
}

// Compare orders entries by date, then id as a string. On the same date
// entries without an id sort after every id-bearing entry; among themselves
// they compare equal so a stable sort keeps encounter order.
func Compare(a, b core.LedgerEntry) int {
	if c := a.Date.Compare(b.Date); c != 0 {
		return c
	}
	switch {
	case a.HasID && b.HasID:
		return strings.Compare(a.ID, b.ID)
	case a.HasID:
		return -1
	case b.HasID:
		return 1
	}
	return 0
}

// Order returns a sorted copy of entries.
func Order(entries []core.LedgerEntry) []core.LedgerEntry {
	out := slices.Clone(entries)
	slices.SortStableFunc(out, Compare)
	return out
}

// RunningBalance orders entries and returns each with the strict prefix sum
// of amounts at its position.
func RunningBalance(entries []core.LedgerEntry) []Line {
	ordered := Order(entries)
	lines := make([]Line, len(ordered))
	balance := decimal.Zero
	for i, e := range ordered {
		balance = balance.Add(e.Amount)
		lines[i] = Line{Entry: e, Balance: balance}
	}
	return lines
}

// Sum returns the total of all amounts.
func Sum(entries []core.LedgerEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount)
	}
	return total
}
