package aggregate

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"financas/internal/core"
)

// CategoryOrder ranks every category of the ledger by the absolute value of
// its total amount, descending, ties by name. The order is computed over the
// full ledger so a category keeps its position across months.
func CategoryOrder(entries []core.LedgerEntry) []string {
	totals := make(map[string]decimal.Decimal)
	for _, e := range entries {
		totals[e.Category] = totals[e.Category].Add(e.Amount)
	}
	order := make([]string, 0, len(totals))
	for c := range totals {
		order = append(order, c)
	}
	slices.SortFunc(order, func(a, b string) int {
		if c := totals[b].Abs().Cmp(totals[a].Abs()); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return order
}

// Categories returns count and sum per (month, category) for the selected
// months. Rows are sorted by month, then by the global category order.
func Categories(entries []core.LedgerEntry, months []core.Month) core.CategoryBreakdown {
	order := CategoryOrder(entries)
	pos := make(map[string]int, len(order))
	for i, c := range order {
		pos[c] = i
	}

	type key struct {
		month    core.Month
		category string
	}
	sel := selectMonths(months)
	groups := make(map[key]*core.CategoryAmount)
	for _, e := range entries {
		m := e.Bucket()
		if !sel.has(m) {
			continue
		}
		k := key{m, e.Category}
		g, ok := groups[k]
		if !ok {
			g = &core.CategoryAmount{Month: m, Category: e.Category}
			groups[k] = g
		}
		g.Count++
		g.Amount = g.Amount.Add(e.Amount)
	}

	rows := make([]core.CategoryAmount, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, *g)
	}
	slices.SortFunc(rows, func(a, b core.CategoryAmount) int {
		if c := a.Month.Compare(b.Month); c != 0 {
			return c
		}
		return cmp.Compare(pos[a.Category], pos[b.Category])
	})
	return core.CategoryBreakdown{Order: order, Rows: rows}
}
