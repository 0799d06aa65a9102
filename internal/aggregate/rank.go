package aggregate

import (
	"slices"

	"financas/internal/core"
)

// TierFor maps a 1-based rank within a month to its significance tier.
func TierFor(rank int) core.Tier {
	switch {
	case rank < 1:
		return core.TierNone
	case rank <= 3:
		return core.TierHigh
	case rank <= 6:
		return core.TierMedium
	case rank <= 10:
		return core.TierLow
	default:
		return core.TierNone
	}
}

// Rank assigns every entry of an ordered ledger its rank within its
// MonthBucket: by absolute amount descending, ties keeping ledger order.
// ranks[i] belongs to ordered[i].
func Rank(ordered []core.LedgerEntry) []int {
	byMonth := make(map[core.Month][]int)
	for i, e := range ordered {
		m := e.Bucket()
		byMonth[m] = append(byMonth[m], i)
	}

	ranks := make([]int, len(ordered))
	for _, idx := range byMonth {
		slices.SortStableFunc(idx, func(a, b int) int {
			return ordered[b].Amount.Abs().Cmp(ordered[a].Amount.Abs())
		})
		for r, i := range idx {
			ranks[i] = r + 1
		}
	}
	return ranks
}

// Statement returns the lines of one month in ledger order, each carrying
// its rank, tier and the running balance computed over the whole ledger.
func Statement(entries []core.LedgerEntry, month core.Month) []core.StatementLine {
	lines := RunningBalance(entries)
	ordered := make([]core.LedgerEntry, len(lines))
	for i, l := range lines {
		ordered[i] = l.Entry
	}
	ranks := Rank(ordered)

	var out []core.StatementLine
	for i, l := range lines {
		if l.Entry.Bucket() != month {
			continue
		}
		out = append(out, core.StatementLine{
			Entry:   l.Entry,
			Balance: l.Balance,
			Rank:    ranks[i],
			Tier:    TierFor(ranks[i]),
		})
	}
	return out
}
