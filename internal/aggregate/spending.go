package aggregate

import (
	"slices"

	"github.com/shopspring/decimal"

	"financas/internal/core"
)

// DailySpending returns, for each day of month with at least one expense,
// the number of expenses and their absolute sum. Days are ascending.
func DailySpending(entries []core.LedgerEntry, month core.Month, iv Investments) []core.DaySpending {
	byDay := make(map[string]*core.DaySpending)
	for _, e := range entries {
		if e.Bucket() != month || !iv.IsExpense(e) {
			continue
		}
		d, ok := byDay[e.Date.String()]
		if !ok {
			d = &core.DaySpending{Date: e.Date}
			byDay[e.Date.String()] = d
		}
		d.Count++
		d.Amount = d.Amount.Add(e.Abs())
	}

	out := make([]core.DaySpending, 0, len(byDay))
	for _, d := range byDay {
		out = append(out, *d)
	}
	slices.SortFunc(out, func(a, b core.DaySpending) int { return a.Date.Compare(b.Date) })
	return out
}

var (
	quarter       = decimal.NewFromFloat(0.25)
	half          = decimal.NewFromFloat(0.5)
	threeQuarters = decimal.NewFromFloat(0.75)
)

// Distribution returns, per selected month with expenses, the ascending
// absolute expense values and their five-number summary.
func Distribution(entries []core.LedgerEntry, months []core.Month, iv Investments) []core.MonthDistribution {
	sel := selectMonths(months)
	values := make(map[core.Month][]decimal.Decimal)
	for _, e := range entries {
		m := e.Bucket()
		if !sel.has(m) || !iv.IsExpense(e) {
			continue
		}
		values[m] = append(values[m], e.Abs())
	}

	out := make([]core.MonthDistribution, 0, len(values))
	for m, v := range values {
		slices.SortFunc(v, decimal.Decimal.Cmp)
		out = append(out, core.MonthDistribution{
			Month:  m,
			Values: v,
			Min:    v[0],
			Q1:     Quantile(v, quarter),
			Median: Quantile(v, half),
			Q3:     Quantile(v, threeQuarters),
			Max:    v[len(v)-1],
		})
	}
	slices.SortFunc(out, func(a, b core.MonthDistribution) int { return a.Month.Compare(b.Month) })
	return out
}

// Quantile returns the p-quantile of ascending values using linear
// interpolation between closest ranks. It returns zero for no values.
func Quantile(sorted []decimal.Decimal, p decimal.Decimal) decimal.Decimal {
	if len(sorted) == 0 {
		return decimal.Zero
	}
	h := decimal.NewFromInt(int64(len(sorted) - 1)).Mul(p)
	lo := h.Floor().IntPart()
	if lo >= int64(len(sorted)-1) {
		return sorted[len(sorted)-1]
	}
	frac := h.Sub(decimal.NewFromInt(lo))
	return sorted[lo].Add(sorted[lo+1].Sub(sorted[lo]).Mul(frac))
}
