package aggregate

import (
	"slices"

	"financas/internal/core"
)

// Months returns the distinct MonthBuckets present in entries, ascending.
func Months(entries []core.LedgerEntry) []core.Month {
	seen := make(map[core.Month]struct{})
	var out []core.Month
	for _, e := range entries {
		m := e.Bucket()
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	slices.SortFunc(out, core.Month.Compare)
	return out
}

// LastMonths returns the last n months of an ascending list. A non-positive n
// keeps every month.
func LastMonths(months []core.Month, n int) []core.Month {
	if n <= 0 || n >= len(months) {
		return slices.Clone(months)
	}
	return slices.Clone(months[len(months)-n:])
}

// selection reports whether a month is selected. An empty list selects
// every month.
type selection map[core.Month]struct{}

func selectMonths(months []core.Month) selection {
	if len(months) == 0 {
		return nil
	}
	s := make(selection, len(months))
	for _, m := range months {
		s[m] = struct{}{}
	}
	return s
}

func (s selection) has(m core.Month) bool {
	if s == nil {
		return true
	}
	_, ok := s[m]
	return ok
}
