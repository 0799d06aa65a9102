package services

import (
	"context"
	"fmt"
	"strings"

	"financas/internal/aggregate"
	"financas/internal/cache"
	"financas/internal/core"
	"financas/internal/ledger"
	"financas/internal/log"
)

// QueryConfig holds the business configuration the analytics depend on.
type QueryConfig struct {
	Investments aggregate.Investments
	// DefaultWindow is the number of trailing months DefaultMonths selects.
	DefaultWindow int
}

func DefaultQueryConfig() QueryConfig {
	return QueryConfig{
		Investments:   aggregate.DefaultInvestments(),
		DefaultWindow: 8,
	}
}

// QueryService answers read queries against the visible ledger snapshot.
// Every call reads the snapshot once, so a single answer never mixes two
// generations.
type QueryService struct {
	store  *ledger.Store
	config QueryConfig
	cache  *cache.LRUCache[any]
	logger *log.Logger
}

type QueryOption func(*QueryService)

// WithCache memoizes answers per ledger generation.
func WithCache(c *cache.LRUCache[any]) QueryOption {
	return func(s *QueryService) { s.cache = c }
}

func WithQueryLogger(l *log.Logger) QueryOption {
	return func(s *QueryService) { s.logger = l.WithComponent(log.ComponentQuery) }
}

func NewQueryService(store *ledger.Store, config QueryConfig, opts ...QueryOption) *QueryService {
	s := &QueryService{
		store:  store,
		config: config,
		logger: log.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generation returns the id of the visible ledger generation, empty before
// the first ingestion.
func (s *QueryService) Generation() string {
	return s.store.Snapshot().Generation
}

// Loaded reports whether any ingestion has been published.
func (s *QueryService) Loaded() bool {
	return s.store.Snapshot().Loaded()
}

// ListMonths returns the distinct months of a source, ascending.
func (s *QueryService) ListMonths(ctx context.Context, src core.Source) ([]core.Month, error) {
	snap, entries, err := s.entries(src)
	if err != nil {
		return nil, err
	}
	return cached(ctx, s, snap, []string{"months", string(src)}, func() []core.Month {
		return aggregate.Months(entries)
	}), nil
}

// DefaultMonths returns the trailing window of months dashboards open with.
func (s *QueryService) DefaultMonths(ctx context.Context, src core.Source) ([]core.Month, error) {
	months, err := s.ListMonths(ctx, src)
	if err != nil {
		return nil, err
	}
	return aggregate.LastMonths(months, s.config.DefaultWindow), nil
}

// ResolveMonths returns keys unchanged unless it is empty and recent is set,
// in which case it selects the default trailing window of src.
func (s *QueryService) ResolveMonths(ctx context.Context, src core.Source, keys []string, recent bool) ([]string, error) {
	if len(keys) > 0 || !recent {
		return keys, nil
	}
	months, err := s.DefaultMonths(ctx, src)
	if err != nil {
		return nil, err
	}
	return MonthStrings(months), nil
}

// MonthStatement returns the ordered, ranked lines of one month with the
// running balance of the whole source ledger.
func (s *QueryService) MonthStatement(ctx context.Context, src core.Source, monthKey string) ([]core.StatementLine, error) {
	month, err := core.ParseMonth(monthKey)
	if err != nil {
		return nil, err
	}
	snap, entries, err := s.entries(src)
	if err != nil {
		return nil, err
	}
	return cached(ctx, s, snap, []string{"statement", string(src), month.String()}, func() []core.StatementLine {
		return aggregate.Statement(entries, month)
	}), nil
}

// AccountRollup returns the monthly account decomposition for the given
// month keys; no keys selects every month. withTotal appends the synthetic
// Total row when at least one month is present.
func (s *QueryService) AccountRollup(ctx context.Context, monthKeys []string, withTotal bool) ([]core.AccountRollup, error) {
	months, err := core.ParseMonths(monthKeys)
	if err != nil {
		return nil, err
	}
	snap := s.store.Snapshot()
	rows := cached(ctx, s, snap, []string{"account-rollup", monthsKey(months)}, func() []core.AccountRollup {
		return aggregate.AccountRollups(snap.Account, months, s.config.Investments)
	})
	if withTotal && len(rows) > 0 {
		rows = append(rows[:len(rows):len(rows)], aggregate.Total(rows))
	}
	return rows, nil
}

// InvoiceRollup is AccountRollup for the invoice ledger.
func (s *QueryService) InvoiceRollup(ctx context.Context, monthKeys []string, withTotal bool) ([]core.InvoiceRollup, error) {
	months, err := core.ParseMonths(monthKeys)
	if err != nil {
		return nil, err
	}
	snap := s.store.Snapshot()
	rows := cached(ctx, s, snap, []string{"invoice-rollup", monthsKey(months)}, func() []core.InvoiceRollup {
		return aggregate.InvoiceRollups(snap.Invoice, months)
	})
	if withTotal && len(rows) > 0 {
		rows = append(rows[:len(rows):len(rows)], aggregate.InvoiceTotal(rows))
	}
	return rows, nil
}

// CategoryRollup returns per-month category counts and sums in the global
// category order of the source.
func (s *QueryService) CategoryRollup(ctx context.Context, src core.Source, monthKeys []string) (core.CategoryBreakdown, error) {
	months, err := core.ParseMonths(monthKeys)
	if err != nil {
		return core.CategoryBreakdown{}, err
	}
	snap, entries, err := s.entries(src)
	if err != nil {
		return core.CategoryBreakdown{}, err
	}
	return cached(ctx, s, snap, []string{"categories", string(src), monthsKey(months)}, func() core.CategoryBreakdown {
		return aggregate.Categories(entries, months)
	}), nil
}

// DailySpending returns the per-day expenses of one month.
func (s *QueryService) DailySpending(ctx context.Context, src core.Source, monthKey string) ([]core.DaySpending, error) {
	month, err := core.ParseMonth(monthKey)
	if err != nil {
		return nil, err
	}
	snap, entries, err := s.entries(src)
	if err != nil {
		return nil, err
	}
	return cached(ctx, s, snap, []string{"daily", string(src), month.String()}, func() []core.DaySpending {
		return aggregate.DailySpending(entries, month, s.config.Investments)
	}), nil
}

// ExpenseDistribution returns the per-month five-number summaries of
// expense values.
func (s *QueryService) ExpenseDistribution(ctx context.Context, src core.Source, monthKeys []string) ([]core.MonthDistribution, error) {
	months, err := core.ParseMonths(monthKeys)
	if err != nil {
		return nil, err
	}
	snap, entries, err := s.entries(src)
	if err != nil {
		return nil, err
	}
	return cached(ctx, s, snap, []string{"distribution", string(src), monthsKey(months)}, func() []core.MonthDistribution {
		return aggregate.Distribution(entries, months, s.config.Investments)
	}), nil
}

func (s *QueryService) entries(src core.Source) (*ledger.Snapshot, []core.LedgerEntry, error) {
	if err := src.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", core.ErrInvalidQuery, err)
	}
	snap := s.store.Snapshot()
	return snap, snap.Entries(src), nil
}

func monthsKey(months []core.Month) string {
	if len(months) == 0 {
		return "*"
	}
	parts := make([]string, len(months))
	for i, m := range months {
		parts[i] = m.String()
	}
	return strings.Join(parts, ",")
}

// cached memoizes compute under the snapshot generation. Nothing is cached
// before the first ingestion. Cached values are shared: callers must not
// mutate them.
func cached[T any](ctx context.Context, s *QueryService, snap *ledger.Snapshot, parts []string, compute func() T) T {
	if s.cache == nil || !snap.Loaded() {
		return compute()
	}
	key := cache.Key(snap.Generation, parts...)
	if v, ok := s.cache.Get(key); ok {
		if typed, ok := v.(T); ok {
			s.logger.DebugContext(ctx, "Query served from cache",
				log.FieldQuery, parts[0],
				log.FieldCacheHit, true)
			return typed
		}
	}
	v := compute()
	s.cache.Set(key, v)
	s.logger.DebugContext(ctx, "Query computed",
		log.FieldQuery, parts[0],
		log.FieldGeneration, snap.Generation)
	return v
}
