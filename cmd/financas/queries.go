package main

import (
	"context"
	"flag"
	"os"
	"strings"

	"github.com/google/subcommands"

	"financas/internal/core"
	"financas/internal/services"
)

// selection holds the flags shared by the queries over a set of months.
type selection struct {
	source string
	months string
	recent bool
}

func (s *selection) setFlags(f *flag.FlagSet) {
	f.StringVar(&s.source, "source", string(core.SourceAccount), "Ledger to query (account, invoice)")
	f.StringVar(&s.months, "months", "", "Comma separated YYYY-MM months (default: every month)")
	f.BoolVar(&s.recent, "recent", false, "Select the default trailing window when -months is empty")
}

func (s *selection) parse(ctx context.Context, q *services.QueryService) (core.Source, []string, error) {
	src, err := core.ParseSource(s.source)
	if err != nil {
		return "", nil, queryError(err)
	}
	var keys []string
	for _, k := range strings.Split(s.months, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	keys, err = q.ResolveMonths(ctx, src, keys, s.recent)
	if err != nil {
		return "", nil, err
	}
	return src, keys, nil
}

type monthsCmd struct {
	source string
	recent bool
}

func (*monthsCmd) Name() string     { return "months" }
func (*monthsCmd) Synopsis() string { return "list the months present in a ledger" }
func (*monthsCmd) Usage() string {
	return `financas months [-source account|invoice] [-recent]

  Lists the distinct months of the ledger, oldest first.
`
}

func (c *monthsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.source, "source", string(core.SourceAccount), "Ledger to query (account, invoice)")
	f.BoolVar(&c.recent, "recent", false, "Only the default trailing window")
}

func (c *monthsCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	q, err := appFrom(args).ledger(ctx)
	if err != nil {
		return fail(err)
	}
	src, err := core.ParseSource(c.source)
	if err != nil {
		return fail(queryError(err))
	}
	var months []core.Month
	if c.recent {
		months, err = q.DefaultMonths(ctx, src)
	} else {
		months, err = q.ListMonths(ctx, src)
	}
	if err != nil {
		return fail(err)
	}
	return emit(services.MonthStrings(months))
}

type statementCmd struct {
	source string
	month  string
}

func (*statementCmd) Name() string     { return "statement" }
func (*statementCmd) Synopsis() string { return "show the ranked entries of one month" }
func (*statementCmd) Usage() string {
	return `financas statement -month YYYY-MM [-source account|invoice]

  Prints the ordered entries of the month with their running balance over
  the whole ledger, significance rank and stars.
`
}

func (c *statementCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.source, "source", string(core.SourceAccount), "Ledger to query (account, invoice)")
	f.StringVar(&c.month, "month", "", "Month to show (YYYY-MM)")
}

func (c *statementCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	q, err := appFrom(args).ledger(ctx)
	if err != nil {
		return fail(err)
	}
	src, err := core.ParseSource(c.source)
	if err != nil {
		return fail(queryError(err))
	}
	lines, err := q.MonthStatement(ctx, src, c.month)
	if err != nil {
		return fail(err)
	}
	return emit(services.StatementView(lines))
}

type rollupCmd struct {
	sel   selection
	total bool
}

func (*rollupCmd) Name() string     { return "rollup" }
func (*rollupCmd) Synopsis() string { return "show the monthly financial decomposition" }
func (*rollupCmd) Usage() string {
	return `financas rollup [-source account|invoice] [-months a,b] [-recent] [-total=false]

  Prints one row per month: inflow, outflow, investments, expenses, gains,
  leftover and balance for the account; charges, payments and balance for
  the invoice. A Total row sums the selected months.
`
}

func (c *rollupCmd) SetFlags(f *flag.FlagSet) {
	c.sel.setFlags(f)
	f.BoolVar(&c.total, "total", true, "Append the Total row")
}

func (c *rollupCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	q, err := appFrom(args).ledger(ctx)
	if err != nil {
		return fail(err)
	}
	src, keys, err := c.sel.parse(ctx, q)
	if err != nil {
		return fail(err)
	}
	if src == core.SourceInvoice {
		rows, err := q.InvoiceRollup(ctx, keys, c.total)
		if err != nil {
			return fail(err)
		}
		return emit(services.InvoiceRollupsView(rows))
	}
	rows, err := q.AccountRollup(ctx, keys, c.total)
	if err != nil {
		return fail(err)
	}
	return emit(services.AccountRollupsView(rows))
}

type categoriesCmd struct {
	sel selection
}

func (*categoriesCmd) Name() string     { return "categories" }
func (*categoriesCmd) Synopsis() string { return "show counts and sums per category and month" }
func (*categoriesCmd) Usage() string {
	return `financas categories [-source account|invoice] [-months a,b] [-recent]

  Prints per-month category counts and sums, ordered by the category's
  overall weight in the ledger.
`
}

func (c *categoriesCmd) SetFlags(f *flag.FlagSet) { c.sel.setFlags(f) }

func (c *categoriesCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	q, err := appFrom(args).ledger(ctx)
	if err != nil {
		return fail(err)
	}
	src, keys, err := c.sel.parse(ctx, q)
	if err != nil {
		return fail(err)
	}
	b, err := q.CategoryRollup(ctx, src, keys)
	if err != nil {
		return fail(err)
	}
	return emit(services.CategoryView(b))
}

type dailyCmd struct {
	source string
	month  string
}

func (*dailyCmd) Name() string     { return "daily" }
func (*dailyCmd) Synopsis() string { return "show the spending of each day of a month" }
func (*dailyCmd) Usage() string {
	return `financas daily -month YYYY-MM [-source account|invoice]

  Prints the number and absolute sum of expenses per day, investments
  excluded.
`
}

func (c *dailyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.source, "source", string(core.SourceAccount), "Ledger to query (account, invoice)")
	f.StringVar(&c.month, "month", "", "Month to show (YYYY-MM)")
}

func (c *dailyCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	q, err := appFrom(args).ledger(ctx)
	if err != nil {
		return fail(err)
	}
	src, err := core.ParseSource(c.source)
	if err != nil {
		return fail(queryError(err))
	}
	days, err := q.DailySpending(ctx, src, c.month)
	if err != nil {
		return fail(err)
	}
	return emit(services.DailyView(days))
}

type distributionCmd struct {
	sel    selection
	values bool
}

func (*distributionCmd) Name() string     { return "distribution" }
func (*distributionCmd) Synopsis() string { return "summarize the expense values of each month" }
func (*distributionCmd) Usage() string {
	return `financas distribution [-source account|invoice] [-months a,b] [-recent] [-values]

  Prints min, quartiles and max of the absolute expense values per month.
`
}

func (c *distributionCmd) SetFlags(f *flag.FlagSet) {
	c.sel.setFlags(f)
	f.BoolVar(&c.values, "values", false, "Include the sorted values")
}

func (c *distributionCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	q, err := appFrom(args).ledger(ctx)
	if err != nil {
		return fail(err)
	}
	src, keys, err := c.sel.parse(ctx, q)
	if err != nil {
		return fail(err)
	}
	dists, err := q.ExpenseDistribution(ctx, src, keys)
	if err != nil {
		return fail(err)
	}
	return emit(services.DistributionsView(dists, c.values))
}

func emit(v any) subcommands.ExitStatus {
	if err := writeJSON(os.Stdout, v); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}
