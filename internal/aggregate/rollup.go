package aggregate

import (
	"slices"

	"financas/internal/core"
)

// Investments names the categories that move money into and out of
// investments. Matching is exact on the entry category.
type Investments struct {
	Application []string
	Redemption  []string
}

// DefaultInvestments returns the RDB-only definition.
func DefaultInvestments() Investments {
	return Investments{
		Application: []string{"Aplicação RDB"},
		Redemption:  []string{"Resgate RDB"},
	}
}

func (iv Investments) IsApplication(category string) bool {
	return slices.Contains(iv.Application, category)
}

func (iv Investments) IsRedemption(category string) bool {
	return slices.Contains(iv.Redemption, category)
}

func (iv Investments) IsInvestment(category string) bool {
	return iv.IsApplication(category) || iv.IsRedemption(category)
}

// IsExpense reports whether e is money spent: a negative amount that is not
// an investment application.
func (iv Investments) IsExpense(e core.LedgerEntry) bool {
	return e.IsOutflow() && !iv.IsApplication(e.Category)
}

// AccountRollups computes the monthly decomposition of the account ledger
// for the selected months, ascending. An empty selection means every month.
//
// Applied and Redeemed are the negated sums of the matching entries, so an
// application shows as a positive amount. Invested is their sum: positive
// when net money moved into investments.
func AccountRollups(entries []core.LedgerEntry, months []core.Month, iv Investments) []core.AccountRollup {
	sel := selectMonths(months)
	byMonth := make(map[core.Month]*core.AccountRollup)
	for _, e := range entries {
		m := e.Bucket()
		if !sel.has(m) {
			continue
		}
		r, ok := byMonth[m]
		if !ok {
			r = &core.AccountRollup{Month: m}
			byMonth[m] = r
		}

		switch {
		case e.IsInflow():
			r.Entrada = r.Entrada.Add(e.Amount)
		case e.IsOutflow():
			r.Saida = r.Saida.Add(e.Amount)
		}

		application := iv.IsApplication(e.Category)
		redemption := iv.IsRedemption(e.Category)
		if application {
			r.Applied = r.Applied.Sub(e.Amount)
		}
		if redemption {
			r.Redeemed = r.Redeemed.Sub(e.Amount)
		}
		if e.IsOutflow() && !application {
			r.Expenses = r.Expenses.Add(e.Amount)
		}
		if e.IsInflow() && !redemption {
			r.Gains = r.Gains.Add(e.Amount)
		}
		if !application && !redemption {
			r.Leftover = r.Leftover.Add(e.Amount)
		}
		r.Balance = r.Balance.Add(e.Amount)
	}

	out := make([]core.AccountRollup, 0, len(byMonth))
	for _, r := range byMonth {
		r.Invested = r.Applied.Add(r.Redeemed)
		out = append(out, *r)
	}
	slices.SortFunc(out, func(a, b core.AccountRollup) int { return a.Month.Compare(b.Month) })
	return out
}

// Total returns the column-wise sum of rows as a synthetic Total row.
func Total(rows []core.AccountRollup) core.AccountRollup {
	t := core.AccountRollup{Total: true}
	for _, r := range rows {
		t.Entrada = t.Entrada.Add(r.Entrada)
		t.Saida = t.Saida.Add(r.Saida)
		t.Applied = t.Applied.Add(r.Applied)
		t.Redeemed = t.Redeemed.Add(r.Redeemed)
		t.Invested = t.Invested.Add(r.Invested)
		t.Expenses = t.Expenses.Add(r.Expenses)
		t.Gains = t.Gains.Add(r.Gains)
		t.Leftover = t.Leftover.Add(r.Leftover)
		t.Balance = t.Balance.Add(r.Balance)
	}
	return t
}

// InvoiceRollups computes Gastos (charges, negative), Pagamento (payments
// and refunds, positive) and Saldo per selected month, ascending.
func InvoiceRollups(entries []core.LedgerEntry, months []core.Month) []core.InvoiceRollup {
	sel := selectMonths(months)
	byMonth := make(map[core.Month]*core.InvoiceRollup)
	for _, e := range entries {
		m := e.Bucket()
		if !sel.has(m) {
			continue
		}
		r, ok := byMonth[m]
		if !ok {
			r = &core.InvoiceRollup{Month: m}
			byMonth[m] = r
		}
		switch {
		case e.IsOutflow():
			r.Gastos = r.Gastos.Add(e.Amount)
		case e.IsInflow():
			r.Pagamento = r.Pagamento.Add(e.Amount)
		}
		r.Saldo = r.Saldo.Add(e.Amount)
	}

	out := make([]core.InvoiceRollup, 0, len(byMonth))
	for _, r := range byMonth {
		out = append(out, *r)
	}
	slices.SortFunc(out, func(a, b core.InvoiceRollup) int { return a.Month.Compare(b.Month) })
	return out
}

// InvoiceTotal is Total for invoice rollups.
func InvoiceTotal(rows []core.InvoiceRollup) core.InvoiceRollup {
	t := core.InvoiceRollup{Total: true}
	for _, r := range rows {
		t.Gastos = t.Gastos.Add(r.Gastos)
		t.Pagamento = t.Pagamento.Add(r.Pagamento)
		t.Saldo = t.Saldo.Add(r.Saldo)
	}
	return t
}
