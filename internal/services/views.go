package services

import (
	"github.com/shopspring/decimal"

	"financas/internal/core"
)

// The views below are the JSON shapes query answers are served in.

type EntryView struct {
	ID          string          `json:"id,omitempty"`
	Date        string          `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
}

type StatementLineView struct {
	EntryView
	Balance decimal.Decimal `json:"balance"`
	Rank    int             `json:"rank"`
	Stars   int             `json:"stars"`
}

func StatementView(lines []core.StatementLine) []StatementLineView {
	out := make([]StatementLineView, len(lines))
	for i, l := range lines {
		out[i] = StatementLineView{
			EntryView: EntryView{
				ID:          l.Entry.ID,
				Date:        l.Entry.Date.String(),
				Amount:      l.Entry.Amount,
				Category:    l.Entry.Category,
				Description: l.Entry.Description,
			},
			Balance: l.Balance,
			Rank:    l.Rank,
			Stars:   l.Tier.Stars(),
		}
	}
	return out
}

// monthLabel renders the synthetic Total row under its own label.
func monthLabel(m core.Month, total bool) string {
	if total {
		return "Total"
	}
	return m.String()
}

type AccountRollupView struct {
	Month    string          `json:"month"`
	Entrada  decimal.Decimal `json:"entrada"`
	Saida    decimal.Decimal `json:"saida"`
	Applied  decimal.Decimal `json:"aplicado"`
	Redeemed decimal.Decimal `json:"resgatado"`
	Invested decimal.Decimal `json:"investido"`
	Expenses decimal.Decimal `json:"gastos"`
	Gains    decimal.Decimal `json:"ganhos"`
	Leftover decimal.Decimal `json:"sobras"`
	Balance  decimal.Decimal `json:"saldo"`
}

func AccountRollupsView(rows []core.AccountRollup) []AccountRollupView {
	out := make([]AccountRollupView, len(rows))
	for i, r := range rows {
		out[i] = AccountRollupView{
			Month:    monthLabel(r.Month, r.Total),
			Entrada:  r.Entrada,
			Saida:    r.Saida,
			Applied:  r.Applied,
			Redeemed: r.Redeemed,
			Invested: r.Invested,
			Expenses: r.Expenses,
			Gains:    r.Gains,
			Leftover: r.Leftover,
			Balance:  r.Balance,
		}
	}
	return out
}

type InvoiceRollupView struct {
	Month     string          `json:"month"`
	Gastos    decimal.Decimal `json:"gastos"`
	Pagamento decimal.Decimal `json:"pagamento"`
	Saldo     decimal.Decimal `json:"saldo"`
}

func InvoiceRollupsView(rows []core.InvoiceRollup) []InvoiceRollupView {
	out := make([]InvoiceRollupView, len(rows))
	for i, r := range rows {
		out[i] = InvoiceRollupView{
			Month:     monthLabel(r.Month, r.Total),
			Gastos:    r.Gastos,
			Pagamento: r.Pagamento,
			Saldo:     r.Saldo,
		}
	}
	return out
}

type CategoryRowView struct {
	Month    string          `json:"month"`
	Category string          `json:"category"`
	Count    int             `json:"count"`
	Amount   decimal.Decimal `json:"amount"`
}

type CategoriesView struct {
	Order []string          `json:"order"`
	Rows  []CategoryRowView `json:"rows"`
}

func CategoryView(b core.CategoryBreakdown) CategoriesView {
	out := CategoriesView{
		Order: b.Order,
		Rows:  make([]CategoryRowView, len(b.Rows)),
	}
	if out.Order == nil {
		out.Order = []string{}
	}
	for i, r := range b.Rows {
		out.Rows[i] = CategoryRowView{
			Month:    r.Month.String(),
			Category: r.Category,
			Count:    r.Count,
			Amount:   r.Amount,
		}
	}
	return out
}

type DayView struct {
	Date   string          `json:"date"`
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

func DailyView(days []core.DaySpending) []DayView {
	out := make([]DayView, len(days))
	for i, d := range days {
		out[i] = DayView{Date: d.Date.String(), Count: d.Count, Amount: d.Amount}
	}
	return out
}

type DistributionView struct {
	Month  string            `json:"month"`
	Count  int               `json:"count"`
	Min    decimal.Decimal   `json:"min"`
	Q1     decimal.Decimal   `json:"q1"`
	Median decimal.Decimal   `json:"median"`
	Q3     decimal.Decimal   `json:"q3"`
	Max    decimal.Decimal   `json:"max"`
	Values []decimal.Decimal `json:"values,omitempty"`
}

func DistributionsView(dists []core.MonthDistribution, withValues bool) []DistributionView {
	out := make([]DistributionView, len(dists))
	for i, d := range dists {
		out[i] = DistributionView{
			Month:  d.Month.String(),
			Count:  len(d.Values),
			Min:    d.Min,
			Q1:     d.Q1,
			Median: d.Median,
			Q3:     d.Q3,
			Max:    d.Max,
		}
		if withValues {
			out[i].Values = d.Values
		}
	}
	return out
}

func MonthStrings(months []core.Month) []string {
	out := make([]string, len(months))
	for i, m := range months {
		out[i] = m.String()
	}
	return out
}
