package core

import "github.com/shopspring/decimal"

// Tier is the significance tier of an entry within its month, expressed as
// a number of stars.
type Tier int

const (
	TierNone   Tier = 0
	TierLow    Tier = 1
	TierMedium Tier = 2
	TierHigh   Tier = 3
)

func (t Tier) String() string {
	switch t {
	case TierHigh:
		return "high"
	case TierMedium:
		return "medium"
	case TierLow:
		return "low"
	default:
		return ""
	}
}

// Stars returns the number of stars the tier is displayed with.
func (t Tier) Stars() int { return int(t) }

// StatementLine is one ordered entry of a month statement.
type StatementLine struct {
	Entry   LedgerEntry
	Balance decimal.Decimal // running balance over the whole ledger
	Rank    int             // 1-based significance rank within the month
	Tier    Tier
}

// AccountRollup is the monthly financial decomposition of the account ledger.
type AccountRollup struct {
	Month    Month
	Total    bool // synthetic Total row
	Entrada  decimal.Decimal
	Saida    decimal.Decimal
	Applied  decimal.Decimal
	Redeemed decimal.Decimal
	Invested decimal.Decimal
	Expenses decimal.Decimal
	Gains    decimal.Decimal
	Leftover decimal.Decimal
	Balance  decimal.Decimal
}

// InvoiceRollup is the monthly decomposition of the invoice ledger.
type InvoiceRollup struct {
	Month     Month
	Total     bool
	Gastos    decimal.Decimal
	Pagamento decimal.Decimal
	Saldo     decimal.Decimal
}

// CategoryAmount represents count and amount aggregated by category within a month.
type CategoryAmount struct {
	Month    Month
	Category string
	Count    int
	Amount   decimal.Decimal
}

// CategoryBreakdown holds per-month category rows and the global category
// order they are sorted by.
type CategoryBreakdown struct {
	Order []string
	Rows  []CategoryAmount
}

// DaySpending is the expense activity of a single day.
type DaySpending struct {
	Date   Date
	Count  int
	Amount decimal.Decimal // absolute value
}

// MonthDistribution summarizes the absolute expense values of a month.
type MonthDistribution struct {
	Month  Month
	Values []decimal.Decimal // ascending
	Min    decimal.Decimal
	Q1     decimal.Decimal
	Median decimal.Decimal
	Q3     decimal.Decimal
	Max    decimal.Decimal
}
