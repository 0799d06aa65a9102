// Package canon maps raw export records into canonical ledger entries.
package canon

import (
	"fmt"
	"strings"

	"financas/internal/core"
)

// CategorySeparator delimits the category prefix of a description.
const CategorySeparator = " -"

// Strategy selects how an entry's category is obtained.
type Strategy string

const (
	// Derive takes the description text before the first CategorySeparator.
	Derive Strategy = "derive"
	// Provided uses the category field of the source row.
	Provided Strategy = "provided"
)

// IsValid returns true if the strategy is known
func (s Strategy) IsValid() bool {
	switch s {
	case Derive, Provided:
		return true
	default:
		return false
	}
}

// Config holds the per-deployment canonicalization rules.
type Config struct {
	AccountStrategy Strategy
	InvoiceStrategy Strategy
	// InvoiceCutoffYear discards invoice rows dated before that year.
	// Zero disables the guard.
	InvoiceCutoffYear int
}

// DefaultConfig derives account categories from the description, keeps the
// provided invoice category and disables the cutoff guard.
func DefaultConfig() Config {
	return Config{
		AccountStrategy: Derive,
		InvoiceStrategy: Provided,
	}
}

func (c Config) Validate() error {
	if !c.AccountStrategy.IsValid() {
		return fmt.Errorf("invalid account category strategy %q", c.AccountStrategy)
	}
	if !c.InvoiceStrategy.IsValid() {
		return fmt.Errorf("invalid invoice category strategy %q", c.InvoiceStrategy)
	}
	if c.InvoiceCutoffYear < 0 {
		return fmt.Errorf("invalid invoice cutoff year %d", c.InvoiceCutoffYear)
	}
	return nil
}

// Canonicalizer turns raw records into ledger entries. It holds no state
// besides its configuration.
type Canonicalizer struct {
	config Config
}

func New(config Config) *Canonicalizer {
	return &Canonicalizer{config: config}
}

// DeriveCategory returns the text preceding the first " -", or the whole
// text when the separator does not occur.
//
//	DeriveCategory("Uber - viagem") == "Uber"
//	DeriveCategory("X - Y - Z")     == "X"
//	DeriveCategory("Salário")       == "Salário"
func DeriveCategory(text string) string {
	if i := strings.Index(text, CategorySeparator); i >= 0 {
		return text[:i]
	}
	return text
}

// Account maps account records one-to-one; sign and id are preserved.
func (c *Canonicalizer) Account(raws []core.RawAccountRecord) []core.LedgerEntry {
	out := make([]core.LedgerEntry, 0, len(raws))
	for _, r := range raws {
		out = append(out, core.LedgerEntry{
			ID:          r.ID,
			HasID:       r.ID != "",
			Date:        r.Date,
			Amount:      r.Value,
			Category:    c.category(c.config.AccountStrategy, "", r.Description),
			Description: r.Description,
			Source:      core.SourceAccount,
		})
	}
	return out
}

// Invoice maps invoice records, flipping the sign of every value and
// dropping rows older than the cutoff year. It returns the number of
// discarded rows.
func (c *Canonicalizer) Invoice(raws []core.RawInvoiceRecord) ([]core.LedgerEntry, int) {
	out := make([]core.LedgerEntry, 0, len(raws))
	discarded := 0
	for _, r := range raws {
		if c.config.InvoiceCutoffYear > 0 && r.Date.Year() < c.config.InvoiceCutoffYear {
			discarded++
			continue
		}
		out = append(out, core.LedgerEntry{
			Date:        r.Date,
			Amount:      r.Value.Neg(),
			Category:    c.category(c.config.InvoiceStrategy, r.Category, r.Title),
			Description: r.Title,
			Source:      core.SourceInvoice,
		})
	}
	return out, discarded
}

func (c *Canonicalizer) category(s Strategy, provided, text string) string {
	if s == Provided && provided != "" {
		return provided
	}
	return DeriveCategory(text)
}
