// Package core provides the domain types shared by the ledger pipeline.
//
// This file contains functions for parsing signed monetary amounts from the
// raw exports.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a signed decimal string into an exact decimal.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and an
// optional leading sign. Thousands separators are not supported because the
// exports never emit them; a value with both a dot and a comma is rejected.
//
// Examples:
//
//	ParseAmount("150.00")  -> 150.00, nil
//	ParseAmount("-12,34")  -> -12.34, nil
//	ParseAmount("+7")      -> 7, nil
//	ParseAmount("1.2.3")   -> error
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty value", ErrInvalidAmount)
	}
	if strings.Contains(s, ".") && strings.Contains(s, ",") {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	s = strings.TrimPrefix(s, "+")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	// NewFromString accepts exponents; the exports never use them.
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d, nil
}

// Abs returns the magnitude of an entry's amount.
func (e LedgerEntry) Abs() decimal.Decimal {
	return e.Amount.Abs()
}

// IsInflow reports whether the entry is money gained.
func (e LedgerEntry) IsInflow() bool { return e.Amount.IsPositive() }

// IsOutflow reports whether the entry is money spent.
func (e LedgerEntry) IsOutflow() bool { return e.Amount.IsNegative() }
