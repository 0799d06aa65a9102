package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	SourceAccount Source = "account"
	SourceInvoice Source = "invoice"
)

type (
	// Source tags which export a ledger entry came from.
	Source string

	Date struct {
		time.Time
	}

	// Month is the MonthBucket grouping key: a date truncated to the first
	// day of its month.
	Month struct {
		Year  int
		Month time.Month
	}

	RawAccountRecord struct {
		Date        Date
		Value       decimal.Decimal // positive = credit, negative = debit
		ID          string
		Description string
	}

	RawInvoiceRecord struct {
		Date     Date
		Category string
		Title    string
		Value    decimal.Decimal // positive = charge
	}

	// LedgerEntry is the canonical, sign-normalized transaction. Positive
	// amounts are money gained, negative amounts are money spent.
	LedgerEntry struct {
		ID          string
		HasID       bool // false for invoice entries
		Date        Date
		Amount      decimal.Decimal
		Category    string
		Description string
		Source      Source
	}
)

var (
	ErrMalformedInput    = errors.New("malformed input")
	ErrRefreshInProgress = errors.New("refresh in progress")
	ErrIngestionTimeout  = errors.New("ingestion timeout")
	ErrInvalidQuery      = errors.New("invalid query")
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrUnknownSource     = errors.New("unknown source")
)

// MalformedInputError describes the raw row that aborted an ingestion.
type MalformedInputError struct {
	Source Source
	File   string
	Line   int
	Reason string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("%s: %s line %d: %s", e.Source, e.File, e.Line, e.Reason)
}

func (e *MalformedInputError) Unwrap() error { return ErrMalformedInput }

// Validate returns ErrUnknownSource for anything but account or invoice.
func (s Source) Validate() error {
	switch s {
	case SourceAccount, SourceInvoice:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSource, string(s))
	}
}

// ParseSource parses "account" or "invoice" (case insensitive).
func ParseSource(s string) (Source, error) {
	src := Source(strings.ToLower(strings.TrimSpace(s)))
	if err := src.Validate(); err != nil {
		return "", err
	}
	return src, nil
}

// accepted date layouts, ISO first; account extracts use day/month/year.
var dateLayouts = []string{"2006-01-02", "02/01/2006", "2006-1-2"}

// ParseDate parses a calendar date with no time component.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewDate(t.Year(), int(t.Month()), t.Day()), nil
		}
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or after x.
func (d Date) Compare(x Date) int {
	return d.Time.Compare(x.Time)
}

// MonthOf returns the MonthBucket a date falls in.
func MonthOf(d Date) Month {
	return Month{Year: d.Year(), Month: d.Time.Month()}
}

// FirstDay returns the first day of the month.
func (m Month) FirstDay() Date {
	return NewDate(m.Year, int(m.Month), 1)
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Compare orders months chronologically.
func (m Month) Compare(x Month) int {
	switch {
	case m.Year != x.Year:
		if m.Year < x.Year {
			return -1
		}
		return 1
	case m.Month != x.Month:
		if m.Month < x.Month {
			return -1
		}
		return 1
	}
	return 0
}

// ParseMonth parses a month key. Both "2024-01" and "2024-01-01" are accepted;
// anything else is an ErrInvalidQuery.
func ParseMonth(s string) (Month, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			if layout == "2006-01-02" && t.Day() != 1 {
				break
			}
			return Month{Year: t.Year(), Month: t.Month()}, nil
		}
	}
	return Month{}, fmt.Errorf("%w: malformed month key %q", ErrInvalidQuery, s)
}

// ParseMonths parses a list of month keys, failing on the first bad one.
func ParseMonths(keys []string) ([]Month, error) {
	out := make([]Month, 0, len(keys))
	for _, k := range keys {
		m, err := ParseMonth(k)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// Bucket returns the entry's MonthBucket.
func (e LedgerEntry) Bucket() Month {
	return MonthOf(e.Date)
}
