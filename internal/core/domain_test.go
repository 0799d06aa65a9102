package core

import (
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want Date
		ok   bool
	}{
		{"2024-01-15", NewDate(2024, 1, 15), true},
		{"15/01/2024", NewDate(2024, 1, 15), true},
		{"2024-1-5", NewDate(2024, 1, 5), true},
		{" 2024-02-29 ", NewDate(2024, 2, 29), true},
		{"2023-02-29", Date{}, false},
		{"yesterday", Date{}, false},
		{"", Date{}, false},
	}
	for i, tc := range cases {
		got, err := ParseDate(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(tc.want.Time) {
				t.Fatalf("case %d: %q expected %s, got %s (err=%v)", i, tc.in, tc.want, got, err)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("case %d: %q expected ErrInvalidDate, got %v", i, tc.in, err)
		}
	}
}

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2024-03")
	if err != nil || m != (Month{Year: 2024, Month: time.March}) {
		t.Fatalf("unexpected month %v err=%v", m, err)
	}
	m, err = ParseMonth("2024-03-01")
	if err != nil || m.String() != "2024-03" {
		t.Fatalf("unexpected month %v err=%v", m, err)
	}
	for _, bad := range []string{"2024-13", "2024-03-15", "march", ""} {
		if _, err := ParseMonth(bad); !errors.Is(err, ErrInvalidQuery) {
			t.Fatalf("%q expected ErrInvalidQuery, got %v", bad, err)
		}
	}
}

func TestMonthOfAndCompare(t *testing.T) {
	jan23 := MonthOf(NewDate(2023, 1, 31))
	jan24 := MonthOf(NewDate(2024, 1, 2))
	if jan23 == jan24 {
		t.Fatalf("months of different years must be distinct buckets")
	}
	if jan23.Compare(jan24) != -1 || jan24.Compare(jan23) != 1 || jan24.Compare(jan24) != 0 {
		t.Fatalf("unexpected compare results")
	}
	if got := jan24.FirstDay().String(); got != "2024-01-01" {
		t.Fatalf("unexpected first day %s", got)
	}
}

func TestParseSource(t *testing.T) {
	if s, err := ParseSource(" Invoice "); err != nil || s != SourceInvoice {
		t.Fatalf("unexpected source %q err=%v", s, err)
	}
	if _, err := ParseSource("card"); !errors.Is(err, ErrUnknownSource) {
		t.Fatalf("expected ErrUnknownSource, got %v", err)
	}
}

func TestMalformedInputErrorUnwrap(t *testing.T) {
	var err error = &MalformedInputError{Source: SourceAccount, File: "a.csv", Line: 3, Reason: "bad date"}
	if !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("expected errors.Is to match ErrMalformedInput")
	}
	var mie *MalformedInputError
	if !errors.As(err, &mie) || mie.Line != 3 {
		t.Fatalf("expected errors.As to extract the line")
	}
	if err.Error() != "account: a.csv line 3: bad date" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
