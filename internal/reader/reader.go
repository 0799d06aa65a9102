// Package reader parses the raw CSV exports into typed raw records.
//
// A source directory may hold any number of CSV files; their rows are
// concatenated in lexical file order. Parsing is all-or-nothing: the first
// malformed row fails the whole source.
package reader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"financas/internal/core"
)

// layout is the column shape of one source. Each header entry lists the
// names a column may carry in the header row, lowercase.
type layout struct {
	header [][]string
}

var (
	accountLayout = layout{header: [][]string{
		{"date", "data"},
		{"value", "valor"},
		{"id", "identificador"},
		{"description", "descrição", "descricao"},
	}}
	invoiceLayout = layout{header: [][]string{
		{"date", "data"},
		{"category", "categoria"},
		{"title", "título", "titulo"},
		{"value", "amount", "valor"},
	}}
)

func (l layout) columns() int { return len(l.header) }

// isHeader reports whether rec names every column of the layout. Names are
// compared case-insensitively, ignoring surrounding spaces.
func (l layout) isHeader(rec []string) bool {
	if len(rec) != l.columns() {
		return false
	}
	for i, names := range l.header {
		if !slices.Contains(names, strings.ToLower(strings.TrimSpace(rec[i]))) {
			return false
		}
	}
	return true
}

// Report describes what a reader found in a source directory.
type Report struct {
	Source  core.Source
	Dir     string
	Files   []string
	Rows    int
	Missing bool // no directory or no CSV file: the source is empty, not failed
}

// ReadAccounts reads every account extract in dir.
func ReadAccounts(ctx context.Context, dir string) ([]core.RawAccountRecord, Report, error) {
	var out []core.RawAccountRecord
	report, err := readDir(ctx, core.SourceAccount, dir, accountLayout, func(rec []string) error {
		r, err := parseAccountRow(rec)
		if err != nil {
			return err
		}
		out = append(out, r)
		return nil
	})
	if err != nil {
		return nil, report, err
	}
	return out, report, nil
}

// ReadInvoices reads every invoice export in dir.
func ReadInvoices(ctx context.Context, dir string) ([]core.RawInvoiceRecord, Report, error) {
	var out []core.RawInvoiceRecord
	report, err := readDir(ctx, core.SourceInvoice, dir, invoiceLayout, func(rec []string) error {
		r, err := parseInvoiceRow(rec)
		if err != nil {
			return err
		}
		out = append(out, r)
		return nil
	})
	if err != nil {
		return nil, report, err
	}
	return out, report, nil
}

func parseAccountRow(rec []string) (core.RawAccountRecord, error) {
	date, err := core.ParseDate(rec[0])
	if err != nil {
		return core.RawAccountRecord{}, err
	}
	value, err := core.ParseAmount(rec[1])
	if err != nil {
		return core.RawAccountRecord{}, err
	}
	return core.RawAccountRecord{
		Date:        date,
		Value:       value,
		ID:          strings.TrimSpace(rec[2]),
		Description: rec[3],
	}, nil
}

func parseInvoiceRow(rec []string) (core.RawInvoiceRecord, error) {
	date, err := core.ParseDate(rec[0])
	if err != nil {
		return core.RawInvoiceRecord{}, err
	}
	value, err := core.ParseAmount(rec[3])
	if err != nil {
		return core.RawInvoiceRecord{}, err
	}
	return core.RawInvoiceRecord{
		Date:     date,
		Category: rec[1],
		Title:    rec[2],
		Value:    value,
	}, nil
}

// CSVFiles lists the CSV files of dir in lexical order. A missing directory
// yields no files and no error.
func CSVFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read source directory %q: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

// readDir walks the CSV files of dir and hands every data row to fn. The
// first row of a file is skipped only when it names the layout's columns;
// any other row is data and must parse.
func readDir(ctx context.Context, src core.Source, dir string, l layout, fn func([]string) error) (Report, error) {
	report := Report{Source: src, Dir: dir}
	files, err := CSVFiles(dir)
	if err != nil {
		return report, err
	}
	if len(files) == 0 {
		report.Missing = true
		return report, nil
	}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("%w: reading %s: %v", core.ErrIngestionTimeout, src, err)
		}
		n, err := readFile(ctx, src, path, l, fn)
		if err != nil {
			return report, err
		}
		report.Files = append(report.Files, path)
		report.Rows += n
	}
	return report, nil
}

func readFile(ctx context.Context, src core.Source, path string, l layout, fn func([]string) error) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // column count is checked below to report MalformedInput
	r.ReuseRecord = true

	name := filepath.Base(path)
	malformed := func(line int, reason string) error {
		return &core.MalformedInputError{Source: src, File: name, Line: line, Reason: reason}
	}

	rows := 0
	for first := true; ; first = false {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return rows, malformed(perr.Line, perr.Err.Error())
			}
			return rows, fmt.Errorf("read %s: %w", path, err)
		}
		line, _ := r.FieldPos(0)
		if rows%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return rows, fmt.Errorf("%w: reading %s: %v", core.ErrIngestionTimeout, name, err)
			}
		}
		if first {
			rec[0] = strings.TrimPrefix(rec[0], "\ufeff")
		}
		if len(rec) != l.columns() {
			return rows, malformed(line, fmt.Sprintf("expected %d columns, got %d", l.columns(), len(rec)))
		}
		if first && l.isHeader(rec) {
			continue
		}
		if err := fn(rec); err != nil {
			return rows, malformed(line, err.Error())
		}
		rows++
	}
	return rows, nil
}
