// Package http serves the ledger queries and the refresh trigger as a JSON
// API.
//
// This file implements the parsing of query parameters shared by the
// handlers.

package http

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"financas/internal/core"
)

// QueryParams holds the parameters accepted by the query endpoints.
type QueryParams struct {
	Source core.Source
	Month  string   // single month endpoints
	Months []string // month set endpoints, empty selects every month
	Recent bool
	Total  bool
	Values bool
}

// ParseQueryParams reads source, month, months, recent, total and values.
// months may be comma separated or repeated. source defaults to account and
// total to true. Malformed values wrap core.ErrInvalidQuery; month keys
// themselves are validated by the query service.
func ParseQueryParams(query url.Values) (QueryParams, error) {
	params := QueryParams{
		Source: core.SourceAccount,
		Month:  strings.TrimSpace(query.Get("month")),
		Months: ParseMonthList(strings.Join(query["months"], ",")),
		Total:  true,
	}

	if v := strings.TrimSpace(query.Get("source")); v != "" {
		src, err := core.ParseSource(v)
		if err != nil {
			return params, fmt.Errorf("%w: %w", core.ErrInvalidQuery, err)
		}
		params.Source = src
	}

	for name, dst := range map[string]*bool{
		"recent": &params.Recent,
		"total":  &params.Total,
		"values": &params.Values,
	} {
		v := strings.TrimSpace(query.Get(name))
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return params, fmt.Errorf("%w: %s must be a boolean, got %q", core.ErrInvalidQuery, name, v)
		}
		*dst = b
	}

	return params, nil
}

// ParseMonthList splits a comma separated month list, dropping blanks.
func ParseMonthList(raw string) []string {
	var out []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}
