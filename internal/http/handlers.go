package http

import (
	"context"
	"net/http"

	"financas/internal/core"
	"financas/internal/services"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady answers 503 until a ledger generation is visible.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.query.Loaded() {
		WriteJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "no ledger loaded"})
		return
	}
	WriteJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

// StatusResponse reports the visible generation and the refresh state.
type StatusResponse struct {
	Generation string `json:"generation,omitempty"`
	Loaded     bool   `json:"loaded"`
	Refresh    string `json:"refresh"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, r, http.StatusOK, StatusResponse{
		Generation: s.query.Generation(),
		Loaded:     s.query.Loaded(),
		Refresh:    s.refresher.State().String(),
	})
}

func (s *Server) handleMonths(w http.ResponseWriter, r *http.Request) {
	p, err := ParseQueryParams(r.URL.Query())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var months []core.Month
	if p.Recent {
		months, err = s.query.DefaultMonths(r.Context(), p.Source)
	} else {
		months, err = s.query.ListMonths(r.Context(), p.Source)
	}
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, r, http.StatusOK, services.MonthStrings(months))
}

func (s *Server) handleStatement(w http.ResponseWriter, r *http.Request) {
	p, err := ParseQueryParams(r.URL.Query())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	lines, err := s.query.MonthStatement(r.Context(), p.Source, p.Month)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, r, http.StatusOK, services.StatementView(lines))
}

func (s *Server) handleRollup(w http.ResponseWriter, r *http.Request) {
	p, keys, err := s.monthSet(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if p.Source == core.SourceInvoice {
		rows, err := s.query.InvoiceRollup(r.Context(), keys, p.Total)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		WriteJSON(w, r, http.StatusOK, services.InvoiceRollupsView(rows))
		return
	}
	rows, err := s.query.AccountRollup(r.Context(), keys, p.Total)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, r, http.StatusOK, services.AccountRollupsView(rows))
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	p, keys, err := s.monthSet(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	b, err := s.query.CategoryRollup(r.Context(), p.Source, keys)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, r, http.StatusOK, services.CategoryView(b))
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	p, err := ParseQueryParams(r.URL.Query())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	days, err := s.query.DailySpending(r.Context(), p.Source, p.Month)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, r, http.StatusOK, services.DailyView(days))
}

func (s *Server) handleDistribution(w http.ResponseWriter, r *http.Request) {
	p, keys, err := s.monthSet(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	dists, err := s.query.ExpenseDistribution(r.Context(), p.Source, keys)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, r, http.StatusOK, services.DistributionsView(dists, p.Values))
}

// handleRefresh runs a refresh and answers with its result. A failed refresh
// still carries the result body, with the status mapped from the error.
// The refresh outlives a dropped client; the orchestrator timeout bounds it.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	res, err := s.refresher.Refresh(context.WithoutCancel(r.Context()))
	if err != nil && StatusFor(err) == http.StatusInternalServerError {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, r, StatusFor(err), res)
}

// monthSet parses the parameters of the month set endpoints and resolves
// the selected months.
func (s *Server) monthSet(r *http.Request) (QueryParams, []string, error) {
	p, err := ParseQueryParams(r.URL.Query())
	if err != nil {
		return p, nil, err
	}
	keys, err := s.query.ResolveMonths(r.Context(), p.Source, p.Months, p.Recent)
	if err != nil {
		return p, nil, err
	}
	return p, keys, nil
}
