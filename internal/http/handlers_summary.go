package http

import (
	"net/http"

	"expensetracker/internal/core"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.svc.Summary(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleCategoryTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := s.svc.CategoryTotals(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

func (s *Server) handleDailyTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := s.svc.DailyTotals(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

// handleCategories lists the default labels followed by any other category
// already in use.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	totals, err := s.svc.CategoryTotals(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	seen := make(map[string]bool, len(core.DefaultCategories)+len(totals))
	out := make([]string, 0, len(core.DefaultCategories)+len(totals))
	for _, c := range core.DefaultCategories {
		seen[c] = true
		out = append(out, c)
	}
	for _, t := range totals {
		if !seen[t.Name] {
			seen[t.Name] = true
			out = append(out, t.Name)
		}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"categories": out})
}
