package http

import (
	"net/http"

	"gastos/internal/core"
	"gastos/internal/log"
	"gastos/internal/report"
)

type setBudgetRequest struct {
	CategoryID string     `json:"category_id"`
	Amount     core.Money `json:"amount"`
	Month      core.Month `json:"month"`
}

type budgetResponse struct {
	core.Budget
	Warning string `json:"warning,omitempty"`
}

// handleSetBudget upserts the budget for a category and month. Setting
// an amount for an existing pair overwrites it, so PUT is the only
// mutation budgets need.
func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var req setBudgetRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	b, err := s.ledger.SetBudget(r.Context(), req.CategoryID, req.Amount, req.Month)
	if err != nil && b.ID == "" {
		writeLedgerError(w, err)
		return
	}
	s.invalidateDashboards()

	resp := budgetResponse{Budget: b}
	if err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Budget saved in memory only", "id", b.ID, "error", err)
		resp.Warning = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBudgetStatuses(w http.ResponseWriter, r *http.Request) {
	month, err := s.monthParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid month, expected YYYY-MM")
		return
	}

	statuses := report.BudgetStatuses(s.ledger.Snapshot(), month)
	if statuses == nil {
		statuses = []report.BudgetStatus{}
	}

	writeJSON(w, http.StatusOK, statuses)
}

// monthParam reads the month query parameter, defaulting to the current
// month.
func (s *Server) monthParam(r *http.Request) (core.Month, error) {
	v := r.URL.Query().Get("month")
	if v == "" {
		return core.MonthOf(core.DateOf(s.now())), nil
	}
	return core.ParseMonth(v)
}
