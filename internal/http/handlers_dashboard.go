package http

import (
	"net/http"

	"gastos/internal/core"
	"gastos/internal/log"
	"gastos/internal/report"
)

// dashboardResponse bundles everything the dashboard page needs in one
// round trip.
type dashboardResponse struct {
	Overview      report.Overview        `json:"overview"`
	Breakdown     []report.CategorySlice `json:"breakdown"`
	DailySeries   []report.DayPoint      `json:"daily_series"`
	MonthlySeries []report.MonthPoint    `json:"monthly_series"`
	Budgets       []report.BudgetStatus  `json:"budgets"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	month, err := s.monthParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid month, expected YYYY-MM")
		return
	}

	key := month.String()
	if data, found := s.dashboardCache.Get(key); found {
		log.FromContext(r.Context()).DebugContext(r.Context(), "Dashboard cache hit", "month", key)
		writeJSON(w, http.StatusOK, data)
		return
	}

	snap := s.ledger.Snapshot()

	// The reference day is today inside the requested month, or the last
	// day of a past month.
	ref := s.refDay(month)

	data := dashboardResponse{
		Overview:      report.BuildOverview(snap, ref),
		Breakdown:     report.CategoryBreakdown(snap, month),
		DailySeries:   report.DailySeries(snap, month),
		MonthlySeries: report.MonthlySeries(snap, month, report.DefaultComparisonWindow),
		Budgets:       report.BudgetStatuses(snap, month),
	}
	if data.Breakdown == nil {
		data.Breakdown = []report.CategorySlice{}
	}
	if data.Budgets == nil {
		data.Budgets = []report.BudgetStatus{}
	}

	s.dashboardCache.Set(key, data)
	log.FromContext(r.Context()).DebugContext(r.Context(), "Dashboard cached", "month", key,
		"total_cents", data.Overview.Total.Cents, "categories", len(data.Breakdown))

	writeJSON(w, http.StatusOK, data)
}

func (s *Server) refDay(month core.Month) core.Date {
	today := core.DateOf(s.now())
	if today.In(month) {
		return today
	}
	return month.Date(month.Days())
}

// invalidateDashboards drops all cached dashboard aggregates. Mutations
// can touch any month (a backdated transaction, an import), so the whole
// cache goes.
func (s *Server) invalidateDashboards() {
	s.dashboardCache.Purge()
}
