package http

import "net/http"

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	start, err := queryDate(query, "startDate")
	if err != nil {
		writeError(w, r, err)
		return
	}
	end, err := queryDate(query, "endDate")
	if err != nil {
		writeError(w, r, err)
		return
	}
	dashboard, err := s.svc.Analytics.Dashboard(r.Context(), userID(r), start, end)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDashboardResponse(dashboard))
}

func (s *Server) handleCategorySpending(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	start, err := queryDate(query, "startDate")
	if err != nil {
		writeError(w, r, err)
		return
	}
	end, err := queryDate(query, "endDate")
	if err != nil {
		writeError(w, r, err)
		return
	}
	spends, err := s.svc.Analytics.CategorySpending(r.Context(), userID(r), start, end)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategorySpendResponses(spends))
}

func (s *Server) handleMonthlyTrend(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	start, err := queryDate(query, "startDate")
	if err != nil {
		writeError(w, r, err)
		return
	}
	end, err := queryDate(query, "endDate")
	if err != nil {
		writeError(w, r, err)
		return
	}
	months, err := s.svc.Analytics.MonthlyTrend(r.Context(), userID(r), start, end)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMonthTotalsResponses(months))
}

func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	statuses, err := s.svc.Analytics.BudgetStatuses(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]budgetStatusResponse, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, toBudgetStatusResponse(st))
	}
	writeJSON(w, http.StatusOK, out)
}
