package http

import (
	"net/http"

	"fintrack/internal/core"
)

type budgetRequest struct {
	Amount         core.Money      `json:"amount"`
	StartDate      string          `json:"startDate"`
	EndDate        string          `json:"endDate"`
	Type           core.BudgetType `json:"type"`
	AlertThreshold int             `json:"alertThreshold"`
	IsActive       bool            `json:"isActive"`
	CategoryID     int64           `json:"categoryId"`
}

func (req budgetRequest) toBudget(userID int64) (core.Budget, error) {
	start, err := requiredDate("startDate", req.StartDate)
	if err != nil {
		return core.Budget{}, err
	}
	end, err := requiredDate("endDate", req.EndDate)
	if err != nil {
		return core.Budget{}, err
	}
	return core.Budget{
		Amount:         req.Amount,
		StartDate:      start,
		EndDate:        end,
		Type:           req.Type,
		AlertThreshold: req.AlertThreshold,
		IsActive:       req.IsActive,
		UserID:         userID,
		CategoryID:     req.CategoryID,
	}, nil
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	var (
		budgets []core.Budget
		err     error
	)
	if r.URL.Query().Get("includeInactive") == "true" {
		budgets, err = s.svc.Budgets.ListAll(r.Context(), userID(r))
	} else {
		budgets, err = s.svc.Budgets.ListActive(r.Context(), userID(r))
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]budgetResponse, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, toBudgetResponse(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	budget, err := s.svc.Budgets.Get(r.Context(), userID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetResponse(budget))
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	budget, err := req.toBudget(userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	budget, err = s.svc.Budgets.Create(r.Context(), budget)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBudgetResponse(budget))
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	budget, err := req.toBudget(userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	budget.ID = id
	budget, err = s.svc.Budgets.Update(r.Context(), budget)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetResponse(budget))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Budgets.Delete(r.Context(), userID(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
