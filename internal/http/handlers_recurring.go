package http

import (
	"net/http"

	"fintrack/internal/core"
)

type recurringRequest struct {
	Amount      core.Money           `json:"amount"`
	Description string               `json:"description"`
	Type        core.TransactionType `json:"type"`
	Frequency   core.Frequency       `json:"frequency"`
	StartDate   string               `json:"startDate"`
	EndDate     string               `json:"endDate"`
	CategoryID  int64                `json:"categoryId"`
	AccountID   int64                `json:"accountId"`
}

func (req recurringRequest) toRecurring(userID int64) (core.RecurringTransaction, error) {
	start, err := requiredDate("startDate", req.StartDate)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	end, err := optionalDate("endDate", req.EndDate)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	return core.RecurringTransaction{
		Amount:      req.Amount,
		Description: req.Description,
		Type:        req.Type,
		Frequency:   req.Frequency,
		StartDate:   start,
		EndDate:     end,
		UserID:      userID,
		CategoryID:  req.CategoryID,
		AccountID:   req.AccountID,
	}, nil
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	templates, err := s.svc.Recurring.List(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]recurringResponse, 0, len(templates))
	for _, rt := range templates {
		out = append(out, toRecurringResponse(rt))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetRecurring(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rt, err := s.svc.Recurring.Get(r.Context(), userID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecurringResponse(rt))
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	var req recurringRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rt, err := req.toRecurring(userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	rt, err = s.svc.Recurring.Create(r.Context(), rt)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRecurringResponse(rt))
}

func (s *Server) handleUpdateRecurring(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req recurringRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rt, err := req.toRecurring(userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	rt.ID = id
	rt, err = s.svc.Recurring.Update(r.Context(), rt)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecurringResponse(rt))
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Recurring.Delete(r.Context(), userID(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
