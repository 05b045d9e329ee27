package http

import (
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type transactionRequest struct {
	Amount          core.Money           `json:"amount"`
	Description     string               `json:"description"`
	Type            core.TransactionType `json:"type"`
	TransactionDate string               `json:"transactionDate"`
	Notes           string               `json:"notes"`
	CategoryID      int64                `json:"categoryId"`
	AccountID       int64                `json:"accountId"`
	RecurringID     int64                `json:"recurringTransactionId"`
}

func (req transactionRequest) toTransaction(userID int64) (core.Transaction, error) {
	date, err := requiredDate("transactionDate", req.TransactionDate)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		Amount:      req.Amount,
		Description: req.Description,
		Type:        req.Type,
		Date:        date,
		Notes:       req.Notes,
		UserID:      userID,
		CategoryID:  req.CategoryID,
		AccountID:   req.AccountID,
		RecurringID: req.RecurringID,
	}, nil
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	page, size := pagination(r.URL.Query())
	result, err := s.svc.Transactions.List(r.Context(), userID(r), page, size)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPageResponse(result))
}

func (s *Server) handleSearchTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := storage.TransactionFilter{Description: query.Get("description")}
	var err error
	if filter.CategoryID, err = queryInt64(query, "categoryId"); err != nil {
		writeError(w, r, err)
		return
	}
	if filter.AccountID, err = queryInt64(query, "accountId"); err != nil {
		writeError(w, r, err)
		return
	}
	if filter.StartDate, err = queryDate(query, "startDate"); err != nil {
		writeError(w, r, err)
		return
	}
	if filter.EndDate, err = queryDate(query, "endDate"); err != nil {
		writeError(w, r, err)
		return
	}

	page, size := pagination(query)
	result, err := s.svc.Transactions.Search(r.Context(), userID(r), filter, page, size)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPageResponse(result))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	txn, err := s.svc.Transactions.Get(r.Context(), userID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(txn))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	txn, err := req.toTransaction(userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	txn, err = s.svc.Transactions.Create(r.Context(), txn)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionResponse(txn))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	txn, err := req.toTransaction(userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	txn.ID = id
	txn, err = s.svc.Transactions.Update(r.Context(), txn)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(txn))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Transactions.Delete(r.Context(), userID(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
