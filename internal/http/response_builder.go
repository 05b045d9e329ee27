package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError maps the core error taxonomy onto HTTP status codes.
// Unknown errors become an opaque 500; the detail goes to the log only.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: ve.Err.Error(), Field: ve.Field})
	case core.IsValidation(err):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.Is(err, core.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, core.ErrConflict):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, core.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, core.ErrUnauthorized),
		errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrMissingToken):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

type userResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type accountResponse struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Type        string     `json:"type"`
	Balance     core.Money `json:"balance"`
	IsActive    bool       `json:"isActive"`
	CreatedAt   string     `json:"createdAt"`
	UpdatedAt   string     `json:"updatedAt"`
}

type categoryResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
	IsDefault   bool   `json:"isDefault"`
}

type budgetResponse struct {
	ID             int64      `json:"id"`
	Amount         core.Money `json:"amount"`
	StartDate      string     `json:"startDate"`
	EndDate        string     `json:"endDate"`
	Type           string     `json:"type"`
	AlertThreshold int        `json:"alertThreshold"`
	IsActive       bool       `json:"isActive"`
	CategoryID     int64      `json:"categoryId,omitempty"`
}

type transactionResponse struct {
	ID            int64      `json:"id"`
	Amount        core.Money `json:"amount"`
	Description   string     `json:"description"`
	Type          string     `json:"type"`
	Date          string     `json:"transactionDate"`
	Notes         string     `json:"notes,omitempty"`
	CategoryID    int64      `json:"categoryId"`
	CategoryName  string     `json:"categoryName,omitempty"`
	CategoryColor string     `json:"categoryColor,omitempty"`
	AccountID     int64      `json:"accountId"`
	AccountName   string     `json:"accountName,omitempty"`
	RecurringID   int64      `json:"recurringTransactionId,omitempty"`
	CreatedAt     string     `json:"createdAt"`
	UpdatedAt     string     `json:"updatedAt"`
}

type recurringResponse struct {
	ID            int64      `json:"id"`
	Amount        core.Money `json:"amount"`
	Description   string     `json:"description"`
	Type          string     `json:"type"`
	Frequency     string     `json:"frequency"`
	StartDate     string     `json:"startDate"`
	EndDate       string     `json:"endDate,omitempty"`
	LastExecution string     `json:"lastExecutionDate,omitempty"`
	IsActive      bool       `json:"isActive"`
	CategoryID    int64      `json:"categoryId"`
	AccountID     int64      `json:"accountId"`
}

type pageResponse struct {
	Content       []transactionResponse `json:"content"`
	Page          int                   `json:"page"`
	Size          int                   `json:"size"`
	TotalElements int64                 `json:"totalElements"`
	TotalPages    int64                 `json:"totalPages"`
}

type categorySpendResponse struct {
	CategoryID   int64      `json:"categoryId"`
	CategoryName string     `json:"categoryName"`
	Amount       core.Money `json:"amount"`
}

type monthTotalsResponse struct {
	Month    string     `json:"month"`
	Income   core.Money `json:"income"`
	Expenses core.Money `json:"expenses"`
}

type dashboardResponse struct {
	StartDate        string                  `json:"startDate"`
	EndDate          string                  `json:"endDate"`
	TotalIncome      core.Money              `json:"totalIncome"`
	TotalExpenses    core.Money              `json:"totalExpenses"`
	NetAmount        core.Money              `json:"netAmount"`
	CategorySpending []categorySpendResponse `json:"categorySpending"`
	MonthlyTrend     []monthTotalsResponse   `json:"monthlyTrend"`
}

type budgetStatusResponse struct {
	BudgetID       int64      `json:"budgetId"`
	Amount         core.Money `json:"amount"`
	Spent          core.Money `json:"spent"`
	Remaining      core.Money `json:"remaining"`
	Percentage     float64    `json:"percentage"`
	IsOverBudget   bool       `json:"isOverBudget"`
	IsNearLimit    bool       `json:"isNearLimit"`
	AlertThreshold int        `json:"alertThreshold"`
	StartDate      string     `json:"startDate"`
	EndDate        string     `json:"endDate"`
	CategoryID     int64      `json:"categoryId,omitempty"`
}

func toSessionResponse(s services.Session) sessionResponse {
	return sessionResponse{Token: s.Token, User: toUserResponse(s.User)}
}

func toUserResponse(u core.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

func toAccountResponse(a core.Account) accountResponse {
	return accountResponse{
		ID:          a.ID,
		Name:        a.Name,
		Description: a.Description,
		Type:        string(a.Type),
		Balance:     a.Balance,
		IsActive:    a.IsActive,
		CreatedAt:   a.CreatedAt.Format(timeFormat),
		UpdatedAt:   a.UpdatedAt.Format(timeFormat),
	}
}

func toCategoryResponse(c core.Category) categoryResponse {
	return categoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Color:       c.Color,
		IsDefault:   c.IsDefault,
	}
}

func toBudgetResponse(b core.Budget) budgetResponse {
	return budgetResponse{
		ID:             b.ID,
		Amount:         b.Amount,
		StartDate:      b.StartDate.String(),
		EndDate:        b.EndDate.String(),
		Type:           string(b.Type),
		AlertThreshold: b.AlertThreshold,
		IsActive:       b.IsActive,
		CategoryID:     b.CategoryID,
	}
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		Amount:      t.Amount,
		Description: t.Description,
		Type:        string(t.Type),
		Date:        t.Date.String(),
		Notes:       t.Notes,
		CategoryID:  t.CategoryID,
		AccountID:   t.AccountID,
		RecurringID: t.RecurringID,
		CreatedAt:   t.CreatedAt.Format(timeFormat),
		UpdatedAt:   t.UpdatedAt.Format(timeFormat),
	}
}

func toTransactionDetailResponse(d storage.TransactionDetail) transactionResponse {
	resp := toTransactionResponse(d.Transaction)
	resp.CategoryName = d.CategoryName
	resp.CategoryColor = d.CategoryColor
	resp.AccountName = d.AccountName
	return resp
}

func toPageResponse(p services.Page) pageResponse {
	content := make([]transactionResponse, 0, len(p.Content))
	for _, d := range p.Content {
		content = append(content, toTransactionDetailResponse(d))
	}
	return pageResponse{
		Content:       content,
		Page:          p.Page,
		Size:          p.Size,
		TotalElements: p.TotalElements,
		TotalPages:    p.TotalPages,
	}
}

func toRecurringResponse(rt core.RecurringTransaction) recurringResponse {
	resp := recurringResponse{
		ID:          rt.ID,
		Amount:      rt.Amount,
		Description: rt.Description,
		Type:        string(rt.Type),
		Frequency:   string(rt.Frequency),
		StartDate:   rt.StartDate.String(),
		IsActive:    rt.IsActive,
		CategoryID:  rt.CategoryID,
		AccountID:   rt.AccountID,
	}
	if !rt.EndDate.IsZero() {
		resp.EndDate = rt.EndDate.String()
	}
	if !rt.LastExecution.IsZero() {
		resp.LastExecution = rt.LastExecution.Format(timeFormat)
	}
	return resp
}

func toCategorySpendResponses(spends []storage.CategorySpend) []categorySpendResponse {
	out := make([]categorySpendResponse, 0, len(spends))
	for _, s := range spends {
		out = append(out, categorySpendResponse{
			CategoryID:   s.CategoryID,
			CategoryName: s.CategoryName,
			Amount:       core.Money{Cents: s.SpentCents},
		})
	}
	return out
}

func toMonthTotalsResponses(months []storage.MonthTotals) []monthTotalsResponse {
	out := make([]monthTotalsResponse, 0, len(months))
	for _, m := range months {
		out = append(out, monthTotalsResponse{
			Month:    m.Month,
			Income:   core.Money{Cents: m.IncomeCents},
			Expenses: core.Money{Cents: m.ExpenseCents},
		})
	}
	return out
}

func toDashboardResponse(d services.Dashboard) dashboardResponse {
	return dashboardResponse{
		StartDate:        d.StartDate.String(),
		EndDate:          d.EndDate.String(),
		TotalIncome:      d.TotalIncome,
		TotalExpenses:    d.TotalExpenses,
		NetAmount:        d.NetAmount,
		CategorySpending: toCategorySpendResponses(d.CategorySpending),
		MonthlyTrend:     toMonthTotalsResponses(d.MonthlyTrend),
	}
}

func toBudgetStatusResponse(st services.BudgetStatus) budgetStatusResponse {
	return budgetStatusResponse{
		BudgetID:       st.Budget.ID,
		Amount:         st.Budget.Amount,
		Spent:          st.Spent,
		Remaining:      st.Remaining,
		Percentage:     st.Percentage,
		IsOverBudget:   st.IsOverBudget,
		IsNearLimit:    st.IsNearLimit,
		AlertThreshold: st.Budget.AlertThreshold,
		StartDate:      st.Budget.StartDate.String(),
		EndDate:        st.Budget.EndDate.String(),
		CategoryID:     st.Budget.CategoryID,
	}
}
