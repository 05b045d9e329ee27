package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/auth"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	logger := log.New(log.DefaultConfig())
	jwtManager := auth.NewJWTManager("test-secret-key-0123456789", time.Hour)
	analytics := services.NewAnalyticsService(repo, logger)
	transactions := services.NewTransactionService(repo, nil, analytics, logger)

	srv := NewServer("127.0.0.1:0", Services{
		Auth:         services.NewAuthService(repo, jwtManager, logger),
		Accounts:     services.NewAccountService(repo, logger),
		Categories:   services.NewCategoryService(repo, logger),
		Budgets:      services.NewBudgetService(repo, logger),
		Transactions: transactions,
		Analytics:    analytics,
		Recurring:    services.NewRecurringService(repo, transactions, logger),
		Repo:         repo,
	}, 10000, logger)
	t.Cleanup(func() { srv.limiter.Stop() })

	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func doRequest(t *testing.T, ts *httptest.Server, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func doRequestList(t *testing.T, ts *httptest.Server, path, token string) (*http.Response, []map[string]any) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, ts.URL+path, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func registerUser(t *testing.T, ts *httptest.Server, username string) string {
	t.Helper()

	resp, body := doRequest(t, ts, http.MethodPost, "/auth/register", "", map[string]any{
		"username": username,
		"email":    username + "@example.com",
		"password": "s3cret-pass",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	token, ok := body["token"].(string)
	require.True(t, ok)
	require.NotEmpty(t, token)
	return token
}

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t)

	token := registerUser(t, ts, "alice")

	resp, body := doRequest(t, ts, http.MethodGet, "/auth/verify", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice", body["username"])

	resp, body = doRequest(t, ts, http.MethodPost, "/auth/login", "", map[string]any{
		"username": "alice",
		"password": "s3cret-pass",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["token"])

	resp, _ = doRequest(t, ts, http.MethodPost, "/auth/login", "", map[string]any{
		"username": "alice",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doRequest(t, ts, http.MethodGet, "/auth/verify", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// duplicate username
	resp, _ = doRequest(t, ts, http.MethodPost, "/auth/register", "", map[string]any{
		"username": "alice",
		"email":    "other@example.com",
		"password": "s3cret-pass",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthenticatedRoutesRejectMissingToken(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := doRequest(t, ts, http.MethodGet, "/accounts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doRequest(t, ts, http.MethodPost, "/transactions", "", map[string]any{})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestTransactionRoundTripUpdatesBalance(t *testing.T) {
	ts := newTestServer(t)
	token := registerUser(t, ts, "bob")

	resp, account := doRequest(t, ts, http.MethodPost, "/accounts", token, map[string]any{
		"name":    "Checking",
		"type":    "CHECKING",
		"balance": 100.00,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	accountID := int64(account["id"].(float64))

	resp, categories := doRequestList(t, ts, "/categories", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, categories)
	categoryID := int64(categories[0]["id"].(float64))

	resp, txn := doRequest(t, ts, http.MethodPost, "/transactions", token, map[string]any{
		"amount":          25.50,
		"description":     "groceries",
		"type":            "EXPENSE",
		"transactionDate": "2026-08-10",
		"categoryId":      categoryID,
		"accountId":       accountID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 25.50, txn["amount"])

	resp, account = doRequest(t, ts, http.MethodGet, fmt.Sprintf("/accounts/%d", accountID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 74.50, account["balance"])

	resp, page := doRequest(t, ts, http.MethodGet, "/transactions", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), page["totalElements"])
	content := page["content"].([]any)
	require.Len(t, content, 1)
	first := content[0].(map[string]any)
	assert.Equal(t, "groceries", first["description"])
	assert.Equal(t, categories[0]["name"], first["categoryName"])
	assert.Equal(t, "Checking", first["accountName"])

	txnID := int64(txn["id"].(float64))
	resp, _ = doRequest(t, ts, http.MethodDelete, fmt.Sprintf("/transactions/%d", txnID), token, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, account = doRequest(t, ts, http.MethodGet, fmt.Sprintf("/accounts/%d", accountID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 100.00, account["balance"])
}

func TestErrorStatusMapping(t *testing.T) {
	ts := newTestServer(t)
	token := registerUser(t, ts, "carol")

	// unknown account
	resp, _ := doRequest(t, ts, http.MethodGet, "/accounts/9999", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// invalid account type
	resp, body := doRequest(t, ts, http.MethodPost, "/accounts", token, map[string]any{
		"name": "Weird",
		"type": "MATTRESS",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.NotEmpty(t, body["error"])

	// duplicate category name
	resp, _ = doRequest(t, ts, http.MethodPost, "/categories", token, map[string]any{"name": "Hobbies"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = doRequest(t, ts, http.MethodPost, "/categories", token, map[string]any{"name": "Hobbies"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// default categories cannot be edited
	resp, categories := doRequestList(t, ts, "/categories", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var defaultID int64
	for _, c := range categories {
		if c["isDefault"] == true {
			defaultID = int64(c["id"].(float64))
			break
		}
	}
	require.NotZero(t, defaultID)
	resp, _ = doRequest(t, ts, http.MethodDelete, fmt.Sprintf("/categories/%d", defaultID), token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestDashboardEmptyIsZero(t *testing.T) {
	ts := newTestServer(t)
	token := registerUser(t, ts, "dave")

	resp, body := doRequest(t, ts, http.MethodGet, "/analytics/dashboard", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), body["totalIncome"])
	assert.Equal(t, float64(0), body["totalExpenses"])
	assert.Equal(t, float64(0), body["netAmount"])
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)

	resp, err := ts.Client().Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = ts.Client().Get(ts.URL + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
