// Package http exposes the JSON API.
package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/log"
	"fintrack/internal/metrics"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

type contextKey string

const userIDKey contextKey = "user_id"

// Services bundles everything the HTTP surface depends on.
type Services struct {
	Auth         *services.AuthService
	Accounts     *services.AccountService
	Categories   *services.CategoryService
	Budgets      *services.BudgetService
	Transactions *services.TransactionService
	Analytics    *services.AnalyticsService
	Recurring    *services.RecurringService
	Repo         *storage.SQLiteRepository
}

type Server struct {
	http.Server

	svc          Services
	limiter      *ratelimit.Limiter
	logger       *log.Logger
	shutdownOnce sync.Once
}

// NewServer wires all routes behind the middleware chain
// trace -> rate limit -> metrics -> (per-route) auth.
func NewServer(addr string, svc Services, rateLimitPerMinute int, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		svc:     svc,
		limiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: rateLimitPerMinute}),
		logger:  logger.WithComponent(log.ComponentHTTP),
	}

	// public surface
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("GET /auth/verify", s.handleVerify)

	// authenticated surface
	mux.HandleFunc("GET /accounts", s.withAuth(s.handleListAccounts))
	mux.HandleFunc("POST /accounts", s.withAuth(s.handleCreateAccount))
	mux.HandleFunc("GET /accounts/{id}", s.withAuth(s.handleGetAccount))
	mux.HandleFunc("PUT /accounts/{id}", s.withAuth(s.handleUpdateAccount))
	mux.HandleFunc("DELETE /accounts/{id}", s.withAuth(s.handleDeleteAccount))

	mux.HandleFunc("GET /categories", s.withAuth(s.handleListCategories))
	mux.HandleFunc("POST /categories", s.withAuth(s.handleCreateCategory))
	mux.HandleFunc("GET /categories/{id}", s.withAuth(s.handleGetCategory))
	mux.HandleFunc("PUT /categories/{id}", s.withAuth(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /categories/{id}", s.withAuth(s.handleDeleteCategory))

	mux.HandleFunc("GET /budgets", s.withAuth(s.handleListBudgets))
	mux.HandleFunc("POST /budgets", s.withAuth(s.handleCreateBudget))
	mux.HandleFunc("GET /budgets/{id}", s.withAuth(s.handleGetBudget))
	mux.HandleFunc("PUT /budgets/{id}", s.withAuth(s.handleUpdateBudget))
	mux.HandleFunc("DELETE /budgets/{id}", s.withAuth(s.handleDeleteBudget))

	mux.HandleFunc("GET /transactions", s.withAuth(s.handleListTransactions))
	mux.HandleFunc("GET /transactions/search", s.withAuth(s.handleSearchTransactions))
	mux.HandleFunc("POST /transactions", s.withAuth(s.handleCreateTransaction))
	mux.HandleFunc("GET /transactions/{id}", s.withAuth(s.handleGetTransaction))
	mux.HandleFunc("PUT /transactions/{id}", s.withAuth(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /transactions/{id}", s.withAuth(s.handleDeleteTransaction))

	mux.HandleFunc("GET /recurring-transactions", s.withAuth(s.handleListRecurring))
	mux.HandleFunc("POST /recurring-transactions", s.withAuth(s.handleCreateRecurring))
	mux.HandleFunc("GET /recurring-transactions/{id}", s.withAuth(s.handleGetRecurring))
	mux.HandleFunc("PUT /recurring-transactions/{id}", s.withAuth(s.handleUpdateRecurring))
	mux.HandleFunc("DELETE /recurring-transactions/{id}", s.withAuth(s.handleDeleteRecurring))

	mux.HandleFunc("GET /analytics/dashboard", s.withAuth(s.handleDashboard))
	mux.HandleFunc("GET /analytics/category-spending", s.withAuth(s.handleCategorySpending))
	mux.HandleFunc("GET /analytics/monthly-trend", s.withAuth(s.handleMonthlyTrend))
	mux.HandleFunc("GET /analytics/budget-status", s.withAuth(s.handleBudgetStatus))

	handler := trace.Middleware(
		s.limiter.Middleware(trace.ClientIP)(
			instrument(mux)))

	s.Server.Addr = addr
	s.Server.Handler = handler
	s.Server.ReadHeaderTimeout = 10 * time.Second
	return s
}

// Shutdown stops the HTTP listener and the limiter's cleanup goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// withAuth resolves the bearer token to a user and stores the user id in
// the request context.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		user, err := s.svc.Auth.Verify(r.Context(), token)
		if err != nil {
			writeError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, user.ID)
		next(w, r.WithContext(ctx))
	}
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", auth.ErrMissingToken
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", auth.ErrInvalidToken
	}
	return token, nil
}

func userID(r *http.Request) int64 {
	id, _ := r.Context().Value(userIDKey).(int64)
	return id
}

// instrument records request counts and latency per route pattern.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveRequest(r.Method, route, rw.status, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Repo.Ping(r.Context()); err != nil {
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
