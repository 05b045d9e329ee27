package services

import (
	"context"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/metrics"
	"fintrack/internal/storage"
)

// TransactionService orchestrates transaction mutations: referential
// checks, balance-consistent writes, analytics cache invalidation and
// budget alert events.
type TransactionService struct {
	repo       *storage.SQLiteRepository
	amqpClient *amqp.Client
	analytics  *AnalyticsService
	logger     *log.Logger
}

// NewTransactionService creates the service. amqpClient may be nil, in
// which case budget alerts are persisted but not published.
func NewTransactionService(repo *storage.SQLiteRepository, amqpClient *amqp.Client, analytics *AnalyticsService, logger *log.Logger) *TransactionService {
	return &TransactionService{
		repo:       repo,
		amqpClient: amqpClient,
		analytics:  analytics,
		logger:     logger.WithComponent(log.ComponentTransaction),
	}
}

func (s *TransactionService) Get(ctx context.Context, userID, id int64) (core.Transaction, error) {
	return s.repo.GetTransaction(ctx, userID, id)
}

// Page holds one page of transactions plus pagination totals.
type Page struct {
	Content       []storage.TransactionDetail
	Page          int
	Size          int
	TotalElements int64
	TotalPages    int64
}

func (s *TransactionService) List(ctx context.Context, userID int64, page, size int) (Page, error) {
	if size <= 0 {
		size = 20
	}
	if page < 0 {
		page = 0
	}
	content, total, err := s.repo.ListTransactions(ctx, userID, page, size)
	if err != nil {
		return Page{}, err
	}
	return newPage(content, page, size, total), nil
}

// Search applies the filter, defaulting the window to the last month
// through today. When both a category and an account are given the
// category wins.
func (s *TransactionService) Search(ctx context.Context, userID int64, f storage.TransactionFilter, page, size int) (Page, error) {
	if size <= 0 {
		size = 20
	}
	if page < 0 {
		page = 0
	}
	if f.EndDate.IsZero() {
		f.EndDate = core.Today()
	}
	if f.StartDate.IsZero() {
		f.StartDate = core.Date{Time: f.EndDate.AddDate(0, -1, 0)}
	}
	if f.CategoryID != 0 {
		f.AccountID = 0
	}
	content, total, err := s.repo.SearchTransactions(ctx, userID, f, page, size)
	if err != nil {
		return Page{}, err
	}
	return newPage(content, page, size, total), nil
}

func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.resolveRefs(ctx, t); err != nil {
		return core.Transaction{}, err
	}

	created, err := s.repo.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, err
	}

	s.logger.InfoContext(ctx, "Transaction created",
		log.FieldUserID, t.UserID,
		log.FieldTxnID, created.ID,
		log.FieldTxnType, string(t.Type),
		log.FieldAmountCents, t.Amount.Cents)
	metrics.CountTransaction(log.OpCreate, string(t.Type))
	s.afterMutation(ctx, created)
	return created, nil
}

func (s *TransactionService) Update(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.resolveRefs(ctx, t); err != nil {
		return core.Transaction{}, err
	}

	updated, err := s.repo.UpdateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, err
	}

	s.logger.InfoContext(ctx, "Transaction updated",
		log.FieldUserID, t.UserID,
		log.FieldTxnID, t.ID)
	metrics.CountTransaction(log.OpUpdate, string(t.Type))
	s.afterMutation(ctx, updated)
	return updated, nil
}

func (s *TransactionService) Delete(ctx context.Context, userID, id int64) error {
	old, err := s.repo.GetTransaction(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteTransaction(ctx, userID, id); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Transaction deleted",
		log.FieldUserID, userID,
		log.FieldTxnID, id)
	metrics.CountTransaction(log.OpDelete, string(old.Type))
	s.afterMutation(ctx, old)
	return nil
}

func (s *TransactionService) resolveRefs(ctx context.Context, t core.Transaction) error {
	if _, err := s.repo.GetCategory(ctx, t.UserID, t.CategoryID); err != nil {
		return err
	}
	// account existence is enforced by the balance write inside the same
	// SQL transaction as the row mutation
	if t.RecurringID != 0 {
		if _, err := s.repo.GetRecurring(ctx, t.UserID, t.RecurringID); err != nil {
			return err
		}
	}
	return nil
}

// afterMutation drops the user's cached aggregates and re-evaluates the
// budgets covering the transaction date. Alert failures never fail the
// request; the row in budget_alerts lets the worker catch up.
func (s *TransactionService) afterMutation(ctx context.Context, t core.Transaction) {
	if s.analytics != nil {
		s.analytics.InvalidateUser(t.UserID)
	}
	if t.Type != core.Expense {
		return
	}

	budgets, err := s.repo.ActiveBudgetsForDate(ctx, t.UserID, t.Date)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load budgets for alerting",
			log.FieldUserID, t.UserID, log.FieldError, err)
		return
	}

	for _, b := range budgets {
		if b.CategoryID != 0 && b.CategoryID != t.CategoryID {
			continue
		}
		spent, err := s.repo.SumByType(ctx, t.UserID, core.Expense, b.CategoryID, b.StartDate, b.EndDate)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to compute budget spend",
				log.FieldBudgetID, b.ID, log.FieldError, err)
			continue
		}
		pct := budgetPercentage(spent, b.Amount.Cents)
		if pct < float64(b.AlertThreshold) {
			continue
		}
		s.publishAlert(ctx, b, spent, pct)
	}
}

func (s *TransactionService) publishAlert(ctx context.Context, b core.Budget, spentCents int64, pct float64) {
	msg := amqp.NewBudgetAlertMessage(b.ID, b.UserID, b.Amount.Cents, spentCents, pct, b.AlertThreshold)

	err := s.repo.InsertBudgetAlert(ctx, storage.BudgetAlert{
		ID:          msg.ID,
		BudgetID:    b.ID,
		UserID:      b.UserID,
		Percentage:  pct,
		Spent:       core.Money{Cents: spentCents},
		PublishedAt: time.Now().UTC(),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist budget alert",
			log.FieldBudgetID, b.ID, log.FieldError, err)
		return
	}

	if s.amqpClient == nil {
		s.logger.WarnContext(ctx, "AMQP client not available, alert stays queued",
			log.FieldBudgetID, b.ID)
		return
	}
	if err := s.amqpClient.PublishBudgetAlert(ctx, msg); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish budget alert",
			log.FieldBudgetID, b.ID, log.FieldError, err)
		return
	}
	metrics.CountBudgetAlert()
	s.logger.InfoContext(ctx, "Budget alert published",
		log.FieldBudgetID, b.ID,
		log.FieldPercentage, pct)
}

func newPage(content []storage.TransactionDetail, page, size int, total int64) Page {
	totalPages := total / int64(size)
	if total%int64(size) != 0 {
		totalPages++
	}
	return Page{
		Content:       content,
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    totalPages,
	}
}
