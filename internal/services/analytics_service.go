package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// Dashboard is the aggregate view for a date range.
type Dashboard struct {
	StartDate        core.Date
	EndDate          core.Date
	TotalIncome      core.Money
	TotalExpenses    core.Money
	NetAmount        core.Money
	CategorySpending []storage.CategorySpend
	MonthlyTrend     []storage.MonthTotals
}

// BudgetStatus reports how far a budget's window spend has progressed.
type BudgetStatus struct {
	Budget       core.Budget
	Spent        core.Money
	Remaining    core.Money
	Percentage   float64
	IsOverBudget bool
	IsNearLimit  bool
}

type AnalyticsService struct {
	repo   *storage.SQLiteRepository
	cache  *cache.LRU[Dashboard]
	logger *log.Logger
}

func NewAnalyticsService(repo *storage.SQLiteRepository, logger *log.Logger) *AnalyticsService {
	return &AnalyticsService{
		repo:   repo,
		cache:  cache.New[Dashboard](256, 5*time.Minute),
		logger: logger.WithComponent(log.ComponentAnalytics),
	}
}

// Dashboard aggregates income, expenses, category spending and the
// monthly trend over the range. Zero dates default to month-to-date.
// Results are cached per (user, range) until the user mutates a
// transaction.
func (s *AnalyticsService) Dashboard(ctx context.Context, userID int64, start, end core.Date) (Dashboard, error) {
	start, end = defaultMonthToDate(start, end)

	key := dashboardKey(userID, start, end)
	if d, ok := s.cache.Get(key); ok {
		return d, nil
	}

	income, err := s.repo.SumByType(ctx, userID, core.Income, 0, start, end)
	if err != nil {
		return Dashboard{}, err
	}
	expenses, err := s.repo.SumByType(ctx, userID, core.Expense, 0, start, end)
	if err != nil {
		return Dashboard{}, err
	}
	spending, err := s.repo.CategorySpending(ctx, userID, start, end)
	if err != nil {
		return Dashboard{}, err
	}
	trend, err := s.repo.MonthlyTrend(ctx, userID, start, end)
	if err != nil {
		return Dashboard{}, err
	}

	d := Dashboard{
		StartDate:        start,
		EndDate:          end,
		TotalIncome:      core.Money{Cents: income},
		TotalExpenses:    core.Money{Cents: expenses},
		NetAmount:        core.Money{Cents: income - expenses},
		CategorySpending: spending,
		MonthlyTrend:     trend,
	}
	s.cache.Set(key, d)
	return d, nil
}

// CategorySpending defaults to month-to-date.
func (s *AnalyticsService) CategorySpending(ctx context.Context, userID int64, start, end core.Date) ([]storage.CategorySpend, error) {
	start, end = defaultMonthToDate(start, end)
	return s.repo.CategorySpending(ctx, userID, start, end)
}

// MonthlyTrend defaults to the last 12 months.
func (s *AnalyticsService) MonthlyTrend(ctx context.Context, userID int64, start, end core.Date) ([]storage.MonthTotals, error) {
	if end.IsZero() {
		end = core.Today()
	}
	if start.IsZero() {
		start = core.Date{Time: end.AddDate(0, -12, 0)}
	}
	return s.repo.MonthlyTrend(ctx, userID, start, end)
}

// BudgetStatuses evaluates every active budget whose window covers
// today.
func (s *AnalyticsService) BudgetStatuses(ctx context.Context, userID int64) ([]BudgetStatus, error) {
	budgets, err := s.repo.ActiveBudgetsForDate(ctx, userID, core.Today())
	if err != nil {
		return nil, err
	}

	statuses := make([]BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		spent, err := s.repo.SumByType(ctx, userID, core.Expense, b.CategoryID, b.StartDate, b.EndDate)
		if err != nil {
			return nil, fmt.Errorf("budget %d spend: %w", b.ID, err)
		}
		statuses = append(statuses, evaluateBudget(b, spent))
	}
	return statuses, nil
}

// InvalidateUser drops every cached aggregate for the user. Called by
// the transaction service after any mutation.
func (s *AnalyticsService) InvalidateUser(userID int64) {
	if n := s.cache.DeletePrefix(fmt.Sprintf("user:%d:", userID)); n > 0 {
		s.logger.Debug("Dashboard cache invalidated", log.FieldUserID, userID, "entries", n)
	}
}

func evaluateBudget(b core.Budget, spentCents int64) BudgetStatus {
	return BudgetStatus{
		Budget:       b,
		Spent:        core.Money{Cents: spentCents},
		Remaining:    core.Money{Cents: b.Amount.Cents - spentCents},
		Percentage:   budgetPercentage(spentCents, b.Amount.Cents),
		IsOverBudget: isOverBudget(spentCents, b.Amount.Cents),
		IsNearLimit:  budgetPercentage(spentCents, b.Amount.Cents) >= float64(b.AlertThreshold),
	}
}

// budgetPercentage is spent/amount as a percentage rounded half-up to
// two decimals. A non-positive amount clamps to 0 or 100 so no division
// happens.
func budgetPercentage(spentCents, amountCents int64) float64 {
	if amountCents <= 0 {
		if spentCents == 0 {
			return 0
		}
		return 100
	}
	raw := float64(spentCents) / float64(amountCents) * 100
	return math.Floor(raw*100+0.5) / 100
}

func isOverBudget(spentCents, amountCents int64) bool {
	if amountCents <= 0 {
		return spentCents > 0
	}
	return spentCents > amountCents
}

func defaultMonthToDate(start, end core.Date) (core.Date, core.Date) {
	if end.IsZero() {
		end = core.Today()
	}
	if start.IsZero() {
		start = core.NewDate(end.Year(), int(end.Month()), 1)
	}
	return start, end
}

func dashboardKey(userID int64, start, end core.Date) string {
	return fmt.Sprintf("user:%d:dashboard:%s:%s", userID, start, end)
}
