package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

type fixture struct {
	repo     *storage.SQLiteRepository
	user     core.User
	account  core.Account
	category core.Category
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	user, err := repo.CreateUser(ctx, core.User{Username: "mario", Email: "mario@example.com", PasswordHash: "x"})
	require.NoError(t, err)
	account, err := repo.CreateAccount(ctx, core.Account{Name: "Checking", Type: core.AccountChecking, IsActive: true, UserID: user.ID})
	require.NoError(t, err)
	category, err := repo.CreateCategory(ctx, core.Category{Name: "Groceries", UserID: user.ID})
	require.NoError(t, err)

	return fixture{repo: repo, user: user, account: account, category: category}
}

func testLogger() *log.Logger {
	return log.New(log.DefaultConfig())
}

func newTransactionService(t *testing.T, fx fixture) (*TransactionService, *AnalyticsService) {
	t.Helper()
	analytics := NewAnalyticsService(fx.repo, testLogger())
	return NewTransactionService(fx.repo, nil, analytics, testLogger()), analytics
}

func (fx fixture) balance(t *testing.T) int64 {
	t.Helper()
	a, err := fx.repo.GetAccount(context.Background(), fx.user.ID, fx.account.ID)
	require.NoError(t, err)
	return a.Balance.Cents
}

func TestTransactionLifecycleKeepsBalanceConsistent(t *testing.T) {
	fx := newFixture(t)
	svc, _ := newTransactionService(t, fx)
	ctx := context.Background()

	txn, err := svc.Create(ctx, core.Transaction{
		Amount:      core.Money{Cents: 5000},
		Description: "groceries",
		Type:        core.Expense,
		Date:        core.NewDate(2026, 8, 10),
		UserID:      fx.user.ID,
		CategoryID:  fx.category.ID,
		AccountID:   fx.account.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(-5000), fx.balance(t))

	txn.Amount = core.Money{Cents: 3000}
	txn.Type = core.Income
	_, err = svc.Update(ctx, txn)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), fx.balance(t))

	require.NoError(t, svc.Delete(ctx, fx.user.ID, txn.ID))
	assert.Zero(t, fx.balance(t))
}

func TestTransactionCreateValidation(t *testing.T) {
	fx := newFixture(t)
	svc, _ := newTransactionService(t, fx)
	ctx := context.Background()

	base := core.Transaction{
		Amount:      core.Money{Cents: 100},
		Description: "ok",
		Type:        core.Expense,
		Date:        core.NewDate(2026, 8, 10),
		UserID:      fx.user.ID,
		CategoryID:  fx.category.ID,
		AccountID:   fx.account.ID,
	}

	tests := []struct {
		name    string
		mutate  func(*core.Transaction)
		wantErr error
	}{
		{"zero amount", func(tx *core.Transaction) { tx.Amount.Cents = 0 }, core.ErrInvalidAmount},
		{"negative amount", func(tx *core.Transaction) { tx.Amount.Cents = -5 }, core.ErrInvalidAmount},
		{"empty description", func(tx *core.Transaction) { tx.Description = "  " }, core.ErrEmptyDescription},
		{"bad type", func(tx *core.Transaction) { tx.Type = "TRANSFER" }, core.ErrInvalidType},
		{"missing category", func(tx *core.Transaction) { tx.CategoryID = 0 }, core.ErrMissingCategory},
		{"unknown category", func(tx *core.Transaction) { tx.CategoryID = 9999 }, core.ErrNotFound},
		{"unknown account", func(tx *core.Transaction) { tx.AccountID = 9999 }, core.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := base
			tt.mutate(&txn)
			_, err := svc.Create(ctx, txn)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	// nothing leaked into the balance
	assert.Zero(t, fx.balance(t))
}

func TestSearchDefaultsAndPrecedence(t *testing.T) {
	fx := newFixture(t)
	svc, _ := newTransactionService(t, fx)
	ctx := context.Background()

	other, err := fx.repo.CreateCategory(ctx, core.Category{Name: "Rent", UserID: fx.user.ID})
	require.NoError(t, err)

	today := core.Today()
	old := core.Date{Time: today.AddDate(0, -2, 0)}

	mk := func(desc string, d core.Date, cat int64) {
		_, err := svc.Create(ctx, core.Transaction{
			Amount:      core.Money{Cents: 1000},
			Description: desc,
			Type:        core.Expense,
			Date:        d,
			UserID:      fx.user.ID,
			CategoryID:  cat,
			AccountID:   fx.account.ID,
		})
		require.NoError(t, err)
	}
	mk("recent groceries", today, fx.category.ID)
	mk("old groceries", old, fx.category.ID)
	mk("recent rent", today, other.ID)

	// default window is the last month, so the old row is excluded
	page, err := svc.Search(ctx, fx.user.ID, storage.TransactionFilter{}, 0, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.TotalElements)

	// category wins over account when both are given
	page, err = svc.Search(ctx, fx.user.ID, storage.TransactionFilter{
		CategoryID: other.ID,
		AccountID:  fx.account.ID,
		StartDate:  old,
		EndDate:    today,
	}, 0, 20)
	require.NoError(t, err)
	require.EqualValues(t, 1, page.TotalElements)
	assert.Equal(t, "recent rent", page.Content[0].Description)
}

func TestListPagination(t *testing.T) {
	fx := newFixture(t)
	svc, _ := newTransactionService(t, fx)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.Create(ctx, core.Transaction{
			Amount:      core.Money{Cents: 100},
			Description: "coffee",
			Type:        core.Expense,
			Date:        core.NewDate(2026, 8, 1+i),
			UserID:      fx.user.ID,
			CategoryID:  fx.category.ID,
			AccountID:   fx.account.ID,
		})
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, fx.user.ID, 0, 2)
	require.NoError(t, err)
	assert.Len(t, page.Content, 2)
	assert.EqualValues(t, 5, page.TotalElements)
	assert.EqualValues(t, 3, page.TotalPages)
	assert.Equal(t, "2026-08-05", page.Content[0].Date.String()) // newest first

	page, err = svc.List(ctx, fx.user.ID, 2, 2)
	require.NoError(t, err)
	assert.Len(t, page.Content, 1)
}

func TestExpensePastThresholdQueuesAlert(t *testing.T) {
	fx := newFixture(t)
	svc, _ := newTransactionService(t, fx)
	ctx := context.Background()

	_, err := fx.repo.CreateBudget(ctx, core.Budget{
		Amount:         core.Money{Cents: 10000},
		StartDate:      core.NewDate(2026, 8, 1),
		EndDate:        core.NewDate(2026, 8, 31),
		Type:           core.BudgetMonthly,
		AlertThreshold: 80,
		IsActive:       true,
		UserID:         fx.user.ID,
		CategoryID:     fx.category.ID,
	})
	require.NoError(t, err)

	// 50% of budget, below threshold
	_, err = svc.Create(ctx, core.Transaction{
		Amount:      core.Money{Cents: 5000},
		Description: "half",
		Type:        core.Expense,
		Date:        core.NewDate(2026, 8, 5),
		UserID:      fx.user.ID,
		CategoryID:  fx.category.ID,
		AccountID:   fx.account.ID,
	})
	require.NoError(t, err)

	pending, err := fx.repo.ListPendingBudgetAlerts(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// pushes spend to 85%
	_, err = svc.Create(ctx, core.Transaction{
		Amount:      core.Money{Cents: 3500},
		Description: "over the line",
		Type:        core.Expense,
		Date:        core.NewDate(2026, 8, 6),
		UserID:      fx.user.ID,
		CategoryID:  fx.category.ID,
		AccountID:   fx.account.ID,
	})
	require.NoError(t, err)

	pending, err = fx.repo.ListPendingBudgetAlerts(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.InDelta(t, 85.0, pending[0].Percentage, 0.001)
	assert.Equal(t, int64(8500), pending[0].Spent.Cents)
}
