package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedUser(t *testing.T, repo *SQLiteRepository, username string) core.User {
	t.Helper()
	u, err := repo.CreateUser(context.Background(), core.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
	})
	require.NoError(t, err)
	return u
}

func seedAccount(t *testing.T, repo *SQLiteRepository, userID int64, name string) core.Account {
	t.Helper()
	a, err := repo.CreateAccount(context.Background(), core.Account{
		Name:     name,
		Type:     core.AccountChecking,
		IsActive: true,
		UserID:   userID,
	})
	require.NoError(t, err)
	return a
}

func seedCategory(t *testing.T, repo *SQLiteRepository, userID int64, name string) core.Category {
	t.Helper()
	c, err := repo.CreateCategory(context.Background(), core.Category{
		Name:   name,
		UserID: userID,
	})
	require.NoError(t, err)
	return c
}

func TestDefaultCategoriesSeeded(t *testing.T) {
	repo := newTestRepo(t)
	user := seedUser(t, repo, "mario")

	cats, err := repo.ListCategories(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, cats, 11)

	names := make(map[string]bool, len(cats))
	for _, c := range cats {
		assert.True(t, c.IsDefault)
		assert.Zero(t, c.UserID)
		names[c.Name] = true
	}
	assert.True(t, names["Food & Dining"])
	assert.True(t, names["Income"])
	assert.True(t, names["Other"])
}

func TestTransactionAdjustsBalance(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	user := seedUser(t, repo, "mario")
	account := seedAccount(t, repo, user.ID, "Checking")
	category := seedCategory(t, repo, user.ID, "Groceries")

	txn, err := repo.CreateTransaction(ctx, core.Transaction{
		Amount:      core.Money{Cents: 5000},
		Description: "weekly shop",
		Type:        core.Expense,
		Date:        core.NewDate(2026, 8, 10),
		UserID:      user.ID,
		CategoryID:  category.ID,
		AccountID:   account.ID,
	})
	require.NoError(t, err)

	got, err := repo.GetAccount(ctx, user.ID, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(-5000), got.Balance.Cents)

	txn.Amount = core.Money{Cents: 3000}
	txn.Type = core.Income
	_, err = repo.UpdateTransaction(ctx, txn)
	require.NoError(t, err)

	got, err = repo.GetAccount(ctx, user.ID, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), got.Balance.Cents)

	require.NoError(t, repo.DeleteTransaction(ctx, user.ID, txn.ID))

	got, err = repo.GetAccount(ctx, user.ID, account.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Balance.Cents)
}

func TestTransactionMoveBetweenAccounts(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	user := seedUser(t, repo, "mario")
	src := seedAccount(t, repo, user.ID, "Checking")
	dst := seedAccount(t, repo, user.ID, "Savings")
	category := seedCategory(t, repo, user.ID, "Groceries")

	txn, err := repo.CreateTransaction(ctx, core.Transaction{
		Amount:      core.Money{Cents: 2500},
		Description: "market",
		Type:        core.Expense,
		Date:        core.NewDate(2026, 8, 10),
		UserID:      user.ID,
		CategoryID:  category.ID,
		AccountID:   src.ID,
	})
	require.NoError(t, err)

	txn.AccountID = dst.ID
	_, err = repo.UpdateTransaction(ctx, txn)
	require.NoError(t, err)

	gotSrc, err := repo.GetAccount(ctx, user.ID, src.ID)
	require.NoError(t, err)
	assert.Zero(t, gotSrc.Balance.Cents)

	gotDst, err := repo.GetAccount(ctx, user.ID, dst.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(-2500), gotDst.Balance.Cents)
}

func TestTransactionOwnershipScoped(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	owner := seedUser(t, repo, "mario")
	intruder := seedUser(t, repo, "luigi")
	account := seedAccount(t, repo, owner.ID, "Checking")
	category := seedCategory(t, repo, owner.ID, "Groceries")

	txn, err := repo.CreateTransaction(ctx, core.Transaction{
		Amount:      core.Money{Cents: 100},
		Description: "coffee",
		Type:        core.Expense,
		Date:        core.NewDate(2026, 8, 10),
		UserID:      owner.ID,
		CategoryID:  category.ID,
		AccountID:   account.ID,
	})
	require.NoError(t, err)

	_, err = repo.GetTransaction(ctx, intruder.ID, txn.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	err = repo.DeleteTransaction(ctx, intruder.ID, txn.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	// creating against someone else's account must fail too
	_, err = repo.CreateTransaction(ctx, core.Transaction{
		Amount:      core.Money{Cents: 100},
		Description: "sneaky",
		Type:        core.Expense,
		Date:        core.NewDate(2026, 8, 10),
		UserID:      intruder.ID,
		CategoryID:  category.ID,
		AccountID:   account.ID,
	})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSearchTransactions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	user := seedUser(t, repo, "mario")
	account := seedAccount(t, repo, user.ID, "Checking")
	food := seedCategory(t, repo, user.ID, "Food")
	rent := seedCategory(t, repo, user.ID, "Rent")

	seed := []core.Transaction{
		{Amount: core.Money{Cents: 1200}, Description: "pizza night", Type: core.Expense, Date: core.NewDate(2026, 8, 1), CategoryID: food.ID},
		{Amount: core.Money{Cents: 900}, Description: "pizza lunch", Type: core.Expense, Date: core.NewDate(2026, 8, 15), CategoryID: food.ID},
		{Amount: core.Money{Cents: 80000}, Description: "august rent", Type: core.Expense, Date: core.NewDate(2026, 8, 1), CategoryID: rent.ID},
	}
	for _, txn := range seed {
		txn.UserID = user.ID
		txn.AccountID = account.ID
		_, err := repo.CreateTransaction(ctx, txn)
		require.NoError(t, err)
	}

	got, total, err := repo.SearchTransactions(ctx, user.ID, TransactionFilter{Description: "pizza"}, 0, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, got, 2)
	assert.Equal(t, "pizza lunch", got[0].Description) // newest first
	assert.Equal(t, "Food", got[0].CategoryName)
	assert.Equal(t, "Checking", got[0].AccountName)

	got, total, err = repo.SearchTransactions(ctx, user.ID, TransactionFilter{
		CategoryID: rent.ID,
		StartDate:  core.NewDate(2026, 8, 1),
		EndDate:    core.NewDate(2026, 8, 31),
	}, 0, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, got, 1)
	assert.Equal(t, "august rent", got[0].Description)

	// pagination
	got, total, err = repo.SearchTransactions(ctx, user.ID, TransactionFilter{}, 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, got, 1)
}

func TestAggregates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	user := seedUser(t, repo, "mario")
	account := seedAccount(t, repo, user.ID, "Checking")
	food := seedCategory(t, repo, user.ID, "Food")
	rent := seedCategory(t, repo, user.ID, "Rent")

	seed := []core.Transaction{
		{Amount: core.Money{Cents: 300000}, Description: "salary july", Type: core.Income, Date: core.NewDate(2026, 7, 27), CategoryID: food.ID},
		{Amount: core.Money{Cents: 300000}, Description: "salary august", Type: core.Income, Date: core.NewDate(2026, 8, 27), CategoryID: food.ID},
		{Amount: core.Money{Cents: 2000}, Description: "groceries", Type: core.Expense, Date: core.NewDate(2026, 8, 5), CategoryID: food.ID},
		{Amount: core.Money{Cents: 80000}, Description: "rent", Type: core.Expense, Date: core.NewDate(2026, 8, 1), CategoryID: rent.ID},
	}
	for _, txn := range seed {
		txn.UserID = user.ID
		txn.AccountID = account.ID
		_, err := repo.CreateTransaction(ctx, txn)
		require.NoError(t, err)
	}

	start, end := core.NewDate(2026, 8, 1), core.NewDate(2026, 8, 31)

	expenses, err := repo.SumByType(ctx, user.ID, core.Expense, 0, start, end)
	require.NoError(t, err)
	assert.Equal(t, int64(82000), expenses)

	foodSpend, err := repo.SumByType(ctx, user.ID, core.Expense, food.ID, start, end)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), foodSpend)

	spends, err := repo.CategorySpending(ctx, user.ID, start, end)
	require.NoError(t, err)
	require.Len(t, spends, 2)
	assert.Equal(t, "Rent", spends[0].CategoryName) // highest spend first
	assert.Equal(t, int64(80000), spends[0].SpentCents)

	trend, err := repo.MonthlyTrend(ctx, user.ID, core.NewDate(2026, 7, 1), end)
	require.NoError(t, err)
	require.Len(t, trend, 2)
	assert.Equal(t, "2026-07", trend[0].Month)
	assert.Equal(t, int64(300000), trend[0].IncomeCents)
	assert.Zero(t, trend[0].ExpenseCents)
	assert.Equal(t, "2026-08", trend[1].Month)
	assert.Equal(t, int64(82000), trend[1].ExpenseCents)
}

func TestBudgetsForDate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	user := seedUser(t, repo, "mario")

	mk := func(start, end core.Date, active bool) core.Budget {
		b, err := repo.CreateBudget(ctx, core.Budget{
			Amount:         core.Money{Cents: 50000},
			StartDate:      start,
			EndDate:        end,
			Type:           core.BudgetMonthly,
			AlertThreshold: core.DefaultAlertThreshold,
			IsActive:       active,
			UserID:         user.ID,
		})
		require.NoError(t, err)
		return b
	}

	covering := mk(core.NewDate(2026, 8, 1), core.NewDate(2026, 8, 31), true)
	mk(core.NewDate(2026, 7, 1), core.NewDate(2026, 7, 31), true)
	mk(core.NewDate(2026, 8, 1), core.NewDate(2026, 8, 31), false)

	got, err := repo.ActiveBudgetsForDate(ctx, user.ID, core.NewDate(2026, 8, 15))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, covering.ID, got[0].ID)

	require.NoError(t, repo.SoftDeleteBudget(ctx, user.ID, covering.ID))
	got, err = repo.ActiveBudgetsForDate(ctx, user.ID, core.NewDate(2026, 8, 15))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRecurringLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	user := seedUser(t, repo, "mario")
	account := seedAccount(t, repo, user.ID, "Checking")
	category := seedCategory(t, repo, user.ID, "Subscriptions")

	rt, err := repo.CreateRecurring(ctx, core.RecurringTransaction{
		Amount:      core.Money{Cents: 999},
		Description: "streaming",
		Type:        core.Expense,
		Frequency:   core.Monthly,
		StartDate:   core.NewDate(2026, 1, 15),
		IsActive:    true,
		UserID:      user.ID,
		CategoryID:  category.ID,
		AccountID:   account.ID,
	})
	require.NoError(t, err)

	due, err := repo.ListDueRecurring(ctx, core.NewDate(2026, 8, 15))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.True(t, due[0].LastExecution.IsZero())

	executed := time.Date(2026, 8, 15, 6, 0, 0, 0, time.UTC)
	require.NoError(t, repo.MarkRecurringExecuted(ctx, rt.ID, executed))

	due, err = repo.ListDueRecurring(ctx, core.NewDate(2026, 8, 15))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, executed, due[0].LastExecution)

	// expired templates drop out
	rt.EndDate = core.NewDate(2026, 8, 1)
	require.NoError(t, repo.UpdateRecurring(ctx, rt))
	due, err = repo.ListDueRecurring(ctx, core.NewDate(2026, 8, 15))
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestBudgetAlertQueue(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	user := seedUser(t, repo, "mario")
	budget, err := repo.CreateBudget(ctx, core.Budget{
		Amount:         core.Money{Cents: 50000},
		StartDate:      core.NewDate(2026, 8, 1),
		EndDate:        core.NewDate(2026, 8, 31),
		Type:           core.BudgetMonthly,
		AlertThreshold: 80,
		IsActive:       true,
		UserID:         user.ID,
	})
	require.NoError(t, err)

	alert := BudgetAlert{
		ID:          uuid.NewString(),
		BudgetID:    budget.ID,
		UserID:      user.ID,
		Percentage:  85.5,
		Spent:       core.Money{Cents: 42750},
		PublishedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.InsertBudgetAlert(ctx, alert))

	pending, err := repo.ListPendingBudgetAlerts(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, alert.ID, pending[0].ID)
	assert.InDelta(t, 85.5, pending[0].Percentage, 0.001)

	require.NoError(t, repo.MarkBudgetAlertDelivered(ctx, alert.ID))
	require.NoError(t, repo.MarkBudgetAlertDelivered(ctx, alert.ID)) // idempotent

	pending, err = repo.ListPendingBudgetAlerts(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestCategoryConflictAndDefaults(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	user := seedUser(t, repo, "mario")

	seedCategory(t, repo, user.ID, "Hobby")
	exists, err := repo.CategoryNameExists(ctx, user.ID, "Hobby")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.CategoryNameExists(ctx, user.ID, "Nope")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = repo.CreateCategory(ctx, core.Category{Name: "Hobby", UserID: user.ID})
	assert.Error(t, err) // UNIQUE(name, user_id)
	assert.False(t, errors.Is(err, core.ErrNotFound))
}
