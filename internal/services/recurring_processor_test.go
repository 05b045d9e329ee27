package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func TestProcessDueMaterializesTransactions(t *testing.T) {
	fx := newFixture(t)
	txnSvc, _ := newTransactionService(t, fx)
	svc := NewRecurringService(fx.repo, txnSvc, testLogger())
	ctx := context.Background()

	rt, err := svc.Create(ctx, core.RecurringTransaction{
		Amount:      core.Money{Cents: 999},
		Description: "streaming",
		Type:        core.Expense,
		Frequency:   core.Monthly,
		StartDate:   core.NewDate(2026, 1, 15),
		UserID:      fx.user.ID,
		CategoryID:  fx.category.ID,
		AccountID:   fx.account.ID,
	})
	require.NoError(t, err)

	now := time.Date(2026, 8, 15, 6, 0, 0, 0, time.UTC)
	processed, err := svc.ProcessDue(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	// the template produced a real transaction linked back to it
	page, err := txnSvc.List(ctx, fx.user.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.Equal(t, "streaming", page.Content[0].Description)
	assert.Equal(t, rt.ID, page.Content[0].RecurringID)
	assert.Equal(t, int64(-999), fx.balance(t))

	// second run in the same month is a no-op
	processed, err = svc.ProcessDue(ctx, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, processed)

	// next month on the target day it fires again
	processed, err = svc.ProcessDue(ctx, time.Date(2026, 9, 15, 6, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
}

func TestProcessDueSkipsInactiveAndExpired(t *testing.T) {
	fx := newFixture(t)
	txnSvc, _ := newTransactionService(t, fx)
	svc := NewRecurringService(fx.repo, txnSvc, testLogger())
	ctx := context.Background()

	_, err := svc.Create(ctx, core.RecurringTransaction{
		Amount:      core.Money{Cents: 500},
		Description: "old gym",
		Type:        core.Expense,
		Frequency:   core.Monthly,
		StartDate:   core.NewDate(2025, 1, 1),
		EndDate:     core.NewDate(2025, 12, 31),
		UserID:      fx.user.ID,
		CategoryID:  fx.category.ID,
		AccountID:   fx.account.ID,
	})
	require.NoError(t, err)

	deleted, err := svc.Create(ctx, core.RecurringTransaction{
		Amount:      core.Money{Cents: 700},
		Description: "cancelled box",
		Type:        core.Expense,
		Frequency:   core.Monthly,
		StartDate:   core.NewDate(2026, 1, 1),
		UserID:      fx.user.ID,
		CategoryID:  fx.category.ID,
		AccountID:   fx.account.ID,
	})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, fx.user.ID, deleted.ID))

	processed, err := svc.ProcessDue(ctx, time.Date(2026, 8, 15, 6, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Zero(t, processed)

	page, err := txnSvc.List(ctx, fx.user.ID, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Content)
}
