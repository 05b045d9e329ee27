package storage

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/core"
)

// BudgetAlert records a threshold crossing so delivery can be retried
// if the broker is down when it happens.
type BudgetAlert struct {
	ID          string
	BudgetID    int64
	UserID      int64
	Percentage  float64
	Spent       core.Money
	PublishedAt time.Time
	DeliveredAt time.Time // zero while pending
}

func (r *SQLiteRepository) InsertBudgetAlert(ctx context.Context, a BudgetAlert) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO budget_alerts (id, budget_id, user_id, percentage, spent_cents, published_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.BudgetID, a.UserID, a.Percentage, a.Spent.Cents, formatTime(a.PublishedAt.UTC()))
	if err != nil {
		return fmt.Errorf("insert budget alert: %w", err)
	}
	return nil
}

// ListPendingBudgetAlerts returns alerts not yet acknowledged by a
// consumer, oldest first.
func (r *SQLiteRepository) ListPendingBudgetAlerts(ctx context.Context, limit int) ([]BudgetAlert, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, budget_id, user_id, percentage, spent_cents, published_at
		 FROM budget_alerts WHERE delivered_at IS NULL
		 ORDER BY published_at LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending alerts: %w", err)
	}
	defer rows.Close()

	var alerts []BudgetAlert
	for rows.Next() {
		var a BudgetAlert
		var publishedAt string
		if err := rows.Scan(&a.ID, &a.BudgetID, &a.UserID, &a.Percentage, &a.Spent.Cents, &publishedAt); err != nil {
			return nil, fmt.Errorf("scan budget alert: %w", err)
		}
		a.PublishedAt = parseTime(publishedAt)
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// MarkBudgetAlertDelivered is idempotent: redelivered messages ack
// cleanly.
func (r *SQLiteRepository) MarkBudgetAlertDelivered(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE budget_alerts SET delivered_at = ? WHERE id = ? AND delivered_at IS NULL`,
		formatTime(time.Now().UTC()), id)
	if err != nil {
		return fmt.Errorf("mark alert delivered: %w", err)
	}
	return nil
}
