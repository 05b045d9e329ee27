package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fintrack/internal/core"
)

const budgetCols = `id, amount_cents, start_date, end_date, type, alert_threshold,
	is_active, user_id, category_id, created_at, updated_at`

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	now := time.Now().UTC()
	b.CreatedAt, b.UpdatedAt = now, now
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (amount_cents, start_date, end_date, type, alert_threshold,
		                      is_active, user_id, category_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.Amount.Cents, b.StartDate.String(), b.EndDate.String(), b.Type, b.AlertThreshold,
		b.IsActive, b.UserID, nullIfZero(b.CategoryID), formatTime(b.CreatedAt), formatTime(b.UpdatedAt),
	)
	if err != nil {
		return core.Budget{}, fmt.Errorf("insert budget: %w", err)
	}
	b.ID, err = res.LastInsertId()
	if err != nil {
		return core.Budget{}, fmt.Errorf("budget insert id: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, userID, id int64) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+budgetCols+` FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	b, err := scanBudget(row)
	if err != nil {
		return core.Budget{}, notFound(err, "budget", id)
	}
	return b, nil
}

// ListActiveBudgets returns the user's active budgets ordered by start date
// descending.
func (r *SQLiteRepository) ListActiveBudgets(ctx context.Context, userID int64) ([]core.Budget, error) {
	return r.listBudgets(ctx,
		`SELECT `+budgetCols+` FROM budgets
		 WHERE user_id = ? AND is_active = 1 ORDER BY start_date DESC`, userID)
}

// ListBudgets returns all of the user's budgets, active or not.
func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error) {
	return r.listBudgets(ctx,
		`SELECT `+budgetCols+` FROM budgets
		 WHERE user_id = ? ORDER BY start_date DESC`, userID)
}

// ActiveBudgetsForDate returns active budgets whose window covers date.
func (r *SQLiteRepository) ActiveBudgetsForDate(ctx context.Context, userID int64, date core.Date) ([]core.Budget, error) {
	return r.listBudgets(ctx,
		`SELECT `+budgetCols+` FROM budgets
		 WHERE user_id = ? AND is_active = 1 AND ? BETWEEN start_date AND end_date
		 ORDER BY start_date DESC`, userID, date.String())
}

func (r *SQLiteRepository) listBudgets(ctx context.Context, query string, args ...any) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

// UpdateBudget overwrites every mutable field.
func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET amount_cents = ?, start_date = ?, end_date = ?, type = ?,
		        alert_threshold = ?, is_active = ?, category_id = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		b.Amount.Cents, b.StartDate.String(), b.EndDate.String(), b.Type,
		b.AlertThreshold, b.IsActive, nullIfZero(b.CategoryID), formatTime(time.Now().UTC()),
		b.ID, b.UserID,
	)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return requireRow(res, "budget", b.ID)
}

func (r *SQLiteRepository) SoftDeleteBudget(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET is_active = 0, updated_at = ? WHERE id = ? AND user_id = ?`,
		formatTime(time.Now().UTC()), id, userID,
	)
	if err != nil {
		return fmt.Errorf("soft delete budget: %w", err)
	}
	return requireRow(res, "budget", id)
}

func scanBudget(row rowScanner) (core.Budget, error) {
	var b core.Budget
	var startDate, endDate, createdAt, updatedAt string
	var categoryID sql.NullInt64
	err := row.Scan(&b.ID, &b.Amount.Cents, &startDate, &endDate, &b.Type, &b.AlertThreshold,
		&b.IsActive, &b.UserID, &categoryID, &createdAt, &updatedAt)
	if err != nil {
		return core.Budget{}, err
	}
	b.StartDate, _ = core.ParseDate(startDate)
	b.EndDate, _ = core.ParseDate(endDate)
	b.CategoryID = categoryID.Int64
	b.CreatedAt = parseTime(createdAt)
	b.UpdatedAt = parseTime(updatedAt)
	return b, nil
}
