package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fintrack/internal/core"
)

const recurringCols = `id, amount_cents, description, type, frequency, start_date, end_date,
	last_execution_date, is_active, user_id, category_id, account_id, created_at`

func (r *SQLiteRepository) CreateRecurring(ctx context.Context, rt core.RecurringTransaction) (core.RecurringTransaction, error) {
	rt.CreatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO recurring_transactions (amount_cents, description, type, frequency,
		                                     start_date, end_date, last_execution_date,
		                                     is_active, user_id, category_id, account_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rt.Amount.Cents, rt.Description, rt.Type, rt.Frequency,
		rt.StartDate.String(), nullDate(rt.EndDate), nullTime(rt.LastExecution),
		rt.IsActive, rt.UserID, rt.CategoryID, rt.AccountID, formatTime(rt.CreatedAt),
	)
	if err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("insert recurring transaction: %w", err)
	}
	rt.ID, err = res.LastInsertId()
	if err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("recurring insert id: %w", err)
	}
	return rt, nil
}

func (r *SQLiteRepository) GetRecurring(ctx context.Context, userID, id int64) (core.RecurringTransaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+recurringCols+` FROM recurring_transactions WHERE id = ? AND user_id = ?`,
		id, userID)
	rt, err := scanRecurring(row)
	if err != nil {
		return core.RecurringTransaction{}, notFound(err, "recurring transaction", id)
	}
	return rt, nil
}

func (r *SQLiteRepository) ListRecurring(ctx context.Context, userID int64) ([]core.RecurringTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recurringCols+` FROM recurring_transactions
		 WHERE user_id = ? AND is_active = 1 ORDER BY description`, userID)
	if err != nil {
		return nil, fmt.Errorf("list recurring transactions: %w", err)
	}
	defer rows.Close()
	return collectRecurring(rows)
}

// ListDueRecurring returns every active template across all users whose
// start date has passed and whose end date, if any, has not. Dueness
// against the last execution is decided by the caller.
func (r *SQLiteRepository) ListDueRecurring(ctx context.Context, asOf core.Date) ([]core.RecurringTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recurringCols+` FROM recurring_transactions
		 WHERE is_active = 1 AND start_date <= ? AND (end_date IS NULL OR end_date >= ?)
		 ORDER BY id`, asOf.String(), asOf.String())
	if err != nil {
		return nil, fmt.Errorf("list due recurring: %w", err)
	}
	defer rows.Close()
	return collectRecurring(rows)
}

func (r *SQLiteRepository) UpdateRecurring(ctx context.Context, rt core.RecurringTransaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_transactions SET amount_cents = ?, description = ?, type = ?,
		        frequency = ?, start_date = ?, end_date = ?, is_active = ?,
		        category_id = ?, account_id = ?
		 WHERE id = ? AND user_id = ?`,
		rt.Amount.Cents, rt.Description, rt.Type, rt.Frequency,
		rt.StartDate.String(), nullDate(rt.EndDate), rt.IsActive,
		rt.CategoryID, rt.AccountID,
		rt.ID, rt.UserID,
	)
	if err != nil {
		return fmt.Errorf("update recurring transaction: %w", err)
	}
	return requireRow(res, "recurring transaction", rt.ID)
}

func (r *SQLiteRepository) SoftDeleteRecurring(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_transactions SET is_active = 0 WHERE id = ? AND user_id = ?`,
		id, userID)
	if err != nil {
		return fmt.Errorf("soft delete recurring transaction: %w", err)
	}
	return requireRow(res, "recurring transaction", id)
}

// MarkRecurringExecuted records when the template last produced a
// transaction.
func (r *SQLiteRepository) MarkRecurringExecuted(ctx context.Context, id int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_transactions SET last_execution_date = ? WHERE id = ?`,
		formatTime(at.UTC()), id)
	if err != nil {
		return fmt.Errorf("mark recurring executed: %w", err)
	}
	return requireRow(res, "recurring transaction", id)
}

func collectRecurring(rows *sql.Rows) ([]core.RecurringTransaction, error) {
	var templates []core.RecurringTransaction
	for rows.Next() {
		rt, err := scanRecurring(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring transaction: %w", err)
		}
		templates = append(templates, rt)
	}
	return templates, rows.Err()
}

func scanRecurring(row rowScanner) (core.RecurringTransaction, error) {
	var rt core.RecurringTransaction
	var startDate, createdAt string
	var endDate, lastExecution sql.NullString
	err := row.Scan(&rt.ID, &rt.Amount.Cents, &rt.Description, &rt.Type, &rt.Frequency,
		&startDate, &endDate, &lastExecution, &rt.IsActive,
		&rt.UserID, &rt.CategoryID, &rt.AccountID, &createdAt)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	rt.StartDate, _ = core.ParseDate(startDate)
	if endDate.Valid {
		rt.EndDate, _ = core.ParseDate(endDate.String)
	}
	if lastExecution.Valid {
		rt.LastExecution = parseTime(lastExecution.String)
	}
	rt.CreatedAt = parseTime(createdAt)
	return rt, nil
}

func nullDate(d core.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.String()
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return formatTime(t.UTC())
}
