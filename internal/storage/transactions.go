package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fintrack/internal/core"
)

const txnCols = `t.id, t.amount_cents, t.description, t.type, t.transaction_date, t.notes,
	t.user_id, t.category_id, t.account_id, t.recurring_transaction_id, t.created_at, t.updated_at`

// TransactionDetail is a transaction joined with the names of its
// category and account for list and search responses.
type TransactionDetail struct {
	core.Transaction
	CategoryName  string
	CategoryColor string
	AccountName   string
}

// TransactionFilter narrows a transaction search. Zero values mean the
// criterion is not applied. When both CategoryID and AccountID are set
// the caller is expected to have already picked one.
type TransactionFilter struct {
	Description string
	CategoryID  int64
	AccountID   int64
	StartDate   core.Date
	EndDate     core.Date
}

// CategorySpend is the expense total for one category over a range.
type CategorySpend struct {
	CategoryID   int64
	CategoryName string
	SpentCents   int64
}

// MonthTotals aggregates income and expense for one calendar month.
type MonthTotals struct {
	Month        string // YYYY-MM
	IncomeCents  int64
	ExpenseCents int64
}

// CreateTransaction inserts the row and applies its signed effect to the
// account balance in one SQL transaction. The balance update doubles as
// the account ownership check.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := adjustBalance(ctx, tx, t.UserID, t.AccountID, t.SignedCents()); err != nil {
		return core.Transaction{}, err
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (amount_cents, description, type, transaction_date, notes,
		                           user_id, category_id, account_id, recurring_transaction_id,
		                           created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Amount.Cents, t.Description, t.Type, t.Date.String(), t.Notes,
		t.UserID, t.CategoryID, t.AccountID, nullIfZero(t.RecurringID),
		formatTime(t.CreatedAt), formatTime(t.UpdatedAt),
	)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	t.ID, err = res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction insert id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Transaction{}, fmt.Errorf("commit transaction: %w", err)
	}
	return t, nil
}

// UpdateTransaction reverses the stored effect on the stored account,
// overwrites the row, then applies the new effect to the (possibly
// different) account. All three steps share one SQL transaction so a
// concurrent reader never observes a half-moved balance.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	old, err := getTransactionTx(ctx, tx, t.UserID, t.ID)
	if err != nil {
		return core.Transaction{}, err
	}

	if err := adjustBalance(ctx, tx, t.UserID, old.AccountID, -old.SignedCents()); err != nil {
		return core.Transaction{}, err
	}

	t.RecurringID = old.RecurringID
	t.CreatedAt = old.CreatedAt
	t.UpdatedAt = time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`UPDATE transactions SET amount_cents = ?, description = ?, type = ?,
		        transaction_date = ?, notes = ?, category_id = ?, account_id = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		t.Amount.Cents, t.Description, t.Type, t.Date.String(), t.Notes,
		t.CategoryID, t.AccountID, formatTime(t.UpdatedAt),
		t.ID, t.UserID,
	)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if err := requireRow(res, "transaction", t.ID); err != nil {
		return core.Transaction{}, err
	}

	if err := adjustBalance(ctx, tx, t.UserID, t.AccountID, t.SignedCents()); err != nil {
		return core.Transaction{}, err
	}
	if err := tx.Commit(); err != nil {
		return core.Transaction{}, fmt.Errorf("commit transaction: %w", err)
	}
	return t, nil
}

// DeleteTransaction reverses the balance effect and removes the row in
// one SQL transaction.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	old, err := getTransactionTx(ctx, tx, userID, id)
	if err != nil {
		return err
	}
	if err := adjustBalance(ctx, tx, userID, old.AccountID, -old.SignedCents()); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if err := requireRow(res, "transaction", id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+txnCols+` FROM transactions t WHERE t.id = ? AND t.user_id = ?`, id, userID)
	t, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, notFound(err, "transaction", id)
	}
	return t, nil
}

// ListTransactions returns one page of the user's transactions, newest
// date first, together with the total row count for pagination.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID int64, page, size int) ([]TransactionDetail, int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE user_id = ?`, userID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+txnCols+`, c.name, c.color, a.name
		 FROM transactions t
		 JOIN categories c ON c.id = t.category_id
		 JOIN accounts a ON a.id = t.account_id
		 WHERE t.user_id = ?
		 ORDER BY t.transaction_date DESC, t.id DESC
		 LIMIT ? OFFSET ?`,
		userID, size, page*size)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	details, err := collectDetails(rows)
	if err != nil {
		return nil, 0, err
	}
	return details, total, nil
}

// SearchTransactions applies the filter and returns one page of matches,
// newest date first, with the total match count.
func (r *SQLiteRepository) SearchTransactions(ctx context.Context, userID int64, f TransactionFilter, page, size int) ([]TransactionDetail, int64, error) {
	where := `t.user_id = ?`
	args := []any{userID}
	if f.Description != "" {
		where += ` AND t.description LIKE ?`
		args = append(args, "%"+f.Description+"%")
	}
	if f.CategoryID != 0 {
		where += ` AND t.category_id = ?`
		args = append(args, f.CategoryID)
	}
	if f.AccountID != 0 {
		where += ` AND t.account_id = ?`
		args = append(args, f.AccountID)
	}
	if !f.StartDate.IsZero() {
		where += ` AND t.transaction_date >= ?`
		args = append(args, f.StartDate.String())
	}
	if !f.EndDate.IsZero() {
		where += ` AND t.transaction_date <= ?`
		args = append(args, f.EndDate.String())
	}

	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions t WHERE `+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count search: %w", err)
	}

	query := `SELECT ` + txnCols + `, c.name, c.color, a.name
		 FROM transactions t
		 JOIN categories c ON c.id = t.category_id
		 JOIN accounts a ON a.id = t.account_id
		 WHERE ` + where + `
		 ORDER BY t.transaction_date DESC, t.id DESC
		 LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, append(args, size, page*size)...)
	if err != nil {
		return nil, 0, fmt.Errorf("search transactions: %w", err)
	}
	defer rows.Close()

	details, err := collectDetails(rows)
	if err != nil {
		return nil, 0, err
	}
	return details, total, nil
}

// SumByType totals transactions of the given type over a date range,
// optionally scoped to one category (categoryID 0 means all).
func (r *SQLiteRepository) SumByType(ctx context.Context, userID int64, typ core.TransactionType, categoryID int64, start, end core.Date) (int64, error) {
	query := `SELECT COALESCE(SUM(amount_cents), 0) FROM transactions
		 WHERE user_id = ? AND type = ? AND transaction_date BETWEEN ? AND ?`
	args := []any{userID, typ, start.String(), end.String()}
	if categoryID != 0 {
		query += ` AND category_id = ?`
		args = append(args, categoryID)
	}
	var total int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum transactions: %w", err)
	}
	return total, nil
}

// CategorySpending totals expenses per category over a date range,
// highest spend first. Categories with no expenses are omitted.
func (r *SQLiteRepository) CategorySpending(ctx context.Context, userID int64, start, end core.Date) ([]CategorySpend, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.category_id, c.name, SUM(t.amount_cents)
		 FROM transactions t
		 JOIN categories c ON c.id = t.category_id
		 WHERE t.user_id = ? AND t.type = ? AND t.transaction_date BETWEEN ? AND ?
		 GROUP BY t.category_id, c.name
		 ORDER BY SUM(t.amount_cents) DESC`,
		userID, core.Expense, start.String(), end.String())
	if err != nil {
		return nil, fmt.Errorf("category spending: %w", err)
	}
	defer rows.Close()

	var spends []CategorySpend
	for rows.Next() {
		var s CategorySpend
		if err := rows.Scan(&s.CategoryID, &s.CategoryName, &s.SpentCents); err != nil {
			return nil, fmt.Errorf("scan category spend: %w", err)
		}
		spends = append(spends, s)
	}
	return spends, rows.Err()
}

// MonthlyTrend aggregates income and expense per calendar month over a
// date range, oldest month first.
func (r *SQLiteRepository) MonthlyTrend(ctx context.Context, userID int64, start, end core.Date) ([]MonthTotals, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT substr(transaction_date, 1, 7) AS month,
		        COALESCE(SUM(CASE WHEN type = ? THEN amount_cents ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN type = ? THEN amount_cents ELSE 0 END), 0)
		 FROM transactions
		 WHERE user_id = ? AND transaction_date BETWEEN ? AND ?
		 GROUP BY month
		 ORDER BY month ASC`,
		core.Income, core.Expense, userID, start.String(), end.String())
	if err != nil {
		return nil, fmt.Errorf("monthly trend: %w", err)
	}
	defer rows.Close()

	var months []MonthTotals
	for rows.Next() {
		var m MonthTotals
		if err := rows.Scan(&m.Month, &m.IncomeCents, &m.ExpenseCents); err != nil {
			return nil, fmt.Errorf("scan month totals: %w", err)
		}
		months = append(months, m)
	}
	return months, rows.Err()
}

func adjustBalance(ctx context.Context, tx *sql.Tx, userID, accountID, deltaCents int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE accounts SET balance_cents = balance_cents + ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		deltaCents, formatTime(time.Now().UTC()), accountID, userID)
	if err != nil {
		return fmt.Errorf("adjust balance: %w", err)
	}
	return requireRow(res, "account", accountID)
}

func getTransactionTx(ctx context.Context, tx *sql.Tx, userID, id int64) (core.Transaction, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+txnCols+` FROM transactions t WHERE t.id = ? AND t.user_id = ?`, id, userID)
	t, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, notFound(err, "transaction", id)
	}
	return t, nil
}

func collectDetails(rows *sql.Rows) ([]TransactionDetail, error) {
	var details []TransactionDetail
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var t core.Transaction
	var date, createdAt, updatedAt string
	var recurringID sql.NullInt64
	err := row.Scan(&t.ID, &t.Amount.Cents, &t.Description, &t.Type, &date, &t.Notes,
		&t.UserID, &t.CategoryID, &t.AccountID, &recurringID, &createdAt, &updatedAt)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Date, _ = core.ParseDate(date)
	t.RecurringID = recurringID.Int64
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	return t, nil
}

func scanDetail(row rowScanner) (TransactionDetail, error) {
	var d TransactionDetail
	var date, createdAt, updatedAt string
	var recurringID sql.NullInt64
	err := row.Scan(&d.ID, &d.Amount.Cents, &d.Description, &d.Type, &date, &d.Notes,
		&d.UserID, &d.CategoryID, &d.AccountID, &recurringID, &createdAt, &updatedAt,
		&d.CategoryName, &d.CategoryColor, &d.AccountName)
	if err != nil {
		return TransactionDetail{}, err
	}
	d.Date, _ = core.ParseDate(date)
	d.RecurringID = recurringID.Int64
	d.CreatedAt = parseTime(createdAt)
	d.UpdatedAt = parseTime(updatedAt)
	return d, nil
}
