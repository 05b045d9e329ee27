package storage

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/core"
)

const accountCols = `id, name, description, type, balance_cents, is_active, user_id, created_at, updated_at`

func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (name, description, type, balance_cents, is_active, user_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.Name, a.Description, a.Type, a.Balance.Cents, a.IsActive, a.UserID,
		formatTime(a.CreatedAt), formatTime(a.UpdatedAt),
	)
	if err != nil {
		return core.Account{}, fmt.Errorf("insert account: %w", err)
	}
	a.ID, err = res.LastInsertId()
	if err != nil {
		return core.Account{}, fmt.Errorf("account insert id: %w", err)
	}
	return a, nil
}

// GetAccount returns the account only when it belongs to userID; a row owned
// by another user surfaces as NotFound, never Forbidden.
func (r *SQLiteRepository) GetAccount(ctx context.Context, userID, id int64) (core.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountCols+` FROM accounts WHERE id = ? AND user_id = ?`, id, userID)
	a, err := scanAccount(row)
	if err != nil {
		return core.Account{}, notFound(err, "account", id)
	}
	return a, nil
}

func (r *SQLiteRepository) ListActiveAccounts(ctx context.Context, userID int64) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountCols+` FROM accounts WHERE user_id = ? AND is_active = 1 ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// UpdateAccount overwrites name, description, type and the active flag.
// The balance is never written here; only transaction mutations touch it.
func (r *SQLiteRepository) UpdateAccount(ctx context.Context, a core.Account) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET name = ?, description = ?, type = ?, is_active = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		a.Name, a.Description, a.Type, a.IsActive, formatTime(time.Now().UTC()), a.ID, a.UserID,
	)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return requireRow(res, "account", a.ID)
}

func (r *SQLiteRepository) SoftDeleteAccount(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET is_active = 0, updated_at = ? WHERE id = ? AND user_id = ?`,
		formatTime(time.Now().UTC()), id, userID,
	)
	if err != nil {
		return fmt.Errorf("soft delete account: %w", err)
	}
	return requireRow(res, "account", id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (core.Account, error) {
	var a core.Account
	var createdAt, updatedAt string
	err := row.Scan(&a.ID, &a.Name, &a.Description, &a.Type, &a.Balance.Cents,
		&a.IsActive, &a.UserID, &createdAt, &updatedAt)
	if err != nil {
		return core.Account{}, err
	}
	a.CreatedAt = parseTime(createdAt)
	a.UpdatedAt = parseTime(updatedAt)
	return a, nil
}
