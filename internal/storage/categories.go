package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fintrack/internal/core"
)

const categoryCols = `id, name, description, color, is_default, user_id, created_at`

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	c.CreatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (name, description, color, is_default, user_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.Name, c.Description, c.Color, c.IsDefault, nullIfZero(c.UserID), formatTime(c.CreatedAt),
	)
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	c.ID, err = res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("category insert id: %w", err)
	}
	return c, nil
}

// GetCategory returns the category when it is a global default or owned by
// userID.
func (r *SQLiteRepository) GetCategory(ctx context.Context, userID, id int64) (core.Category, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+categoryCols+` FROM categories
		 WHERE id = ? AND (user_id IS NULL OR user_id = ?)`, id, userID)
	c, err := scanCategory(row)
	if err != nil {
		return core.Category{}, notFound(err, "category", id)
	}
	return c, nil
}

// ListCategories returns the union of the user's own categories and the
// global defaults, ordered by name.
func (r *SQLiteRepository) ListCategories(ctx context.Context, userID int64) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+categoryCols+` FROM categories
		 WHERE user_id = ? OR is_default = 1 ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *SQLiteRepository) CategoryNameExists(ctx context.Context, userID int64, name string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM categories WHERE name = ? AND user_id = ?`, name, userID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count category name: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, description = ?, color = ? WHERE id = ? AND user_id = ?`,
		c.Name, c.Description, c.Color, c.ID, c.UserID,
	)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return requireRow(res, "category", c.ID)
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM categories WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return requireRow(res, "category", id)
}

func scanCategory(row rowScanner) (core.Category, error) {
	var c core.Category
	var userID sql.NullInt64
	var createdAt string
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Color, &c.IsDefault, &userID, &createdAt)
	if err != nil {
		return core.Category{}, err
	}
	c.UserID = userID.Int64
	c.CreatedAt = parseTime(createdAt)
	return c, nil
}
