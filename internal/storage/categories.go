package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"hearth/internal/core"
)

func (s *Store) CreateCategory(ctx context.Context, c core.Category) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (family_id, name, kind) VALUES (?, ?, ?)`,
		c.FamilyID, c.Name, string(c.Kind))
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("category %q: %w", c.Name, ErrDuplicate)
		}
		return 0, fmt.Errorf("insert category: %w", err)
	}
	return res.LastInsertId()
}

func (s *Store) GetCategory(ctx context.Context, familyID, id int64) (core.Category, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, family_id, name, kind FROM categories WHERE id = ? AND family_id = ?`,
		id, familyID)
	return scanCategory(row)
}

func (s *Store) ListCategories(ctx context.Context, familyID int64) ([]core.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, family_id, name, kind FROM categories
		 WHERE family_id = ? ORDER BY kind, name`, familyID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (s *Store) UpdateCategory(ctx context.Context, c core.Category) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE categories SET name = ? WHERE id = ? AND family_id = ?`,
		c.Name, c.ID, c.FamilyID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("category %q: %w", c.Name, ErrDuplicate)
		}
		return fmt.Errorf("update category: %w", err)
	}
	return requireRowAffected(res)
}

// DeleteCategory removes an unused category. Categories referenced by
// transactions, budgets or recurring templates are rejected.
func (s *Store) DeleteCategory(ctx context.Context, familyID, id int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var count int64
		if err := tx.QueryRowContext(ctx,
			`SELECT (SELECT COUNT(*) FROM transactions WHERE category_id = ?)
			      + (SELECT COUNT(*) FROM budgets WHERE category_id = ?)
			      + (SELECT COUNT(*) FROM recurring_transactions WHERE category_id = ?)`,
			id, id, id).Scan(&count); err != nil {
			return fmt.Errorf("count category references: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("category %d: %w", id, ErrCategoryInUse)
		}

		res, err := tx.ExecContext(ctx,
			`DELETE FROM categories WHERE id = ? AND family_id = ?`, id, familyID)
		if err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		return requireRowAffected(res)
	})
}

func scanCategory(row rowScanner) (core.Category, error) {
	var (
		c    core.Category
		kind string
	)
	err := row.Scan(&c.ID, &c.FamilyID, &c.Name, &kind)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("category: %w", ErrNotFound)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("scan category: %w", err)
	}
	c.Kind = core.TxKind(kind)
	return c, nil
}
