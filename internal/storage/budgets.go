package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"hearth/internal/core"
)

func (s *Store) CreateBudget(ctx context.Context, b core.Budget) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO budgets (family_id, category_id, year, month, limit_cents)
		 VALUES (?, ?, ?, ?, ?)`,
		b.FamilyID, b.CategoryID, b.Year, b.Month, b.Limit.Cents)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("budget for category %d %d-%02d: %w", b.CategoryID, b.Year, b.Month, ErrDuplicate)
		}
		return 0, fmt.Errorf("insert budget: %w", err)
	}
	return res.LastInsertId()
}

func (s *Store) GetBudget(ctx context.Context, familyID, id int64) (core.Budget, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, family_id, category_id, year, month, limit_cents
		 FROM budgets WHERE id = ? AND family_id = ?`, id, familyID)
	return scanBudget(row)
}

func (s *Store) ListBudgets(ctx context.Context, familyID int64, year, month int) ([]core.Budget, error) {
	query := `SELECT id, family_id, category_id, year, month, limit_cents
	          FROM budgets WHERE family_id = ?`
	args := []any{familyID}
	if year != 0 {
		query += ` AND year = ?`
		args = append(args, year)
	}
	if month != 0 {
		query += ` AND month = ?`
		args = append(args, month)
	}
	query += ` ORDER BY year DESC, month DESC, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (s *Store) UpdateBudget(ctx context.Context, b core.Budget) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE budgets SET limit_cents = ? WHERE id = ? AND family_id = ?`,
		b.Limit.Cents, b.ID, b.FamilyID)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return requireRowAffected(res)
}

func (s *Store) DeleteBudget(ctx context.Context, familyID, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM budgets WHERE id = ? AND family_id = ?`, id, familyID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return requireRowAffected(res)
}

func scanBudget(row rowScanner) (core.Budget, error) {
	var b core.Budget
	err := row.Scan(&b.ID, &b.FamilyID, &b.CategoryID, &b.Year, &b.Month, &b.Limit.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, fmt.Errorf("budget: %w", ErrNotFound)
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("scan budget: %w", err)
	}
	return b, nil
}
