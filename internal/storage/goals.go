package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"hearth/internal/core"
)

func (s *Store) CreateGoal(ctx context.Context, g core.Goal) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO goals (family_id, name, target_cents, saved_cents, deadline, achieved)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		g.FamilyID, g.Name, g.Target.Cents, g.Saved.Cents, nullDate(g.Deadline.Time), boolToInt(g.Achieved))
	if err != nil {
		return 0, fmt.Errorf("insert goal: %w", err)
	}
	return res.LastInsertId()
}

func (s *Store) GetGoal(ctx context.Context, familyID, id int64) (core.Goal, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, family_id, name, target_cents, saved_cents, deadline, achieved
		 FROM goals WHERE id = ? AND family_id = ?`, id, familyID)
	return scanGoal(row)
}

func (s *Store) ListGoals(ctx context.Context, familyID int64) ([]core.Goal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, family_id, name, target_cents, saved_cents, deadline, achieved
		 FROM goals WHERE family_id = ? ORDER BY achieved, id`, familyID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []core.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

// UpdateGoal changes name, target or deadline. Saved cents only move
// through goal-bound transactions; the achieved flag is refreshed
// against the new target.
func (s *Store) UpdateGoal(ctx context.Context, g core.Goal) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE goals
		 SET name = ?, target_cents = ?, deadline = ?,
		     achieved = CASE WHEN saved_cents >= ? THEN 1 ELSE 0 END
		 WHERE id = ? AND family_id = ?`,
		g.Name, g.Target.Cents, nullDate(g.Deadline.Time), g.Target.Cents, g.ID, g.FamilyID)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return requireRowAffected(res)
}

// DeleteGoal removes a goal; its contribution transactions survive but
// are detached.
func (s *Store) DeleteGoal(ctx context.Context, familyID, id int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE transactions SET goal_id = NULL WHERE goal_id = ?`, id); err != nil {
			return fmt.Errorf("detach goal transactions: %w", err)
		}
		res, err := tx.ExecContext(ctx,
			`DELETE FROM goals WHERE id = ? AND family_id = ?`, id, familyID)
		if err != nil {
			return fmt.Errorf("delete goal: %w", err)
		}
		return requireRowAffected(res)
	})
}

func scanGoal(row rowScanner) (core.Goal, error) {
	var (
		g        core.Goal
		deadline sql.NullString
		achieved int
	)
	err := row.Scan(&g.ID, &g.FamilyID, &g.Name, &g.Target.Cents, &g.Saved.Cents, &deadline, &achieved)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Goal{}, fmt.Errorf("goal: %w", ErrNotFound)
	}
	if err != nil {
		return core.Goal{}, fmt.Errorf("scan goal: %w", err)
	}
	dl, err := scanNullDate(deadline)
	if err != nil {
		return core.Goal{}, fmt.Errorf("decode goal deadline: %w", err)
	}
	g.Deadline = core.Date{Time: dl}
	g.Achieved = achieved != 0
	return g, nil
}
