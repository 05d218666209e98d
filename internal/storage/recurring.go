package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hearth/internal/core"
)

func (s *Store) CreateRecurring(ctx context.Context, rt core.RecurringTransaction) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO recurring_transactions
		 (family_id, wallet_id, category_id, kind, amount_cents, note, frequency, start_date, end_date, last_run_at, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rt.FamilyID, rt.WalletID, rt.CategoryID, string(rt.Kind), rt.Amount.Cents, rt.Note,
		string(rt.Frequency), encodeDate(rt.StartDate.Time), nullDate(rt.EndDate.Time),
		nullTime(rt.LastRunAt), boolToInt(rt.Active))
	if err != nil {
		return 0, fmt.Errorf("insert recurring transaction: %w", err)
	}
	return res.LastInsertId()
}

func (s *Store) GetRecurring(ctx context.Context, familyID, id int64) (core.RecurringTransaction, error) {
	row := s.db.QueryRowContext(ctx, selectRecurring+` WHERE id = ? AND family_id = ?`, id, familyID)
	return scanRecurring(row)
}

func (s *Store) ListRecurring(ctx context.Context, familyID int64) ([]core.RecurringTransaction, error) {
	rows, err := s.db.QueryContext(ctx,
		selectRecurring+` WHERE family_id = ? ORDER BY active DESC, id`, familyID)
	if err != nil {
		return nil, fmt.Errorf("list recurring transactions: %w", err)
	}
	defer rows.Close()
	return collectRecurring(rows)
}

// ListActiveRecurring returns every active template whose start date has
// been reached, across all families. The processor judges dueness.
func (s *Store) ListActiveRecurring(ctx context.Context, now time.Time) ([]core.RecurringTransaction, error) {
	rows, err := s.db.QueryContext(ctx,
		selectRecurring+` WHERE active = 1 AND start_date <= ? ORDER BY id`,
		encodeDate(now))
	if err != nil {
		return nil, fmt.Errorf("list active recurring transactions: %w", err)
	}
	defer rows.Close()
	return collectRecurring(rows)
}

func (s *Store) UpdateRecurring(ctx context.Context, rt core.RecurringTransaction) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE recurring_transactions
		 SET wallet_id = ?, category_id = ?, kind = ?, amount_cents = ?, note = ?,
		     frequency = ?, start_date = ?, end_date = ?, active = ?
		 WHERE id = ? AND family_id = ?`,
		rt.WalletID, rt.CategoryID, string(rt.Kind), rt.Amount.Cents, rt.Note,
		string(rt.Frequency), encodeDate(rt.StartDate.Time), nullDate(rt.EndDate.Time),
		boolToInt(rt.Active), rt.ID, rt.FamilyID)
	if err != nil {
		return fmt.Errorf("update recurring transaction: %w", err)
	}
	return requireRowAffected(res)
}

// MarkRecurringRun advances the template's last execution time.
func (s *Store) MarkRecurringRun(ctx context.Context, id int64, runAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE recurring_transactions SET last_run_at = ? WHERE id = ?`,
		encodeTime(runAt), id)
	if err != nil {
		return fmt.Errorf("mark recurring run: %w", err)
	}
	return requireRowAffected(res)
}

// DeactivateRecurring completes a template; it is kept for history.
func (s *Store) DeactivateRecurring(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE recurring_transactions SET active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deactivate recurring transaction: %w", err)
	}
	return requireRowAffected(res)
}

func (s *Store) DeleteRecurring(ctx context.Context, familyID, id int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		// Detach executed instances first; they stay in history.
		if _, err := tx.ExecContext(ctx,
			`UPDATE transactions SET recurring_id = NULL WHERE recurring_id = ?`, id); err != nil {
			return fmt.Errorf("detach recurring instances: %w", err)
		}
		res, err := tx.ExecContext(ctx,
			`DELETE FROM recurring_transactions WHERE id = ? AND family_id = ?`, id, familyID)
		if err != nil {
			return fmt.Errorf("delete recurring transaction: %w", err)
		}
		return requireRowAffected(res)
	})
}

const selectRecurring = `SELECT id, family_id, wallet_id, category_id, kind, amount_cents,
	note, frequency, start_date, end_date, last_run_at, active FROM recurring_transactions`

func collectRecurring(rows *sql.Rows) ([]core.RecurringTransaction, error) {
	var rts []core.RecurringTransaction
	for rows.Next() {
		rt, err := scanRecurring(rows)
		if err != nil {
			return nil, err
		}
		rts = append(rts, rt)
	}
	return rts, rows.Err()
}

func scanRecurring(row rowScanner) (core.RecurringTransaction, error) {
	var (
		rt                core.RecurringTransaction
		kind, freq, start string
		end, lastRun      sql.NullString
		active            int
	)
	err := row.Scan(&rt.ID, &rt.FamilyID, &rt.WalletID, &rt.CategoryID, &kind, &rt.Amount.Cents,
		&rt.Note, &freq, &start, &end, &lastRun, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return core.RecurringTransaction{}, fmt.Errorf("recurring transaction: %w", ErrNotFound)
	}
	if err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("scan recurring transaction: %w", err)
	}
	rt.Kind = core.TxKind(kind)
	rt.Frequency = core.Frequency(freq)
	startDate, err := decodeDate(start)
	if err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("decode start_date: %w", err)
	}
	rt.StartDate = core.Date{Time: startDate}
	endDate, err := scanNullDate(end)
	if err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("decode end_date: %w", err)
	}
	rt.EndDate = core.Date{Time: endDate}
	if rt.LastRunAt, err = scanNullTime(lastRun); err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("decode last_run_at: %w", err)
	}
	rt.Active = active != 0
	return rt, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
