package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hearth/internal/core"
)

// TxFilter narrows transaction listings. Zero values mean "any".
type TxFilter struct {
	Year       int
	Month      int
	WalletID   int64
	CategoryID int64
	Kind       core.TxKind
	Limit      int
}

// CreateTransaction inserts the row and applies the wallet delta in one
// database transaction. Goal-bound rows also move the goal's saved
// counter and refresh its achieved flag.
func (s *Store) CreateTransaction(ctx context.Context, t core.Transaction, now time.Time) (int64, error) {
	var id int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO transactions
			 (family_id, wallet_id, category_id, user_id, kind, amount_cents, tx_date, note, recurring_id, goal_id, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.FamilyID, t.WalletID, t.CategoryID, nullID(t.UserID), string(t.Kind), t.Amount.Cents,
			encodeDate(t.Date.Time), t.Note, nullID(t.RecurringID), nullID(t.GoalID), encodeTime(now))
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("transaction id: %w", err)
		}

		if err := applyWalletDelta(ctx, tx, t.WalletID, t.FamilyID, t.Delta()); err != nil {
			return err
		}
		if t.GoalID != 0 {
			if err := applyGoalDelta(ctx, tx, t.GoalID, t.FamilyID, t.Amount.Cents); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Store) GetTransaction(ctx context.Context, familyID, id int64) (core.Transaction, error) {
	row := s.db.QueryRowContext(ctx, selectTransaction+` WHERE id = ? AND family_id = ?`, id, familyID)
	return scanTransaction(row)
}

func (s *Store) ListTransactions(ctx context.Context, familyID int64, f TxFilter) ([]core.Transaction, error) {
	query := selectTransaction + ` WHERE family_id = ?`
	args := []any{familyID}

	if f.Year != 0 && f.Month != 0 {
		query += ` AND tx_date >= ? AND tx_date < ?`
		from := core.NewDate(f.Year, f.Month, 1)
		args = append(args, encodeDate(from.Time), encodeDate(from.AddDate(0, 1, 0)))
	} else if f.Year != 0 {
		query += ` AND tx_date >= ? AND tx_date < ?`
		args = append(args, encodeDate(core.NewDate(f.Year, 1, 1).Time), encodeDate(core.NewDate(f.Year+1, 1, 1).Time))
	}
	if f.WalletID != 0 {
		query += ` AND wallet_id = ?`
		args = append(args, f.WalletID)
	}
	if f.CategoryID != 0 {
		query += ` AND category_id = ?`
		args = append(args, f.CategoryID)
	}
	if f.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(f.Kind))
	}
	query += ` ORDER BY tx_date DESC, id DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// UpdateTransaction reverses the old deltas and applies the new ones in
// the same database transaction, so balances never drift.
func (s *Store) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		old, err := getTransactionTx(ctx, tx, t.FamilyID, t.ID)
		if err != nil {
			return err
		}

		if err := applyWalletDelta(ctx, tx, old.WalletID, old.FamilyID, -old.Delta()); err != nil {
			return err
		}
		if old.GoalID != 0 {
			if err := applyGoalDelta(ctx, tx, old.GoalID, old.FamilyID, -old.Amount.Cents); err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE transactions
			 SET wallet_id = ?, category_id = ?, kind = ?, amount_cents = ?, tx_date = ?, note = ?, goal_id = ?
			 WHERE id = ? AND family_id = ?`,
			t.WalletID, t.CategoryID, string(t.Kind), t.Amount.Cents,
			encodeDate(t.Date.Time), t.Note, nullID(t.GoalID), t.ID, t.FamilyID)
		if err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}

		if err := applyWalletDelta(ctx, tx, t.WalletID, t.FamilyID, t.Delta()); err != nil {
			return err
		}
		if t.GoalID != 0 {
			if err := applyGoalDelta(ctx, tx, t.GoalID, t.FamilyID, t.Amount.Cents); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteTransaction removes the row and reverses its deltas.
func (s *Store) DeleteTransaction(ctx context.Context, familyID, id int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		old, err := getTransactionTx(ctx, tx, familyID, id)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM transactions WHERE id = ? AND family_id = ?`, id, familyID); err != nil {
			return fmt.Errorf("delete transaction: %w", err)
		}

		if err := applyWalletDelta(ctx, tx, old.WalletID, old.FamilyID, -old.Delta()); err != nil {
			return err
		}
		if old.GoalID != 0 {
			if err := applyGoalDelta(ctx, tx, old.GoalID, old.FamilyID, -old.Amount.Cents); err != nil {
				return err
			}
		}
		return nil
	})
}

// MonthSummary aggregates a family's month: income/expense totals,
// per-category expense sums and wallet balance snapshots.
func (s *Store) MonthSummary(ctx context.Context, familyID int64, year, month int) (core.MonthSummary, error) {
	summary := core.MonthSummary{FamilyID: familyID, Year: year, Month: month}

	from := core.NewDate(year, month, 1)
	to := from.AddDate(0, 1, 0)

	err := s.db.QueryRowContext(ctx,
		`SELECT
		   COALESCE(SUM(CASE WHEN kind = 'income' THEN amount_cents ELSE 0 END), 0),
		   COALESCE(SUM(CASE WHEN kind = 'expense' THEN amount_cents ELSE 0 END), 0)
		 FROM transactions
		 WHERE family_id = ? AND tx_date >= ? AND tx_date < ?`,
		familyID, encodeDate(from.Time), encodeDate(to)).
		Scan(&summary.IncomeTotal.Cents, &summary.ExpenseTotal.Cents)
	if err != nil {
		return summary, fmt.Errorf("month totals: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT c.name, SUM(t.amount_cents)
		 FROM transactions t
		 JOIN categories c ON c.id = t.category_id
		 WHERE t.family_id = ? AND t.kind = 'expense' AND t.tx_date >= ? AND t.tx_date < ?
		 GROUP BY c.name
		 ORDER BY SUM(t.amount_cents) DESC`,
		familyID, encodeDate(from.Time), encodeDate(to))
	if err != nil {
		return summary, fmt.Errorf("category sums: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ca core.CategoryAmount
		if err := rows.Scan(&ca.Name, &ca.Amount.Cents); err != nil {
			return summary, fmt.Errorf("scan category sum: %w", err)
		}
		summary.ByCategory = append(summary.ByCategory, ca)
	}
	if err := rows.Err(); err != nil {
		return summary, err
	}

	wallets, err := s.ListWallets(ctx, familyID)
	if err != nil {
		return summary, err
	}
	for _, w := range wallets {
		summary.Wallets = append(summary.Wallets, core.WalletBalance{
			Name:     w.Name,
			Currency: w.Currency,
			Balance:  w.Balance,
		})
	}

	return summary, nil
}

// SpentInCategory sums expense transactions for a category in a month.
func (s *Store) SpentInCategory(ctx context.Context, familyID, categoryID int64, year, month int) (core.Money, error) {
	from := core.NewDate(year, month, 1)
	to := from.AddDate(0, 1, 0)

	var spent core.Money
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM transactions
		 WHERE family_id = ? AND category_id = ? AND kind = 'expense'
		   AND tx_date >= ? AND tx_date < ?`,
		familyID, categoryID, encodeDate(from.Time), encodeDate(to)).
		Scan(&spent.Cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("spent in category: %w", err)
	}
	return spent, nil
}

const selectTransaction = `SELECT id, family_id, wallet_id, category_id, user_id, kind,
	amount_cents, tx_date, note, recurring_id, goal_id FROM transactions`

func getTransactionTx(ctx context.Context, tx *sql.Tx, familyID, id int64) (core.Transaction, error) {
	row := tx.QueryRowContext(ctx, selectTransaction+` WHERE id = ? AND family_id = ?`, id, familyID)
	return scanTransaction(row)
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t                           core.Transaction
		kind, txDate                string
		userID, recurringID, goalID sql.NullInt64
	)
	err := row.Scan(&t.ID, &t.FamilyID, &t.WalletID, &t.CategoryID, &userID, &kind,
		&t.Amount.Cents, &txDate, &t.Note, &recurringID, &goalID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction: %w", ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	t.Kind = core.TxKind(kind)
	day, err := decodeDate(txDate)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("decode tx_date: %w", err)
	}
	t.Date = core.Date{Time: day}
	t.UserID = userID.Int64
	t.RecurringID = recurringID.Int64
	t.GoalID = goalID.Int64
	return t, nil
}

// applyWalletDelta moves a wallet balance inside an open transaction.
func applyWalletDelta(ctx context.Context, tx *sql.Tx, walletID, familyID, deltaCents int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE wallets SET balance_cents = balance_cents + ? WHERE id = ? AND family_id = ?`,
		deltaCents, walletID, familyID)
	if err != nil {
		return fmt.Errorf("apply wallet delta: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("wallet %d: %w", walletID, ErrNotFound)
	}
	return nil
}

// applyGoalDelta moves a goal's saved counter and refreshes achieved.
func applyGoalDelta(ctx context.Context, tx *sql.Tx, goalID, familyID, deltaCents int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE goals
		 SET saved_cents = saved_cents + ?,
		     achieved = CASE WHEN saved_cents + ? >= target_cents THEN 1 ELSE 0 END
		 WHERE id = ? AND family_id = ?`,
		deltaCents, deltaCents, goalID, familyID)
	if err != nil {
		return fmt.Errorf("apply goal delta: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("goal %d: %w", goalID, ErrNotFound)
	}
	return nil
}
