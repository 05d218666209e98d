package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hearth/internal/core"
)

func (s *Store) CreateWallet(ctx context.Context, w core.Wallet, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO wallets (family_id, name, currency, balance_cents, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		w.FamilyID, w.Name, w.Currency, w.Balance.Cents, encodeTime(now))
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("wallet %q: %w", w.Name, ErrDuplicate)
		}
		return 0, fmt.Errorf("insert wallet: %w", err)
	}
	return res.LastInsertId()
}

func (s *Store) GetWallet(ctx context.Context, familyID, id int64) (core.Wallet, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, family_id, name, currency, balance_cents
		 FROM wallets WHERE id = ? AND family_id = ?`, id, familyID)
	return scanWallet(row)
}

func (s *Store) ListWallets(ctx context.Context, familyID int64) ([]core.Wallet, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, family_id, name, currency, balance_cents
		 FROM wallets WHERE family_id = ? ORDER BY name`, familyID)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	defer rows.Close()

	var wallets []core.Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}

// UpdateWallet renames a wallet or changes its currency label. Balance
// is never written here; only transaction writes move it.
func (s *Store) UpdateWallet(ctx context.Context, w core.Wallet) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE wallets SET name = ?, currency = ? WHERE id = ? AND family_id = ?`,
		w.Name, w.Currency, w.ID, w.FamilyID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("wallet %q: %w", w.Name, ErrDuplicate)
		}
		return fmt.Errorf("update wallet: %w", err)
	}
	return requireRowAffected(res)
}

// DeleteWallet removes an empty wallet. Wallets still referenced by
// transactions or recurring templates are rejected with ErrWalletInUse.
func (s *Store) DeleteWallet(ctx context.Context, familyID, id int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var count int64
		if err := tx.QueryRowContext(ctx,
			`SELECT (SELECT COUNT(*) FROM transactions WHERE wallet_id = ?)
			      + (SELECT COUNT(*) FROM recurring_transactions WHERE wallet_id = ?)`,
			id, id).Scan(&count); err != nil {
			return fmt.Errorf("count wallet references: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("wallet %d: %w", id, ErrWalletInUse)
		}

		res, err := tx.ExecContext(ctx,
			`DELETE FROM wallets WHERE id = ? AND family_id = ?`, id, familyID)
		if err != nil {
			return fmt.Errorf("delete wallet: %w", err)
		}
		return requireRowAffected(res)
	})
}

func scanWallet(row rowScanner) (core.Wallet, error) {
	var w core.Wallet
	err := row.Scan(&w.ID, &w.FamilyID, &w.Name, &w.Currency, &w.Balance.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Wallet{}, fmt.Errorf("wallet: %w", ErrNotFound)
	}
	if err != nil {
		return core.Wallet{}, fmt.Errorf("scan wallet: %w", err)
	}
	return w, nil
}
