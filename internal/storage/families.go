package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hearth/internal/core"
)

// CreateFamilyWithOwner inserts the family and promotes the creator to
// owner in the same transaction.
func (s *Store) CreateFamilyWithOwner(ctx context.Context, name string, ownerID int64, now time.Time) (int64, error) {
	var familyID int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO families (name, created_at) VALUES (?, ?)`,
			name, encodeTime(now))
		if err != nil {
			return fmt.Errorf("insert family: %w", err)
		}
		familyID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("family id: %w", err)
		}

		upd, err := tx.ExecContext(ctx,
			`UPDATE users SET family_id = ?, role = 'owner' WHERE id = ? AND family_id IS NULL`,
			familyID, ownerID)
		if err != nil {
			return fmt.Errorf("promote owner: %w", err)
		}
		n, err := upd.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			// User missing or already in a family
			return fmt.Errorf("user %d already belongs to a family: %w", ownerID, ErrDuplicate)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return familyID, nil
}

func (s *Store) GetFamily(ctx context.Context, id int64) (core.Family, error) {
	var (
		f         core.Family
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM families WHERE id = ?`, id).
		Scan(&f.ID, &f.Name, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Family{}, fmt.Errorf("family: %w", ErrNotFound)
	}
	if err != nil {
		return core.Family{}, fmt.Errorf("get family: %w", err)
	}
	if f.CreatedAt, err = decodeTime(createdAt); err != nil {
		return core.Family{}, fmt.Errorf("decode family created_at: %w", err)
	}
	return f, nil
}

// ListFamilies returns every family, for worker-side fanout.
func (s *Store) ListFamilies(ctx context.Context) ([]core.Family, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, created_at FROM families ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list families: %w", err)
	}
	defer rows.Close()

	var families []core.Family
	for rows.Next() {
		var (
			f         core.Family
			createdAt string
		)
		if err := rows.Scan(&f.ID, &f.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("scan family: %w", err)
		}
		if f.CreatedAt, err = decodeTime(createdAt); err != nil {
			return nil, fmt.Errorf("decode family created_at: %w", err)
		}
		families = append(families, f)
	}
	return families, rows.Err()
}

func (s *Store) CreateInvite(ctx context.Context, inv core.Invite) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO invites (family_id, email, token, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?)`,
		inv.FamilyID, inv.Email, inv.Token, encodeTime(inv.CreatedAt), encodeTime(inv.ExpiresAt))
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("invite token: %w", ErrDuplicate)
		}
		return 0, fmt.Errorf("insert invite: %w", err)
	}
	return res.LastInsertId()
}

func (s *Store) GetInviteByToken(ctx context.Context, token string) (core.Invite, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, family_id, email, token, created_at, expires_at, accepted_at, revoked_at
		 FROM invites WHERE token = ?`, token)
	return scanInvite(row)
}

// ListPendingInvites returns invites that are neither accepted nor
// revoked; expiry is judged by the caller so listings can show it.
func (s *Store) ListPendingInvites(ctx context.Context, familyID int64) ([]core.Invite, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, family_id, email, token, created_at, expires_at, accepted_at, revoked_at
		 FROM invites
		 WHERE family_id = ? AND accepted_at IS NULL AND revoked_at IS NULL
		 ORDER BY created_at DESC`, familyID)
	if err != nil {
		return nil, fmt.Errorf("list pending invites: %w", err)
	}
	defer rows.Close()

	var invites []core.Invite
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, err
		}
		invites = append(invites, inv)
	}
	return invites, rows.Err()
}

// AcceptInvite marks the invite used and joins the user as a member in
// one transaction. Single use: a second accept sees the token consumed.
func (s *Store) AcceptInvite(ctx context.Context, inviteID, userID int64, now time.Time) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE invites SET accepted_at = ?
			 WHERE id = ? AND accepted_at IS NULL AND revoked_at IS NULL`,
			encodeTime(now), inviteID)
		if err != nil {
			return fmt.Errorf("mark invite accepted: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("invite consumed: %w", ErrNotFound)
		}

		var familyID int64
		if err := tx.QueryRowContext(ctx,
			`SELECT family_id FROM invites WHERE id = ?`, inviteID).Scan(&familyID); err != nil {
			return fmt.Errorf("read invite family: %w", err)
		}

		upd, err := tx.ExecContext(ctx,
			`UPDATE users SET family_id = ?, role = 'member' WHERE id = ? AND family_id IS NULL`,
			familyID, userID)
		if err != nil {
			return fmt.Errorf("join family: %w", err)
		}
		n, err = upd.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("user %d already belongs to a family: %w", userID, ErrDuplicate)
		}
		return nil
	})
}

func (s *Store) RevokeInvite(ctx context.Context, inviteID, familyID int64, now time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE invites SET revoked_at = ?
		 WHERE id = ? AND family_id = ? AND accepted_at IS NULL AND revoked_at IS NULL`,
		encodeTime(now), inviteID, familyID)
	if err != nil {
		return fmt.Errorf("revoke invite: %w", err)
	}
	return requireRowAffected(res)
}

func scanInvite(row rowScanner) (core.Invite, error) {
	var (
		inv                   core.Invite
		createdAt, expiresAt  string
		acceptedAt, revokedAt sql.NullString
	)
	err := row.Scan(&inv.ID, &inv.FamilyID, &inv.Email, &inv.Token,
		&createdAt, &expiresAt, &acceptedAt, &revokedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Invite{}, fmt.Errorf("invite: %w", ErrNotFound)
	}
	if err != nil {
		return core.Invite{}, fmt.Errorf("scan invite: %w", err)
	}
	if inv.CreatedAt, err = decodeTime(createdAt); err != nil {
		return core.Invite{}, fmt.Errorf("decode invite created_at: %w", err)
	}
	if inv.ExpiresAt, err = decodeTime(expiresAt); err != nil {
		return core.Invite{}, fmt.Errorf("decode invite expires_at: %w", err)
	}
	if inv.AcceptedAt, err = scanNullTime(acceptedAt); err != nil {
		return core.Invite{}, fmt.Errorf("decode invite accepted_at: %w", err)
	}
	if inv.RevokedAt, err = scanNullTime(revokedAt); err != nil {
		return core.Invite{}, fmt.Errorf("decode invite revoked_at: %w", err)
	}
	return inv, nil
}
