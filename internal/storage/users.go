package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"hearth/internal/core"
)

func (s *Store) CreateUser(ctx context.Context, u core.User) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (email, name, password_hash, family_id, role, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.Email, u.Name, u.PasswordHash, nullID(u.FamilyID), string(u.Role), encodeTime(u.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("user %s: %w", u.Email, ErrDuplicate)
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return res.LastInsertId()
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, family_id, role, created_at
		 FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (core.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, family_id, role, created_at
		 FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// ListFamilyMembers returns all users in a family, owners first.
func (s *Store) ListFamilyMembers(ctx context.Context, familyID int64) ([]core.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, email, name, password_hash, family_id, role, created_at
		 FROM users WHERE family_id = ?
		 ORDER BY CASE role WHEN 'owner' THEN 0 ELSE 1 END, id`, familyID)
	if err != nil {
		return nil, fmt.Errorf("list family members: %w", err)
	}
	defer rows.Close()

	var users []core.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// RemoveUserFromFamily detaches a member; the caller checks roles.
func (s *Store) RemoveUserFromFamily(ctx context.Context, userID int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET family_id = NULL, role = 'member' WHERE id = ?`, userID)
	if err != nil {
		return fmt.Errorf("remove user from family: %w", err)
	}
	return requireRowAffected(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (core.User, error) {
	var (
		u         core.User
		familyID  sql.NullInt64
		role      string
		createdAt string
	)
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &familyID, &role, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, fmt.Errorf("user: %w", ErrNotFound)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("scan user: %w", err)
	}
	u.FamilyID = familyID.Int64
	u.Role = core.Role(role)
	if u.CreatedAt, err = decodeTime(createdAt); err != nil {
		return core.User{}, fmt.Errorf("decode user created_at: %w", err)
	}
	return u, nil
}

func nullID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
