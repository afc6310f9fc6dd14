package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const userSelect = `SELECT u.id, u.email, u.password_hash, u.role, u.team_id, t.name AS team_name, u.created_at
FROM users u LEFT JOIN teams t ON t.id = u.team_id`

// CreateUser inserts an account. Emails are stored lower-cased; a duplicate
// email returns ErrDuplicate.
func (s *Store) CreateUser(ctx context.Context, email, passwordHash, role string, teamID *int64) (*User, error) {
	ctx = ensureContext(ctx)
	email = normalizeEmail(email)
	var id int64
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowxContext(
			ctx,
			s.rebind(`INSERT INTO users (email, password_hash, role, team_id, created_at) VALUES (?, ?, ?, ?, ?) RETURNING id`),
			email,
			passwordHash,
			role,
			nullableInt64(teamID),
			nowString(),
		).Scan(&id)
	})
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("user %s: %w", email, ErrDuplicate)
	}
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return s.UserByID(ctx, id)
}

// UserByID fetches a user, returning nil when missing.
func (s *Store) UserByID(ctx context.Context, id int64) (*User, error) {
	return s.getUser(ctx, userSelect+` WHERE u.id = ?`, id)
}

// UserByEmail fetches a user by case-insensitive email, returning nil when missing.
func (s *Store) UserByEmail(ctx context.Context, email string) (*User, error) {
	return s.getUser(ctx, userSelect+` WHERE u.email = ?`, normalizeEmail(email))
}

func (s *Store) getUser(ctx context.Context, query string, args ...any) (*User, error) {
	var row userRow
	err := s.db.GetContext(ensureContext(ctx), &row, s.rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	user := row.toUser()
	return &user, nil
}

// ListUsers returns every account ordered by email.
func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	var rows []userRow
	if err := s.db.SelectContext(ensureContext(ctx), &rows, userSelect+` ORDER BY u.email`); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toUser())
	}
	return users, nil
}

// SetUserTeam assigns a user to a team; a nil teamID clears the assignment.
// It reports false when the user does not exist.
func (s *Store) SetUserTeam(ctx context.Context, userID int64, teamID *int64) (bool, error) {
	affected, err := s.execWithRetry(ctx, `UPDATE users SET team_id = ? WHERE id = ?`, nullableInt64(teamID), userID)
	if err != nil {
		return false, fmt.Errorf("set user team: %w", err)
	}
	return affected > 0, nil
}

// UpdatePasswordHash replaces a user's stored digest.
func (s *Store) UpdatePasswordHash(ctx context.Context, userID int64, hash string) error {
	if _, err := s.execWithRetry(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, hash, userID); err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
