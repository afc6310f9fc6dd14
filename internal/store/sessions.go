package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type sessionRow struct {
	Token     string `db:"token"`
	UserID    int64  `db:"user_id"`
	CreatedAt string `db:"created_at"`
	ExpiresAt string `db:"expires_at"`
}

// CreateSession stores a login token for the user.
func (s *Store) CreateSession(ctx context.Context, token string, userID int64, expiresAt time.Time) (*Session, error) {
	now := time.Now().UTC()
	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO sessions (token, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		token,
		userID,
		now.Format(time.RFC3339Nano),
		expiresAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return &Session{Token: token, UserID: userID, CreatedAt: now, ExpiresAt: expiresAt.UTC()}, nil
}

// SessionByToken fetches a session, returning nil when the token is unknown.
// Expiry is left to the caller.
func (s *Store) SessionByToken(ctx context.Context, token string) (*Session, error) {
	var row sessionRow
	err := s.db.GetContext(ensureContext(ctx), &row, s.rebind(`SELECT token, user_id, created_at, expires_at FROM sessions WHERE token = ?`), token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	session := &Session{Token: row.Token, UserID: row.UserID}
	if created, err := parseTimeString(row.CreatedAt); err == nil {
		session.CreatedAt = created
	}
	expires, err := parseTimeString(row.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("parse session expiry: %w", err)
	}
	session.ExpiresAt = expires
	return session, nil
}

// DeleteSession removes a token. Unknown tokens are not an error.
func (s *Store) DeleteSession(ctx context.Context, token string) error {
	if _, err := s.execWithRetry(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// PurgeExpiredSessions deletes sessions whose expiry is at or before now and
// returns how many were removed.
func (s *Store) PurgeExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	var rows []sessionRow
	if err := s.db.SelectContext(ensureContext(ctx), &rows, `SELECT token, user_id, created_at, expires_at FROM sessions`); err != nil {
		return 0, fmt.Errorf("list sessions: %w", err)
	}
	removed := 0
	for _, row := range rows {
		expires, err := parseTimeString(row.ExpiresAt)
		if err == nil && now.Before(expires) {
			continue
		}
		if err := s.DeleteSession(ctx, row.Token); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
