package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

const upsertTeamSQL = `INSERT INTO teams (name, created_at) VALUES (?, ?)
ON CONFLICT(name) DO UPDATE SET name = excluded.name
RETURNING id`

// ensureTeam resolves a team id by name, creating the team when missing. The
// single upsert statement keeps concurrent ingests from racing on the name.
func (s *Store) ensureTeam(ctx context.Context, tx *sqlx.Tx, name string) (int64, error) {
	var id int64
	if err := tx.QueryRowxContext(ctx, s.rebind(upsertTeamSQL), name, nowString()).Scan(&id); err != nil {
		return 0, fmt.Errorf("upsert team %q: %w", name, err)
	}
	return id, nil
}

// EnsureTeam returns the team with the given name, creating it if needed.
func (s *Store) EnsureTeam(ctx context.Context, name string) (*Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("team name is required")
	}
	var id int64
	if err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		id, err = s.ensureTeam(ctx, tx, name)
		return err
	}); err != nil {
		return nil, err
	}
	return s.TeamByID(ctx, id)
}

type teamRow struct {
	ID        int64          `db:"id"`
	Name      string         `db:"name"`
	CreatedAt sql.NullString `db:"created_at"`
}

func (r teamRow) toTeam() *Team {
	team := &Team{ID: r.ID, Name: r.Name}
	if created, err := parseTimeString(r.CreatedAt.String); err == nil {
		team.CreatedAt = created
	}
	return team
}

// TeamByID fetches a team, returning nil when it does not exist.
func (s *Store) TeamByID(ctx context.Context, id int64) (*Team, error) {
	var row teamRow
	err := s.db.GetContext(ensureContext(ctx), &row, s.rebind(`SELECT id, name, created_at FROM teams WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get team: %w", err)
	}
	return row.toTeam(), nil
}

// TeamByName fetches a team by exact name, returning nil when missing.
func (s *Store) TeamByName(ctx context.Context, name string) (*Team, error) {
	var row teamRow
	err := s.db.GetContext(ensureContext(ctx), &row, s.rebind(`SELECT id, name, created_at FROM teams WHERE name = ?`), strings.TrimSpace(name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get team by name: %w", err)
	}
	return row.toTeam(), nil
}

// ListTeams returns all teams ordered by name.
func (s *Store) ListTeams(ctx context.Context) ([]Team, error) {
	var rows []teamRow
	if err := s.db.SelectContext(ensureContext(ctx), &rows, `SELECT id, name, created_at FROM teams ORDER BY name`); err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	teams := make([]Team, 0, len(rows))
	for _, row := range rows {
		teams = append(teams, *row.toTeam())
	}
	return teams, nil
}
