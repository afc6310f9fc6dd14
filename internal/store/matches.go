package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Scope restricts queries to the matches a viewer may see. SQL renders the
// predicate against the given team id column using '?' placeholders.
type Scope interface {
	SQL(teamColumn string) (string, []any)
}

// eventBatchSize bounds the rows per multi-row insert so SQLite's variable
// limit is never reached.
const eventBatchSize = 500

type eventInsert struct {
	MatchID int64  `db:"match_id"`
	Tag     string `db:"tag"`
	Player  string `db:"player"`
	StartMs int64  `db:"start_ms"`
	EndMs   int64  `db:"end_ms"`
}

// CreateMatchWithEvents resolves (or creates) the team, inserts the match, and
// inserts every event in one transaction. Nothing is written unless all of it
// commits.
func (s *Store) CreateMatchWithEvents(ctx context.Context, match NewMatch, events []NewEvent) (*Match, error) {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(match.TeamName) == "" {
		return nil, errors.New("team name is required")
	}
	if strings.TrimSpace(match.AssetID) == "" {
		return nil, errors.New("asset id is required")
	}
	status := match.Status
	if status == "" {
		status = StatusProcessing
	}
	if !status.IsPending() {
		return nil, fmt.Errorf("new matches must be pending, got %q", status)
	}

	var matchID int64
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		teamID, err := s.ensureTeam(ctx, tx, strings.TrimSpace(match.TeamName))
		if err != nil {
			return err
		}

		now := nowString()
		if err := tx.QueryRowxContext(
			ctx,
			s.rebind(`INSERT INTO matches (opponent, match_date, team_id, mux_asset_id, mux_playback_id, status, created_at, updated_at)
             VALUES (?, ?, ?, ?, NULL, ?, ?, ?) RETURNING id`),
			strings.TrimSpace(match.Opponent),
			nullableString(strings.TrimSpace(match.MatchDate)),
			teamID,
			match.AssetID,
			string(status),
			now,
			now,
		).Scan(&matchID); err != nil {
			return fmt.Errorf("insert match: %w", err)
		}

		return insertEvents(ctx, tx, matchID, events)
	})
	if err != nil {
		return nil, err
	}
	return s.GetMatch(ctx, matchID)
}

func insertEvents(ctx context.Context, tx *sqlx.Tx, matchID int64, events []NewEvent) error {
	const query = `INSERT INTO events (match_id, tag, player, start_ms, end_ms)
VALUES (:match_id, :tag, :player, :start_ms, :end_ms)`
	for start := 0; start < len(events); start += eventBatchSize {
		end := min(start+eventBatchSize, len(events))
		batch := make([]eventInsert, 0, end-start)
		for _, ev := range events[start:end] {
			batch = append(batch, eventInsert{
				MatchID: matchID,
				Tag:     ev.Tag,
				Player:  ev.Player,
				StartMs: ev.StartMs,
				EndMs:   ev.EndMs,
			})
		}
		if _, err := tx.NamedExecContext(ctx, query, batch); err != nil {
			return fmt.Errorf("insert events: %w", err)
		}
	}
	return nil
}

// GetMatch fetches a match by identifier, returning nil when missing.
func (s *Store) GetMatch(ctx context.Context, id int64) (*Match, error) {
	var row matchRow
	err := s.db.GetContext(ensureContext(ctx), &row, s.rebind(`SELECT `+matchColumns+matchFrom+` WHERE m.id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get match: %w", err)
	}
	match := row.toMatch()
	return &match, nil
}

// ListMatches returns matches within scope, optionally limited to the given
// statuses, ordered by id.
func (s *Store) ListMatches(ctx context.Context, scope Scope, statuses ...Status) ([]Match, error) {
	predicate, args := scope.SQL("m.team_id")
	query := `SELECT ` + matchColumns + matchFrom + ` WHERE (` + predicate + `)`
	if len(statuses) > 0 {
		query += ` AND m.status IN (` + makePlaceholders(len(statuses)) + `)`
		args = append(args, statusArgs(statuses)...)
	}
	query += ` ORDER BY m.id`
	return s.selectMatches(ctx, query, args...)
}

// PendingMatches returns every match still uploading or processing, ordered by id.
func (s *Store) PendingMatches(ctx context.Context) ([]Match, error) {
	query := `SELECT ` + matchColumns + matchFrom +
		` WHERE m.status IN (` + makePlaceholders(len(PendingStatuses)) + `) ORDER BY m.id`
	return s.selectMatches(ctx, query, statusArgs(PendingStatuses)...)
}

func (s *Store) selectMatches(ctx context.Context, query string, args ...any) ([]Match, error) {
	var rows []matchRow
	if err := s.db.SelectContext(ensureContext(ctx), &rows, s.rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	matches := make([]Match, 0, len(rows))
	for _, row := range rows {
		matches = append(matches, row.toMatch())
	}
	return matches, nil
}

// MarkReady records the resolved asset and playback ids and flips the match to
// ready in one statement. It reports false when the match was no longer
// pending (already transitioned by a concurrent pass, or deleted).
func (s *Store) MarkReady(ctx context.Context, id int64, assetID, playbackID string) (bool, error) {
	if strings.TrimSpace(assetID) == "" || strings.TrimSpace(playbackID) == "" {
		return false, errors.New("asset id and playback id are required")
	}
	affected, err := s.execWithRetry(
		ctx,
		`UPDATE matches
         SET mux_asset_id = ?, mux_playback_id = ?, status = ?, updated_at = ?
         WHERE id = ? AND status IN (?, ?)`,
		assetID,
		playbackID,
		string(StatusReady),
		nowString(),
		id,
		string(StatusUploading),
		string(StatusProcessing),
	)
	if err != nil {
		return false, fmt.Errorf("mark match ready: %w", err)
	}
	return affected > 0, nil
}

// DeleteMatch removes a match and, by cascade, its events. It reports false
// when no such match exists.
func (s *Store) DeleteMatch(ctx context.Context, id int64) (bool, error) {
	affected, err := s.execWithRetry(ctx, `DELETE FROM matches WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete match: %w", err)
	}
	return affected > 0, nil
}
