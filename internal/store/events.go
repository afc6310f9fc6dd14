package store

import (
	"context"
	"fmt"
	"slices"
)

// EventQuery filters event listings. Only events of ready matches inside
// Scope are returned. An empty Tag matches every tag; MatchID zero matches
// every match.
type EventQuery struct {
	Scope   Scope
	Tag     string
	MatchID int64
}

// ListEvents returns visible events joined with their matches in insertion
// order.
func (s *Store) ListEvents(ctx context.Context, q EventQuery) ([]EventWithMatch, error) {
	predicate, args := q.Scope.SQL("m.team_id")
	query := `SELECT e.id AS event_id, e.tag, e.player, e.start_ms, e.end_ms, ` + matchColumns +
		` FROM events e JOIN matches m ON m.id = e.match_id JOIN teams t ON t.id = m.team_id` +
		` WHERE m.status = ? AND (` + predicate + `)`
	args = append([]any{string(StatusReady)}, args...)
	if q.Tag != "" {
		query += ` AND e.tag = ?`
		args = append(args, q.Tag)
	}
	if q.MatchID != 0 {
		query += ` AND e.match_id = ?`
		args = append(args, q.MatchID)
	}
	query += ` ORDER BY e.id`

	var rows []eventRow
	if err := s.db.SelectContext(ensureContext(ctx), &rows, s.rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	events := make([]EventWithMatch, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.toEvent())
	}
	return events, nil
}

// ListTags returns the distinct tags of events in scoped matches, regardless
// of readiness, sorted by code point. Sorting happens here because Postgres
// would otherwise order by the database locale.
func (s *Store) ListTags(ctx context.Context, scope Scope) ([]string, error) {
	predicate, args := scope.SQL("m.team_id")
	query := `SELECT DISTINCT e.tag FROM events e JOIN matches m ON m.id = e.match_id WHERE (` + predicate + `)`
	var tags []string
	if err := s.db.SelectContext(ensureContext(ctx), &tags, s.rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	slices.Sort(tags)
	return tags, nil
}

// CountEvents returns the number of events stored for a match.
func (s *Store) CountEvents(ctx context.Context, matchID int64) (int, error) {
	var count int
	if err := s.db.GetContext(ensureContext(ctx), &count, s.rebind(`SELECT COUNT(1) FROM events WHERE match_id = ?`), matchID); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return count, nil
}
