package store

import (
	"database/sql"
	"errors"
	"strings"
	"time"
)

const matchColumns = `m.id, m.opponent, m.match_date, m.team_id, t.name AS team_name,
m.mux_asset_id, m.mux_playback_id, m.status, m.created_at, m.updated_at`

const matchFrom = ` FROM matches m JOIN teams t ON t.id = m.team_id`

type matchRow struct {
	ID         int64          `db:"id"`
	Opponent   string         `db:"opponent"`
	MatchDate  sql.NullString `db:"match_date"`
	TeamID     int64          `db:"team_id"`
	TeamName   string         `db:"team_name"`
	AssetID    string         `db:"mux_asset_id"`
	PlaybackID sql.NullString `db:"mux_playback_id"`
	Status     string         `db:"status"`
	CreatedAt  sql.NullString `db:"created_at"`
	UpdatedAt  sql.NullString `db:"updated_at"`
}

func (r matchRow) toMatch() Match {
	m := Match{
		ID:         r.ID,
		Opponent:   r.Opponent,
		MatchDate:  normalizeDate(r.MatchDate.String),
		TeamID:     r.TeamID,
		TeamName:   r.TeamName,
		AssetID:    r.AssetID,
		PlaybackID: r.PlaybackID.String,
		Status:     Status(r.Status),
	}
	if created, err := parseTimeString(r.CreatedAt.String); err == nil {
		m.CreatedAt = created
	}
	if updated, err := parseTimeString(r.UpdatedAt.String); err == nil {
		m.UpdatedAt = updated
	}
	return m
}

type eventRow struct {
	EventID int64  `db:"event_id"`
	Tag     string `db:"tag"`
	Player  string `db:"player"`
	StartMs int64  `db:"start_ms"`
	EndMs   int64  `db:"end_ms"`
	matchRow
}

func (r eventRow) toEvent() EventWithMatch {
	match := r.matchRow.toMatch()
	return EventWithMatch{
		Event: Event{
			ID:      r.EventID,
			MatchID: match.ID,
			Tag:     r.Tag,
			Player:  r.Player,
			StartMs: r.StartMs,
			EndMs:   r.EndMs,
		},
		Match: match,
	}
}

type userRow struct {
	ID           int64          `db:"id"`
	Email        string         `db:"email"`
	PasswordHash string         `db:"password_hash"`
	Role         string         `db:"role"`
	TeamID       sql.NullInt64  `db:"team_id"`
	TeamName     sql.NullString `db:"team_name"`
	CreatedAt    sql.NullString `db:"created_at"`
}

func (r userRow) toUser() User {
	u := User{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Role:         r.Role,
		TeamName:     r.TeamName.String,
	}
	if r.TeamID.Valid {
		id := r.TeamID.Int64
		u.TeamID = &id
	}
	if created, err := parseTimeString(r.CreatedAt.String); err == nil {
		u.CreatedAt = created
	}
	return u
}

func nowString() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt64(value *int64) any {
	if value == nil {
		return nil
	}
	return *value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

// normalizeDate trims driver-added time components from a stored date.
func normalizeDate(value string) string {
	value = strings.TrimSpace(value)
	if len(value) > 10 {
		return value[:10]
	}
	return value
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", count), ",")
}

func statusArgs(statuses []Status) []any {
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = string(status)
	}
	return args
}
