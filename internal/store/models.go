package store

import (
	"fmt"
	"strings"
	"time"
)

// Status represents a match's lifecycle state.
type Status string

const (
	StatusUploading  Status = "uploading"
	StatusProcessing Status = "processing"
	StatusReady      Status = "ready"
)

// PendingStatuses lists the states reconciliation must still resolve.
var PendingStatuses = []Status{StatusUploading, StatusProcessing}

// IsPending reports whether the match has not reached ready yet. Uploading
// and processing are treated identically.
func (s Status) IsPending() bool {
	return s == StatusUploading || s == StatusProcessing
}

// ParseStatus converts a stored value into a Status.
func ParseStatus(value string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(value))) {
	case StatusUploading:
		return StatusUploading, nil
	case StatusProcessing:
		return StatusProcessing, nil
	case StatusReady:
		return StatusReady, nil
	default:
		return "", fmt.Errorf("unknown match status %q", value)
	}
}

// Team groups users and owns matches. Teams are never deleted.
type Team struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// User is an account. Role holds the stored role string; callers convert it
// with access.ParseRole.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Role         string
	TeamID       *int64
	TeamName     string
	CreatedAt    time.Time
}

// Match is one recorded game and its hosted video.
type Match struct {
	ID         int64
	Opponent   string
	MatchDate  string // YYYY-MM-DD, empty when unknown
	TeamID     int64
	TeamName   string
	AssetID    string // Mux upload id until ready, then the asset id
	PlaybackID string
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Playable reports whether the match may be streamed.
func (m *Match) Playable() bool {
	return m != nil && m.Status == StatusReady && m.PlaybackID != ""
}

// Event is a tagged time range inside a match.
type Event struct {
	ID      int64
	MatchID int64
	Tag     string
	Player  string
	StartMs int64
	EndMs   int64
}

// EventWithMatch pairs an event with its owning match.
type EventWithMatch struct {
	Event
	Match Match
}

// Session is an opaque login token.
type Session struct {
	Token     string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return s == nil || !now.Before(s.ExpiresAt)
}

// NewMatch describes a match to insert alongside its events.
type NewMatch struct {
	TeamName  string
	Opponent  string
	MatchDate string
	AssetID   string
	Status    Status
}

// NewEvent describes an event row to insert.
type NewEvent struct {
	Tag     string
	Player  string
	StartMs int64
	EndMs   int64
}
