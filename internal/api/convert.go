package api

import (
	"time"

	"matchreel/internal/access"
	"matchreel/internal/reconcile"
	"matchreel/internal/store"
	"matchreel/internal/timeline"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

// FromMatch converts a stored match. Pending matches are placeholders.
func FromMatch(m store.Match, playbackURL string) Match {
	dto := Match{
		ID:          m.ID,
		Team:        m.TeamName,
		TeamID:      m.TeamID,
		Opponent:    m.Opponent,
		MatchDate:   m.MatchDate,
		Status:      string(m.Status),
		Placeholder: !m.Playable(),
		AssetID:     m.AssetID,
		CreatedAt:   formatTime(m.CreatedAt),
		UpdatedAt:   formatTime(m.UpdatedAt),
	}
	if m.Playable() {
		dto.PlaybackURL = playbackURL
	}
	return dto
}

// FromMatchViews converts timeline match listings.
func FromMatchViews(views []timeline.MatchView) []Match {
	out := make([]Match, 0, len(views))
	for _, v := range views {
		out = append(out, FromMatch(v.Match, v.PlaybackURL))
	}
	return out
}

// FromEntries converts timeline entries.
func FromEntries(entries []timeline.Entry) []Event {
	out := make([]Event, 0, len(entries))
	for _, e := range entries {
		out = append(out, Event{
			ID:          e.Event.ID,
			MatchID:     e.Match.ID,
			Tag:         e.Event.Tag,
			Player:      e.Event.Player,
			StartMs:     e.Event.StartMs,
			EndMs:       e.Event.EndMs,
			SeekSeconds: e.SeekSeconds,
			PlaybackURL: e.PlaybackURL,
			Team:        e.Match.TeamName,
			Opponent:    e.Match.Opponent,
			MatchDate:   e.Match.MatchDate,
		})
	}
	return out
}

// FromUser converts an account, dropping its digest.
func FromUser(u store.User) User {
	return User{ID: u.ID, Email: u.Email, Role: u.Role, TeamID: u.TeamID, Team: u.TeamName}
}

// FromUsers converts a slice of accounts.
func FromUsers(users []store.User) []User {
	out := make([]User, 0, len(users))
	for _, u := range users {
		out = append(out, FromUser(u))
	}
	return out
}

// FromTeams converts a team listing.
func FromTeams(teams []store.Team) []Team {
	out := make([]Team, 0, len(teams))
	for _, t := range teams {
		out = append(out, Team{ID: t.ID, Name: t.Name})
	}
	return out
}

// FromViewer converts the caller identity.
func FromViewer(v access.Viewer) Viewer {
	return Viewer{UserID: v.UserID, Email: v.Email, Role: v.Role.String(), TeamID: v.TeamID}
}

// FromSummary converts a reconciliation pass.
func FromSummary(s reconcile.Summary) SyncSummary {
	dto := SyncSummary{
		Idle:         s.Idle,
		Checked:      s.Checked,
		Transitioned: s.Transitioned,
		Pending:      s.Pending,
		Failed:       s.Failed,
		Results:      make([]SyncResult, 0, len(s.Results)),
	}
	for _, r := range s.Results {
		res := SyncResult{
			MatchID:      r.MatchID,
			Outcome:      r.Outcome.String(),
			Transitioned: r.Transitioned,
			PlaybackID:   r.PlaybackID,
			Reason:       r.Reason,
		}
		if r.Err != nil {
			res.Error = r.Err.Error()
		}
		dto.Results = append(dto.Results, res)
	}
	return dto
}
