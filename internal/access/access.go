package access

import (
	"fmt"
	"strings"

	"matchreel/internal/services"
	"matchreel/internal/store"
)

// Role is a closed set of account roles.
type Role int

const (
	// RoleMember is stored as "user" and sees only its team's matches.
	RoleMember Role = iota + 1
	RoleAdmin
)

// ParseRole accepts exactly "admin" and "user".
func ParseRole(value string) (Role, error) {
	switch strings.TrimSpace(value) {
	case "admin":
		return RoleAdmin, nil
	case "user":
		return RoleMember, nil
	default:
		return 0, services.Wrap(services.ErrValidation, "access", "parse role", fmt.Sprintf("unknown role %q", value), nil)
	}
}

// String returns the stored form of the role.
func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleMember:
		return "user"
	default:
		return "invalid"
	}
}

// Viewer identifies who is asking.
type Viewer struct {
	UserID int64
	Email  string
	Role   Role
	TeamID *int64
}

// IsAdmin reports whether the viewer holds the admin role.
func (v Viewer) IsAdmin() bool {
	return v.Role == RoleAdmin
}

// ViewerFromUser converts a stored account into a Viewer, rejecting unknown
// role strings.
func ViewerFromUser(u *store.User) (Viewer, error) {
	if u == nil {
		return Viewer{}, services.Wrap(services.ErrUnauthenticated, "access", "viewer", "no such user", nil)
	}
	role, err := ParseRole(u.Role)
	if err != nil {
		return Viewer{}, err
	}
	return Viewer{UserID: u.ID, Email: u.Email, Role: role, TeamID: u.TeamID}, nil
}

// Operator is the local administrator identity used by CLI commands and the
// background reconciliation timer.
func Operator() Viewer {
	return Viewer{Email: "operator@localhost", Role: RoleAdmin}
}

// RequireAdmin fails with services.ErrForbidden for non-admin viewers.
func RequireAdmin(v Viewer, operation string) error {
	if v.IsAdmin() {
		return nil
	}
	return services.Wrap(services.ErrForbidden, "access", operation, "admin role required", nil)
}

type scopeKind int

const (
	scopeNone scopeKind = iota
	scopeAll
	scopeTeam
)

// Scope is the visibility predicate over matches.
type Scope struct {
	kind   scopeKind
	teamID int64
}

// All sees every match.
func All() Scope { return Scope{kind: scopeAll} }

// Team sees one team's matches.
func Team(id int64) Scope { return Scope{kind: scopeTeam, teamID: id} }

// None sees nothing.
func None() Scope { return Scope{kind: scopeNone} }

// Visibility maps a viewer to its scope: admins see everything, members
// their team, and members without a team nothing (an empty result, not an
// error).
func Visibility(v Viewer) Scope {
	switch {
	case v.Role == RoleAdmin:
		return All()
	case v.Role == RoleMember && v.TeamID != nil:
		return Team(*v.TeamID)
	default:
		return None()
	}
}

// AllowsMatch evaluates the predicate in Go.
func (s Scope) AllowsMatch(m *store.Match) bool {
	if m == nil {
		return false
	}
	switch s.kind {
	case scopeAll:
		return true
	case scopeTeam:
		return m.TeamID == s.teamID
	default:
		return false
	}
}

// AllowsEvents reports whether the match's events are visible: in scope and
// ready.
func (s Scope) AllowsEvents(m *store.Match) bool {
	return s.AllowsMatch(m) && m.Playable()
}

// SQL renders the predicate against a team id column.
func (s Scope) SQL(teamColumn string) (string, []any) {
	switch s.kind {
	case scopeAll:
		return "1=1", nil
	case scopeTeam:
		return teamColumn + " = ?", []any{s.teamID}
	default:
		return "1=0", nil
	}
}

// String describes the scope for logs.
func (s Scope) String() string {
	switch s.kind {
	case scopeAll:
		return "all"
	case scopeTeam:
		return fmt.Sprintf("team:%d", s.teamID)
	default:
		return "none"
	}
}

// Policy applies configurable visibility rules on top of Scope.
type Policy struct {
	// PlaceholdersVisible lets members list their team's pending matches.
	PlaceholdersVisible bool
}

// MatchStatuses returns the statuses a viewer may list. A nil result means
// every status.
func (p Policy) MatchStatuses(v Viewer) []store.Status {
	if v.IsAdmin() || p.PlaceholdersVisible {
		return nil
	}
	return []store.Status{store.StatusReady}
}

// CanSeeMatch combines scope and placeholder rules for a single match.
func (p Policy) CanSeeMatch(v Viewer, m *store.Match) bool {
	if !Visibility(v).AllowsMatch(m) {
		return false
	}
	return v.IsAdmin() || p.PlaceholdersVisible || m.Playable()
}
