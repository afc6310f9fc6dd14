package access_test

import (
	"errors"
	"testing"

	"matchreel/internal/access"
	"matchreel/internal/services"
	"matchreel/internal/store"
)

func ptr(v int64) *int64 { return &v }

func TestParseRoleIsClosed(t *testing.T) {
	if r, err := access.ParseRole("admin"); err != nil || r != access.RoleAdmin {
		t.Fatalf("ParseRole(admin) = %v, %v", r, err)
	}
	if r, err := access.ParseRole("user"); err != nil || r != access.RoleMember {
		t.Fatalf("ParseRole(user) = %v, %v", r, err)
	}
	for _, bad := range []string{"Admin", "superuser", "", "member"} {
		if _, err := access.ParseRole(bad); !errors.Is(err, services.ErrValidation) {
			t.Fatalf("ParseRole(%q) should fail validation, got %v", bad, err)
		}
	}
}

func TestVisibility(t *testing.T) {
	teamA := &store.Match{ID: 1, TeamID: 1, Status: store.StatusReady, PlaybackID: "p"}
	teamB := &store.Match{ID: 2, TeamID: 2, Status: store.StatusProcessing}

	admin := access.Viewer{Role: access.RoleAdmin}
	member := access.Viewer{Role: access.RoleMember, TeamID: ptr(1)}
	orphan := access.Viewer{Role: access.RoleMember}

	tests := []struct {
		name   string
		viewer access.Viewer
		match  *store.Match
		want   bool
	}{
		{"admin sees other team", admin, teamB, true},
		{"member sees own team", member, teamA, true},
		{"member blocked from other team", member, teamB, false},
		{"teamless member sees nothing", orphan, teamA, false},
	}
	for _, tc := range tests {
		if got := access.Visibility(tc.viewer).AllowsMatch(tc.match); got != tc.want {
			t.Fatalf("%s: got %v want %v", tc.name, got, tc.want)
		}
	}

	if access.Visibility(admin).AllowsEvents(teamB) {
		t.Fatal("events of pending matches must stay hidden, even for admins")
	}
	if !access.Visibility(member).AllowsEvents(teamA) {
		t.Fatal("member should see events of own ready match")
	}
}

func TestScopeSQL(t *testing.T) {
	if q, args := access.All().SQL("m.team_id"); q != "1=1" || len(args) != 0 {
		t.Fatalf("All().SQL = %q %v", q, args)
	}
	if q, args := access.Team(7).SQL("m.team_id"); q != "m.team_id = ?" || len(args) != 1 || args[0] != int64(7) {
		t.Fatalf("Team(7).SQL = %q %v", q, args)
	}
	if q, _ := access.None().SQL("m.team_id"); q != "1=0" {
		t.Fatalf("None().SQL = %q", q)
	}
}

func TestRequireAdmin(t *testing.T) {
	if err := access.RequireAdmin(access.Operator(), "sync"); err != nil {
		t.Fatalf("operator should pass: %v", err)
	}
	err := access.RequireAdmin(access.Viewer{Role: access.RoleMember}, "sync")
	if !errors.Is(err, services.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestPolicyPlaceholders(t *testing.T) {
	member := access.Viewer{Role: access.RoleMember, TeamID: ptr(1)}
	pending := &store.Match{TeamID: 1, Status: store.StatusProcessing}

	visible := access.Policy{PlaceholdersVisible: true}
	if !visible.CanSeeMatch(member, pending) || visible.MatchStatuses(member) != nil {
		t.Fatal("placeholders should be listed when enabled")
	}
	hidden := access.Policy{PlaceholdersVisible: false}
	if hidden.CanSeeMatch(member, pending) {
		t.Fatal("placeholders should be hidden for members when disabled")
	}
	if got := hidden.MatchStatuses(member); len(got) != 1 || got[0] != store.StatusReady {
		t.Fatalf("unexpected statuses: %v", got)
	}
	if !hidden.CanSeeMatch(access.Operator(), pending) {
		t.Fatal("admins always see pending matches")
	}
}

func TestViewerFromUserRejectsUnknownRole(t *testing.T) {
	if _, err := access.ViewerFromUser(&store.User{ID: 1, Role: "root"}); err == nil {
		t.Fatal("expected unknown role to be rejected")
	}
	v, err := access.ViewerFromUser(&store.User{ID: 2, Email: "a@b", Role: "user", TeamID: ptr(3)})
	if err != nil {
		t.Fatalf("ViewerFromUser failed: %v", err)
	}
	if v.Role != access.RoleMember || *v.TeamID != 3 {
		t.Fatalf("unexpected viewer: %+v", v)
	}
}
