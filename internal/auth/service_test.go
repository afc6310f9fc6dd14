package auth_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"matchreel/internal/access"
	"matchreel/internal/auth"
	"matchreel/internal/logging"
	"matchreel/internal/services"
	"matchreel/internal/store"
	"matchreel/internal/testsupport"
)

func newService(t *testing.T) (*auth.Service, *store.Store, *clockwork.FakeClock) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	svc := auth.NewService(st, auth.Options{
		SessionTTL: time.Hour,
		BcryptCost: cfg.Auth.BcryptCost,
		Clock:      clock,
		Logger:     logging.NewNop(),
	})
	return svc, st, clock
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Coach@Example.com", "s3cret", access.RoleMember)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Role != "user" || user.Email != "coach@example.com" || strings.HasPrefix(user.PasswordHash, "s3cret") {
		t.Fatalf("unexpected user: %+v", user)
	}

	viewer, err := svc.Authenticate(ctx, "coach@example.com", "s3cret")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if viewer.Role != access.RoleMember || viewer.TeamID != nil {
		t.Fatalf("unexpected viewer: %+v", viewer)
	}
	if _, err := svc.Authenticate(ctx, "coach@example.com", "wrong"); !errors.Is(err, services.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody@example.com", "s3cret"); !errors.Is(err, services.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for unknown user, got %v", err)
	}

	if _, err := svc.Register(ctx, "coach@example.com", "other", access.RoleAdmin); !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if _, err := svc.Register(ctx, "not-an-email", "x", access.RoleMember); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestLegacyDigestIsUpgraded(t *testing.T) {
	svc, st, _ := newService(t)
	ctx := context.Background()
	sum := sha256.Sum256([]byte("old-password"))
	user, err := st.CreateUser(ctx, "legacy@example.com", hex.EncodeToString(sum[:]), "admin", nil)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	viewer, err := svc.Authenticate(ctx, "legacy@example.com", "old-password")
	if err != nil {
		t.Fatalf("Authenticate legacy: %v", err)
	}
	if !viewer.IsAdmin() {
		t.Fatalf("expected admin viewer, got %+v", viewer)
	}
	reloaded, _ := st.UserByID(ctx, user.ID)
	if !strings.HasPrefix(reloaded.PasswordHash, "$2") {
		t.Fatalf("expected bcrypt digest after upgrade, got %q", reloaded.PasswordHash)
	}
	if _, err := svc.Authenticate(ctx, "legacy@example.com", "old-password"); err != nil {
		t.Fatalf("upgraded digest should verify: %v", err)
	}
}

func TestUnknownRoleRejectedAtLogin(t *testing.T) {
	svc, st, _ := newService(t)
	ctx := context.Background()
	hash, _ := auth.HashPassword("pw", 4)
	// The schema CHECK rejects bad roles, so corrupt the value on read.
	if _, err := st.CreateUser(ctx, "odd@example.com", hash, "user", nil); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	corrupt := roleOverride{Store: st, role: "superuser"}
	odd := auth.NewService(corrupt, auth.Options{Logger: logging.NewNop()})
	if _, err := odd.Authenticate(ctx, "odd@example.com", "pw"); !errors.Is(err, services.ErrUnauthenticated) {
		t.Fatalf("expected unknown role to be rejected, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "odd@example.com", "pw"); err != nil {
		t.Fatalf("valid role should authenticate: %v", err)
	}
}

type roleOverride struct {
	*store.Store
	role string
}

func (r roleOverride) UserByEmail(ctx context.Context, email string) (*store.User, error) {
	u, err := r.Store.UserByEmail(ctx, email)
	if u != nil {
		u.Role = r.role
	}
	return u, err
}

func TestAssignTeam(t *testing.T) {
	svc, st, _ := newService(t)
	ctx := context.Background()
	user, err := svc.Register(ctx, "player@example.com", "pw", access.RoleMember)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	team, err := st.EnsureTeam(ctx, "NYCFC")
	if err != nil {
		t.Fatalf("EnsureTeam: %v", err)
	}

	memberViewer := access.Viewer{UserID: user.ID, Role: access.RoleMember}
	if _, err := svc.AssignTeam(ctx, memberViewer, user.ID, "NYCFC"); !errors.Is(err, services.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.AssignTeam(ctx, access.Operator(), user.ID, "Unknown FC"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing team, got %v", err)
	}
	updated, err := svc.AssignTeam(ctx, access.Operator(), user.ID, "NYCFC")
	if err != nil {
		t.Fatalf("AssignTeam: %v", err)
	}
	if updated.TeamID == nil || *updated.TeamID != team.ID || updated.TeamName != "NYCFC" {
		t.Fatalf("unexpected user after assignment: %+v", updated)
	}
	cleared, err := svc.AssignTeam(ctx, access.Operator(), user.ID, "")
	if err != nil || cleared.TeamID != nil {
		t.Fatalf("expected team cleared, got %+v (%v)", cleared, err)
	}
	if _, err := svc.AssignTeam(ctx, access.Operator(), 9999, "NYCFC"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing user, got %v", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	svc, st, clock := newService(t)
	ctx := context.Background()
	if _, err := svc.Register(ctx, "fan@example.com", "pw", access.RoleMember); err != nil {
		t.Fatalf("Register: %v", err)
	}

	sess, err := svc.Login(ctx, "fan@example.com", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sess.Token == "" || !sess.ExpiresAt.Equal(clock.Now().Add(time.Hour)) {
		t.Fatalf("unexpected session: %+v", sess)
	}

	viewer, err := svc.ViewerForToken(ctx, sess.Token)
	if err != nil || viewer.Email != "fan@example.com" {
		t.Fatalf("ViewerForToken = %+v, %v", viewer, err)
	}

	// Team changes apply to live sessions.
	team, _ := st.EnsureTeam(ctx, "NYCFC")
	if _, err := svc.AssignTeam(ctx, access.Operator(), viewer.UserID, team.Name); err != nil {
		t.Fatalf("AssignTeam: %v", err)
	}
	viewer, _ = svc.ViewerForToken(ctx, sess.Token)
	if viewer.TeamID == nil || *viewer.TeamID != team.ID {
		t.Fatalf("expected refreshed team, got %+v", viewer)
	}

	clock.Advance(2 * time.Hour)
	if _, err := svc.ViewerForToken(ctx, sess.Token); !errors.Is(err, services.ErrUnauthenticated) {
		t.Fatalf("expected expired session, got %v", err)
	}

	fresh, err := svc.Login(ctx, "fan@example.com", "pw")
	if err != nil {
		t.Fatalf("second Login: %v", err)
	}
	if err := svc.Logout(ctx, fresh.Token); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := svc.ViewerForToken(ctx, fresh.Token); !errors.Is(err, services.ErrUnauthenticated) {
		t.Fatalf("expected logged-out token to fail, got %v", err)
	}
	if _, err := svc.ViewerForToken(ctx, ""); !errors.Is(err, services.ErrUnauthenticated) {
		t.Fatalf("expected missing token to fail, got %v", err)
	}
}
