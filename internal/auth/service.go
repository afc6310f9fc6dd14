package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"matchreel/internal/access"
	"matchreel/internal/logging"
	"matchreel/internal/services"
	"matchreel/internal/store"
)

// Store is the account persistence auth needs.
type Store interface {
	CreateUser(ctx context.Context, email, passwordHash, role string, teamID *int64) (*store.User, error)
	UserByID(ctx context.Context, id int64) (*store.User, error)
	UserByEmail(ctx context.Context, email string) (*store.User, error)
	UpdatePasswordHash(ctx context.Context, userID int64, hash string) error
	SetUserTeam(ctx context.Context, userID int64, teamID *int64) (bool, error)
	TeamByName(ctx context.Context, name string) (*store.Team, error)
	CreateSession(ctx context.Context, token string, userID int64, expiresAt time.Time) (*store.Session, error)
	SessionByToken(ctx context.Context, token string) (*store.Session, error)
	DeleteSession(ctx context.Context, token string) error
	PurgeExpiredSessions(ctx context.Context, now time.Time) (int, error)
}

// Options configures a Service.
type Options struct {
	SessionTTL time.Duration
	BcryptCost int
	Clock      clockwork.Clock
	Logger     *slog.Logger
}

// Service implements login and account management.
type Service struct {
	store  Store
	ttl    time.Duration
	cost   int
	clock  clockwork.Clock
	logger *slog.Logger
}

var errBadCredentials = services.Wrap(services.ErrUnauthenticated, "auth", "authenticate", "invalid email or password", nil)

// NewService wires an auth service.
func NewService(st Store, opts Options) *Service {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 7 * 24 * time.Hour
	}
	return &Service{
		store:  st,
		ttl:    opts.SessionTTL,
		cost:   opts.BcryptCost,
		clock:  opts.Clock,
		logger: logging.NewComponentLogger(opts.Logger, "auth"),
	}
}

// Authenticate verifies credentials and returns the viewer. Unknown role
// strings are rejected here.
func (s *Service) Authenticate(ctx context.Context, email, password string) (access.Viewer, error) {
	user, err := s.store.UserByEmail(ctx, email)
	if err != nil {
		return access.Viewer{}, services.Wrap(services.ErrPersistence, "auth", "authenticate", "load user", err)
	}
	if user == nil {
		return access.Viewer{}, errBadCredentials
	}
	ok, upgrade := verifyPassword(user.PasswordHash, password)
	if !ok {
		s.logger.Info("login rejected", logging.Int64(logging.FieldUserID, user.ID))
		return access.Viewer{}, errBadCredentials
	}
	viewer, err := access.ViewerFromUser(user)
	if err != nil {
		logging.WarnWithContext(s.logger, "account has unknown role", "unknown_role",
			logging.Int64(logging.FieldUserID, user.ID),
			logging.String("role", user.Role),
			logging.String(logging.FieldErrorHint, "set the role to admin or user"))
		return access.Viewer{}, services.Wrap(services.ErrUnauthenticated, "auth", "authenticate", "account role not recognised", err)
	}
	if upgrade {
		s.upgradeDigest(ctx, user.ID, password)
	}
	return viewer, nil
}

func (s *Service) upgradeDigest(ctx context.Context, userID int64, password string) {
	hash, err := HashPassword(password, s.cost)
	if err == nil {
		err = s.store.UpdatePasswordHash(ctx, userID, hash)
	}
	if err != nil {
		logging.WarnWithContext(s.logger, "legacy digest upgrade failed", "digest_upgrade_failed",
			logging.Int64(logging.FieldUserID, userID),
			logging.Error(err),
			logging.String(logging.FieldImpact, "legacy digest kept until next login"))
		return
	}
	s.logger.Info("legacy password digest upgraded", logging.Int64(logging.FieldUserID, userID))
}

// Register creates an account. Members start without a team.
func (s *Service) Register(ctx context.Context, email, password string, role access.Role) (*store.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, services.Wrap(services.ErrValidation, "auth", "register", "a valid email is required", nil)
	}
	if password == "" {
		return nil, services.Wrap(services.ErrValidation, "auth", "register", "password is required", nil)
	}
	if role != access.RoleAdmin && role != access.RoleMember {
		return nil, services.Wrap(services.ErrValidation, "auth", "register", "unknown role", nil)
	}
	hash, err := HashPassword(password, s.cost)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "auth", "register", "hash password", err)
	}
	user, err := s.store.CreateUser(ctx, email, hash, role.String(), nil)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, services.Wrap(services.ErrConflict, "auth", "register", "email already registered", err)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "auth", "register", "create user", err)
	}
	s.logger.Info("user registered",
		logging.Int64(logging.FieldUserID, user.ID),
		logging.String("role", user.Role))
	return user, nil
}

// AssignTeam moves a user into an existing team. An empty team name clears
// the assignment.
func (s *Service) AssignTeam(ctx context.Context, viewer access.Viewer, userID int64, teamName string) (*store.User, error) {
	if err := access.RequireAdmin(viewer, "assign team"); err != nil {
		return nil, err
	}
	var teamID *int64
	if name := strings.TrimSpace(teamName); name != "" {
		team, err := s.store.TeamByName(ctx, name)
		if err != nil {
			return nil, services.Wrap(services.ErrPersistence, "auth", "assign team", "load team", err)
		}
		if team == nil {
			return nil, services.Wrap(services.ErrNotFound, "auth", "assign team", "no team named "+name, nil)
		}
		teamID = &team.ID
	}
	ok, err := s.store.SetUserTeam(ctx, userID, teamID)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "auth", "assign team", "update user", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "auth", "assign team", "no such user", nil)
	}
	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "auth", "assign team", "reload user", err)
	}
	s.logger.Info("team assigned",
		logging.Int64(logging.FieldUserID, userID),
		logging.String("team", teamName))
	return user, nil
}

// Session is an issued bearer token.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Viewer    access.Viewer
}

// Login authenticates and issues a session token.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	viewer, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	now := s.clock.Now().UTC()
	token := uuid.NewString()
	sess, err := s.store.CreateSession(ctx, token, viewer.UserID, now.Add(s.ttl))
	if err != nil {
		return Session{}, services.Wrap(services.ErrPersistence, "auth", "login", "create session", err)
	}
	if purged, err := s.store.PurgeExpiredSessions(ctx, now); err == nil && purged > 0 {
		s.logger.Debug("expired sessions purged", logging.Int("count", purged))
	}
	return Session{Token: sess.Token, ExpiresAt: sess.ExpiresAt, Viewer: viewer}, nil
}

// ViewerForToken resolves a bearer token. The user is reloaded so role and
// team changes apply to existing sessions.
func (s *Service) ViewerForToken(ctx context.Context, token string) (access.Viewer, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return access.Viewer{}, services.Wrap(services.ErrUnauthenticated, "auth", "session", "missing token", nil)
	}
	sess, err := s.store.SessionByToken(ctx, token)
	if err != nil {
		return access.Viewer{}, services.Wrap(services.ErrPersistence, "auth", "session", "load session", err)
	}
	if sess == nil || sess.Expired(s.clock.Now()) {
		return access.Viewer{}, services.Wrap(services.ErrUnauthenticated, "auth", "session", "session expired or unknown", nil)
	}
	user, err := s.store.UserByID(ctx, sess.UserID)
	if err != nil {
		return access.Viewer{}, services.Wrap(services.ErrPersistence, "auth", "session", "load user", err)
	}
	viewer, err := access.ViewerFromUser(user)
	if err != nil {
		return access.Viewer{}, services.Wrap(services.ErrUnauthenticated, "auth", "session", "account unusable", err)
	}
	return viewer, nil
}

// ViewerForEmail resolves an account without a password, for the local CLI.
func (s *Service) ViewerForEmail(ctx context.Context, email string) (access.Viewer, error) {
	user, err := s.store.UserByEmail(ctx, email)
	if err != nil {
		return access.Viewer{}, services.Wrap(services.ErrPersistence, "auth", "lookup", "load user", err)
	}
	if user == nil {
		return access.Viewer{}, services.Wrap(services.ErrNotFound, "auth", "lookup", "no user "+email, nil)
	}
	return access.ViewerFromUser(user)
}

// Logout revokes a token. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.store.DeleteSession(ctx, strings.TrimSpace(token)); err != nil {
		return services.Wrap(services.ErrPersistence, "auth", "logout", "delete session", err)
	}
	return nil
}
