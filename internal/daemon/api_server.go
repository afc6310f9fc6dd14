package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"matchreel/internal/access"
	"matchreel/internal/api"
	"matchreel/internal/config"
	"matchreel/internal/ingest"
	"matchreel/internal/logging"
	"matchreel/internal/services"
)

const multipartMemory = 32 << 20

type apiServer struct {
	bind      string
	logger    *slog.Logger
	daemon    *Daemon
	maxUpload int64

	handler  http.Handler
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, errors.New("api server requires config and daemon")
	}
	srv := &apiServer{
		bind:      strings.TrimSpace(cfg.API.Bind),
		logger:    logging.NewComponentLogger(logger, "api"),
		daemon:    d,
		maxUpload: int64(cfg.API.MaxUploadMiB) << 20,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(srv.requestID)
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", srv.handleHealth)
		r.Post("/login", srv.handleLogin)
		r.Post("/register", srv.handleRegister)

		r.Group(func(r chi.Router) {
			r.Use(srv.authenticate)
			r.Post("/logout", srv.handleLogout)
			r.Get("/me", srv.handleMe)
			r.Get("/matches", srv.handleMatches)
			r.Delete("/matches/{id}", srv.handleDeleteMatch)
			r.Get("/matches/{id}/events", srv.handleMatchEvents)
			r.Get("/events", srv.handleEvents)
			r.Get("/tags", srv.handleTags)
			r.Post("/ingest", srv.handleIngest)
			r.Post("/sync", srv.handleSync)
			r.Get("/users", srv.handleUsers)
			r.Put("/users/{id}/team", srv.handleAssignTeam)
			r.Get("/teams", srv.handleTeams)
		})
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.API.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}).Handler(r)
	srv.handler = h2c.NewHandler(corsHandler, &http2.Server{})

	srv.server = &http.Server{
		Handler:           srv.handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s.bind == "" {
		s.log().Info("api server disabled; no bind address configured")
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) address() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.bind
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.daemon.store
	resp := api.HealthResponse{Status: "ok", Database: string(st.Dialect())}
	if err := st.Ping(r.Context()); err != nil {
		s.log().Warn("health check failed", logging.Error(err))
		resp.Status = "degraded"
		s.writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	if version, err := st.SchemaVersion(); err == nil {
		resp.SchemaVersion = version.Version
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	sess, err := s.daemon.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.LoginResponse{
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt.UTC().Format(time.RFC3339),
		Viewer:    api.FromViewer(sess.Viewer),
	})
}

// handleRegister creates a member account. Admins are created from the CLI.
func (s *apiServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	user, err := s.daemon.auth.Register(r.Context(), req.Email, req.Password, access.RoleMember)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, api.UserResponse{User: api.FromUser(*user)})
}

func (s *apiServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.daemon.auth.Logout(r.Context(), bearerToken(r)); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) handleMe(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, api.FromViewer(viewerFrom(r.Context())))
}

func (s *apiServer) handleMatches(w http.ResponseWriter, r *http.Request) {
	views, err := s.daemon.timeline.ListMatches(r.Context(), viewerFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.MatchListResponse{Matches: api.FromMatchViews(views)})
}

func (s *apiServer) handleMatchEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	entries, err := s.daemon.timeline.MatchEvents(r.Context(), viewerFrom(r.Context()), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.EventListResponse{Events: api.FromEntries(entries)})
}

func (s *apiServer) handleDeleteMatch(w http.ResponseWriter, r *http.Request) {
	if err := access.RequireAdmin(viewerFrom(r.Context()), "delete match"); err != nil {
		s.writeError(w, r, err)
		return
	}
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	deleted, err := s.daemon.store.DeleteMatch(r.Context(), id)
	if err != nil {
		s.writeError(w, r, services.Wrap(services.ErrPersistence, "api", "delete match", "delete", err))
		return
	}
	if !deleted {
		s.writeError(w, r, services.Wrap(services.ErrNotFound, "api", "delete match", "no such match", nil))
		return
	}
	s.log().Info("match deleted", logging.Int64(logging.FieldMatchID, id))
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	entries, err := s.daemon.timeline.ListEvents(r.Context(), viewerFrom(r.Context()), r.URL.Query().Get("tag"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.EventListResponse{Events: api.FromEntries(entries)})
}

func (s *apiServer) handleTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.daemon.timeline.ListTags(r.Context(), viewerFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.TagListResponse{Tags: tags})
}

func (s *apiServer) handleIngest(w http.ResponseWriter, r *http.Request) {
	viewer := viewerFrom(r.Context())
	if err := access.RequireAdmin(viewer, "ingest"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if s.daemon.ingest == nil {
		s.writeError(w, r, errMuxUnconfigured("ingest"))
		return
	}
	if s.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		s.writeError(w, r, services.Wrap(services.ErrValidation, "api", "ingest", "parse multipart form", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	video, header, err := r.FormFile("video")
	if err != nil {
		s.writeError(w, r, services.Wrap(services.ErrValidation, "api", "ingest", "video file is required", err))
		return
	}
	defer video.Close()

	var eventLog []byte
	if logFile, _, err := r.FormFile("log"); err == nil {
		defer logFile.Close()
		eventLog, err = io.ReadAll(logFile)
		if err != nil {
			s.writeError(w, r, services.Wrap(services.ErrValidation, "api", "ingest", "read event log", err))
			return
		}
	}

	match, err := s.daemon.ingest.Ingest(r.Context(), viewer, ingest.Request{
		TeamName:  r.FormValue("team"),
		Opponent:  r.FormValue("opponent"),
		MatchDate: r.FormValue("date"),
		Video:     video,
		VideoSize: header.Size,
		EventLog:  eventLog,
	})
	if err != nil {
		if ie, ok := ingest.AsError(err); ok && ie.Orphaned() {
			s.daemon.announceOrphan(ie.UploadID, ie.Err)
		}
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, api.MatchResponse{Match: api.FromMatch(*match, "")})
}

func (s *apiServer) handleSync(w http.ResponseWriter, r *http.Request) {
	viewer := viewerFrom(r.Context())
	if err := access.RequireAdmin(viewer, "sync"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if s.daemon.engine == nil {
		s.writeError(w, r, errMuxUnconfigured("sync"))
		return
	}
	summary, err := s.daemon.engine.ReconcileAll(r.Context(), viewer)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.daemon.announce(summary)
	s.writeJSON(w, http.StatusOK, api.FromSummary(summary))
}

func (s *apiServer) handleUsers(w http.ResponseWriter, r *http.Request) {
	if err := access.RequireAdmin(viewerFrom(r.Context()), "list users"); err != nil {
		s.writeError(w, r, err)
		return
	}
	users, err := s.daemon.store.ListUsers(r.Context())
	if err != nil {
		s.writeError(w, r, services.Wrap(services.ErrPersistence, "api", "list users", "query", err))
		return
	}
	s.writeJSON(w, http.StatusOK, api.UserListResponse{Users: api.FromUsers(users)})
}

func (s *apiServer) handleAssignTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req api.AssignTeamRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	user, err := s.daemon.auth.AssignTeam(r.Context(), viewerFrom(r.Context()), id, req.Team)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.UserResponse{User: api.FromUser(*user)})
}

func (s *apiServer) handleTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := s.daemon.store.ListTeams(r.Context())
	if err != nil {
		s.writeError(w, r, services.Wrap(services.ErrPersistence, "api", "list teams", "query", err))
		return
	}
	s.writeJSON(w, http.StatusOK, api.TeamListResponse{Teams: api.FromTeams(teams)})
}

func (s *apiServer) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, r, services.Wrap(services.ErrValidation, "api", "parse id", "invalid id "+strconv.Quote(raw), nil))
		return 0, false
	}
	return id, true
}

func (s *apiServer) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		s.writeError(w, r, services.Wrap(services.ErrValidation, "api", "decode body", "invalid json body", err))
		return false
	}
	return true
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(payload); err != nil {
		s.log().Warn("failed to encode api response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := api.StatusFor(err)
	logger := logging.WithContext(r.Context(), s.log())
	if status >= http.StatusInternalServerError {
		logging.ErrorWithContext(logger, "api request failed", "api_error",
			logging.String("path", r.URL.Path),
			logging.Int("status", status),
			logging.Error(err))
	} else {
		logger.Debug("api request rejected",
			logging.String("path", r.URL.Path),
			logging.Int("status", status),
			logging.Error(err))
	}
	s.writeJSON(w, status, api.NewErrorResponse(err))
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return logging.NewNop()
}

func errMuxUnconfigured(operation string) error {
	return services.Wrap(services.ErrConfiguration, "api", operation, "mux credentials are not configured", nil)
}
