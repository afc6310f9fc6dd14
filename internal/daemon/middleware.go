package daemon

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"matchreel/internal/access"
	"matchreel/internal/services"
)

type viewerKey struct{}

const requestIDHeader = "X-Request-ID"

// requestID tags each request with a correlation id, reusing the caller's
// header when present.
func (s *apiServer) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(services.WithRequestID(r.Context(), id)))
	})
}

// authenticate requires "Authorization: Bearer <token>" naming a live
// session and stores the resolved viewer in the request context.
func (s *apiServer) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		viewer, err := s.daemon.auth.ViewerForToken(r.Context(), bearerToken(r))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), viewerKey{}, viewer)))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// viewerFrom returns the authenticated viewer. Handlers behind authenticate
// always have one; the zero Viewer sees nothing.
func viewerFrom(ctx context.Context) access.Viewer {
	viewer, _ := ctx.Value(viewerKey{}).(access.Viewer)
	return viewer
}
