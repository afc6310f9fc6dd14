package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Match describes a match in a transport-friendly format.
type Match struct {
	ID          int64  `json:"id"`
	Team        string `json:"team"`
	TeamID      int64  `json:"teamId"`
	Opponent    string `json:"opponent"`
	MatchDate   string `json:"matchDate,omitempty"`
	Status      string `json:"status"`
	Placeholder bool   `json:"placeholder"`
	PlaybackURL string `json:"playbackUrl,omitempty"`
	AssetID     string `json:"assetId,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

// Event is one playable tagged moment.
type Event struct {
	ID          int64  `json:"id"`
	MatchID     int64  `json:"matchId"`
	Tag         string `json:"tag"`
	Player      string `json:"player"`
	StartMs     int64  `json:"startMs"`
	EndMs       int64  `json:"endMs"`
	SeekSeconds int64  `json:"seekSeconds"`
	PlaybackURL string `json:"playbackUrl"`
	Team        string `json:"team"`
	Opponent    string `json:"opponent"`
	MatchDate   string `json:"matchDate,omitempty"`
}

// User is an account without its digest.
type User struct {
	ID     int64  `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	TeamID *int64 `json:"teamId,omitempty"`
	Team   string `json:"team,omitempty"`
}

// Team is a team listing entry.
type Team struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Viewer describes the caller.
type Viewer struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	TeamID *int64 `json:"teamId,omitempty"`
}

// SyncResult is the outcome for one match in a reconciliation pass.
type SyncResult struct {
	MatchID      int64  `json:"matchId"`
	Outcome      string `json:"outcome"`
	Transitioned bool   `json:"transitioned"`
	PlaybackID   string `json:"playbackId,omitempty"`
	Reason       string `json:"reason,omitempty"`
	Error        string `json:"error,omitempty"`
}

// SyncSummary aggregates a reconciliation pass.
type SyncSummary struct {
	Idle         bool         `json:"idle"`
	Checked      int          `json:"checked"`
	Transitioned int          `json:"transitioned"`
	Pending      int          `json:"pending"`
	Failed       int          `json:"failed"`
	Results      []SyncResult `json:"results"`
}

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
	Viewer    Viewer `json:"viewer"`
}

// AssignTeamRequest is the body of PUT /api/users/{id}/team.
type AssignTeamRequest struct {
	Team string `json:"team"`
}

// MatchListResponse wraps a collection of matches.
type MatchListResponse struct {
	Matches []Match `json:"matches"`
}

// MatchResponse wraps a single match.
type MatchResponse struct {
	Match Match `json:"match"`
}

// EventListResponse wraps a collection of events.
type EventListResponse struct {
	Events []Event `json:"events"`
}

// TagListResponse wraps the tag vocabulary.
type TagListResponse struct {
	Tags []string `json:"tags"`
}

// UserListResponse wraps a collection of users.
type UserListResponse struct {
	Users []User `json:"users"`
}

// UserResponse wraps a single user.
type UserResponse struct {
	User User `json:"user"`
}

// TeamListResponse wraps a collection of teams.
type TeamListResponse struct {
	Teams []Team `json:"teams"`
}

// HealthResponse reports liveness.
type HealthResponse struct {
	Status        string `json:"status"`
	Database      string `json:"database"`
	SchemaVersion uint   `json:"schemaVersion"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	// Uploaded is set when the video reached the provider even though the
	// request failed.
	Uploaded bool   `json:"uploaded,omitempty"`
	UploadID string `json:"uploadId,omitempty"`
	// Retry is set when resubmitting the same request is safe.
	Retry bool `json:"retry,omitempty"`
}
