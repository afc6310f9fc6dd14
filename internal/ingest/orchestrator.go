package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"matchreel/internal/access"
	"matchreel/internal/eventlog"
	"matchreel/internal/logging"
	"matchreel/internal/services"
	"matchreel/internal/services/mux"
	"matchreel/internal/store"
)

// Provider is the part of the video provider ingestion needs.
type Provider interface {
	CreateUpload(ctx context.Context, policy mux.UploadPolicy) (mux.Upload, error)
	Transfer(ctx context.Context, url string, body io.Reader, size int64) error
}

// Store persists a match and its events atomically.
type Store interface {
	CreateMatchWithEvents(ctx context.Context, match store.NewMatch, events []store.NewEvent) (*store.Match, error)
}

// Request is one upload submission.
type Request struct {
	TeamName  string
	Opponent  string
	MatchDate string // optional, YYYY-MM-DD
	Video     io.Reader
	VideoSize int64 // 0 when unknown
	EventLog  []byte
}

// Orchestrator runs ingestion attempts sequentially per call.
type Orchestrator struct {
	provider Provider
	store    Store
	policy   mux.UploadPolicy
	logger   *slog.Logger
}

// NewOrchestrator wires an orchestrator.
func NewOrchestrator(provider Provider, st Store, policy mux.UploadPolicy, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		provider: provider,
		store:    st,
		policy:   policy,
		logger:   logging.NewComponentLogger(logger, "ingest"),
	}
}

// Ingest uploads the video and records the match. On success the match is
// pending (processing) until reconciliation sees a ready asset.
func (o *Orchestrator) Ingest(ctx context.Context, viewer access.Viewer, req Request) (*store.Match, error) {
	if err := access.RequireAdmin(viewer, "ingest"); err != nil {
		return nil, err
	}
	ctx = services.WithOperation(ctx, "ingest")
	logger := logging.WithContext(ctx, o.logger)

	drafts, err := o.validate(req, logger)
	if err != nil {
		return nil, &Error{Stage: StageValidate, Err: err}
	}

	started := time.Now()
	upload, err := o.provider.CreateUpload(ctx, o.policy)
	if err != nil {
		logger.Warn("create upload failed",
			logging.String(logging.FieldEventType, "upload_create_failed"),
			logging.Error(err))
		return nil, &Error{Stage: StageCreateUpload, Err: providerError("create upload", err)}
	}
	logger = logger.With(logging.String(logging.FieldUploadID, upload.ID))
	logger.Debug("upload created")

	if err := o.provider.Transfer(ctx, upload.URL, req.Video, req.VideoSize); err != nil {
		logger.Warn("video transfer failed",
			logging.String(logging.FieldEventType, "upload_transfer_failed"),
			logging.Error(err))
		return nil, &Error{Stage: StageTransfer, UploadID: upload.ID, Err: providerError("transfer", err)}
	}
	logger.Info("video transferred",
		logging.Int64("bytes", req.VideoSize),
		logging.Duration("elapsed", time.Since(started)))

	events := make([]store.NewEvent, 0, len(drafts))
	for _, d := range drafts {
		events = append(events, store.NewEvent{Tag: d.Tag, Player: d.Player, StartMs: d.StartMs, EndMs: d.EndMs})
	}
	// The transfer already happened, so a cancelled request must not stop
	// the write that makes the upload reachable.
	persistCtx := context.WithoutCancel(ctx)
	match, err := o.store.CreateMatchWithEvents(persistCtx, store.NewMatch{
		TeamName:  strings.TrimSpace(req.TeamName),
		Opponent:  strings.TrimSpace(req.Opponent),
		MatchDate: strings.TrimSpace(req.MatchDate),
		AssetID:   upload.ID,
		Status:    store.StatusProcessing,
	}, events)
	if err != nil {
		logging.ErrorWithContext(logger, "match not recorded after upload", "orphaned_upload",
			logging.String(logging.FieldErrorHint, "delete the upload in the Mux dashboard or re-run ingest"),
			logging.String(logging.FieldImpact, "video stored remotely without a match"),
			logging.Error(err))
		wrapped := services.Wrap(services.ErrOrphanedUpload, "ingest", "persist", "upload "+upload.ID+" has no match", errors.Join(services.ErrPersistence, err))
		return nil, &Error{Stage: StagePersist, UploadID: upload.ID, Transferred: true, Err: wrapped}
	}

	logger.Info("match ingested",
		logging.Int64(logging.FieldMatchID, match.ID),
		logging.String("team", match.TeamName),
		logging.String("opponent", match.Opponent),
		logging.Int("events", len(events)),
		logging.String(logging.FieldEventType, "match_ingested"))
	return match, nil
}

func (o *Orchestrator) validate(req Request, logger *slog.Logger) ([]eventlog.Draft, error) {
	var missing []string
	if strings.TrimSpace(req.TeamName) == "" {
		missing = append(missing, "team name")
	}
	if strings.TrimSpace(req.Opponent) == "" {
		missing = append(missing, "opponent")
	}
	if req.Video == nil {
		missing = append(missing, "video")
	}
	if len(req.EventLog) == 0 {
		missing = append(missing, "event log")
	}
	if len(missing) > 0 {
		return nil, services.Wrap(services.ErrValidation, "ingest", "validate", "missing "+strings.Join(missing, ", "), nil)
	}
	if date := strings.TrimSpace(req.MatchDate); date != "" {
		if _, err := time.Parse(time.DateOnly, date); err != nil {
			return nil, services.Wrap(services.ErrValidation, "ingest", "validate", fmt.Sprintf("match date %q is not YYYY-MM-DD", date), nil)
		}
	}

	res, err := eventlog.ParseDetailed(req.EventLog)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "ingest", "parse event log", "unreadable export", err)
	}
	if res.Skipped > 0 {
		logging.WarnWithContext(logger, "event log instances skipped", "event_log_instances_skipped",
			logging.Int("instances", res.Instances),
			logging.Int("skipped", res.Skipped),
			logging.String(logging.FieldErrorHint, "check start/end values in the export"),
			logging.String(logging.FieldImpact, "skipped instances will not appear on the timeline"))
	}
	if err := checkDrafts(res.Drafts); err != nil {
		return nil, err
	}
	logger.Debug("event log parsed",
		logging.String("encoding", res.Encoding),
		logging.Int("events", len(res.Drafts)))
	return res.Drafts, nil
}

// checkDrafts enforces the events table constraints before any remote call,
// so a log that validates can always be persisted.
func checkDrafts(drafts []eventlog.Draft) error {
	for i, d := range drafts {
		if d.StartMs < 0 || d.EndMs < d.StartMs {
			return services.Wrap(services.ErrValidation, "ingest", "validate",
				fmt.Sprintf("event %d has invalid times (start %d ms, end %d ms)", i+1, d.StartMs, d.EndMs), nil)
		}
	}
	return nil
}

func providerError(operation string, err error) error {
	if errors.Is(err, services.ErrProvider) {
		return err
	}
	return services.Wrap(services.ErrProvider, "ingest", operation, "provider call failed", err)
}
