package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"matchreel/internal/access"
	"matchreel/internal/logging"
	"matchreel/internal/services"
	"matchreel/internal/services/mux"
	"matchreel/internal/store"
)

// Provider is the read side of the video provider.
type Provider interface {
	ResolveAsset(ctx context.Context, uploadID string) (string, bool, error)
	AssetStatus(ctx context.Context, assetID string) (mux.Asset, error)
}

// Store is the persistence reconciliation needs.
type Store interface {
	PendingMatches(ctx context.Context) ([]store.Match, error)
	MarkReady(ctx context.Context, id int64, assetID, playbackID string) (bool, error)
}

// Outcome classifies one match's reconciliation.
type Outcome int

const (
	Pending Outcome = iota
	Resolved
	TransientFailure
)

func (o Outcome) String() string {
	switch o {
	case Resolved:
		return "resolved"
	case Pending:
		return "pending"
	case TransientFailure:
		return "transient_failure"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the outcome for one match.
type Result struct {
	MatchID    int64
	Outcome    Outcome
	AssetID    string
	PlaybackID string
	// Transitioned is false when a concurrent pass already marked the match
	// ready.
	Transitioned bool
	Reason       string
	Err          error
}

// Summary aggregates a pass.
type Summary struct {
	Checked      int
	Transitioned int
	Pending      int
	Failed       int
	// Idle is set when nothing was pending.
	Idle    bool
	Results []Result
}

// Engine runs reconciliation passes.
type Engine struct {
	provider Provider
	store    Store
	logger   *slog.Logger
}

// NewEngine wires an engine.
func NewEngine(provider Provider, st Store, logger *slog.Logger) *Engine {
	return &Engine{
		provider: provider,
		store:    st,
		logger:   logging.NewComponentLogger(logger, "reconcile"),
	}
}

// ReconcileAll checks every pending match in id order. A failure on one match
// never aborts the pass; cancellation does, leaving untouched matches
// pending.
func (e *Engine) ReconcileAll(ctx context.Context, viewer access.Viewer) (Summary, error) {
	if err := access.RequireAdmin(viewer, "reconcile"); err != nil {
		return Summary{}, err
	}
	ctx = services.WithOperation(ctx, "reconcile")
	logger := logging.WithContext(ctx, e.logger)

	pending, err := e.store.PendingMatches(ctx)
	if err != nil {
		return Summary{}, services.Wrap(services.ErrPersistence, "reconcile", "list pending", "query failed", err)
	}
	if len(pending) == 0 {
		logger.Debug("nothing to reconcile")
		return Summary{Idle: true}, nil
	}

	started := time.Now()
	summary := Summary{Results: make([]Result, 0, len(pending))}
	for i := range pending {
		if err := ctx.Err(); err != nil {
			logger.Info("reconcile pass interrupted",
				logging.Int("checked", summary.Checked),
				logging.Int("remaining", len(pending)-i))
			return summary, err
		}
		res := e.ReconcileMatch(ctx, &pending[i])
		summary.add(res)
	}

	logger.Info("reconcile pass complete",
		logging.String(logging.FieldEventType, "reconcile_pass"),
		logging.Int("checked", summary.Checked),
		logging.Int("transitioned", summary.Transitioned),
		logging.Int("pending", summary.Pending),
		logging.Int("failed", summary.Failed),
		logging.Duration("elapsed", time.Since(started)))
	return summary, nil
}

func (s *Summary) add(res Result) {
	s.Checked++
	switch res.Outcome {
	case Resolved:
		if res.Transitioned {
			s.Transitioned++
		}
	case Pending:
		s.Pending++
	case TransientFailure:
		s.Failed++
	}
	s.Results = append(s.Results, res)
}

// ReconcileMatch resolves one pending match. The match's AssetID holds the
// upload id until it becomes ready.
func (e *Engine) ReconcileMatch(ctx context.Context, match *store.Match) Result {
	res := Result{MatchID: match.ID}
	ctx = services.WithMatchID(ctx, match.ID)
	logger := logging.WithContext(ctx, e.logger).With(logging.String(logging.FieldUploadID, match.AssetID))

	if !match.Status.IsPending() {
		res.Outcome = Resolved
		res.AssetID = match.AssetID
		res.PlaybackID = match.PlaybackID
		res.Reason = "already ready"
		return res
	}

	assetID, ok, err := e.provider.ResolveAsset(ctx, match.AssetID)
	if err != nil {
		return e.transient(logger, res, "resolve upload", err)
	}
	if !ok {
		res.Outcome = Pending
		res.Reason = "upload has no asset yet"
		logger.Debug("upload not yet converted")
		return res
	}
	res.AssetID = assetID
	logger = logger.With(logging.String(logging.FieldAssetID, assetID))

	asset, err := e.provider.AssetStatus(ctx, assetID)
	if err != nil {
		return e.transient(logger, res, "asset status", err)
	}

	switch {
	case asset.State == mux.AssetErrored:
		res.Outcome = Pending
		res.Reason = "asset errored"
		if len(asset.Errors) > 0 {
			res.Reason += ": " + strings.Join(asset.Errors, "; ")
		}
		logging.WarnWithContext(logger, "asset errored at provider", "asset_errored",
			logging.String("reason", res.Reason),
			logging.String(logging.FieldErrorHint, "inspect the asset in the Mux dashboard and re-upload"),
			logging.String(logging.FieldImpact, "match stays pending"))
		return res
	case asset.State != mux.AssetReady:
		res.Outcome = Pending
		res.Reason = "asset " + string(asset.State)
		return res
	case asset.PlaybackID() == "":
		res.Outcome = Pending
		res.Reason = "asset ready without playback id"
		logging.WarnWithContext(logger, "ready asset has no playback id", "asset_missing_playback",
			logging.String(logging.FieldErrorHint, "add a public playback id to the asset"),
			logging.String(logging.FieldImpact, "match stays pending"))
		return res
	}

	res.PlaybackID = asset.PlaybackID()
	transitioned, err := e.store.MarkReady(ctx, match.ID, assetID, res.PlaybackID)
	if err != nil {
		return e.transient(logger, res, "mark ready", services.Wrap(services.ErrPersistence, "reconcile", "mark ready", "update failed", err))
	}
	res.Outcome = Resolved
	res.Transitioned = transitioned
	if transitioned {
		logger.Info("match ready",
			logging.String(logging.FieldEventType, "match_ready"),
			logging.String("playback_id", res.PlaybackID))
	} else {
		logger.Debug("match already transitioned by another pass")
	}
	return res
}

func (e *Engine) transient(logger *slog.Logger, res Result, step string, err error) Result {
	res.Outcome = TransientFailure
	res.Reason = step + " failed"
	res.Err = err
	if errors.Is(err, context.Canceled) {
		logger.Debug("reconcile step cancelled", logging.String("step", step))
		return res
	}
	logging.WarnWithContext(logger, "reconcile step failed", "reconcile_transient_failure",
		logging.String("step", step),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "will retry on next pass"),
		logging.String(logging.FieldImpact, "match stays pending"))
	return res
}
