package reconcile_test

import (
	"context"
	"errors"
	"testing"

	"matchreel/internal/access"
	"matchreel/internal/logging"
	"matchreel/internal/reconcile"
	"matchreel/internal/services"
	"matchreel/internal/services/mux"
	"matchreel/internal/store"
	"matchreel/internal/testsupport"
)

type harness struct {
	engine   *reconcile.Engine
	provider *testsupport.FakeProvider
	store    *store.Store
}

func newHarness(t *testing.T) harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	provider := testsupport.NewFakeProvider()
	return harness{
		engine:   reconcile.NewEngine(provider, st, logging.NewNop()),
		provider: provider,
		store:    st,
	}
}

func (h harness) seed(t *testing.T, uploadID string) *store.Match {
	t.Helper()
	match, err := h.store.CreateMatchWithEvents(context.Background(), store.NewMatch{
		TeamName: "NYCFC",
		Opponent: "Inter Miami",
		AssetID:  uploadID,
	}, []store.NewEvent{{Tag: "Goal", Player: "Smith", StartMs: 10000, EndMs: 15000}})
	if err != nil {
		t.Fatalf("seed match: %v", err)
	}
	return match
}

func TestReconcileIdleWhenNothingPending(t *testing.T) {
	h := newHarness(t)
	summary, err := h.engine.ReconcileAll(context.Background(), access.Operator())
	if err != nil {
		t.Fatalf("ReconcileAll: %v", err)
	}
	if !summary.Idle || summary.Checked != 0 {
		t.Fatalf("expected idle summary, got %+v", summary)
	}
}

func TestReconcileLeavesPreparingAssetsPending(t *testing.T) {
	h := newHarness(t)
	match := h.seed(t, "up-1")
	h.provider.Attach("up-1", "asset-1", mux.AssetPreparing)

	summary, err := h.engine.ReconcileAll(context.Background(), access.Operator())
	if err != nil {
		t.Fatalf("ReconcileAll: %v", err)
	}
	if summary.Transitioned != 0 || summary.Pending != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	got, _ := h.store.GetMatch(context.Background(), match.ID)
	if got.Status != store.StatusProcessing || got.PlaybackID != "" {
		t.Fatalf("match should remain processing, got %+v", got)
	}
}

func TestReconcileMarksReadyAndIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	match := h.seed(t, "up-1")
	h.provider.Attach("up-1", "asset-1", mux.AssetReady, "abc123")

	summary, err := h.engine.ReconcileAll(ctx, access.Operator())
	if err != nil {
		t.Fatalf("ReconcileAll: %v", err)
	}
	if summary.Transitioned != 1 || summary.Checked != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	got, _ := h.store.GetMatch(ctx, match.ID)
	if got.Status != store.StatusReady || got.PlaybackID != "abc123" || got.AssetID != "asset-1" {
		t.Fatalf("unexpected match after reconcile: %+v", got)
	}

	calls := h.provider.ResolveCalls
	again, err := h.engine.ReconcileAll(ctx, access.Operator())
	if err != nil {
		t.Fatalf("second ReconcileAll: %v", err)
	}
	if !again.Idle || again.Transitioned != 0 {
		t.Fatalf("second pass should be a no-op, got %+v", again)
	}
	if h.provider.ResolveCalls != calls {
		t.Fatal("second pass should not contact the provider")
	}
}

func TestReconcileMatchLosingRaceIsNotATransition(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	match := h.seed(t, "up-1")
	h.provider.Attach("up-1", "asset-1", mux.AssetReady, "abc123")

	stale := *match
	if ok, err := h.store.MarkReady(ctx, match.ID, "asset-1", "abc123"); err != nil || !ok {
		t.Fatalf("MarkReady = %v, %v", ok, err)
	}
	res := h.engine.ReconcileMatch(ctx, &stale)
	if res.Outcome != reconcile.Resolved || res.Transitioned {
		t.Fatalf("expected resolved without transition, got %+v", res)
	}
}

func TestReconcileErroredAssetStaysPending(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "up-1")
	h.provider.Attach("up-1", "asset-1", mux.AssetErrored)

	summary, err := h.engine.ReconcileAll(context.Background(), access.Operator())
	if err != nil {
		t.Fatalf("ReconcileAll: %v", err)
	}
	if summary.Pending != 1 || summary.Results[0].Reason == "" {
		t.Fatalf("expected pending with reason, got %+v", summary)
	}
}

func TestReconcileContinuesPastFailures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seed(t, "up-1")
	second := h.seed(t, "up-2")
	h.seed(t, "up-3")

	h.provider.ResolveErr["up-1"] = services.Wrap(services.ErrProvider, "test", "resolve", "boom", nil)
	h.provider.Attach("up-2", "asset-2", mux.AssetReady, "play-2")
	// up-3 has no asset yet.

	summary, err := h.engine.ReconcileAll(ctx, access.Operator())
	if err != nil {
		t.Fatalf("ReconcileAll: %v", err)
	}
	if summary.Checked != 3 || summary.Failed != 1 || summary.Transitioned != 1 || summary.Pending != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.Results[0].Outcome != reconcile.TransientFailure || !errors.Is(summary.Results[0].Err, services.ErrProvider) {
		t.Fatalf("first result should be a transient failure, got %+v", summary.Results[0])
	}
	got, _ := h.store.GetMatch(ctx, second.ID)
	if got.Status != store.StatusReady {
		t.Fatalf("second match should be ready, got %s", got.Status)
	}
}

type failingMarkStore struct {
	*store.Store
}

func (failingMarkStore) MarkReady(context.Context, int64, string, string) (bool, error) {
	return false, errors.New("database is locked")
}

func TestReconcileStoreFailureIsTransient(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "up-1")
	h.provider.Finish("up-1")
	engine := reconcile.NewEngine(h.provider, failingMarkStore{h.store}, logging.NewNop())

	summary, err := engine.ReconcileAll(context.Background(), access.Operator())
	if err != nil {
		t.Fatalf("ReconcileAll: %v", err)
	}
	if summary.Failed != 1 || !errors.Is(summary.Results[0].Err, services.ErrPersistence) {
		t.Fatalf("expected persistence transient failure, got %+v", summary)
	}
}

func TestReconcileStopsOnCancellation(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "up-1")
	h.seed(t, "up-2")
	h.provider.Finish("up-1")
	h.provider.Finish("up-2")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary, err := h.engine.ReconcileAll(ctx, access.Operator())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if summary.Checked != 0 {
		t.Fatalf("no match should be checked after cancellation, got %+v", summary)
	}
	pending, _ := h.store.PendingMatches(context.Background())
	if len(pending) != 2 {
		t.Fatalf("both matches should stay pending, got %d", len(pending))
	}
}

func TestReconcileRequiresAdmin(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "up-1")
	_, err := h.engine.ReconcileAll(context.Background(), access.Viewer{Role: access.RoleMember})
	if !errors.Is(err, services.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if h.provider.ResolveCalls != 0 {
		t.Fatal("forbidden pass must not contact the provider")
	}
}
