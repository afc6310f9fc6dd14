package timeline_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"matchreel/internal/access"
	"matchreel/internal/logging"
	"matchreel/internal/services"
	"matchreel/internal/store"
	"matchreel/internal/testsupport"
	"matchreel/internal/timeline"
)

func TestPlaybackURLFloorsSeconds(t *testing.T) {
	url, err := timeline.PlaybackURL("", "abc123", 61999)
	if err != nil {
		t.Fatalf("PlaybackURL: %v", err)
	}
	if url != "https://stream.mux.com/abc123/low.mp4#t=61" {
		t.Fatalf("unexpected url %q", url)
	}
	again, _ := timeline.PlaybackURL("", "abc123", 61999)
	if again != url {
		t.Fatal("seek derivation must be deterministic")
	}
	if got, _ := timeline.PlaybackURL("video.example.com", "p", 0); got != "https://video.example.com/p/low.mp4#t=0" {
		t.Fatalf("unexpected custom host url %q", got)
	}
	if _, err := timeline.PlaybackURL("", " ", 1000); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected refusal for empty playback id, got %v", err)
	}
}

type fixture struct {
	svc     *timeline.Service
	store   *store.Store
	nycfc   *store.Match // ready
	miami   *store.Match // ready, other team
	pending *store.Match // processing, NYCFC
}

func newFixture(t *testing.T, placeholders bool) fixture {
	t.Helper()
	opts := []testsupport.ConfigOption{}
	if !placeholders {
		opts = append(opts, testsupport.WithPlaceholdersHidden())
	}
	cfg := testsupport.NewConfig(t, opts...)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	create := func(team, upload string, events ...store.NewEvent) *store.Match {
		m, err := st.CreateMatchWithEvents(ctx, store.NewMatch{TeamName: team, Opponent: "Opp", AssetID: upload}, events)
		if err != nil {
			t.Fatalf("create match: %v", err)
		}
		return m
	}
	nycfc := create("NYCFC", "up-1",
		store.NewEvent{Tag: "Goal", Player: "Smith", StartMs: 10000, EndMs: 15000},
		store.NewEvent{Tag: "Foul", StartMs: 40500, EndMs: 42000})
	miami := create("Inter Miami", "up-2", store.NewEvent{Tag: "Goal", StartMs: 61999, EndMs: 70000})
	pending := create("NYCFC", "up-3", store.NewEvent{Tag: "Offside", StartMs: 5000, EndMs: 6000})

	for _, m := range []*store.Match{nycfc, miami} {
		if ok, err := st.MarkReady(ctx, m.ID, "asset-"+m.AssetID, "play-"+m.AssetID); err != nil || !ok {
			t.Fatalf("MarkReady: %v %v", ok, err)
		}
	}
	policy := access.Policy{PlaceholdersVisible: cfg.Access.PlaceholdersVisible}
	return fixture{
		svc:     timeline.NewService(st, cfg.Mux.StreamHost, policy, logging.NewNop()),
		store:   st,
		nycfc:   nycfc,
		miami:   miami,
		pending: pending,
	}
}

func member(teamID int64) access.Viewer {
	return access.Viewer{UserID: 10, Role: access.RoleMember, TeamID: &teamID}
}

func TestListEventsForAdmin(t *testing.T) {
	f := newFixture(t, true)
	entries, err := f.svc.ListEvents(context.Background(), access.Operator(), "all")
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 ready events, got %d", len(entries))
	}
	if entries[0].Event.Tag != "Goal" || entries[0].Match.ID != f.nycfc.ID {
		t.Fatalf("expected insertion order, got %+v", entries[0])
	}
	if !strings.Contains(entries[0].PlaybackURL, "/play-up-1/low.mp4#t=10") {
		t.Fatalf("unexpected url %q", entries[0].PlaybackURL)
	}
	if entries[2].SeekSeconds != 61 {
		t.Fatalf("expected floor seek 61, got %d", entries[2].SeekSeconds)
	}
	for _, e := range entries {
		if e.Match.ID == f.pending.ID {
			t.Fatal("pending match events must not be listed")
		}
	}
}

func TestListEventsTagFilterIsExact(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	goals, err := f.svc.ListEvents(ctx, access.Operator(), "Goal")
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(goals) != 2 {
		t.Fatalf("expected 2 goals, got %d", len(goals))
	}
	lower, _ := f.svc.ListEvents(ctx, access.Operator(), "goal")
	if len(lower) != 0 {
		t.Fatalf("tag filter must be case-sensitive, got %d", len(lower))
	}
}

func TestMemberSeesOnlyOwnTeam(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	viewer := member(f.nycfc.TeamID)
	goals, err := f.svc.ListEvents(ctx, viewer, "Goal")
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	for _, e := range goals {
		if e.Match.TeamID != f.nycfc.TeamID {
			t.Fatalf("leaked event from team %d", e.Match.TeamID)
		}
	}
	if len(goals) != 1 {
		t.Fatalf("expected only the NYCFC goal, got %d", len(goals))
	}

	miamiViewer := member(f.miami.TeamID)
	fouls, _ := f.svc.ListEvents(ctx, miamiViewer, "Foul")
	if len(fouls) != 0 {
		t.Fatalf("tag present elsewhere must not leak, got %d", len(fouls))
	}

	orphan := access.Viewer{UserID: 11, Role: access.RoleMember}
	none, err := f.svc.ListEvents(ctx, orphan, "")
	if err != nil || len(none) != 0 {
		t.Fatalf("unaffiliated member should see nothing, got %d (%v)", len(none), err)
	}
}

func TestListTagsIncludesPendingAndIsSorted(t *testing.T) {
	f := newFixture(t, true)
	tags, err := f.svc.ListTags(context.Background(), member(f.nycfc.TeamID))
	if err != nil {
		t.Fatalf("ListTags: %v", err)
	}
	want := []string{"Foul", "Goal", "Offside"}
	if strings.Join(tags, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected tags %v", tags)
	}
	orphanTags, _ := f.svc.ListTags(context.Background(), access.Viewer{Role: access.RoleMember})
	if orphanTags == nil || len(orphanTags) != 0 {
		t.Fatalf("expected empty non-nil tags, got %#v", orphanTags)
	}
}

func TestListMatchesPlaceholders(t *testing.T) {
	f := newFixture(t, true)
	views, err := f.svc.ListMatches(context.Background(), member(f.nycfc.TeamID))
	if err != nil {
		t.Fatalf("ListMatches: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected ready + placeholder, got %d", len(views))
	}
	if views[0].Placeholder || views[0].PlaybackURL == "" {
		t.Fatalf("ready match should carry a url: %+v", views[0])
	}
	if !views[1].Placeholder || views[1].PlaybackURL != "" {
		t.Fatalf("pending match should be a placeholder without url: %+v", views[1])
	}

	hidden := newFixture(t, false)
	views, _ = hidden.svc.ListMatches(context.Background(), member(hidden.nycfc.TeamID))
	if len(views) != 1 || views[0].Placeholder {
		t.Fatalf("placeholders should be hidden, got %+v", views)
	}
	adminViews, _ := hidden.svc.ListMatches(context.Background(), access.Operator())
	if len(adminViews) != 3 {
		t.Fatalf("admins see every match, got %d", len(adminViews))
	}
}

func TestMatchEvents(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	viewer := member(f.nycfc.TeamID)

	entries, err := f.svc.MatchEvents(ctx, viewer, f.nycfc.ID)
	if err != nil || len(entries) != 2 {
		t.Fatalf("expected 2 events, got %d (%v)", len(entries), err)
	}
	if _, err := f.svc.MatchEvents(ctx, viewer, f.miami.ID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("other team's match should be not found, got %v", err)
	}
	pending, err := f.svc.MatchEvents(ctx, viewer, f.pending.ID)
	if err != nil || len(pending) != 0 {
		t.Fatalf("pending match has no playable events, got %d (%v)", len(pending), err)
	}
	if _, err := f.svc.MatchEvents(ctx, viewer, 9999); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

type blankPlaybackStore struct{ match store.Match }

func (b blankPlaybackStore) ListEvents(context.Context, store.EventQuery) ([]store.EventWithMatch, error) {
	return nil, nil
}

func (b blankPlaybackStore) ListTags(context.Context, store.Scope) ([]string, error) { return nil, nil }

func (b blankPlaybackStore) ListMatches(context.Context, store.Scope, ...store.Status) ([]store.Match, error) {
	return []store.Match{b.match}, nil
}

func (b blankPlaybackStore) GetMatch(context.Context, int64) (*store.Match, error) {
	return &b.match, nil
}

func TestListMatchesLogsUnusablePlaybackID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	st := blankPlaybackStore{match: store.Match{ID: 42, TeamName: "NYCFC", Status: store.StatusReady, PlaybackID: "   "}}
	svc := timeline.NewService(st, "", access.Policy{PlaceholdersVisible: true}, logger)

	views, err := svc.ListMatches(context.Background(), access.Operator())
	if err != nil {
		t.Fatalf("ListMatches: %v", err)
	}
	if len(views) != 1 || views[0].PlaybackURL != "" || !views[0].Placeholder {
		t.Fatalf("expected a placeholder without url, got %+v", views)
	}
	if !strings.Contains(buf.String(), "playback_id_missing") || !strings.Contains(buf.String(), `"match_id":42`) {
		t.Fatalf("expected a warning naming the match, got %s", buf.String())
	}
}
