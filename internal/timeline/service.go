package timeline

import (
	"context"
	"log/slog"
	"strings"

	"matchreel/internal/access"
	"matchreel/internal/logging"
	"matchreel/internal/services"
	"matchreel/internal/store"
)

// AllTags is the filter value meaning "every tag".
const AllTags = "all"

// Store is the read side timeline queries need.
type Store interface {
	ListEvents(ctx context.Context, q store.EventQuery) ([]store.EventWithMatch, error)
	ListTags(ctx context.Context, scope store.Scope) ([]string, error)
	ListMatches(ctx context.Context, scope store.Scope, statuses ...store.Status) ([]store.Match, error)
	GetMatch(ctx context.Context, id int64) (*store.Match, error)
}

// Entry is one playable event.
type Entry struct {
	Event       store.Event
	Match       store.Match
	PlaybackURL string
	SeekSeconds int64
}

// MatchView is a listed match. Placeholders are pending matches shown
// without a URL.
type MatchView struct {
	Match       store.Match
	Placeholder bool
	PlaybackURL string
}

// Service answers timeline queries for a viewer.
type Service struct {
	store      Store
	streamHost string
	policy     access.Policy
	logger     *slog.Logger
}

// NewService wires a timeline service.
func NewService(st Store, streamHost string, policy access.Policy, logger *slog.Logger) *Service {
	if strings.TrimSpace(streamHost) == "" {
		streamHost = DefaultStreamHost
	}
	return &Service{
		store:      st,
		streamHost: streamHost,
		policy:     policy,
		logger:     logging.NewComponentLogger(logger, "timeline"),
	}
}

// ListEvents returns visible events of ready matches, in insertion order. An
// empty tag or "all" disables the filter; otherwise matching is exact.
func (s *Service) ListEvents(ctx context.Context, viewer access.Viewer, tag string) ([]Entry, error) {
	q := store.EventQuery{Scope: access.Visibility(viewer), Tag: normalizeTag(tag)}
	return s.events(ctx, q)
}

// MatchEvents returns the events of one match the viewer may see.
func (s *Service) MatchEvents(ctx context.Context, viewer access.Viewer, matchID int64) ([]Entry, error) {
	match, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "timeline", "match events", "load match", err)
	}
	scope := access.Visibility(viewer)
	if match == nil || !s.policy.CanSeeMatch(viewer, match) {
		return nil, services.Wrap(services.ErrNotFound, "timeline", "match events", "no such match", nil)
	}
	if !match.Playable() {
		return []Entry{}, nil
	}
	return s.events(ctx, store.EventQuery{Scope: scope, MatchID: matchID})
}

func (s *Service) events(ctx context.Context, q store.EventQuery) ([]Entry, error) {
	rows, err := s.store.ListEvents(ctx, q)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "timeline", "list events", "query failed", err)
	}
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		url, err := PlaybackURL(s.streamHost, row.Match.PlaybackID, row.StartMs)
		if err != nil {
			// Unreachable while the ready/playback CHECK constraint holds.
			logging.WarnWithContext(logging.WithContext(ctx, s.logger), "ready match without playback id", "playback_id_missing",
				logging.Int64(logging.FieldMatchID, row.Match.ID))
			continue
		}
		entries = append(entries, Entry{
			Event:       row.Event,
			Match:       row.Match,
			PlaybackURL: url,
			SeekSeconds: SeekSeconds(row.StartMs),
		})
	}
	return entries, nil
}

// ListTags returns the distinct tags across the viewer's matches, sorted.
// Tags of pending matches are included.
func (s *Service) ListTags(ctx context.Context, viewer access.Viewer) ([]string, error) {
	tags, err := s.store.ListTags(ctx, access.Visibility(viewer))
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "timeline", "list tags", "query failed", err)
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}

// ListMatches returns the viewer's matches in id order.
func (s *Service) ListMatches(ctx context.Context, viewer access.Viewer) ([]MatchView, error) {
	matches, err := s.store.ListMatches(ctx, access.Visibility(viewer), s.policy.MatchStatuses(viewer)...)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "timeline", "list matches", "query failed", err)
	}
	views := make([]MatchView, 0, len(matches))
	for _, m := range matches {
		view := MatchView{Match: m, Placeholder: true}
		if m.Playable() {
			url, err := PlaybackURL(s.streamHost, m.PlaybackID, 0)
			if err != nil {
				logging.WarnWithContext(logging.WithContext(ctx, s.logger), "ready match without usable playback id", "playback_id_missing",
					logging.Int64(logging.FieldMatchID, m.ID),
					logging.Error(err))
			} else {
				view.PlaybackURL = url
				view.Placeholder = false
			}
		}
		views = append(views, view)
	}
	return views, nil
}

func normalizeTag(tag string) string {
	if tag == "" || tag == AllTags {
		return ""
	}
	return tag
}
