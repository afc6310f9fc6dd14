package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"matchreel/internal/api"
	"matchreel/internal/timeline"
)

func newMatchesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "matches",
		Short: "List matches visible to the viewer",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.timelineService()
			if err != nil {
				return err
			}
			viewer, err := ctx.viewer(cmd.Context())
			if err != nil {
				return err
			}
			views, err := svc.ListMatches(cmd.Context(), viewer)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, api.MatchListResponse{Matches: api.FromMatchViews(views)})
			}
			if len(views) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No matches")
				return nil
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				rows = append(rows, []string{
					strconv.FormatInt(v.Match.ID, 10),
					v.Match.TeamName,
					v.Match.Opponent,
					dashIfEmpty(v.Match.MatchDate),
					string(v.Match.Status),
					addedAgo(v.Match.CreatedAt),
					dashIfEmpty(v.PlaybackURL),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]column{numCol("ID"), textCol("Team"), textCol("Opponent"), textCol("Date"), textCol("Status"), textCol("Added"), textCol("Playback")},
				rows,
			))
			return nil
		},
	}
}

func newEventsCommand(ctx *commandContext) *cobra.Command {
	var tag string
	var matchID int64

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List playable events, optionally filtered by tag or match",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.timelineService()
			if err != nil {
				return err
			}
			viewer, err := ctx.viewer(cmd.Context())
			if err != nil {
				return err
			}
			var entries []timeline.Entry
			if matchID > 0 {
				entries, err = svc.MatchEvents(cmd.Context(), viewer, matchID)
			} else {
				entries, err = svc.ListEvents(cmd.Context(), viewer, tag)
			}
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, api.EventListResponse{Events: api.FromEntries(entries)})
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No events")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					e.Event.Tag,
					dashIfEmpty(e.Event.Player),
					e.Match.TeamName + " vs " + e.Match.Opponent,
					dashIfEmpty(e.Match.MatchDate),
					formatOffset(e.SeekSeconds),
					e.PlaybackURL,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]column{textCol("Tag"), textCol("Player"), textCol("Match"), textCol("Date"), numCol("At"), textCol("Watch")},
				rows,
			))
			return nil
		},
	}
	cmd.Flags().StringVar(&tag, "tag", "", "Only events with this exact tag (\"all\" for every tag)")
	cmd.Flags().Int64Var(&matchID, "match", 0, "Only events of this match")
	return cmd
}

func newTagsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List distinct event tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.timelineService()
			if err != nil {
				return err
			}
			viewer, err := ctx.viewer(cmd.Context())
			if err != nil {
				return err
			}
			tags, err := svc.ListTags(cmd.Context(), viewer)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, api.TagListResponse{Tags: tags})
			}
			for _, tag := range tags {
				fmt.Fprintln(cmd.OutOrStdout(), tag)
			}
			return nil
		},
	}
}

func dashIfEmpty(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

func addedAgo(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

// formatOffset renders whole seconds as m:ss or h:mm:ss.
func formatOffset(seconds int64) string {
	d := time.Duration(seconds) * time.Second
	h := int64(d / time.Hour)
	m := int64(d%time.Hour) / int64(time.Minute)
	s := int64(d%time.Minute) / int64(time.Second)
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
