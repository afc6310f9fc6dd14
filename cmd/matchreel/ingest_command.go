package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"matchreel/internal/access"
	"matchreel/internal/api"
	"matchreel/internal/config"
	"matchreel/internal/ingest"
	"matchreel/internal/services/mux"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var team, opponent, date string
	var noProgress bool

	cmd := &cobra.Command{
		Use:   "ingest <video> <event-log.xml>",
		Short: "Upload a match video with its tagged event log",
		Long: "Uploads the video to Mux and records the match with its events. " +
			"The match stays processing until a sync sees the asset ready.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := ctx.muxClient()
			if err != nil {
				return err
			}
			st, err := ctx.openStore()
			if err != nil {
				return err
			}

			videoPath, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			logPath, err := config.ExpandPath(args[1])
			if err != nil {
				return err
			}
			eventLog, err := os.ReadFile(logPath)
			if err != nil {
				return fmt.Errorf("read event log: %w", err)
			}
			video, err := os.Open(videoPath)
			if err != nil {
				return fmt.Errorf("open video: %w", err)
			}
			defer video.Close()
			info, err := video.Stat()
			if err != nil {
				return fmt.Errorf("stat video: %w", err)
			}

			out := cmd.OutOrStdout()
			if !ctx.jsonOutput() {
				fmt.Fprintf(out, "Uploading %s (%s) for %s vs %s\n",
					filepath.Base(videoPath), humanize.Bytes(uint64(info.Size())), team, opponent)
			}

			var body io.Reader = video
			if !noProgress && !ctx.jsonOutput() && shouldColorize(cmd.ErrOrStderr()) {
				bar := progressbar.NewOptions64(info.Size(),
					progressbar.OptionSetWriter(cmd.ErrOrStderr()),
					progressbar.OptionSetDescription("uploading"),
					progressbar.OptionShowBytes(true),
					progressbar.OptionThrottle(100*time.Millisecond),
					progressbar.OptionClearOnFinish(),
				)
				defer bar.Finish()
				body = io.TeeReader(video, bar)
			}

			orchestrator := ingest.NewOrchestrator(client, st, mux.PolicyFromConfig(cfg), ctx.log())
			match, err := orchestrator.Ingest(cmd.Context(), access.Operator(), ingest.Request{
				TeamName:  team,
				Opponent:  opponent,
				MatchDate: date,
				Video:     body,
				VideoSize: info.Size(),
				EventLog:  eventLog,
			})
			if err != nil {
				return describeIngestError(err)
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, api.MatchResponse{Match: api.FromMatch(*match, "")})
			}
			fmt.Fprintf(out, "Match %d recorded (%s); run `matchreel sync` once Mux finishes processing\n", match.ID, match.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&team, "team", "", "Team name (created when new)")
	cmd.Flags().StringVar(&opponent, "opponent", "", "Opponent name")
	cmd.Flags().StringVar(&date, "date", "", "Match date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the upload progress bar")
	return cmd
}

func describeIngestError(err error) error {
	ie, ok := ingest.AsError(err)
	if !ok {
		return err
	}
	switch {
	case ie.Orphaned():
		return fmt.Errorf("%w\nthe video was uploaded as %s but no match was recorded; delete the asset in the Mux dashboard or retry the ingest", err, ie.UploadID)
	case ie.Retryable():
		return fmt.Errorf("%w\nnothing was recorded; retrying is safe", err)
	default:
		return err
	}
}
