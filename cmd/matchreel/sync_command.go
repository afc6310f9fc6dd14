package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"matchreel/internal/access"
	"matchreel/internal/api"
	"matchreel/internal/reconcile"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Reconcile pending matches with Mux asset state",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.muxClient()
			if err != nil {
				return err
			}
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			engine := reconcile.NewEngine(client, st, ctx.log())
			summary, err := engine.ReconcileAll(cmd.Context(), access.Operator())
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, api.FromSummary(summary))
			}
			renderSyncSummary(cmd, summary)
			return nil
		},
	}
}

func renderSyncSummary(cmd *cobra.Command, summary reconcile.Summary) {
	out := cmd.OutOrStdout()
	if summary.Idle {
		fmt.Fprintln(out, "No pending matches")
		return
	}
	colorize := shouldColorize(out)
	for _, res := range summary.Results {
		label := "Match " + strconv.FormatInt(res.MatchID, 10)
		switch {
		case res.Transitioned:
			fmt.Fprintln(out, renderStatusLine(label, lineReady, "playback "+res.PlaybackID, colorize))
		case res.Outcome == reconcile.Resolved:
			fmt.Fprintln(out, renderStatusLine(label, lineAlreadyReady, "marked ready by another pass", colorize))
		case res.Outcome == reconcile.TransientFailure:
			msg := res.Reason
			if res.Err != nil {
				msg = res.Err.Error()
			}
			fmt.Fprintln(out, renderStatusLine(label, lineErrored, msg, colorize))
		default:
			fmt.Fprintln(out, renderStatusLine(label, linePending, res.Reason, colorize))
		}
	}
	fmt.Fprintf(out, "%d checked, %d ready, %d pending, %d failed\n",
		summary.Checked, summary.Transitioned, summary.Pending, summary.Failed)
}
