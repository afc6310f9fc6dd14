package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"matchreel/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines     int
		follow    bool
		level     string
		component string
		matchID   int64
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show entries from the server log file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := filepath.Join(cfg.Paths.LogDir, "matchreel.log")
			opts := logs.TailOptions{
				Offset: -1,
				Limit:  lines,
				Filter: logs.Filter{MinLevel: level, Component: component, MatchID: matchID},
			}
			out := cmd.OutOrStdout()
			runCtx := cmd.Context()
			for {
				result, err := logs.Tail(runCtx, path, opts)
				if err != nil {
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				}
				for _, entry := range result.Entries {
					printLogEntry(out, entry, ctx.jsonOutput())
				}
				if !follow {
					if len(result.Entries) == 0 && !ctx.jsonOutput() {
						fmt.Fprintf(out, "No log entries in %s\n", path)
					}
					return nil
				}
				opts.Offset = result.Offset
				opts.Follow = true
				opts.Wait = 2 * time.Second
			}
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of entries to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new entries")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level (debug, info, warn, error)")
	cmd.Flags().StringVar(&component, "component", "", "Only entries from this component")
	cmd.Flags().Int64Var(&matchID, "match", 0, "Only entries about this match id")
	return cmd
}

func printLogEntry(w io.Writer, entry logs.Entry, raw bool) {
	if raw || entry.Time.IsZero() {
		fmt.Fprintln(w, entry.Raw)
		return
	}
	var b strings.Builder
	b.WriteString(entry.Time.Local().Format("2006-01-02 15:04:05"))
	b.WriteString(" ")
	b.WriteString(fmt.Sprintf("%-5s", strings.ToUpper(entry.Level)))
	if entry.Component != "" {
		b.WriteString(" [" + entry.Component + "]")
	}
	b.WriteString(" " + entry.Message)
	if entry.MatchID != 0 {
		b.WriteString(fmt.Sprintf(" (match %d)", entry.MatchID))
	}
	fmt.Fprintln(w, b.String())
}
