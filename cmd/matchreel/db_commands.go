package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDBCommand(ctx *commandContext) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Database maintenance",
	}
	dbCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			version, err := st.Migrate()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s at schema version %d\n", st.Target(), version.Version)
			return nil
		},
	})
	dbCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show the applied schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			version, err := st.SchemaVersion()
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{
					"database": st.Target(),
					"version":  version.Version,
					"latest":   version.Latest,
					"dirty":    version.Dirty,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Database: %s\nVersion:  %d (latest %d)\nDirty:    %s\n",
				st.Target(), version.Version, version.Latest, yesNo(version.Dirty))
			return nil
		},
	})
	return dbCmd
}
