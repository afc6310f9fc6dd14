package main

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"matchreel/internal/access"
	"matchreel/internal/api"
	"matchreel/internal/services"
)

func newUsersCommand(ctx *commandContext) *cobra.Command {
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "Manage accounts",
	}
	usersCmd.AddCommand(newUsersCreateCommand(ctx))
	usersCmd.AddCommand(newUsersAssignCommand(ctx))
	usersCmd.AddCommand(newUsersListCommand(ctx))
	return usersCmd
}

func newUsersCreateCommand(ctx *commandContext) *cobra.Command {
	var password, role, team string
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "create <email>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsedRole, err := access.ParseRole(role)
			if err != nil {
				return err
			}
			if passwordStdin {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password from stdin: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			svc, err := ctx.authService()
			if err != nil {
				return err
			}
			user, err := svc.Register(cmd.Context(), args[0], password, parsedRole)
			if err != nil {
				return err
			}
			if strings.TrimSpace(team) != "" {
				user, err = svc.AssignTeam(cmd.Context(), access.Operator(), user.ID, team)
				if err != nil {
					return err
				}
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, api.UserResponse{User: api.FromUser(*user)})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s (id %d)\n", user.Role, user.Email, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	cmd.Flags().StringVar(&role, "role", "user", "Role: admin or user")
	cmd.Flags().StringVar(&team, "team", "", "Existing team to join")
	return cmd
}

func newUsersAssignCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "assign <email> <team>",
		Short: "Move an account into an existing team (empty team clears it)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			user, err := st.UserByEmail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if user == nil {
				return services.Wrap(services.ErrNotFound, "cli", "assign team", "no user "+args[0], nil)
			}
			svc, err := ctx.authService()
			if err != nil {
				return err
			}
			viewer, err := ctx.viewer(cmd.Context())
			if err != nil {
				return err
			}
			updated, err := svc.AssignTeam(cmd.Context(), viewer, user.ID, args[1])
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, api.UserResponse{User: api.FromUser(*updated)})
			}
			if updated.TeamName == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%s has no team\n", updated.Email)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s joined %s\n", updated.Email, updated.TeamName)
			return nil
		},
	}
}

func newUsersListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			viewer, err := ctx.viewer(cmd.Context())
			if err != nil {
				return err
			}
			if err := access.RequireAdmin(viewer, "list users"); err != nil {
				return err
			}
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			users, err := st.ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, api.UserListResponse{Users: api.FromUsers(users)})
			}
			rows := make([][]string, 0, len(users))
			for _, u := range users {
				rows = append(rows, []string{strconv.FormatInt(u.ID, 10), u.Email, u.Role, dashIfEmpty(u.TeamName)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]column{numCol("ID"), textCol("Email"), textCol("Role"), textCol("Team")}, rows))
			return nil
		},
	}
}

func newTeamsCommand(ctx *commandContext) *cobra.Command {
	teamsCmd := &cobra.Command{
		Use:   "teams",
		Short: "Manage teams",
	}
	teamsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List teams",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			teams, err := st.ListTeams(cmd.Context())
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, api.TeamListResponse{Teams: api.FromTeams(teams)})
			}
			rows := make([][]string, 0, len(teams))
			for _, team := range teams {
				rows = append(rows, []string{strconv.FormatInt(team.ID, 10), team.Name})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]column{numCol("ID"), textCol("Name")}, rows))
			return nil
		},
	})
	teamsCmd.AddCommand(&cobra.Command{
		Use:   "create <name>",
		Short: "Create a team so accounts can join it before its first match",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			viewer, err := ctx.viewer(cmd.Context())
			if err != nil {
				return err
			}
			if err := access.RequireAdmin(viewer, "create team"); err != nil {
				return err
			}
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			team, err := st.EnsureTeam(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Team %s (id %d)\n", team.Name, team.ID)
			return nil
		},
	})
	return teamsCmd
}
