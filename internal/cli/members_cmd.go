package cli

import (
	"context"
	"fmt"

	"github.com/alexanderramin/orgctl/internal/cli/formatter"
	"github.com/alexanderramin/orgctl/internal/domain"
	"github.com/alexanderramin/orgctl/internal/service"
	"github.com/spf13/cobra"
)

func newMembersCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "members",
		Aliases: []string{"member"},
		Short:   "Manage primary and auxiliary members",
	}

	cmd.AddCommand(
		newMembersListCmd(app),
		newMembersMutationCmd(app, "set-primary", "Make ORG the user's primary department",
			"Primary department of %s is now %s", service.RosterService.SetPrimary),
		newMembersMutationCmd(app, "add-aux", "Attach the user to ORG as an auxiliary member",
			"Added %s to %s", service.RosterService.AddAuxiliary),
		newMembersMutationCmd(app, "remove-aux", "Detach an auxiliary member from ORG",
			"Removed %s from %s", service.RosterService.RemoveAuxiliary),
	)

	return cmd
}

func newMembersListCmd(app *App) *cobra.Command {
	var (
		recursive bool
		search    string
		fuzzy     bool
		primary   string
	)

	cmd := &cobra.Command{
		Use:   "list ORG",
		Short: "List the members of an organization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tri, err := domain.ParseTriState(primary)
			if err != nil {
				return fmt.Errorf("--primary: %w", err)
			}
			id, err := resolveArg(cmd, app, args[0])
			if err != nil {
				return err
			}
			users, err := app.Roster.List(cmd.Context(), id, recursive)
			if err != nil {
				return err
			}
			users = service.FilterMembers(users, service.MemberFilter{Search: search, Fuzzy: fuzzy, Primary: tri})
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatMembers(orgName(app.Orgs.Store(), id), users))
			return nil
		},
	}

	cmd.Flags().BoolVar(&recursive, "recursive", false, "Include members of sub-organizations")
	cmd.Flags().StringVar(&search, "search", "", "Filter by user name or id")
	cmd.Flags().BoolVar(&fuzzy, "fuzzy", false, "Fuzzy subsequence search")
	cmd.Flags().StringVar(&primary, "primary", "", "Only primary (yes) or auxiliary (no) members")
	return cmd
}

type rosterMutation func(r service.RosterService, ctx context.Context, userID, orgID string) error

func newMembersMutationCmd(app *App, use, short, done string, mutate rosterMutation) *cobra.Command {
	return &cobra.Command{
		Use:   use + " USER ORG",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			orgID, err := resolveArg(cmd, app, args[1])
			if err != nil {
				return err
			}
			// The cached roster decides whether a removal targets a primary attachment.
			if _, ok := app.Roster.Cached(orgID); !ok {
				if _, err := app.Roster.List(cmd.Context(), orgID, false); err != nil {
					return err
				}
			}
			if err := mutate(app.Roster, cmd.Context(), args[0], orgID); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.Success(fmt.Sprintf(done, args[0], orgName(app.Orgs.Store(), orgID))))
			return nil
		},
	}
}
