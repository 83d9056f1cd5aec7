package cli

import (
	"fmt"
	"time"

	"github.com/alexanderramin/orgctl/internal/cli/formatter"
	"github.com/alexanderramin/orgctl/internal/domain"
	"github.com/alexanderramin/orgctl/internal/repository"
	"github.com/spf13/cobra"
)

func newJournalCmd(app *App) *cobra.Command {
	var (
		org   string
		op    string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Show changes made from this console",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := repository.JournalFilter{Operation: domain.Operation(op), Limit: limit}
			if org != "" {
				// Journaled nodes may be gone from the tree; unknown refs pass through as ids.
				f.OrgID = org
				if id, err := resolveOrgID(app.Orgs.Store(), org); err == nil {
					f.OrgID = id
				}
			}
			entries, err := app.Journal.List(cmd.Context(), f)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatJournal(entries, time.Now()))
			return nil
		},
	}

	cmd.Flags().StringVar(&org, "org", "", "Only entries for this organization")
	cmd.Flags().StringVar(&op, "op", "", "Only this operation (create, update, move, set_status, delete, ...)")
	cmd.Flags().IntVar(&limit, "limit", repository.DefaultJournalLimit,
		fmt.Sprintf("Maximum entries (capped at %d)", repository.MaxJournalLimit))
	return cmd
}
