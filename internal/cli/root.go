package cli

import (
	"github.com/alexanderramin/orgctl/internal/service"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// App holds references to the services used by CLI commands and the TUI.
type App struct {
	Orgs    service.OrgService
	Roster  service.RosterService
	Journal *service.Journal
	Logger  *zap.Logger

	// Interactive reports whether stdin and stdout are terminals. The bare
	// root command opens the TUI only when it returns true; spinners follow
	// the same switch.
	Interactive func() bool

	// HistoryPath is where the TUI command bar keeps its history. Empty
	// keeps history in memory only.
	HistoryPath string
}

func (a *App) interactive() bool {
	return a.Interactive != nil && a.Interactive()
}

func (a *App) logger() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}

// NewRootCmd creates the top-level "orgctl" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "orgctl",
		Short:         "Browse and edit the organization hierarchy",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.interactive() {
				return cmd.Help()
			}
			p := tea.NewProgram(newAppModel(app), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			_, err := p.Run()
			return err
		},
	}

	root.AddCommand(
		newTreeCmd(app),
		newShowCmd(app),
		newStatsCmd(app),
		newImpactCmd(app),
		newCreateCmd(app),
		newUpdateCmd(app),
		newMoveCmd(app),
		newEnableCmd(app),
		newDisableCmd(app),
		newDeleteCmd(app),
		newMembersCmd(app),
		newJournalCmd(app),
		newExportCmd(app),
	)

	return root
}
