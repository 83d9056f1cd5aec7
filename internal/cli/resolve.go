package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/orgctl/internal/cli/formatter"
	"github.com/alexanderramin/orgctl/internal/orgclient"
	"github.com/alexanderramin/orgctl/internal/repository"
	"github.com/alexanderramin/orgctl/internal/service"
	"github.com/alexanderramin/orgctl/internal/tree"
	"github.com/spf13/cobra"
)

// errConfirmationRequired is returned when a high-risk change runs without --yes.
var errConfirmationRequired = errors.New("confirmation required; re-run with --yes")

// FormatError renders a command error the way the TUI shows notices.
func FormatError(err error) string {
	if errors.Is(err, errConfirmationRequired) {
		return formatter.StyleRed.Render("✖ " + err.Error())
	}
	return formatter.FormatNotice(service.Classify(err))
}

// ensureTree loads the tree once per process. Commands started from the
// TUI reuse the tree it already holds.
func ensureTree(ctx context.Context, app *App) error {
	if app.Orgs.Store().Len() > 0 {
		return nil
	}
	return app.Orgs.Refresh(ctx, orgclient.TreeQuery{})
}

// loadCached swaps the store for the last saved snapshot.
func loadCached(ctx context.Context, app *App) (string, error) {
	snap, err := app.Orgs.LoadCached(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return "", fmt.Errorf("no cached tree yet; run 'orgctl tree' while the service is reachable")
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("cached snapshot from %s (read-only)", snap.FetchedAt.Local().Format("2006-01-02 15:04")), nil
}

// resolveOrgID resolves a node reference which can be:
//   - a node id
//   - a code (case-insensitive, unique across the tree)
//   - a name (case-insensitive, must be unambiguous)
func resolveOrgID(store *tree.Store, input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("organization ID is required")
	}

	if _, ok := store.Get(input); ok {
		return input, nil
	}

	nodes := store.All()
	for _, n := range nodes {
		if strings.EqualFold(n.Code, input) {
			return n.ID, nil
		}
	}

	var matches []string
	for _, n := range nodes {
		if strings.EqualFold(n.Name, input) {
			matches = append(matches, n.ID)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("organization not found: %q", input)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("organization name %q is ambiguous (ids %s)", input, strings.Join(matches, ", "))
	}
}

// resolveArg loads the tree and resolves a positional node reference.
func resolveArg(cmd *cobra.Command, app *App, input string) (string, error) {
	if err := ensureTree(cmd.Context(), app); err != nil {
		return "", err
	}
	return resolveOrgID(app.Orgs.Store(), input)
}

// startProgress shows a spinner on stderr for interactive runs.
func startProgress(cmd *cobra.Command, app *App, msg string) func() {
	if !app.interactive() {
		return func() {}
	}
	return formatter.StartSpinner(cmd.ErrOrStderr(), msg)
}

// orgName returns the display name for id, falling back to the id.
func orgName(store *tree.Store, id string) string {
	if n, ok := store.Get(id); ok {
		return n.Name
	}
	return id
}
