package cli

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/orgctl/internal/cli/formatter"
	tea "github.com/charmbracelet/bubbletea"
)

// executeCommand dispatches a text command and returns a tea.Cmd.
// Navigation commands are handled here; everything else runs through the
// cobra tree and comes back as cmdOutputMsg.
func (c *commandBar) executeCommand(input string) tea.Cmd {
	parts, err := splitShellArgs(input)
	if err != nil {
		return outputCmd(FormatError(err))
	}
	if len(parts) == 0 {
		return nil
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]
	state := c.state

	switch cmd {
	case "quit", "exit":
		return func() tea.Msg { return quitMsg{} }
	case "clear":
		return outputCmd("")
	case "help":
		return outputCmd(formatShellHelp(c.state.App))
	case "refresh":
		c.Blur()
		return func() tea.Msg { return refreshViewMsg{reload: true} }
	case "open":
		if len(args) != 1 {
			return outputCmd(FormatError(fmt.Errorf("usage: open ORG")))
		}
		id, err := resolveOrgID(state.App.Orgs.Store(), args[0])
		if err != nil {
			return outputCmd(FormatError(err))
		}
		return pushView(newDetailView(state, id))
	case "members":
		// "members ORG" opens the roster view; subcommands go to cobra.
		if len(args) == 1 && !contains(c.subs["members"], args[0]) {
			id, err := resolveOrgID(state.App.Orgs.Store(), args[0])
			if err != nil {
				return outputCmd(FormatError(err))
			}
			return pushView(newMembersView(state, id))
		}
	case "journal":
		if len(args) == 0 {
			return pushView(newJournalView(state, ""))
		}
	}

	app := state.App
	return func() tea.Msg {
		return cmdOutputMsg{output: captureCobraOutput(app, parts)}
	}
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}

// formatShellHelp lists the commands available from the command bar.
func formatShellHelp(app *App) string {
	root := NewRootCmd(app)
	rows := [][]string{
		{"open ORG", "Open the detail view of a node"},
		{"members ORG", "Open the roster view of a node"},
		{"journal", "Open the journal view"},
		{"refresh", "Reload the tree from the service"},
		{"clear", "Dismiss command output"},
		{"quit", "Leave orgctl"},
	}
	for _, c := range root.Commands() {
		rows = append(rows, []string{c.Use, c.Short})
	}
	return formatter.Header("Commands") + "\n" + formatter.RenderTable([]string{"Command", "Description"}, rows)
}

// splitShellArgs splits a command line on whitespace, honouring single
// quotes, double quotes and backslash escapes.
func splitShellArgs(input string) ([]string, error) {
	var parts []string
	var cur strings.Builder

	inSingle := false
	inDouble := false
	escaped := false
	tokenStarted := false

	flush := func() {
		parts = append(parts, cur.String())
		cur.Reset()
		tokenStarted = false
	}

	for _, r := range input {
		if escaped {
			cur.WriteRune(r)
			tokenStarted = true
			escaped = false
			continue
		}

		if inSingle {
			if r == '\'' {
				inSingle = false
			} else {
				cur.WriteRune(r)
			}
			tokenStarted = true
			continue
		}

		if inDouble {
			switch r {
			case '"':
				inDouble = false
			case '\\':
				escaped = true
			default:
				cur.WriteRune(r)
			}
			tokenStarted = true
			continue
		}

		switch r {
		case '\\':
			escaped = true
			tokenStarted = true
		case '\'':
			inSingle = true
			tokenStarted = true
		case '"':
			inDouble = true
			tokenStarted = true
		case ' ', '\t', '\n', '\r':
			if tokenStarted {
				flush()
			}
		default:
			cur.WriteRune(r)
			tokenStarted = true
		}
	}

	if escaped {
		return nil, fmt.Errorf("unterminated escape sequence")
	}
	if inSingle || inDouble {
		return nil, fmt.Errorf("unterminated quoted string")
	}
	if tokenStarted {
		flush()
	}

	return parts, nil
}
