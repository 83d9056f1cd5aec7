package cli

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/alexanderramin/orgctl/internal/cli/formatter"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/spf13/cobra"
)

// captureCobraOutput runs a command through the cobra tree with its
// output sent to a buffer, so nothing is written into the alternate screen.
// The copy of app is non-interactive: no spinners, no nested TUI.
func captureCobraOutput(app *App, args []string) string {
	quiet := *app
	quiet.Interactive = nil

	root := NewRootCmd(&quiet)
	root.DisableSuggestions = true
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)

	if err := root.ExecuteContext(context.Background()); err != nil {
		if buf.Len() > 0 && !bytes.HasSuffix(buf.Bytes(), []byte("\n")) {
			buf.WriteString("\n")
		}
		buf.WriteString(FormatError(err))
		if strings.HasPrefix(err.Error(), "unknown command") && len(args) > 0 {
			if hint := suggestAlternatives(root, args[0]); hint != "" {
				buf.WriteString("\n" + hint)
			}
		}
	}
	return buf.String()
}

// suggestAlternatives returns near matches for an unrecognized command:
// cobra's edit-distance suggestions first, then fuzzy subsequence matches.
func suggestAlternatives(root *cobra.Command, input string) string {
	short := make(map[string]string)
	var names []string
	for _, c := range root.Commands() {
		short[c.Name()] = c.Short
		names = append(names, c.Name())
	}

	root.SuggestionsMinimumDistance = 2
	matches := root.SuggestionsFor(input)
	ranks := fuzzy.RankFindFold(input, names)
	sort.Sort(ranks)
	for _, r := range ranks {
		matches = append(matches, r.Target)
	}

	seen := make(map[string]bool)
	var b strings.Builder
	for _, m := range matches {
		if seen[m] || len(seen) == 3 {
			continue
		}
		seen[m] = true
		if b.Len() == 0 {
			b.WriteString(formatter.Dim("Did you mean:"))
		}
		b.WriteString(fmt.Sprintf("\n  %s  %s", formatter.StyleGreen.Render(m), formatter.Dim(short[m])))
	}
	return b.String()
}
