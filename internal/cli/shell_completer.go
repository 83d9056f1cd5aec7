package cli

import (
	"sort"
	"strings"

	"github.com/alexanderramin/orgctl/internal/tree"
	"github.com/spf13/cobra"
)

// tuiCommands are handled by the TUI itself rather than the cobra tree.
var tuiCommands = []string{"open", "refresh", "clear", "help", "exit", "quit"}

// commandNames returns the top-level command names for autocomplete and
// the subcommands per parent, read from the cobra tree.
func commandNames(root *cobra.Command) ([]string, map[string][]string) {
	names := append([]string(nil), tuiCommands...)
	subs := make(map[string][]string)
	for _, c := range root.Commands() {
		if c.Hidden || c.Name() == "help" || c.Name() == "completion" {
			continue
		}
		names = append(names, c.Name())
		for _, sc := range c.Commands() {
			subs[c.Name()] = append(subs[c.Name()], sc.Name())
		}
	}
	sort.Strings(names)
	return names, subs
}

// orgSuggestions offers node ids and codes starting with prefix.
func orgSuggestions(store *tree.Store, prefix string) []string {
	var pool []string
	for _, n := range store.All() {
		pool = append(pool, n.ID)
		if n.Code != "" {
			pool = append(pool, n.Code)
		}
	}
	return filterSuggestions(pool, prefix)
}

// filterSuggestions returns items from pool that start with prefix (case-insensitive).
func filterSuggestions(pool []string, prefix string) []string {
	if prefix == "" {
		return pool
	}
	lp := strings.ToLower(prefix)
	var result []string
	for _, s := range pool {
		if strings.HasPrefix(strings.ToLower(s), lp) {
			result = append(result, s)
		}
	}
	return result
}
