package formatter

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// TreeItem is one line of a rendered tree. Label and Badge may carry styling.
type TreeItem struct {
	Label string
	Level int
	Badge string
}

const (
	treeBranch = "├─ "
	treeCorner = "└─ "
	treePipe   = "│  "
	treeBlank  = "   "
)

// RenderTree draws items, given in pre-order, with box-drawing connectors.
// Level 0 items are drawn flush left. Badges are aligned in one column.
func RenderTree(items []TreeItem) string {
	if len(items) == 0 {
		return ""
	}
	last := lastSiblings(items)

	prefixes := make([]string, len(items))
	lastAt := map[int]bool{}
	width := 0
	for i, it := range items {
		var p strings.Builder
		for l := 1; l < it.Level; l++ {
			if lastAt[l] {
				p.WriteString(treeBlank)
			} else {
				p.WriteString(treePipe)
			}
		}
		if it.Level > 0 {
			if last[i] {
				p.WriteString(treeCorner)
			} else {
				p.WriteString(treeBranch)
			}
		}
		lastAt[it.Level] = last[i]
		prefixes[i] = StyleDim.Render(p.String()) + it.Label
		width = max(width, lipgloss.Width(prefixes[i]))
	}

	var b strings.Builder
	for i, it := range items {
		line := prefixes[i]
		if it.Badge != "" {
			line += strings.Repeat(" ", width-lipgloss.Width(line)) + "  " + it.Badge
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

// lastSiblings reports, per item, whether no later sibling follows it.
func lastSiblings(items []TreeItem) []bool {
	last := make([]bool, len(items))
	seen := map[int]bool{}
	for i := len(items) - 1; i >= 0; i-- {
		lvl := items[i].Level
		last[i] = !seen[lvl]
		seen[lvl] = true
		for l := range seen {
			if l > lvl {
				delete(seen, l)
			}
		}
	}
	return last
}
