package formatter

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// TableOption adjusts RenderTable.
type TableOption func(*tableConfig)

type tableConfig struct {
	right map[int]bool
}

// AlignRight right-aligns the given zero-based columns, for counts.
func AlignRight(cols ...int) TableOption {
	return func(c *tableConfig) {
		for _, col := range cols {
			c.right[col] = true
		}
	}
}

// RenderTable renders headers, a separator line and rows, padding every
// column to its widest visible cell.
func RenderTable(headers []string, rows [][]string, opts ...TableOption) string {
	if len(headers) == 0 {
		return ""
	}
	cfg := tableConfig{right: map[int]bool{}}
	for _, opt := range opts {
		opt(&cfg)
	}

	const gap = "  "
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := 0; i < len(headers) && i < len(row); i++ {
			widths[i] = max(widths[i], lipgloss.Width(row[i]))
		}
	}

	pad := func(cell string, col int) string {
		fill := strings.Repeat(" ", max(widths[col]-lipgloss.Width(cell), 0))
		if cfg.right[col] {
			return fill + cell
		}
		if col == len(headers)-1 {
			return cell
		}
		return cell + fill
	}

	var b strings.Builder
	cells := make([]string, len(headers))
	for i, h := range headers {
		cells[i] = StyleHeader.Render(pad(h, i))
	}
	b.WriteString(strings.Join(cells, gap) + "\n")
	for i, w := range widths {
		cells[i] = StyleDim.Render(strings.Repeat("─", w))
	}
	b.WriteString(strings.Join(cells, gap) + "\n")
	for _, row := range rows {
		for i := range headers {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			cells[i] = pad(cell, i)
		}
		b.WriteString(strings.Join(cells, gap) + "\n")
	}
	return b.String()
}
