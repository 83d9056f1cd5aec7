package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/orgctl/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
	StyleCursor = lipgloss.NewStyle().Foreground(ColorGreen).Bold(true)
)

// StatusPill renders an enabled/disabled marker.
func StatusPill(s domain.OrgStatus) string {
	if s == domain.OrgEnabled {
		return StyleGreen.Render("● enabled")
	}
	return StyleDim.Render("○ disabled")
}

// TypeBadge renders the node type as a short colored label.
func TypeBadge(t domain.OrgType) string {
	switch t {
	case domain.OrgTypeOrganization:
		return StylePurple.Render("org")
	case domain.OrgTypeDepartment:
		return StyleBlue.Render("dept")
	default:
		return StyleDim.Render(t.String())
	}
}

func RiskIndicator(r domain.RiskLevel) string {
	switch r {
	case domain.RiskHigh:
		return StyleRed.Render("▲ HIGH RISK")
	case domain.RiskLow:
		return StyleGreen.Render("● LOW RISK")
	default:
		return StyleDim.Render("● " + strings.ToUpper(string(r)))
	}
}

// Header renders an upper-cased section title with an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(strings.Repeat("─", len(upper))))
}

func Dim(text string) string {
	return StyleDim.Render(text)
}

func Bold(text string) string {
	return StyleBold.Render(text)
}
