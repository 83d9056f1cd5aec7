package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alexanderramin/orgctl/internal/cli/formatter"
	"github.com/alexanderramin/orgctl/internal/domain"
	"github.com/alexanderramin/orgctl/internal/tree"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// orgHuhTheme returns a huh theme using the formatter's Gruvbox palette.
func orgHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	// Focused state: orange accent
	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorGreen)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.FocusedButton = lipgloss.NewStyle().Foreground(formatter.ColorFg).Background(formatter.ColorHeader).Padding(0, 1)
	t.Focused.BlurredButton = lipgloss.NewStyle().Foreground(formatter.ColorDim).Padding(0, 1)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.ErrorMessage = lipgloss.NewStyle().Foreground(formatter.ColorYellow)
	t.Focused.ErrorIndicator = lipgloss.NewStyle().Foreground(formatter.ColorYellow)

	// Blurred state: dimmed
	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

// orgFormValues backs the create and edit forms. Every field is a string
// so huh can bind it; conversion happens after submission.
type orgFormValues struct {
	Name        string
	Code        string
	Type        domain.OrgType
	ParentID    string
	LeaderID    string
	Region      string
	SortOrder   string
	Description string
}

func formValuesFrom(n domain.OrgNode) orgFormValues {
	return orgFormValues{
		Name:        n.Name,
		Code:        n.Code,
		Type:        n.Type,
		ParentID:    normalizeFormParent(n.ParentID),
		LeaderID:    n.LeaderID,
		Region:      n.Region,
		SortOrder:   strconv.Itoa(n.SortOrder),
		Description: n.Description,
	}
}

// draft builds a create request. An empty code is replaced by the
// suggestion derived from the name.
func (v *orgFormValues) draft() domain.OrgDraft {
	code := strings.TrimSpace(v.Code)
	if code == "" {
		code = domain.SuggestCode(v.Name)
	}
	return domain.OrgDraft{
		ParentID:    v.ParentID,
		Name:        v.Name,
		Code:        code,
		Type:        v.Type,
		LeaderID:    v.LeaderID,
		Description: v.Description,
		Region:      v.Region,
		SortOrder:   parseNonNegativeInt(v.SortOrder, 0),
	}
}

// patch lists only the fields that differ from orig.
func (v *orgFormValues) patch(orig domain.OrgNode) domain.OrgPatch {
	var p domain.OrgPatch
	before := formValuesFrom(orig)
	if v.Name != before.Name {
		p.Name = &v.Name
	}
	if v.Code != before.Code {
		p.Code = &v.Code
	}
	if v.Type != before.Type {
		t := v.Type
		p.Type = &t
	}
	if v.ParentID != before.ParentID {
		p.ParentID = &v.ParentID
	}
	if v.LeaderID != before.LeaderID {
		p.LeaderID = &v.LeaderID
	}
	if v.Region != before.Region {
		p.Region = &v.Region
	}
	if v.Description != before.Description {
		p.Description = &v.Description
	}
	if v.SortOrder != before.SortOrder {
		n := parseNonNegativeInt(v.SortOrder, orig.SortOrder)
		p.SortOrder = &n
	}
	return p
}

func normalizeFormParent(id string) string {
	if domain.IsRootParent(id) {
		return domain.RootParentID
	}
	return id
}

// newOrgForm builds the create/edit form. parents is non-nil only when
// editing, where the parent can change.
func newOrgForm(v *orgFormValues, parents []huh.Option[string]) *huh.Form {
	identity := huh.NewGroup(
		huh.NewInput().
			Title("Name").
			Value(&v.Name).
			Validate(validateRequired(64)),
		huh.NewInput().
			Title("Code").
			Description("Leave empty to derive it from the name").
			Value(&v.Code).
			Validate(validateMaxLen(64)),
	)

	placement := []huh.Field{
		huh.NewSelect[domain.OrgType]().
			Title("Type").
			Options(
				huh.NewOption("Department", domain.OrgTypeDepartment),
				huh.NewOption("Organization", domain.OrgTypeOrganization),
			).
			Value(&v.Type),
	}
	if parents != nil {
		placement = append(placement, huh.NewSelect[string]().
			Title("Parent").
			Options(parents...).
			Value(&v.ParentID))
	}
	placement = append(placement,
		huh.NewInput().Title("Leader user id").Value(&v.LeaderID),
		huh.NewInput().Title("Region").Value(&v.Region).Validate(validateMaxLen(64)),
		huh.NewInput().Title("Sort order").Value(&v.SortOrder).Validate(validateNonNegativeInt),
	)

	details := huh.NewGroup(
		huh.NewInput().Title("Description").Value(&v.Description).Validate(validateMaxLen(500)),
	)

	return huh.NewForm(identity, huh.NewGroup(placement...), details).
		WithTheme(orgHuhTheme()).
		WithShowHelp(false)
}

// parentOptions lists the top level and every node outside id's subtree.
func parentOptions(store *tree.Store, id string) []huh.Option[string] {
	opts := []huh.Option[string]{huh.NewOption("(top level)", domain.RootParentID)}
	for _, n := range store.All() {
		if n.ID == id || store.IsDescendant(id, n.ID) {
			continue
		}
		opts = append(opts, huh.NewOption(strings.Join(store.PathOf(n.ID), " / "), n.ID))
	}
	return opts
}

// newUserForm asks for a single user id.
func newUserForm(title string, userID *string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Value(userID).
				Validate(validateRequired(64)),
		),
	).WithTheme(orgHuhTheme()).WithShowHelp(false)
}

// newConfirmForm creates a yes/no confirmation defaulting to no.
func newConfirmForm(title, description string, result *bool) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes").
				Negative("No").
				Value(result),
		),
	).WithTheme(orgHuhTheme()).WithShowHelp(false)
}

func validateRequired(maxLen int) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("is required")
		}
		return validateMaxLen(maxLen)(s)
	}
}

func validateMaxLen(maxLen int) func(string) error {
	return func(s string) error {
		if len([]rune(strings.TrimSpace(s))) > maxLen {
			return fmt.Errorf("must be at most %d characters", maxLen)
		}
		return nil
	}
}

// validateNonNegativeInt accepts empty or a non-negative integer.
func validateNonNegativeInt(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < 0 {
		return fmt.Errorf("enter 0 or a positive number")
	}
	return nil
}

// parseNonNegativeInt parses s, returning fallback if s is empty or invalid.
// Form validation has already run, so the fallback is for empty input.
func parseNonNegativeInt(s string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
