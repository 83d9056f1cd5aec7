package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/orgctl/internal/cli/formatter"
	"github.com/alexanderramin/orgctl/internal/domain"
	"github.com/alexanderramin/orgctl/internal/service"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type membersLoadedMsg struct {
	seq   int
	orgID string
	users []domain.DeptUser
	err   error
}

// membersView lists the users attached directly to one node and manages
// their primary and auxiliary attachments.
type membersView struct {
	state   *SharedState
	orgID   string
	users   []domain.DeptUser
	filter  service.MemberFilter
	cursor  int
	loading bool
	err     error
	seq     int

	searching bool
}

func newMembersView(state *SharedState, orgID string) *membersView {
	return &membersView{state: state, orgID: orgID, loading: true}
}

func (v *membersView) ID() ViewID          { return ViewMembers }
func (v *membersView) CapturesInput() bool { return v.searching }

func (v *membersView) Title() string {
	return orgName(v.state.App.Orgs.Store(), v.orgID) + " members"
}

func (v *membersView) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "primary filter")),
		key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "set primary")),
		key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add auxiliary")),
		key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "remove auxiliary")),
		key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	}
}

func (v *membersView) Init() tea.Cmd {
	return v.load()
}

func (v *membersView) load() tea.Cmd {
	v.seq = v.state.nextSeq()
	seq, orgID := v.seq, v.orgID
	roster := v.state.App.Roster
	return func() tea.Msg {
		users, err := roster.List(context.Background(), orgID, false)
		return membersLoadedMsg{seq: seq, orgID: orgID, users: users, err: err}
	}
}

func (v *membersView) visible() []domain.DeptUser {
	return service.FilterMembers(v.users, v.filter)
}

func (v *membersView) selected() (domain.DeptUser, bool) {
	users := v.visible()
	if v.cursor < 0 || v.cursor >= len(users) {
		return domain.DeptUser{}, false
	}
	return users[v.cursor], true
}

func (v *membersView) clamp() {
	n := len(v.visible())
	v.cursor = min(max(v.cursor, 0), max(n-1, 0))
}

func (v *membersView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case membersLoadedMsg:
		if msg.seq != v.seq || msg.orgID != v.orgID {
			return v, nil
		}
		v.loading = false
		v.err = msg.err
		if msg.err == nil {
			v.users = msg.users
		}
		v.clamp()
		return v, nil

	case refreshViewMsg:
		if msg.reload {
			return v, v.load()
		}
		// Roster mutations re-list the node, so the cache is current.
		if users, ok := v.state.App.Roster.Cached(v.orgID); ok {
			v.users = users
		}
		v.clamp()
		return v, nil

	case tea.KeyMsg:
		if v.searching {
			return v.updateSearch(msg)
		}
		return v.updateNormal(msg)
	}
	return v, nil
}

func (v *membersView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		v.cursor--
		v.clamp()
	case "down", "j":
		v.cursor++
		v.clamp()
	case "/":
		v.searching = true
	case "f":
		switch v.filter.Primary {
		case domain.TriAny:
			v.filter.Primary = domain.TriYes
		case domain.TriYes:
			v.filter.Primary = domain.TriNo
		default:
			v.filter.Primary = domain.TriAny
		}
		v.clamp()
	case "r":
		return v, v.load()
	case "a":
		return v, v.addAuxiliary()
	case "p":
		if u, ok := v.selected(); ok {
			return v, v.rosterMutation(fmt.Sprintf("%s is now primary here", u.UserName), u.UserID, service.RosterService.SetPrimary)
		}
	case "x":
		if u, ok := v.selected(); ok {
			return v, v.rosterMutation(fmt.Sprintf("Removed %s", u.UserName), u.UserID, service.RosterService.RemoveAuxiliary)
		}
	}
	return v, nil
}

func (v *membersView) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		v.searching = false
		v.filter.Search = ""
	case tea.KeyEnter:
		v.searching = false
	case tea.KeyBackspace:
		if s := []rune(v.filter.Search); len(s) > 0 {
			v.filter.Search = string(s[:len(s)-1])
		}
	case tea.KeyRunes, tea.KeySpace:
		v.filter.Search += msg.String()
	}
	v.clamp()
	return v, nil
}

func (v *membersView) rosterMutation(success, userID string, fn rosterMutation) tea.Cmd {
	if v.state.Offline {
		return noticeCmd(formatter.StyleYellow.Render(readOnlyNotice))
	}
	roster, orgID := v.state.App.Roster, v.orgID
	return mutate(success, "", func() error {
		return fn(roster, context.Background(), userID, orgID)
	})
}

func (v *membersView) addAuxiliary() tea.Cmd {
	if v.state.Offline {
		return noticeCmd(formatter.StyleYellow.Render(readOnlyNotice))
	}
	var userID string
	form := newUserForm("Attach user to "+orgName(v.state.App.Orgs.Store(), v.orgID), &userID)
	return startWizardCmd(v.state, "Add auxiliary", form, func() tea.Cmd {
		return v.rosterMutation("Attached "+strings.TrimSpace(userID), strings.TrimSpace(userID), service.RosterService.AddAuxiliary)
	})
}

func (v *membersView) View() string {
	if v.loading {
		return "\n  " + formatter.Dim("Loading members...")
	}
	if v.err != nil {
		return "\n  " + FormatError(v.err) + "\n  " + formatter.Dim("press r to retry")
	}

	var b strings.Builder
	b.WriteString("\n")
	if v.searching {
		b.WriteString("  " + formatter.StyleYellow.Render("/") + " " + v.filter.Search + "█\n")
	} else if desc := v.describeFilter(); desc != "" {
		b.WriteString("  " + formatter.Dim("filter: "+desc) + "\n")
	}

	users := v.visible()
	if len(users) == 0 {
		b.WriteString("  " + formatter.Dim("No members match.") + "\n")
		return b.String()
	}
	for i, u := range users {
		cursor := "  "
		if i == v.cursor {
			cursor = formatter.StyleCursor.Render("▸ ")
		}
		fmt.Fprintf(&b, "%s%-10s %-24s %s\n", cursor, u.UserID, formatter.Truncate(u.UserName, 24), formatter.AttachmentPill(u.State()))
	}
	b.WriteString("\n  " + formatter.Dim(formatter.Plural(len(users), "member")) + "\n")
	return b.String()
}

func (v *membersView) describeFilter() string {
	var parts []string
	if v.filter.Search != "" {
		parts = append(parts, fmt.Sprintf("search %q", v.filter.Search))
	}
	switch v.filter.Primary {
	case domain.TriYes:
		parts = append(parts, "primary only")
	case domain.TriNo:
		parts = append(parts, "auxiliary only")
	}
	return strings.Join(parts, ", ")
}
