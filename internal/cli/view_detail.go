package cli

import (
	"context"
	"strings"

	"github.com/alexanderramin/orgctl/internal/cli/formatter"
	"github.com/alexanderramin/orgctl/internal/domain"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type detailLoadedMsg struct {
	seq    int
	detail *domain.OrgDetail
	err    error
}

// detailView shows the active node. Opening it makes the node active in
// the org service so that later edits target it.
type detailView struct {
	state   *SharedState
	orgID   string
	detail  *domain.OrgDetail
	loading bool
	err     error
	seq     int
}

func newDetailView(state *SharedState, orgID string) *detailView {
	return &detailView{state: state, orgID: orgID, loading: true}
}

func (v *detailView) ID() ViewID { return ViewDetail }

func (v *detailView) Title() string {
	return orgName(v.state.App.Orgs.Store(), v.orgID)
}

func (v *detailView) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "edit")),
		key.NewBinding(key.WithKeys("M"), key.WithHelp("M", "members")),
		key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "journal")),
		key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	}
}

func (v *detailView) Init() tea.Cmd {
	return v.load()
}

func (v *detailView) load() tea.Cmd {
	v.seq = v.state.nextSeq()
	seq, id := v.seq, v.orgID
	orgs := v.state.App.Orgs
	return func() tea.Msg {
		d, err := orgs.SetActive(context.Background(), id)
		return detailLoadedMsg{seq: seq, detail: d, err: err}
	}
}

func (v *detailView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case detailLoadedMsg:
		if msg.seq != v.seq {
			return v, nil
		}
		v.loading = false
		v.err = msg.err
		if msg.err == nil {
			v.detail = msg.detail
		}
		return v, nil

	case refreshViewMsg:
		if msg.reload {
			return v, v.load()
		}
		if active := v.state.App.Orgs.Active(); active != nil && active.ID == v.orgID {
			v.detail = active
			return v, nil
		}
		if _, ok := v.state.App.Orgs.Store().Get(v.orgID); !ok {
			// The node is gone, most likely deleted from another view.
			return v, popView()
		}
		return v, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			return v, v.load()
		case "M":
			return v, pushView(newMembersView(v.state, v.orgID))
		case "L":
			return v, pushView(newJournalView(v.state, v.orgID))
		case "u":
			return v, v.edit()
		}
	}
	return v, nil
}

func (v *detailView) edit() tea.Cmd {
	if v.state.Offline {
		return noticeCmd(formatter.StyleYellow.Render(readOnlyNotice))
	}
	node, ok := v.state.App.Orgs.Store().Get(v.orgID)
	if !ok {
		return nil
	}
	orgs := v.state.App.Orgs
	values := formValuesFrom(node)
	form := newOrgForm(&values, parentOptions(orgs.Store(), node.ID))
	return startWizardCmd(v.state, "Edit "+node.Name, form, func() tea.Cmd {
		p := values.patch(node)
		if p.IsEmpty() {
			return noticeCmd(formatter.Dim("No changes."))
		}
		return mutate("Updated "+values.Name, node.ID, func() error {
			return orgs.Update(context.Background(), node.ID, p)
		})
	})
}

func (v *detailView) View() string {
	if v.loading && v.detail == nil {
		return "\n  " + formatter.Dim("Loading...")
	}
	if v.err != nil && v.detail == nil {
		return "\n  " + FormatError(v.err) + "\n  " + formatter.Dim("press r to retry")
	}
	path := v.state.App.Orgs.Store().PathOf(v.orgID)
	box := formatter.FormatDetail(v.detail, path)

	var b strings.Builder
	b.WriteString("\n")
	for _, line := range strings.Split(box, "\n") {
		b.WriteString("  " + line + "\n")
	}
	return b.String()
}
