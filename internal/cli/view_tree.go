package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/orgctl/internal/cli/formatter"
	"github.com/alexanderramin/orgctl/internal/domain"
	"github.com/alexanderramin/orgctl/internal/impact"
	"github.com/alexanderramin/orgctl/internal/orgclient"
	"github.com/alexanderramin/orgctl/internal/tree"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

const readOnlyNotice = "offline: browsing a cached snapshot (read-only); press r to retry"

// treeLoadedMsg signals that a tree fetch finished. banner is set when the
// service was unreachable and the snapshot was loaded instead.
type treeLoadedMsg struct {
	seq    int
	err    error
	banner string
}

// impactReadyMsg carries an impact summary computed before a destructive action.
type impactReadyMsg struct {
	seq     int
	summary impact.Summary
	err     error
}

// treeView shows the organization tree with expand state, filter and
// mutation shortcuts.
type treeView struct {
	state      *SharedState
	cursor     int
	selectedID string
	loading    bool
	err        error
	seq        int
	impactSeq  int

	searching bool
}

func newTreeView(state *SharedState) *treeView {
	return &treeView{state: state, loading: true}
}

func (v *treeView) ID() ViewID          { return ViewTree }
func (v *treeView) Title() string       { return "Tree" }
func (v *treeView) CapturesInput() bool { return v.searching }

func (v *treeView) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "expand")),
		key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		key.NewBinding(key.WithKeys("a"), key.WithHelp("a/A", "add")),
		key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "edit")),
		key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "enable/disable")),
		key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete")),
		key.NewBinding(key.WithKeys("K"), key.WithHelp("K/J", "reorder")),
		key.NewBinding(key.WithKeys("M"), key.WithHelp("M", "members")),
		key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	}
}

func (v *treeView) Init() tea.Cmd {
	return v.load()
}

// load fetches the full tree, falling back to the saved snapshot when the
// service cannot be reached.
func (v *treeView) load() tea.Cmd {
	v.seq = v.state.nextSeq()
	seq := v.seq
	orgs := v.state.App.Orgs
	return func() tea.Msg {
		ctx := context.Background()
		err := orgs.Refresh(ctx, orgclient.TreeQuery{})
		if err == nil {
			return treeLoadedMsg{seq: seq}
		}
		if !errors.Is(err, orgclient.ErrUnavailable) && !errors.Is(err, orgclient.ErrTimeout) {
			return treeLoadedMsg{seq: seq, err: err}
		}
		snap, cErr := orgs.LoadCached(ctx)
		if cErr != nil {
			return treeLoadedMsg{seq: seq, err: err}
		}
		return treeLoadedMsg{seq: seq, banner: fmt.Sprintf("offline: showing snapshot from %s (read-only)",
			snap.FetchedAt.Local().Format("2006-01-02 15:04"))}
	}
}

func (v *treeView) rows() []tree.Row {
	return v.state.Presenter.Rows(v.state.Filter)
}

func (v *treeView) selected() (tree.Row, bool) {
	rows := v.rows()
	if v.cursor < 0 || v.cursor >= len(rows) {
		return tree.Row{}, false
	}
	return rows[v.cursor], true
}

// syncCursor keeps the selection on the same node across reloads and
// filter changes, clamping when it disappeared.
func (v *treeView) syncCursor() {
	rows := v.rows()
	for i, r := range rows {
		if r.Node.ID == v.selectedID {
			v.cursor = i
			return
		}
	}
	v.cursor = min(max(v.cursor, 0), max(len(rows)-1, 0))
	if len(rows) > 0 {
		v.selectedID = rows[v.cursor].Node.ID
	}
}

func (v *treeView) moveCursor(delta int) {
	rows := v.rows()
	if len(rows) == 0 {
		return
	}
	v.cursor = min(max(v.cursor+delta, 0), len(rows)-1)
	v.selectedID = rows[v.cursor].Node.ID
}

func (v *treeView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case treeLoadedMsg:
		if msg.seq != v.seq {
			return v, nil
		}
		v.loading = false
		v.err = msg.err
		v.state.Offline = msg.banner != ""
		v.state.OfflineBanner = msg.banner
		v.syncCursor()
		if msg.banner != "" {
			return v, noticeCmd(formatter.StyleYellow.Render(msg.banner))
		}
		return v, nil

	case refreshViewMsg:
		if msg.reload {
			return v, v.load()
		}
		if msg.focusID != "" {
			v.state.Presenter.Reveal(msg.focusID)
			v.selectedID = msg.focusID
		}
		v.syncCursor()
		return v, nil

	case impactReadyMsg:
		if msg.seq != v.impactSeq {
			return v, nil
		}
		if msg.err != nil {
			return v, noticeCmd(FormatError(msg.err))
		}
		return v, v.confirmImpact(msg.summary)

	case tea.KeyMsg:
		if v.searching {
			return v.updateSearch(msg)
		}
		return v.updateNormal(msg)
	}
	return v, nil
}

func (v *treeView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := v.state.Presenter
	row, ok := v.selected()

	switch msg.String() {
	case "up", "k":
		v.moveCursor(-1)
		return v, nil
	case "down", "j":
		v.moveCursor(1)
		return v, nil
	case "e":
		p.ExpandAll()
		v.syncCursor()
		return v, nil
	case "c":
		p.CollapseAll()
		v.syncCursor()
		return v, nil
	case "/":
		v.searching = true
		return v, nil
	case "f":
		v.state.Filter.Fuzzy = !v.state.Filter.Fuzzy
		v.syncCursor()
		return v, nil
	case "s":
		v.cycleStatusFilter()
		v.syncCursor()
		return v, nil
	case "r":
		return v, v.load()
	case "A":
		return v, v.addChild(domain.RootParentID)
	}

	if !ok {
		return v, nil
	}
	id := row.Node.ID

	switch msg.String() {
	case " ":
		p.ToggleExpand(id)
	case "right":
		p.Expand(id)
	case "left":
		if row.Expanded && row.HasChildren {
			p.Collapse(id)
		} else if !row.Node.IsRoot() {
			v.selectedID = row.Node.ParentID
		}
		v.syncCursor()
	case "enter":
		return v, pushView(newDetailView(v.state, id))
	case "M":
		return v, pushView(newMembersView(v.state, id))
	case "L":
		return v, pushView(newJournalView(v.state, id))
	case "a":
		return v, v.addChild(id)
	case "u":
		return v, v.edit(row.Node)
	case "x":
		return v, v.analyze(id, domain.ActionDelete)
	case "d":
		if row.Node.Enabled() {
			return v, v.analyze(id, domain.ActionDeactivate)
		}
		return v, v.setStatus(row.Node, domain.OrgEnabled)
	case "K":
		return v, v.shift(row.Node, -1)
	case "J":
		return v, v.shift(row.Node, 1)
	}
	return v, nil
}

func (v *treeView) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		v.searching = false
		v.state.Filter.Search = ""
	case tea.KeyEnter:
		v.searching = false
	case tea.KeyBackspace:
		if s := []rune(v.state.Filter.Search); len(s) > 0 {
			v.state.Filter.Search = string(s[:len(s)-1])
		}
	case tea.KeyRunes, tea.KeySpace:
		v.state.Filter.Search += msg.String()
	}
	v.syncCursor()
	return v, nil
}

func (v *treeView) cycleStatusFilter() {
	f := &v.state.Filter
	switch {
	case f.Status == nil:
		s := domain.OrgEnabled
		f.Status = &s
	case *f.Status == domain.OrgEnabled:
		s := domain.OrgDisabled
		f.Status = &s
	default:
		f.Status = nil
	}
}

// ── mutations ────────────────────────────────────────────────────────────────

func (v *treeView) readOnly() tea.Cmd {
	if v.state.Offline {
		return noticeCmd(formatter.StyleYellow.Render(readOnlyNotice))
	}
	return nil
}

func (v *treeView) addChild(parentID string) tea.Cmd {
	if cmd := v.readOnly(); cmd != nil {
		return cmd
	}
	values := &orgFormValues{ParentID: parentID, Type: domain.OrgTypeDepartment}
	title := "New organization"
	if !domain.IsRootParent(parentID) {
		title = "New unit in " + orgName(v.state.App.Orgs.Store(), parentID)
	}
	orgs := v.state.App.Orgs
	return startWizardCmd(v.state, title, newOrgForm(values, nil), func() tea.Cmd {
		return func() tea.Msg {
			d := values.draft()
			id, err := orgs.Create(context.Background(), d)
			return mutationResultMsg{success: "Created " + d.Name, focusID: id, err: err}
		}
	})
}

func (v *treeView) edit(node domain.OrgNode) tea.Cmd {
	if cmd := v.readOnly(); cmd != nil {
		return cmd
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

func (v *treeView) setStatus(node domain.OrgNode, status domain.OrgStatus) tea.Cmd {
	if cmd := v.readOnly(); cmd != nil {
		return cmd
	}
	orgs := v.state.App.Orgs
	verb := "Enabled "
	if status == domain.OrgDisabled {
		verb = "Disabled "
	}
	return mutate(verb+node.Name, node.ID, func() error {
		return orgs.SetStatus(context.Background(), node.ID, status)
	})
}

func (v *treeView) shift(node domain.OrgNode, delta int) tea.Cmd {
	if cmd := v.readOnly(); cmd != nil {
		return cmd
	}
	orgs := v.state.App.Orgs
	dir := "down"
	if delta < 0 {
		dir = "up"
	}
	return mutate("Moved "+node.Name+" "+dir, node.ID, func() error {
		return orgs.Shift(context.Background(), node.ID, delta)
	})
}

// analyze computes the impact of a destructive action before asking for
// confirmation.
func (v *treeView) analyze(id string, action domain.ImpactAction) tea.Cmd {
	if cmd := v.readOnly(); cmd != nil {
		return cmd
	}
	v.impactSeq = v.state.nextSeq()
	seq := v.impactSeq
	orgs := v.state.App.Orgs
	return func() tea.Msg {
		s, err := orgs.Impact(context.Background(), id, action)
		return impactReadyMsg{seq: seq, summary: s, err: err}
	}
}

// confirmImpact asks before every delete and before high-risk disables.
func (v *treeView) confirmImpact(s impact.Summary) tea.Cmd {
	node, ok := v.state.App.Orgs.Store().Get(s.NodeID)
	if !ok {
		return nil
	}
	if s.Action == domain.ActionDeactivate && !s.RequiresConfirmation() {
		return v.setStatus(node, domain.OrgDisabled)
	}

	orgs := v.state.App.Orgs
	var confirmed bool
	form := newConfirmForm(s.Prompt(), formatter.FormatImpact(s), &confirmed)
	return startWizardCmd(v.state, "Confirm", form, func() tea.Cmd {
		if !confirmed {
			return noticeCmd(formatter.Dim("Cancelled."))
		}
		if s.Action == domain.ActionDeactivate {
			return v.setStatus(node, domain.OrgDisabled)
		}
		return mutate("Deleted "+node.Name, normalizeFocus(node.ParentID), func() error {
			return orgs.Delete(context.Background(), node.ID, true)
		})
	})
}

func normalizeFocus(parentID string) string {
	if domain.IsRootParent(parentID) {
		return ""
	}
	return parentID
}

// ── rendering ────────────────────────────────────────────────────────────────

func (v *treeView) View() string {
	if v.loading {
		return "\n  " + formatter.Dim("Loading organization tree...")
	}
	if v.err != nil {
		return "\n  " + FormatError(v.err) + "\n  " + formatter.Dim("press r to retry")
	}

	var b strings.Builder
	b.WriteString("\n  " + formatter.FormatStats(v.state.App.Orgs.Store().Summarize()) + "\n")
	if v.searching {
		b.WriteString("  " + formatter.StyleYellow.Render("/") + " " + v.state.Filter.Search + "█\n")
	} else if d := v.state.Filter.Describe(); d != "" {
		b.WriteString("  " + formatter.Dim("filter: "+d) + "\n")
	}
	b.WriteString("\n")

	rows := v.rows()
	if len(rows) == 0 {
		b.WriteString("  " + formatter.Dim("No organizations match.") + "\n")
		return b.String()
	}

	height := max(v.state.ContentHeight()-4, 1)
	start := 0
	if v.cursor >= height {
		start = v.cursor - height + 1
	}
	end := min(start+height, len(rows))

	for i := start; i < end; i++ {
		r := rows[i]
		cursor := "  "
		if i == v.cursor {
			cursor = formatter.StyleCursor.Render("▸ ")
		}
		indent := strings.Repeat("  ", r.Depth)
		b.WriteString(cursor + indent + formatter.TreeLabel(r) + "  " + formatter.TreeBadge(r.Node) + "\n")
	}
	if end < len(rows) {
		b.WriteString("  " + formatter.Dim(fmt.Sprintf("… %d more", len(rows)-end)) + "\n")
	}
	return b.String()
}
