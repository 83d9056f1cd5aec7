package cli

import (
	"context"
	"strings"
	"time"

	"github.com/alexanderramin/orgctl/internal/cli/formatter"
	"github.com/alexanderramin/orgctl/internal/domain"
	"github.com/alexanderramin/orgctl/internal/repository"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type journalLoadedMsg struct {
	seq     int
	entries []*domain.JournalEntry
	err     error
}

// journalView lists recent mutations, optionally for one node.
type journalView struct {
	state   *SharedState
	orgID   string
	entries []*domain.JournalEntry
	offset  int
	loading bool
	err     error
	seq     int
}

func newJournalView(state *SharedState, orgID string) *journalView {
	return &journalView{state: state, orgID: orgID, loading: true}
}

func (v *journalView) ID() ViewID { return ViewJournal }

func (v *journalView) Title() string {
	if v.orgID == "" {
		return "Journal"
	}
	return "Journal: " + orgName(v.state.App.Orgs.Store(), v.orgID)
}

func (v *journalView) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("j"), key.WithHelp("j/k", "scroll")),
		key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	}
}

func (v *journalView) Init() tea.Cmd {
	return v.load()
}

func (v *journalView) load() tea.Cmd {
	v.seq = v.state.nextSeq()
	seq := v.seq
	journal := v.state.App.Journal
	f := repository.JournalFilter{OrgID: v.orgID}
	return func() tea.Msg {
		if journal == nil {
			return journalLoadedMsg{seq: seq}
		}
		entries, err := journal.List(context.Background(), f)
		return journalLoadedMsg{seq: seq, entries: entries, err: err}
	}
}

func (v *journalView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case journalLoadedMsg:
		if msg.seq != v.seq {
			return v, nil
		}
		v.loading = false
		v.err = msg.err
		v.entries = msg.entries
		return v, nil
	case refreshViewMsg:
		// Every mutation is journaled, so any refresh may add entries.
		return v, v.load()
	case tea.KeyMsg:
		switch msg.String() {
		case "down", "j":
			v.offset++
		case "up", "k":
			v.offset = max(v.offset-1, 0)
		case "r":
			return v, v.load()
		}
	}
	return v, nil
}

func (v *journalView) View() string {
	if v.loading {
		return "\n  " + formatter.Dim("Loading journal...")
	}
	if v.err != nil {
		return "\n  " + FormatError(v.err)
	}
	lines := strings.Split(strings.TrimRight(formatter.FormatJournal(v.entries, time.Now()), "\n"), "\n")
	height := max(v.state.ContentHeight()-1, 1)
	// The header and separator stay pinned.
	head, body := lines, []string(nil)
	if len(lines) > 2 {
		head, body = lines[:2], lines[2:]
	}
	v.offset = min(v.offset, max(len(body)-(height-len(head)), 0))
	end := min(v.offset+height-len(head), len(body))

	var b strings.Builder
	b.WriteString("\n")
	for _, l := range head {
		b.WriteString("  " + l + "\n")
	}
	if v.offset < end {
		for _, l := range body[v.offset:end] {
			b.WriteString("  " + l + "\n")
		}
	}
	return b.String()
}
