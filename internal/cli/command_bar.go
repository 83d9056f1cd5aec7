package cli

import (
	"strings"

	"github.com/alexanderramin/orgctl/internal/cli/formatter"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// commandBar is the persistent text input at the bottom of the TUI.
// It handles command entry, autocomplete suggestions, and history navigation.
type commandBar struct {
	input   textinput.Model
	state   *SharedState
	focused bool

	names []string
	subs  map[string][]string

	history    []string
	historyIdx int
}

func newCommandBar(state *SharedState) commandBar {
	ti := textinput.New()
	ti.Prompt = ""
	ti.ShowSuggestions = true
	ti.CharLimit = 500
	ti.KeyMap.NextSuggestion = key.NewBinding(key.WithKeys("ctrl+n"))
	ti.KeyMap.PrevSuggestion = key.NewBinding(key.WithKeys("ctrl+p"))

	names, subs := commandNames(NewRootCmd(state.App))
	hist := loadHistoryFromPath(state.App.HistoryPath)

	return commandBar{
		input:      ti,
		state:      state,
		names:      names,
		subs:       subs,
		history:    hist,
		historyIdx: len(hist),
	}
}

func (c *commandBar) Focus() {
	c.focused = true
	c.input.Focus()
}

func (c *commandBar) Blur() {
	c.focused = false
	c.input.Blur()
}

func (c *commandBar) Focused() bool {
	return c.focused
}

// SetWidth updates the input width for terminal resizing.
func (c *commandBar) SetWidth(w int) {
	c.input.Width = w - len("orgctl > ") - 1
}

// Update handles key messages when the command bar is focused.
func (c *commandBar) Update(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEnter:
		input := strings.TrimSpace(c.input.Value())
		c.input.Reset()
		c.input.SetSuggestions(nil)
		if input == "" {
			return nil
		}
		c.addHistory(input)
		return c.executeCommand(input)

	case tea.KeyUp:
		c.historyUp()
		return nil

	case tea.KeyDown:
		c.historyDown()
		return nil

	case tea.KeyEsc:
		c.Blur()
		return nil

	default:
		var cmd tea.Cmd
		c.input, cmd = c.input.Update(msg)
		c.updateSuggestions()
		return cmd
	}
}

// UpdateNonKey handles non-key messages (e.g., cursor blink).
func (c *commandBar) UpdateNonKey(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	return cmd
}

func (c *commandBar) View() string {
	prompt := formatter.StylePurple.Render("orgctl") + " " + formatter.Dim("❯") + " "
	if !c.focused {
		return prompt + formatter.Dim("press : to type a command")
	}
	return prompt + c.input.View()
}

// ── history ──────────────────────────────────────────────────────────────────

func (c *commandBar) addHistory(line string) {
	c.history = append(c.history, line)
	c.historyIdx = len(c.history)
	appendHistoryToPath(c.state.App.HistoryPath, line)
}

func (c *commandBar) historyUp() {
	if c.historyIdx > 0 {
		c.historyIdx--
		c.input.SetValue(c.history[c.historyIdx])
		c.input.CursorEnd()
	}
}

func (c *commandBar) historyDown() {
	if c.historyIdx < len(c.history)-1 {
		c.historyIdx++
		c.input.SetValue(c.history[c.historyIdx])
		c.input.CursorEnd()
	} else {
		c.historyIdx = len(c.history)
		c.input.SetValue("")
	}
}

// ── suggestions ──────────────────────────────────────────────────────────────

// orgArgCommands take a node reference as their first argument.
var orgArgCommands = map[string]bool{
	"open": true, "show": true, "update": true, "move": true, "enable": true,
	"disable": true, "delete": true, "impact": true,
}

func (c *commandBar) updateSuggestions() {
	text := c.input.Value()
	if text == "" {
		c.input.SetSuggestions(nil)
		return
	}

	parts := strings.Fields(text)
	trailingSpace := strings.HasSuffix(text, " ")

	if len(parts) <= 1 && !trailingSpace {
		c.input.SetSuggestions(filterSuggestions(c.names, parts[0]))
		return
	}

	cmd := strings.ToLower(parts[0])
	if len(parts) <= 2 && (!trailingSpace || len(parts) == 1) {
		prefix := ""
		if len(parts) == 2 {
			prefix = parts[1]
		}
		if orgArgCommands[cmd] {
			c.input.SetSuggestions(withPrefix(cmd+" ", orgSuggestions(c.state.App.Orgs.Store(), prefix)))
			return
		}
		if subs, ok := c.subs[cmd]; ok {
			c.input.SetSuggestions(withPrefix(cmd+" ", filterSuggestions(subs, prefix)))
			return
		}
	}

	c.input.SetSuggestions(nil)
}

// withPrefix turns argument suggestions into full-line suggestions, which
// is what textinput completes against.
func withPrefix(prefix string, items []string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = prefix + s
	}
	return out
}
