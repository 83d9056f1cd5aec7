package cli

import (
	"testing"
	"time"

	"github.com/alexanderramin/orgctl/internal/teatest"
)

// TestDriver wraps teatest.Driver with orgctl-specific inspection methods.
// It provides access to appModel internals (view stack, shared state,
// command bar focus) that the generic driver can't see.
type TestDriver struct {
	*teatest.Driver
}

// NewTestDriver creates a TestDriver from a test App.
// It constructs the appModel, sets terminal size, and drains Init(),
// which loads the tree from the fake service.
func NewTestDriver(t *testing.T, app *App) *TestDriver {
	t.Helper()

	m := newAppModel(app)
	d := teatest.New(t, m,
		teatest.WithCmdTimeout(250*time.Millisecond),
		teatest.WithSize(120, 40),
	)
	d.DrainInit()

	return &TestDriver{Driver: d}
}

// ── High-level helpers ───────────────────────────────────────────────────────

// Command focuses the command bar with ':', types the command, and presses Enter.
// Commands that push a view blur the bar themselves; output-only commands
// leave it focused, so the helper blurs it to route later keys to the view.
func (d *TestDriver) Command(input string) {
	d.T.Helper()
	d.PressKey(':')
	d.Type(input)
	d.PressEnter()
	if d.CmdBarFocused() {
		d.PressEsc()
	}
}

// PressEnterN presses Enter n times, stepping through form fields.
func (d *TestDriver) PressEnterN(n int) {
	d.T.Helper()
	for range n {
		d.PressEnter()
	}
}

// ── orgctl-specific inspection ───────────────────────────────────────────────

func (d *TestDriver) appModel() appModel {
	return d.Model.(appModel)
}

// ActiveViewID returns the ViewID of the top view on the stack.
func (d *TestDriver) ActiveViewID() ViewID {
	m := d.appModel()
	v := m.activeView()
	if v == nil {
		return ViewID(-1)
	}
	return v.ID()
}

// ViewStackLen returns the number of views on the stack.
func (d *TestDriver) ViewStackLen() int {
	return len(d.appModel().viewStack)
}

// State returns the shared state for inspection.
func (d *TestDriver) State() *SharedState {
	return d.appModel().state
}

// Tree returns the home view.
func (d *TestDriver) Tree() *treeView {
	return d.appModel().viewStack[0].(*treeView)
}

// IsQuitting returns whether the app has signaled a quit.
func (d *TestDriver) IsQuitting() bool {
	return d.appModel().quitting || d.Quitting
}

// CmdBarFocused returns whether the command bar currently has focus.
func (d *TestDriver) CmdBarFocused() bool {
	m := d.appModel()
	return m.cmdBar.Focused()
}

// LastOutput returns the last command output displayed in the content area.
func (d *TestDriver) LastOutput() string {
	return d.appModel().lastOutput
}

// Notice returns the current notice line.
func (d *TestDriver) Notice() string {
	return d.appModel().notice
}

// SelectOrg moves the tree cursor onto the row showing id.
func (d *TestDriver) SelectOrg(id string) {
	d.T.Helper()
	tv := d.Tree()
	for i, r := range tv.rows() {
		if r.Node.ID == id {
			tv.cursor = i
			tv.selectedID = id
			return
		}
	}
	d.T.Fatalf("org %s is not visible in the tree", id)
}
