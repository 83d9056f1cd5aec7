package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitShellArgs(t *testing.T) {
	tests := []struct {
		input string
		want  []string
		err   bool
	}{
		{"tree --expand-all", []string{"tree", "--expand-all"}, false},
		{`  show   "Sales East" `, []string{"show", "Sales East"}, false},
		{`create --name 'R&D' --desc "say \"hi\""`, []string{"create", "--name", "R&D", "--desc", `say "hi"`}, false},
		{`update 3 --region ""`, []string{"update", "3", "--region", ""}, false},
		{`show Sales\ East`, []string{"show", "Sales East"}, false},
		{"", nil, false},
		{`show "Sales`, nil, true},
		{`show Sales\`, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := splitShellArgs(tt.input)
			if tt.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilterSuggestions(t *testing.T) {
	pool := []string{"show", "stats", "Sales", "tree"}
	assert.Equal(t, []string{"show"}, filterSuggestions(pool, "sh"))
	assert.Equal(t, []string{"show", "stats", "Sales"}, filterSuggestions(pool, "S"))
	assert.Equal(t, pool, filterSuggestions(pool, ""))
	assert.Nil(t, filterSuggestions(pool, "xyz"))
}

func TestCommandNames_IncludesCobraAndTUICommands(t *testing.T) {
	app, _ := testApp(t)
	names, subs := commandNames(NewRootCmd(app))

	for _, want := range []string{"tree", "members", "export", "open", "refresh", "quit"} {
		assert.Contains(t, names, want)
	}
	assert.NotContains(t, names, "completion")
	assert.ElementsMatch(t, []string{"list", "set-primary", "add-aux", "remove-aux"}, subs["members"])
}

func TestOrgSuggestions(t *testing.T) {
	app, _ := testApp(t)
	_, err := executeCmd(t, app, "tree")
	require.NoError(t, err)

	got := orgSuggestions(app.Orgs.Store(), "sales")
	assert.ElementsMatch(t, []string{"sales", "sales_east"}, got)
}

func TestSuggestAlternatives(t *testing.T) {
	app, _ := testApp(t)
	hint := suggestAlternatives(NewRootCmd(app), "shwo")
	assert.Contains(t, hint, "Did you mean:")
	assert.Contains(t, hint, "show")

	assert.Empty(t, suggestAlternatives(NewRootCmd(app), "zzzzzz"))
}

func TestCaptureCobraOutput(t *testing.T) {
	app, _ := testApp(t)

	out := captureCobraOutput(app, []string{"show", "sales"})
	assert.Contains(t, out, "HQ / Sales")

	out = captureCobraOutput(app, []string{"shwo", "2"})
	assert.Contains(t, out, `unknown command "shwo"`)
	assert.Contains(t, out, "Did you mean:")

	out = captureCobraOutput(app, []string{"delete", "2"})
	assert.Contains(t, out, "confirmation required")
	assert.Contains(t, out, "re-run with --yes")
}

// ── command bar in the TUI ───────────────────────────────────────────────────

func TestCommandBar_FocusAndBlur(t *testing.T) {
	app, _ := testApp(t)
	d := NewTestDriver(t, app)

	assert.False(t, d.CmdBarFocused())
	d.PressKey(':')
	assert.True(t, d.CmdBarFocused())
	d.PressKey('q')
	assert.False(t, d.IsQuitting(), "q is typed into the bar")
	d.PressEsc()
	assert.False(t, d.CmdBarFocused())
}

func TestCommandBar_RunsCobraCommand(t *testing.T) {
	app, _ := testApp(t)
	d := NewTestDriver(t, app)

	d.Command("show sales")

	assert.Contains(t, d.LastOutput(), "HQ / Sales")
	assert.Contains(t, d.PlainView(), "HQ / Sales")

	d.PressKey('j')
	assert.Empty(t, d.LastOutput(), "any other key dismisses the output")
}

func TestCommandBar_MutationRefreshesTree(t *testing.T) {
	app, _ := testApp(t)
	d := NewTestDriver(t, app)

	d.Command(`create --name "Legal" --parent hq`)

	assert.Contains(t, d.LastOutput(), "Created Legal")
	d.PressEsc()
	assert.Contains(t, d.PlainView(), "Legal")
}

func TestCommandBar_OpenPushesDetail(t *testing.T) {
	app, _ := testApp(t)
	d := NewTestDriver(t, app)

	d.Command("open sales_east")

	assert.Equal(t, ViewDetail, d.ActiveViewID())
	assert.False(t, d.CmdBarFocused())
	assert.Contains(t, d.PlainView(), "HQ / Sales / Sales East")
}

func TestCommandBar_OpenUnknownOrg(t *testing.T) {
	app, _ := testApp(t)
	d := NewTestDriver(t, app)

	d.Command("open nowhere")

	assert.Equal(t, ViewTree, d.ActiveViewID())
	assert.Contains(t, d.LastOutput(), "organization not found")
}

func TestCommandBar_JournalAndHelp(t *testing.T) {
	app, _ := testApp(t)
	d := NewTestDriver(t, app)

	d.Command("help")
	assert.Contains(t, d.LastOutput(), "open ORG")
	assert.Contains(t, d.LastOutput(), "members")

	d.Command("journal")
	assert.Equal(t, ViewJournal, d.ActiveViewID())
}

func TestCommandBar_Quit(t *testing.T) {
	app, _ := testApp(t)
	d := NewTestDriver(t, app)

	d.Command("quit")

	assert.True(t, d.IsQuitting())
}

func TestCommandBar_HistoryPersists(t *testing.T) {
	app, _ := testApp(t)
	app.HistoryPath = filepath.Join(t.TempDir(), "history")
	d := NewTestDriver(t, app)

	d.Command("stats")
	d.Command("help")

	data, err := os.ReadFile(app.HistoryPath)
	require.NoError(t, err)
	assert.Equal(t, "stats\nhelp\n", string(data))

	d2 := NewTestDriver(t, app)
	d2.PressKey(':')
	d2.PressUp()
	assert.Equal(t, "help", d2.appModel().cmdBar.input.Value())
	d2.PressUp()
	assert.Equal(t, "stats", d2.appModel().cmdBar.input.Value())
}
