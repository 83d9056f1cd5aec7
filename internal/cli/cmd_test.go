package cli

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alexanderramin/orgctl/internal/domain"
	"github.com/alexanderramin/orgctl/internal/impact"
	"github.com/alexanderramin/orgctl/internal/orgclient"
	"github.com/alexanderramin/orgctl/internal/orgfake"
	"github.com/alexanderramin/orgctl/internal/repository"
	"github.com/alexanderramin/orgctl/internal/service"
	"github.com/alexanderramin/orgctl/internal/testutil"
	"github.com/alexanderramin/orgctl/internal/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestApp wires a full App against baseURL, journaling and
// snapshotting into database.
func newTestApp(t *testing.T, database *sql.DB, baseURL string) *App {
	t.Helper()
	client := orgclient.New(orgclient.Config{BaseURL: baseURL, Timeout: 2 * time.Second}, nil)
	journal := service.NewJournal(repository.NewSQLiteJournalRepo(database), "tester", nil)
	roster := service.NewRosterService(client, service.WithRosterJournal(journal))
	orgs := service.NewOrgService(client, tree.NewStore(),
		service.WithJournal(journal),
		service.WithSnapshots(testutil.NewTestUoW(database), repository.NewSQLiteSnapshotRepo(database), baseURL),
		service.WithImpactOptions(impact.WithMemberCounter(roster)),
	)
	return &App{Orgs: orgs, Roster: roster, Journal: journal}
}

// testApp serves the sample tree from a fake organization service.
// Alice is primary in HQ; Bob is primary in Sales East and auxiliary in Sales.
func testApp(t *testing.T) (*App, *orgfake.Server) {
	t.Helper()
	fake := orgfake.New(testutil.SampleTree())
	t.Cleanup(fake.Close)
	fake.AddUser("u1", "Alice", "1")
	fake.AddUser("u2", "Bob", "3", "2")
	return newTestApp(t, testutil.NewTestDB(t), fake.URL()), fake
}

// executeCmd runs a cobra command and captures stdout/stderr.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestRootCmd_NonInteractiveShowsHelp(t *testing.T) {
	app, _ := testApp(t)
	out, err := executeCmd(t, app)
	require.NoError(t, err)
	assert.Contains(t, out, "Browse and edit the organization hierarchy")
	assert.Contains(t, out, "members")
}

func TestTreeCmd_RendersHierarchy(t *testing.T) {
	app, _ := testApp(t)
	out, err := executeCmd(t, app, "tree")
	require.NoError(t, err)

	assert.Contains(t, out, "4 nodes")
	assert.Contains(t, out, "HQ")
	assert.Contains(t, out, "Sales")
	assert.Contains(t, out, "Engineering (disabled)")
	assert.NotContains(t, out, "Sales East", "Sales is collapsed by default")
}

func TestTreeCmd_ExpandAllAndCollapse(t *testing.T) {
	app, _ := testApp(t)

	out, err := executeCmd(t, app, "tree", "--expand-all")
	require.NoError(t, err)
	assert.Contains(t, out, "Sales East")

	out, err = executeCmd(t, app, "tree", "--expand-all", "--collapse", "sales")
	require.NoError(t, err)
	assert.NotContains(t, out, "Sales East")
}

func TestTreeCmd_SearchFiltersVisibleRows(t *testing.T) {
	app, _ := testApp(t)
	out, err := executeCmd(t, app, "tree", "--search", "east")
	require.NoError(t, err)
	assert.Contains(t, out, "filter: search=east")
	assert.NotContains(t, out, "Sales East", "collapsed rows stay hidden")

	out, err = executeCmd(t, app, "tree", "--search", "east", "--expand-all")
	require.NoError(t, err)
	assert.Contains(t, out, "Sales East")
	assert.NotContains(t, out, "Engineering")
}

func TestTreeCmd_ServerSideStatusFilter(t *testing.T) {
	app, _ := testApp(t)
	_, err := executeCmd(t, app, "tree", "--status", "disabled")
	require.NoError(t, err)

	_, ok := app.Orgs.Store().Get("4")
	assert.True(t, ok)
	_, ok = app.Orgs.Store().Get("3")
	assert.False(t, ok, "enabled leaf not fetched")
}

func TestTreeCmd_InvalidTriState(t *testing.T) {
	app, _ := testApp(t)
	_, err := executeCmd(t, app, "tree", "--has-members", "maybe")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--has-members")
}

func TestTreeCmd_CachedAfterServiceLoss(t *testing.T) {
	fake := orgfake.New(testutil.SampleTree())
	database := testutil.NewTestDB(t)

	online := newTestApp(t, database, fake.URL())
	_, err := executeCmd(t, online, "tree")
	require.NoError(t, err)
	fake.Close()

	offline := newTestApp(t, database, fake.URL())
	_, err = executeCmd(t, offline, "tree")
	require.Error(t, err)
	assert.ErrorIs(t, err, orgclient.ErrUnavailable)

	out, err := executeCmd(t, offline, "tree", "--cached", "--expand-all")
	require.NoError(t, err)
	assert.Contains(t, out, "cached snapshot from")
	assert.Contains(t, out, "Sales East")
}

func TestTreeCmd_CachedWithoutSnapshot(t *testing.T) {
	app, _ := testApp(t)
	_, err := executeCmd(t, app, "tree", "--cached")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no cached tree yet")
}

func TestShowCmd_ResolvesByCodeAndName(t *testing.T) {
	app, _ := testApp(t)

	out, err := executeCmd(t, app, "show", "sales_east")
	require.NoError(t, err)
	assert.Contains(t, out, "Sales East")
	assert.Contains(t, out, "HQ / Sales / Sales East")

	require.NotNil(t, app.Orgs.Active())
	assert.Equal(t, "3", app.Orgs.Active().ID)

	out, err = executeCmd(t, app, "show", "engineering")
	require.NoError(t, err)
	assert.Contains(t, out, "Engineering")
}

func TestShowCmd_UnknownOrg(t *testing.T) {
	app, _ := testApp(t)
	_, err := executeCmd(t, app, "show", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `organization not found: "nope"`)
}

func TestStatsCmd(t *testing.T) {
	app, _ := testApp(t)
	out, err := executeCmd(t, app, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Nodes")
	assert.Contains(t, out, "Without leader")
	assert.Regexp(t, `Disabled\s+1`, out)
}

func TestImpactCmd(t *testing.T) {
	app, _ := testApp(t)

	out, err := executeCmd(t, app, "impact", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Sales")
	assert.Contains(t, out, "confirmation required")

	_, err = executeCmd(t, app, "impact", "2", "--action", "archive")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --action")
}

func TestCreateCmd_SuggestsCode(t *testing.T) {
	app, fake := testApp(t)
	out, err := executeCmd(t, app, "create", "--name", "Sales West", "--parent", "sales")
	require.NoError(t, err)

	assert.Contains(t, out, "Using suggested code sales_west")
	assert.Regexp(t, `Created Sales West \[sales_west\] with id \d+`, out)

	var created domain.OrgNode
	for _, n := range app.Orgs.Store().ChildrenOf("2") {
		if n.Name == "Sales West" {
			created = n
		}
	}
	require.NotEmpty(t, created.ID)
	_, ok := fake.Node(created.ID)
	assert.True(t, ok)
}

func TestCreateCmd_ValidationRunsLocally(t *testing.T) {
	app, fake := testApp(t)
	_, err := executeCmd(t, app, "tree")
	require.NoError(t, err)
	before := fake.Requests()

	_, err = executeCmd(t, app, "create", "--name", "  ", "--code", "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrValidation)
	assert.Equal(t, before, fake.Requests())
}

func TestUpdateCmd_ChangesOnlyGivenFields(t *testing.T) {
	app, fake := testApp(t)
	out, err := executeCmd(t, app, "update", "3", "--region", "south", "--clear-leader")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated Sales East")

	n, ok := fake.Node("3")
	require.True(t, ok)
	assert.Equal(t, "south", n.Region)
	assert.Empty(t, n.LeaderID)
	assert.Equal(t, "Sales East", n.Name)
}

func TestUpdateCmd_LeaderFlagsExclusive(t *testing.T) {
	app, _ := testApp(t)
	_, err := executeCmd(t, app, "update", "3", "--leader", "u1", "--clear-leader")
	require.Error(t, err)
}

func TestUpdateCmd_ReparentUnderDescendantRejected(t *testing.T) {
	app, _ := testApp(t)
	_, err := executeCmd(t, app, "update", "2", "--parent", "3")
	require.Error(t, err)
}

func TestMoveCmd_Shift(t *testing.T) {
	app, _ := testApp(t)
	out, err := executeCmd(t, app, "move", "engineering", "--by", "-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Order: Engineering, Sales")
}

func TestMoveCmd_Before(t *testing.T) {
	app, _ := testApp(t)
	out, err := executeCmd(t, app, "move", "4", "--before", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Order: Engineering, Sales")
}

func TestMoveCmd_RequiresOneMode(t *testing.T) {
	app, _ := testApp(t)
	_, err := executeCmd(t, app, "move", "4")
	require.Error(t, err)
}

func TestEnableCmd(t *testing.T) {
	app, fake := testApp(t)
	out, err := executeCmd(t, app, "enable", "engineering")
	require.NoError(t, err)
	assert.Contains(t, out, "Enabled Engineering")

	n, _ := fake.Node("4")
	assert.Equal(t, domain.OrgEnabled, n.Status)
}

func TestDisableCmd_HighRiskNeedsYes(t *testing.T) {
	app, fake := testApp(t)

	out, err := executeCmd(t, app, "disable", "3")
	require.ErrorIs(t, err, errConfirmationRequired)
	assert.Contains(t, out, "Sales East")
	n, _ := fake.Node("3")
	assert.Equal(t, domain.OrgEnabled, n.Status)

	out, err = executeCmd(t, app, "disable", "3", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Disabled 1 organization")
	n, _ = fake.Node("3")
	assert.Equal(t, domain.OrgDisabled, n.Status)
}

func TestDisableCmd_ForceDisablesDescendantsFirst(t *testing.T) {
	app, fake := testApp(t)
	out, err := executeCmd(t, app, "disable", "2", "--yes", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "Disabled 2 organizations")

	for _, id := range []string{"2", "3"} {
		n, _ := fake.Node(id)
		assert.Equal(t, domain.OrgDisabled, n.Status, id)
	}

	entries, err := app.Journal.List(context.Background(), repository.JournalFilter{Operation: domain.OpSetStatus})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "2", entries[0].OrgID, "newest first")
	assert.Equal(t, "3", entries[1].OrgID)
}

func TestDeleteCmd_LowRiskLeaf(t *testing.T) {
	app, fake := testApp(t)
	out, err := executeCmd(t, app, "delete", "engineering")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted Engineering")

	_, ok := fake.Node("4")
	assert.False(t, ok)
	_, ok = app.Orgs.Store().Get("4")
	assert.False(t, ok)
}

func TestDeleteCmd_ParentNeedsForce(t *testing.T) {
	app, fake := testApp(t)

	out, err := executeCmd(t, app, "delete", "2")
	require.ErrorIs(t, err, errConfirmationRequired)
	assert.Contains(t, out, "confirmation required")

	_, err = executeCmd(t, app, "delete", "2", "--yes")
	require.ErrorIs(t, err, service.ErrHasChildren)
	_, ok := fake.Node("2")
	assert.True(t, ok)
}

func TestMembersCmd_ListAndFilter(t *testing.T) {
	app, _ := testApp(t)

	out, err := executeCmd(t, app, "members", "list", "sales")
	require.NoError(t, err)
	assert.Contains(t, out, "Sales members")
	assert.Contains(t, out, "Bob")
	assert.Contains(t, out, "auxiliary")

	out, err = executeCmd(t, app, "members", "list", "hq", "--recursive", "--primary", "yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Alice")
	assert.Contains(t, out, "Bob")

	out, err = executeCmd(t, app, "members", "list", "hq", "--recursive", "--search", "ali")
	require.NoError(t, err)
	assert.Contains(t, out, "Alice")
	assert.NotContains(t, out, "Bob")
}

func TestMembersCmd_SetPrimaryAndAuxiliary(t *testing.T) {
	app, fake := testApp(t)

	_, err := executeCmd(t, app, "members", "set-primary", "u2", "sales")
	require.NoError(t, err)
	assert.Equal(t, "2", fake.Primary("u2"))

	_, err = executeCmd(t, app, "members", "add-aux", "u1", "engineering")
	require.NoError(t, err)
	assert.Contains(t, fake.Auxiliary("u1"), "4")

	_, err = executeCmd(t, app, "members", "remove-aux", "u1", "engineering")
	require.NoError(t, err)
	assert.NotContains(t, fake.Auxiliary("u1"), "4")
}

func TestMembersCmd_RemovePrimaryRefused(t *testing.T) {
	app, fake := testApp(t)
	_, err := executeCmd(t, app, "members", "remove-aux", "u1", "hq")
	require.ErrorIs(t, err, service.ErrPrimaryRemoval)
	assert.Equal(t, "1", fake.Primary("u1"))
}

func TestJournalCmd_FiltersByOrg(t *testing.T) {
	app, _ := testApp(t)
	_, err := executeCmd(t, app, "update", "3", "--region", "south")
	require.NoError(t, err)
	_, err = executeCmd(t, app, "enable", "4")
	require.NoError(t, err)

	out, err := executeCmd(t, app, "journal", "--org", "sales_east")
	require.NoError(t, err)
	assert.Contains(t, out, "update")
	assert.NotContains(t, out, "set_status")

	out, err = executeCmd(t, app, "journal", "--op", "set_status")
	require.NoError(t, err)
	assert.Contains(t, out, "set_status")
	assert.NotContains(t, out, "update ")
}

func TestJournalCmd_Empty(t *testing.T) {
	app, _ := testApp(t)
	out, err := executeCmd(t, app, "journal")
	require.NoError(t, err)
	assert.Contains(t, out, "Journal is empty.")
}

func TestExportCmd_CSV(t *testing.T) {
	app, _ := testApp(t)
	path := filepath.Join(t.TempDir(), "orgs.csv")

	out, err := executeCmd(t, app, "export", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 4 organizations")
	assert.Contains(t, out, "(csv)")

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, "Depth", records[0][0])
}

func TestExportCmd_XLSX(t *testing.T) {
	app, _ := testApp(t)
	path := filepath.Join(t.TempDir(), "orgs.xlsx")

	_, err := executeCmd(t, app, "export", "--out", path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestExportCmd_UnknownFormat(t *testing.T) {
	app, _ := testApp(t)
	_, err := executeCmd(t, app, "export", "-o", filepath.Join(t.TempDir(), "orgs.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown export format")
}

func TestResolveOrgID(t *testing.T) {
	store := tree.NewStore()
	store.ReplaceAll(append(testutil.SampleTree(),
		testutil.NewTestOrgNode("5", "4", "Sales East", testutil.WithCode("eng_east"))))

	tests := []struct {
		input string
		want  string
		err   string
	}{
		{"3", "3", ""},
		{"SALES_EAST", "3", ""},
		{"engineering", "4", ""},
		{"eng_east", "5", ""},
		{"HQ", "1", ""},
		{"sales east", "", "ambiguous"},
		{"", "", "required"},
		{"missing", "", "not found"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := resolveOrgID(store, tt.input)
			if tt.err != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatError(t *testing.T) {
	assert.Contains(t, FormatError(errConfirmationRequired), "re-run with --yes")
	assert.Contains(t, FormatError(orgclient.ErrTimeout), "timed out")
}
