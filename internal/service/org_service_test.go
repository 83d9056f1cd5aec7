package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/orgctl/internal/db"
	"github.com/alexanderramin/orgctl/internal/domain"
	"github.com/alexanderramin/orgctl/internal/impact"
	"github.com/alexanderramin/orgctl/internal/orgclient"
	"github.com/alexanderramin/orgctl/internal/orgfake"
	"github.com/alexanderramin/orgctl/internal/repository"
	"github.com/alexanderramin/orgctl/internal/testutil"
	"github.com/alexanderramin/orgctl/internal/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orgFixture struct {
	svc     OrgService
	roster  RosterService
	fake    *orgfake.Server
	journal repository.JournalRepo
	snaps   repository.SnapshotRepo
}

func setupOrgService(t *testing.T, opts ...OrgOption) *orgFixture {
	t.Helper()
	fake := orgfake.New(testutil.SampleTree())
	t.Cleanup(fake.Close)

	database := testutil.NewTestDB(t)
	journalRepo := repository.NewSQLiteJournalRepo(database)
	snapRepo := repository.NewSQLiteSnapshotRepo(database)
	journal := NewJournal(journalRepo, "tester", nil)

	client := orgclient.New(orgclient.Config{BaseURL: fake.URL(), Timeout: 2 * time.Second}, nil)
	roster := NewRosterService(client, WithRosterJournal(journal))
	base := []OrgOption{
		WithJournal(journal),
		WithSnapshots(testutil.NewTestUoW(database), snapRepo, fake.URL()),
		WithImpactOptions(impact.WithMemberCounter(roster)),
	}
	svc := NewOrgService(client, tree.NewStore(), append(base, opts...)...)
	require.NoError(t, svc.Refresh(context.Background(), orgclient.TreeQuery{}))

	return &orgFixture{svc: svc, roster: roster, fake: fake, journal: journalRepo, snaps: snapRepo}
}

func childNames(s *tree.Store, id string) []string {
	var names []string
	for _, n := range s.ChildrenOf(id) {
		names = append(names, n.Name)
	}
	return names
}

func TestOrgService_RefreshLoadsStoreAndSnapshot(t *testing.T) {
	f := setupOrgService(t)
	ctx := context.Background()

	assert.Equal(t, 4, f.svc.Store().Len())
	assert.Equal(t, []string{"Sales", "Engineering"}, childNames(f.svc.Store(), "1"))

	snap, err := f.snaps.Get(ctx, f.fake.URL())
	require.NoError(t, err)
	assert.Len(t, snap.Nodes, 4)
}

func TestOrgService_FilteredRefreshKeepsSnapshot(t *testing.T) {
	f := setupOrgService(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Refresh(ctx, orgclient.TreeQuery{Name: "east"}))
	assert.Equal(t, 3, f.svc.Store().Len())

	snap, err := f.snaps.Get(ctx, f.fake.URL())
	require.NoError(t, err)
	assert.Len(t, snap.Nodes, 4, "filtered fetches do not overwrite the snapshot")
}

func TestOrgService_LoadCachedWhenServiceDown(t *testing.T) {
	f := setupOrgService(t)
	ctx := context.Background()
	f.fake.Close()

	err := f.svc.Refresh(ctx, orgclient.TreeQuery{})
	require.ErrorIs(t, err, orgclient.ErrUnavailable)

	snap, err := f.svc.LoadCached(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Nodes, 4)
	assert.Equal(t, []string{"HQ", "Sales", "Sales East"}, f.svc.Store().PathOf("3"))
}

func TestOrgService_CreateValidationSkipsNetwork(t *testing.T) {
	f := setupOrgService(t)
	before := f.fake.Requests()

	_, err := f.svc.Create(context.Background(), domain.OrgDraft{Name: "   ", Code: "x", ParentID: "1"})
	require.ErrorIs(t, err, ErrValidation)
	n := Classify(err)
	assert.Equal(t, NoticeInline, n.Kind)
	assert.Equal(t, "name", n.Field)

	_, err = f.svc.Create(context.Background(), domain.OrgDraft{Name: "Ops", Code: "ops", ParentID: "99"})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "parentId", vErr.Field)

	assert.Equal(t, before, f.fake.Requests())
}

func TestOrgService_CreateRefetchesTree(t *testing.T) {
	f := setupOrgService(t)
	ctx := context.Background()

	id, err := f.svc.Create(ctx, domain.OrgDraft{Name: " Support ", Code: "support", ParentID: "2", SortOrder: 5})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	n, ok := f.svc.Store().Get(id)
	require.True(t, ok, "created node present after refetch")
	assert.Equal(t, "Support", n.Name)
	assert.Equal(t, []string{"Sales East", "Support"}, childNames(f.svc.Store(), "2"))

	entries, err := f.journal.List(ctx, repository.JournalFilter{OrgID: id})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.OpCreate, entries[0].Operation)
	assert.Equal(t, domain.OutcomeOK, entries[0].Outcome)
}

func TestOrgService_CreateFailureLeavesStoreUntouched(t *testing.T) {
	f := setupOrgService(t)
	ctx := context.Background()
	version := f.svc.Store().Version()

	_, err := f.svc.Create(ctx, domain.OrgDraft{Name: "Sales East", Code: "dup", ParentID: "2"})
	require.Error(t, err)
	assert.True(t, orgclient.HasCode(err, orgclient.CodeNameDuplicate))

	n := Classify(err)
	assert.Equal(t, NoticeToast, n.Kind)
	assert.Equal(t, "organization name already exists under this parent", n.Message)
	assert.Equal(t, version, f.svc.Store().Version(), "no optimistic insert or refetch")

	entries, err := f.journal.List(ctx, repository.JournalFilter{Operation: domain.OpCreate})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.OutcomeFailed, entries[0].Outcome)
	assert.Contains(t, entries[0].Message, "already exists")
}

func TestOrgService_UpdateRenameAndClearLeader(t *testing.T) {
	f := setupOrgService(t)
	ctx := context.Background()

	err := f.svc.Update(ctx, "3", domain.OrgPatch{Name: domain.StrPtr("Sales West"), LeaderID: domain.StrPtr("")})
	require.NoError(t, err)

	n, _ := f.svc.Store().Get("3")
	assert.Equal(t, "Sales West", n.Name)
	assert.Empty(t, n.LeaderID)
	assert.False(t, n.HasLeader())
}

func TestOrgService_UpdateEmptyPatchRejected(t *testing.T) {
	f := setupOrgService(t)
	err := f.svc.Update(context.Background(), "3", domain.OrgPatch{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestOrgService_UpdateUnknownNode(t *testing.T) {
	f := setupOrgService(t)
	err := f.svc.Update(context.Background(), "404", domain.OrgPatch{Name: domain.StrPtr("x")})
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, NoticeBlocking, Classify(err).Kind)
}

func TestOrgService_ReparentCycleRejectedLocally(t *testing.T) {
	f := setupOrgService(t)
	before := f.fake.Requests()

	err := f.svc.Update(context.Background(), "2", domain.OrgPatch{ParentID: domain.StrPtr("3")})
	require.ErrorIs(t, err, ErrCycle)

	err = f.svc.Update(context.Background(), "2", domain.OrgPatch{ParentID: domain.StrPtr("2")})
	require.ErrorIs(t, err, ErrCycle)
	assert.Equal(t, before, f.fake.Requests())
}

func TestOrgService_ReparentGoesThroughMove(t *testing.T) {
	f := setupOrgService(t)
	ctx := context.Background()

	err := f.svc.Update(ctx, "3", domain.OrgPatch{ParentID: domain.StrPtr("1"), Region: domain.StrPtr("west")})
	require.NoError(t, err)

	n, _ := f.svc.Store().Get("3")
	assert.Equal(t, "1", n.ParentID)
	assert.Equal(t, "west", n.Region)
	assert.Equal(t, []string{"Sales", "Engineering", "Sales East"}, childNames(f.svc.Store(), "1"))

	moves, err := f.journal.List(ctx, repository.JournalFilter{Operation: domain.OpMove})
	require.NoError(t, err)
	assert.Len(t, moves, 1)
}

func TestOrgService_UpdateSameParentIsNoop(t *testing.T) {
	f := setupOrgService(t)
	before := f.fake.Requests()
	require.NoError(t, f.svc.Update(context.Background(), "3", domain.OrgPatch{ParentID: domain.StrPtr("2")}))
	assert.Equal(t, before, f.fake.Requests())
}

func TestOrgService_UpdateRefreshesActiveDetail(t *testing.T) {
	f := setupOrgService(t)
	ctx := context.Background()

	d, err := f.svc.SetActive(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, "Sales", d.ParentName)
	assert.Equal(t, []string{"1", "2"}, d.AncestorIDs())

	require.NoError(t, f.svc.Update(ctx, "3", domain.OrgPatch{Description: domain.StrPtr("eastern region")}))
	assert.Equal(t, "eastern region", f.svc.Active().Description)
}

func TestOrgService_MoveAcrossParentsRejected(t *testing.T) {
	f := setupOrgService(t)
	before := f.fake.Requests()

	err := f.svc.Move(context.Background(), "3", "1", []string{"2", "4", "3"})
	require.ErrorIs(t, err, ErrCrossParentMove)
	assert.Contains(t, err.Error(), "not supported")
	assert.Equal(t, before, f.fake.Requests())
}

func TestOrgService_MoveRequiresSiblingPermutation(t *testing.T) {
	f := setupOrgService(t)
	err := f.svc.Move(context.Background(), "4", "1", []string{"4"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestOrgService_MoveReordersSiblings(t *testing.T) {
	f := setupOrgService(t)
	require.NoError(t, f.svc.Move(context.Background(), "4", "1", []string{"4", "2"}))
	assert.Equal(t, []string{"Engineering", "Sales"}, childNames(f.svc.Store(), "1"))
}

func TestOrgService_ReorderAndShift(t *testing.T) {
	f := setupOrgService(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Reorder(ctx, "2", "4"))
	assert.Equal(t, []string{"Engineering", "Sales"}, childNames(f.svc.Store(), "1"))

	require.NoError(t, f.svc.Shift(ctx, "2", -1))
	assert.Equal(t, []string{"Sales", "Engineering"}, childNames(f.svc.Store(), "1"))

	before := f.fake.Requests()
	require.NoError(t, f.svc.Shift(ctx, "2", -1), "already first")
	assert.Equal(t, before, f.fake.Requests())

	err := f.svc.Reorder(ctx, "3", "4")
	assert.ErrorIs(t, err, ErrCrossParentMove)
}

func TestReorderIDs(t *testing.T) {
	ids := []string{"a", "b", "c"}
	assert.Equal(t, []string{"b", "c", "a"}, reorderIDs(ids, "a", "c"))
	assert.Equal(t, []string{"c", "a", "b"}, reorderIDs(ids, "c", "a"))
	assert.Equal(t, []string{"b", "a", "c"}, reorderIDs(ids, "a", "b"))
	assert.Equal(t, []string{"a", "b", "c"}, ids, "input untouched")
}

func TestOrgService_DisableWithEnabledChildren(t *testing.T) {
	f := setupOrgService(t)
	err := f.svc.SetStatus(context.Background(), "2", domain.OrgDisabled)
	require.Error(t, err)
	assert.True(t, orgclient.HasCode(err, orgclient.CodeHasActiveChildren))

	require.NoError(t, f.svc.SetStatus(context.Background(), "3", domain.OrgDisabled))
	n, _ := f.svc.Store().Get("3")
	assert.Equal(t, domain.OrgDisabled, n.Status)

	entries, err := f.journal.List(context.Background(), repository.JournalFilter{Operation: domain.OpSetStatus})
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestOrgService_DeleteWithChildrenRefusedWithoutNetwork(t *testing.T) {
	f := setupOrgService(t)
	before := f.fake.Requests()

	err := f.svc.Delete(context.Background(), "2", false)
	require.ErrorIs(t, err, ErrHasChildren)
	assert.Contains(t, err.Error(), "node has children")
	assert.Equal(t, NoticeBlocking, Classify(err).Kind)
	assert.Equal(t, before, f.fake.Requests())
}

func TestOrgService_ForcedDeleteSurfacesServiceRule(t *testing.T) {
	f := setupOrgService(t)
	err := f.svc.Delete(context.Background(), "2", true)
	assert.True(t, orgclient.HasCode(err, orgclient.CodeHasChildren))
}

func TestOrgService_DeleteLeafClearsActive(t *testing.T) {
	f := setupOrgService(t)
	ctx := context.Background()

	_, err := f.svc.SetActive(ctx, "3")
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(ctx, "3", false))

	_, ok := f.svc.Store().Get("3")
	assert.False(t, ok)
	assert.Nil(t, f.svc.Active())
}

func TestOrgService_DetailNotFound(t *testing.T) {
	f := setupOrgService(t)
	_, err := f.svc.Detail(context.Background(), "404")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrgService_ImpactUsesRosterCounts(t *testing.T) {
	f := setupOrgService(t)
	f.fake.AddUser("u1", "Alice", "2")
	f.fake.AddUser("u2", "Bob", "3", "2")

	sum, err := f.svc.Impact(context.Background(), "2", domain.ActionDelete)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.SubOrgs)
	assert.Equal(t, 2, sum.Members)
	assert.Equal(t, domain.RiskHigh, sum.Level)

	_, err = f.svc.Impact(context.Background(), "2", domain.ImpactAction("archive"))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Impact(context.Background(), "404", domain.ActionDelete)
	assert.ErrorIs(t, err, ErrNotFound)
}

type failingJournalRepo struct{ repository.JournalRepo }

func (failingJournalRepo) Append(context.Context, *domain.JournalEntry) error {
	return errors.New("disk full")
}

func TestOrgService_JournalFailureDoesNotFailMutation(t *testing.T) {
	f := setupOrgService(t, WithJournal(NewJournal(failingJournalRepo{}, "tester", nil)))
	require.NoError(t, f.svc.Update(context.Background(), "3", domain.OrgPatch{Name: domain.StrPtr("East")}))
}

type recordingObserver struct {
	mu     sync.Mutex
	events []UseCaseEvent
}

func (r *recordingObserver) ObserveUseCase(_ context.Context, e UseCaseEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func TestOrgService_ObserverSeesUseCases(t *testing.T) {
	obs := &recordingObserver{}
	f := setupOrgService(t, WithOrgObserver(obs))

	_ = f.svc.Delete(context.Background(), "2", false)

	obs.mu.Lock()
	defer obs.mu.Unlock()
	require.NotEmpty(t, obs.events)
	last := obs.events[len(obs.events)-1]
	assert.Equal(t, "org.delete", last.Name)
	assert.False(t, last.Success)
	assert.ErrorIs(t, last.Err, ErrHasChildren)
}

func TestOrgService_SnapshotFailureIsNotFatal(t *testing.T) {
	fake := orgfake.New(testutil.SampleTree())
	t.Cleanup(fake.Close)
	database := testutil.NewTestDB(t)
	uow := &testutil.FailOnNthExecUoW{DB: database, FailOn: 1, Err: errors.New("locked")}

	client := orgclient.New(orgclient.Config{BaseURL: fake.URL(), Timeout: time.Second}, nil)
	svc := NewOrgService(client, tree.NewStore(),
		WithSnapshots(uow, repository.NewSQLiteSnapshotRepo(database), fake.URL()))

	require.NoError(t, svc.Refresh(context.Background(), orgclient.TreeQuery{}))
	assert.Equal(t, 4, svc.Store().Len())
}

var _ db.UnitOfWork = (*testutil.FailOnNthExecUoW)(nil)
