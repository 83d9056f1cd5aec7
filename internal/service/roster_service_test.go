package service

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/orgctl/internal/domain"
	"github.com/alexanderramin/orgctl/internal/orgclient"
	"github.com/alexanderramin/orgctl/internal/orgfake"
	"github.com/alexanderramin/orgctl/internal/repository"
	"github.com/alexanderramin/orgctl/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRosterService(t *testing.T) (RosterService, *orgfake.Server, repository.JournalRepo) {
	t.Helper()
	fake := orgfake.New(testutil.SampleTree())
	t.Cleanup(fake.Close)
	fake.AddUser("u1", "Alice", "2")
	fake.AddUser("u2", "Bob", "3", "2")
	fake.AddUser("u3", "Carol", "4")

	repo := repository.NewSQLiteJournalRepo(testutil.NewTestDB(t))
	client := orgclient.New(orgclient.Config{BaseURL: fake.URL(), Timeout: 2 * time.Second}, nil)
	return NewRosterService(client, WithRosterJournal(NewJournal(repo, "tester", nil))), fake, repo
}

func TestRosterService_ListCachesDirectMembers(t *testing.T) {
	svc, _, _ := setupRosterService(t)
	ctx := context.Background()

	users, err := svc.List(ctx, "2", false)
	require.NoError(t, err)
	require.Len(t, users, 2)

	cached, ok := svc.Cached("2")
	require.True(t, ok)
	assert.Equal(t, users, cached)
	assert.Equal(t, domain.Primary, svc.State("u1", "2"))
	assert.Equal(t, domain.Auxiliary, svc.State("u2", "2"))
	assert.Equal(t, domain.Unattached, svc.State("u3", "2"))

	_, err = svc.List(ctx, "1", true)
	require.NoError(t, err)
	_, ok = svc.Cached("1")
	assert.False(t, ok, "recursive listings are not cached")
}

func TestRosterService_SetPrimaryDemotesPrevious(t *testing.T) {
	svc, fake, repo := setupRosterService(t)
	ctx := context.Background()

	_, err := svc.List(ctx, "3", false)
	require.NoError(t, err)
	require.Equal(t, domain.Primary, svc.State("u2", "3"))

	require.NoError(t, svc.SetPrimary(ctx, "u2", "2"))

	assert.Equal(t, domain.Primary, svc.State("u2", "2"))
	assert.Equal(t, "2", fake.Primary("u2"))
	assert.Contains(t, fake.Auxiliary("u2"), "3")

	_, ok := svc.Cached("3")
	assert.False(t, ok, "stale roster listing the user is dropped")

	users, err := svc.List(ctx, "3", false)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.False(t, users[0].IsPrimary)

	entries, err := repo.List(ctx, repository.JournalFilter{Operation: domain.OpSetPrimary})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "u2", entries[0].UserID)
}

func TestRosterService_RemovePrimaryRefusedLocally(t *testing.T) {
	svc, fake, _ := setupRosterService(t)
	ctx := context.Background()

	_, err := svc.List(ctx, "2", false)
	require.NoError(t, err)
	before := fake.Requests()

	err = svc.RemoveAuxiliary(ctx, "u1", "2")
	require.ErrorIs(t, err, ErrPrimaryRemoval)
	assert.Equal(t, NoticeBlocking, Classify(err).Kind)
	assert.Equal(t, before, fake.Requests())
	assert.Equal(t, "2", fake.Primary("u1"))
}

func TestRosterService_AddAndRemoveAuxiliary(t *testing.T) {
	svc, fake, _ := setupRosterService(t)
	ctx := context.Background()

	require.NoError(t, svc.AddAuxiliary(ctx, "u3", "2"))
	assert.Equal(t, domain.Auxiliary, svc.State("u3", "2"))
	assert.Contains(t, fake.Auxiliary("u3"), "2")

	require.NoError(t, svc.RemoveAuxiliary(ctx, "u3", "2"))
	assert.Equal(t, domain.Unattached, svc.State("u3", "2"))
	assert.Empty(t, fake.Auxiliary("u3"))
}

func TestRosterService_AddAuxiliaryOnPrimaryRejectedByService(t *testing.T) {
	svc, _, _ := setupRosterService(t)
	err := svc.AddAuxiliary(context.Background(), "u1", "2")
	require.Error(t, err)
	assert.Equal(t, NoticeToast, Classify(err).Kind)
}

func TestRosterService_RequiresIDs(t *testing.T) {
	svc, fake, _ := setupRosterService(t)
	before := fake.Requests()

	err := svc.SetPrimary(context.Background(), "", "2")
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "userId", vErr.Field)
	assert.Equal(t, before, fake.Requests())
}

func TestRosterService_CountMembersDeduplicates(t *testing.T) {
	svc, _, _ := setupRosterService(t)

	n, err := svc.CountMembers(context.Background(), "2")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "u2 is primary in a child and auxiliary in the node")

	n, err = svc.CountMembers(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestFilterMembers(t *testing.T) {
	users := []domain.DeptUser{
		{UserID: "u1", UserName: "Alice Smith", IsPrimary: true},
		{UserID: "u2", UserName: "Bob Jones"},
		{UserID: "u3", UserName: "Alina Park", IsPrimary: true},
	}

	tests := []struct {
		name   string
		filter MemberFilter
		want   []string
	}{
		{"no filter", MemberFilter{}, []string{"u1", "u2", "u3"}},
		{"substring", MemberFilter{Search: "ali"}, []string{"u1", "u3"}},
		{"by id", MemberFilter{Search: "U2"}, []string{"u2"}},
		{"fuzzy", MemberFilter{Search: "bjs", Fuzzy: true}, []string{"u2"}},
		{"primary only", MemberFilter{Primary: domain.TriYes}, []string{"u1", "u3"}},
		{"auxiliary only", MemberFilter{Primary: domain.TriNo}, []string{"u2"}},
		{"combined", MemberFilter{Search: "park", Primary: domain.TriYes}, []string{"u3"}},
		{"no match", MemberFilter{Search: "zed"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, u := range FilterMembers(users, tt.filter) {
				got = append(got, u.UserID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
