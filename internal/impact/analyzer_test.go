package impact

import (
	"context"
	"errors"
	"testing"

	"github.com/alexanderramin/orgctl/internal/domain"
	"github.com/alexanderramin/orgctl/internal/testutil"
	"github.com/alexanderramin/orgctl/internal/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMembers struct {
	n   int
	err error
}

func (s stubMembers) CountMembers(context.Context, string) (int, error) { return s.n, s.err }

type stubDeps struct{ n int }

func (s stubDeps) CountDependents(context.Context, string) (int, error) { return s.n, nil }

func newStore() *tree.Store {
	s := tree.NewStore()
	s.ReplaceAll(testutil.SampleTree())
	return s
}

func TestAnalyze_NodeWithChildrenIsHighRisk(t *testing.T) {
	a := NewAnalyzer(newStore())
	s, err := a.Analyze(context.Background(), "1", domain.ActionDelete)
	require.NoError(t, err)

	assert.Equal(t, 2, s.SubOrgs)
	assert.Equal(t, 3, s.Descendants)
	assert.Equal(t, 2, s.Members)
	assert.Equal(t, 0, s.DependentResources)
	assert.Equal(t, domain.RiskHigh, s.Level)
	assert.True(t, s.RequiresConfirmation())
	assert.Contains(t, s.Prompt(), `Deleting "HQ"`)
	assert.Contains(t, s.Describe(), "2 sub-organizations (3 nodes in subtree)")
}

func TestAnalyze_LeafWithoutMembersIsLowRisk(t *testing.T) {
	a := NewAnalyzer(newStore())
	s, err := a.Analyze(context.Background(), "4", domain.ActionDeactivate)
	require.NoError(t, err)

	assert.Equal(t, domain.RiskLow, s.Level)
	assert.False(t, s.RequiresConfirmation())
	assert.Equal(t, "0 sub-organizations, 0 members, 0 dependent resources", s.Describe())
}

func TestAnalyze_MembersAloneRaiseRisk(t *testing.T) {
	a := NewAnalyzer(newStore(), WithMemberCounter(stubMembers{n: 1}))
	s, err := a.Analyze(context.Background(), "3", domain.ActionDeactivate)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Members)
	assert.Equal(t, domain.RiskHigh, s.Level)
	assert.Contains(t, s.Describe(), "1 member,")
}

func TestAnalyze_DependentsRaiseRisk(t *testing.T) {
	a := NewAnalyzer(newStore(), WithDependencyCounter(stubDeps{n: 4}))
	s, err := a.Analyze(context.Background(), "4", domain.ActionDelete)
	require.NoError(t, err)
	assert.Equal(t, 4, s.DependentResources)
	assert.True(t, s.RequiresConfirmation())
}

func TestAnalyze_CounterFailureFallsBack(t *testing.T) {
	a := NewAnalyzer(newStore(), WithMemberCounter(stubMembers{err: errors.New("offline")}))
	s, err := a.Analyze(context.Background(), "2", domain.ActionDelete)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Members, "falls back to the tree's member count")
	require.Len(t, s.Warnings, 1)
	assert.Contains(t, s.Warnings[0], "offline")
}

func TestAnalyze_UnknownNode(t *testing.T) {
	a := NewAnalyzer(newStore())
	_, err := a.Analyze(context.Background(), "nope", domain.ActionDelete)
	assert.ErrorIs(t, err, ErrUnknownNode)
}
