// Package impact estimates the blast radius of deactivating or deleting an
// organization node. Results are advisory; they gate a confirmation step,
// never the server call itself.
package impact

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/orgctl/internal/domain"
	"github.com/alexanderramin/orgctl/internal/tree"
)

// ErrUnknownNode is returned when the node is not in the store.
var ErrUnknownNode = errors.New("unknown organization node")

// MemberCounter reports how many users are attached to a node.
type MemberCounter interface {
	CountMembers(ctx context.Context, orgID string) (int, error)
}

// DependencyCounter reports resources outside the hierarchy that reference
// a node, such as workflows or agent bindings.
type DependencyCounter interface {
	CountDependents(ctx context.Context, orgID string) (int, error)
}

// NoDependencies is the DependencyCounter used until a real source exists.
type NoDependencies struct{}

func (NoDependencies) CountDependents(context.Context, string) (int, error) { return 0, nil }

// Summary is the outcome of one analysis.
type Summary struct {
	NodeID             string
	NodeName           string
	Action             domain.ImpactAction
	SubOrgs            int // direct children
	Descendants        int
	Members            int
	DependentResources int
	Level              domain.RiskLevel
	Warnings           []string
}

// RequiresConfirmation reports whether the caller must ask before proceeding.
func (s Summary) RequiresConfirmation() bool {
	return s.Level == domain.RiskHigh
}

// Describe renders the counts as one line.
func (s Summary) Describe() string {
	parts := []string{
		plural(s.SubOrgs, "sub-organization"),
		plural(s.Members, "member"),
		plural(s.DependentResources, "dependent resource"),
	}
	if s.Descendants > s.SubOrgs {
		parts[0] += fmt.Sprintf(" (%d nodes in subtree)", s.Descendants)
	}
	return strings.Join(parts, ", ")
}

// Prompt is the confirmation question shown before a high-risk action.
func (s Summary) Prompt() string {
	return fmt.Sprintf("%s %q affects %s. Continue?", actionVerb(s.Action), s.NodeName, s.Describe())
}

type Analyzer struct {
	store   *tree.Store
	members MemberCounter
	deps    DependencyCounter
}

type Option func(*Analyzer)

func WithMemberCounter(mc MemberCounter) Option {
	return func(a *Analyzer) { a.members = mc }
}

func WithDependencyCounter(dc DependencyCounter) Option {
	return func(a *Analyzer) { a.deps = dc }
}

func NewAnalyzer(store *tree.Store, opts ...Option) *Analyzer {
	a := &Analyzer{store: store, deps: NoDependencies{}}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze computes the impact of action on the node id. Counter failures
// fall back to the store's figures and are listed in Warnings.
func (a *Analyzer) Analyze(ctx context.Context, id string, action domain.ImpactAction) (Summary, error) {
	node, ok := a.store.Get(id)
	if !ok {
		return Summary{}, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}

	s := Summary{
		NodeID:      node.ID,
		NodeName:    node.Name,
		Action:      action,
		SubOrgs:     len(a.store.ChildrenOf(id)),
		Descendants: len(a.store.DescendantsOf(id)),
		Members:     node.MemberCount,
	}

	if a.members != nil {
		n, err := a.members.CountMembers(ctx, id)
		if err != nil {
			s.Warnings = append(s.Warnings, "member count unavailable: "+err.Error())
		} else {
			s.Members = n
		}
	}
	if a.deps != nil {
		n, err := a.deps.CountDependents(ctx, id)
		if err != nil {
			s.Warnings = append(s.Warnings, "dependent resources unavailable: "+err.Error())
		} else {
			s.DependentResources = n
		}
	}

	s.Level = domain.RiskLow
	if s.SubOrgs > 0 || s.Members > 0 || s.DependentResources > 0 {
		s.Level = domain.RiskHigh
	}
	return s, nil
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func actionVerb(a domain.ImpactAction) string {
	switch a {
	case domain.ActionDelete:
		return "Deleting"
	case domain.ActionDeactivate:
		return "Deactivating"
	default:
		return "Changing"
	}
}
