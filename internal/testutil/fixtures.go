package testutil

import (
	"time"

	"github.com/alexanderramin/orgctl/internal/domain"
	"github.com/google/uuid"
)

// Node options
type NodeOption func(*domain.OrgNode)

func WithSortOrder(n int) NodeOption {
	return func(o *domain.OrgNode) {
		o.SortOrder = n
	}
}

func WithStatus(s domain.OrgStatus) NodeOption {
	return func(o *domain.OrgNode) {
		o.Status = s
	}
}

func WithType(t domain.OrgType) NodeOption {
	return func(o *domain.OrgNode) {
		o.Type = t
	}
}

func WithLeader(id, name string) NodeOption {
	return func(o *domain.OrgNode) {
		o.LeaderID = id
		o.LeaderName = name
	}
}

func WithMembers(n int) NodeOption {
	return func(o *domain.OrgNode) {
		o.MemberCount = n
	}
}

func WithRegion(r string) NodeOption {
	return func(o *domain.OrgNode) {
		o.Region = r
	}
}

func WithCode(c string) NodeOption {
	return func(o *domain.OrgNode) {
		o.Code = c
	}
}

// NewTestOrgNode builds an enabled department with a code derived from its name.
func NewTestOrgNode(id, parentID, name string, opts ...NodeOption) domain.OrgNode {
	n := domain.OrgNode{
		ID:       id,
		ParentID: parentID,
		Name:     name,
		Code:     domain.SuggestCode(name),
		Type:     domain.OrgTypeDepartment,
		Status:   domain.OrgEnabled,
	}
	if domain.IsRootParent(parentID) {
		n.Type = domain.OrgTypeOrganization
	}
	for _, opt := range opts {
		opt(&n)
	}
	return n
}

// SampleTree returns a small hierarchy:
//
//	HQ (1)
//	├─ Sales (2)
//	│  └─ Sales East (3)
//	└─ Engineering (4)
func SampleTree() []domain.OrgNode {
	return []domain.OrgNode{
		NewTestOrgNode("1", domain.RootParentID, "HQ", WithLeader("u1", "Alice"), WithMembers(2)),
		NewTestOrgNode("2", "1", "Sales", WithSortOrder(1), WithMembers(3), WithRegion("north")),
		NewTestOrgNode("3", "2", "Sales East", WithSortOrder(1), WithLeader("u2", "Bob"), WithRegion("east")),
		NewTestOrgNode("4", "1", "Engineering", WithSortOrder(2), WithStatus(domain.OrgDisabled)),
	}
}

// Journal options
type JournalOption func(*domain.JournalEntry)

func WithOutcome(o domain.Outcome, msg string) JournalOption {
	return func(e *domain.JournalEntry) {
		e.Outcome = o
		e.Message = msg
	}
}

func WithCreatedAt(t time.Time) JournalOption {
	return func(e *domain.JournalEntry) {
		e.CreatedAt = t
	}
}

func WithJournalUser(userID string) JournalOption {
	return func(e *domain.JournalEntry) {
		e.UserID = userID
	}
}

func NewTestJournalEntry(op domain.Operation, orgID string, opts ...JournalOption) *domain.JournalEntry {
	e := &domain.JournalEntry{
		ID:        uuid.New().String(),
		Operation: op,
		OrgID:     orgID,
		Operator:  "tester",
		Payload:   "{}",
		Outcome:   domain.OutcomeOK,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}
