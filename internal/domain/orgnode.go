package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RootParentID is the parent id the organization service uses for root nodes.
// An empty parent id is treated the same way.
const RootParentID = "0"

// IsRootParent reports whether parentID designates the virtual root.
func IsRootParent(parentID string) bool {
	return parentID == "" || parentID == RootParentID
}

// OrgNode is one organization or department in the hierarchy.
type OrgNode struct {
	ID               string
	ParentID         string
	Name             string
	Code             string
	Type             OrgType
	Status           OrgStatus
	SortOrder        int
	LeaderID         string
	LeaderName       string
	Description      string
	Region           string
	IsMainDepartment bool
	MemberCount      int
}

func (n *OrgNode) IsRoot() bool {
	return IsRootParent(n.ParentID)
}

func (n *OrgNode) Enabled() bool {
	return n.Status == OrgEnabled
}

// HasLeader reports whether a leader is assigned.
func (n *OrgNode) HasLeader() bool {
	return n.LeaderID != "" || n.LeaderName != ""
}

// OrgDetail is the extended record returned for a single node.
type OrgDetail struct {
	OrgNode
	ParentName string
	Ancestors  string // comma-separated ancestor ids, root first
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AncestorIDs splits Ancestors, dropping the virtual root.
func (d *OrgDetail) AncestorIDs() []string {
	var ids []string
	for _, part := range strings.Split(d.Ancestors, ",") {
		part = strings.TrimSpace(part)
		if part == "" || part == RootParentID {
			continue
		}
		ids = append(ids, part)
	}
	return ids
}

// OrgDraft carries the fields of a node about to be created.
type OrgDraft struct {
	ParentID         string
	Name             string  `validate:"required,max=64"`
	Code             string  `validate:"required,max=64"`
	Type             OrgType `validate:"oneof=1 2"`
	LeaderID         string
	Description      string `validate:"max=500"`
	Region           string `validate:"max=64"`
	SortOrder        int    `validate:"gte=0"`
	IsMainDepartment bool
}

// Normalize trims whitespace and fills defaults.
func (d *OrgDraft) Normalize() {
	d.ParentID = strings.TrimSpace(d.ParentID)
	d.Name = strings.TrimSpace(d.Name)
	d.Code = strings.TrimSpace(d.Code)
	d.LeaderID = strings.TrimSpace(d.LeaderID)
	d.Description = strings.TrimSpace(d.Description)
	d.Region = strings.TrimSpace(d.Region)
	if d.ParentID == "" {
		d.ParentID = RootParentID
	}
	if d.Type == 0 {
		d.Type = OrgTypeDepartment
	}
	if d.Type != OrgTypeDepartment {
		d.IsMainDepartment = false
	}
}

// OrgPatch is a partial update. Nil fields are left untouched.
// A non-nil LeaderID pointing at "" clears the leader.
type OrgPatch struct {
	ParentID         *string
	Name             *string
	Code             *string
	Type             *OrgType
	Status           *OrgStatus
	SortOrder        *int
	LeaderID         *string
	Description      *string
	Region           *string
	IsMainDepartment *bool
}

func (p *OrgPatch) IsEmpty() bool {
	return p.ParentID == nil && p.Name == nil && p.Code == nil && p.Type == nil &&
		p.Status == nil && p.SortOrder == nil && p.LeaderID == nil &&
		p.Description == nil && p.Region == nil && p.IsMainDepartment == nil
}

// ClearsLeader reports whether the patch explicitly removes the leader.
func (p *OrgPatch) ClearsLeader() bool {
	return p.LeaderID != nil && *p.LeaderID == ""
}

// DeptUser is a user attached to a node, as primary or auxiliary member.
type DeptUser struct {
	UserID    string
	UserName  string
	IsPrimary bool
}

func (u DeptUser) State() AttachmentState {
	if u.IsPrimary {
		return Primary
	}
	return Auxiliary
}

// JournalEntry records one mutation attempted from this console.
type JournalEntry struct {
	ID        string
	Operation Operation
	OrgID     string
	UserID    string
	Operator  string
	Payload   string
	Outcome   Outcome
	Message   string
	CreatedAt time.Time
}

// TreeSnapshot is the last tree fetched from a given service.
type TreeSnapshot struct {
	Source    string
	Nodes     []OrgNode
	FetchedAt time.Time
}

var codeUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// SuggestCode derives a lowercase code from a node name. Names without any
// ASCII letters or digits get a random "org_" code.
func SuggestCode(name string) string {
	code := strings.Trim(codeUnsafe.ReplaceAllString(strings.ToLower(name), "_"), "_")
	if code == "" {
		return "org_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	}
	if len(code) > 64 {
		code = strings.TrimRight(code[:64], "_")
	}
	return code
}

// StrPtr returns a pointer to s.
func StrPtr(s string) *string { return &s }
