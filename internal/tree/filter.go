package tree

import (
	"strings"

	"github.com/alexanderramin/orgctl/internal/domain"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Filter narrows the visible rows. The zero value matches everything.
type Filter struct {
	Search     string // matched against name, code and leader name
	Fuzzy      bool   // subsequence matching instead of substring
	Status     *domain.OrgStatus
	Region     string
	HasMembers domain.TriState
	HasSubOrgs domain.TriState
}

func (f Filter) IsZero() bool {
	return strings.TrimSpace(f.Search) == "" && f.Status == nil && f.Region == "" &&
		f.HasMembers == domain.TriAny && f.HasSubOrgs == domain.TriAny
}

// Match evaluates a single node on its own properties.
func (f Filter) Match(n domain.OrgNode, hasChildren bool) bool {
	if q := strings.TrimSpace(f.Search); q != "" && !f.matchSearch(q, n) {
		return false
	}
	if f.Status != nil && n.Status != *f.Status {
		return false
	}
	if f.Region != "" && !strings.EqualFold(f.Region, n.Region) {
		return false
	}
	if !f.HasMembers.Matches(n.MemberCount > 0) {
		return false
	}
	return f.HasSubOrgs.Matches(hasChildren)
}

func (f Filter) matchSearch(q string, n domain.OrgNode) bool {
	fields := []string{n.Name, n.Code, n.LeaderName}
	if f.Fuzzy {
		for _, field := range fields {
			if field != "" && fuzzy.MatchFold(q, field) {
				return true
			}
		}
		return false
	}
	q = strings.ToLower(q)
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// Describe renders the active criteria for status lines, or "" when empty.
func (f Filter) Describe() string {
	var parts []string
	if q := strings.TrimSpace(f.Search); q != "" {
		mode := "search"
		if f.Fuzzy {
			mode = "fuzzy"
		}
		parts = append(parts, mode+"="+q)
	}
	if f.Status != nil {
		parts = append(parts, "status="+f.Status.String())
	}
	if f.Region != "" {
		parts = append(parts, "region="+f.Region)
	}
	if f.HasMembers != domain.TriAny {
		parts = append(parts, "members="+string(f.HasMembers))
	}
	if f.HasSubOrgs != domain.TriAny {
		parts = append(parts, "sub-orgs="+string(f.HasSubOrgs))
	}
	return strings.Join(parts, " ")
}
