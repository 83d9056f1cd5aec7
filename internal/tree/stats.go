package tree

import "github.com/alexanderramin/orgctl/internal/domain"

// Stats are the headline counts shown above the tree.
type Stats struct {
	Total         int
	Enabled       int
	Disabled      int
	Organizations int
	Departments   int
	Members       int
	WithoutLeader int
}

// Summarize computes Stats over every node in the store.
func (s *Store) Summarize() Stats {
	var st Stats
	for _, n := range s.All() {
		st.Total++
		if n.Enabled() {
			st.Enabled++
		} else {
			st.Disabled++
		}
		switch n.Type {
		case domain.OrgTypeOrganization:
			st.Organizations++
		case domain.OrgTypeDepartment:
			st.Departments++
		}
		st.Members += n.MemberCount
		if !n.HasLeader() {
			st.WithoutLeader++
		}
	}
	return st
}
