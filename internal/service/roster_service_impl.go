package service

import (
	"context"
	"strings"
	"sync"

	"github.com/alexanderramin/orgctl/internal/domain"
	"github.com/alexanderramin/orgctl/internal/orgclient"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// RosterOption configures a RosterService.
type RosterOption func(*rosterService)

func WithRosterJournal(j *Journal) RosterOption {
	return func(s *rosterService) { s.journal = j }
}

func WithRosterObserver(obs UseCaseObserver) RosterOption {
	return func(s *rosterService) { s.observer = useCaseObserverOrNoop([]UseCaseObserver{obs}) }
}

type rosterService struct {
	client   orgclient.Client
	journal  *Journal
	observer UseCaseObserver

	mu     sync.RWMutex
	cached map[string][]domain.DeptUser
}

func NewRosterService(client orgclient.Client, opts ...RosterOption) RosterService {
	s := &rosterService{
		client:   client,
		observer: NoopUseCaseObserver{},
		cached:   make(map[string][]domain.DeptUser),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *rosterService) List(ctx context.Context, orgID string, recursive bool) ([]domain.DeptUser, error) {
	if err := requireID("orgId", orgID); err != nil {
		return nil, err
	}
	users, err := s.client.ListMembers(ctx, orgID, recursive)
	if err != nil {
		return nil, err
	}
	if !recursive {
		s.mu.Lock()
		s.cached[orgID] = users
		s.mu.Unlock()
	}
	return users, nil
}

func (s *rosterService) Cached(orgID string) ([]domain.DeptUser, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users, ok := s.cached[orgID]
	if !ok {
		return nil, false
	}
	return append([]domain.DeptUser(nil), users...), true
}

func (s *rosterService) State(userID, orgID string) domain.AttachmentState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.cached[orgID] {
		if u.UserID == userID {
			return u.State()
		}
	}
	return domain.Unattached
}

// SetPrimary makes orgID the user's primary department. The service
// demotes the previous primary, so other cached rosters listing the user
// are dropped rather than trusted.
func (s *rosterService) SetPrimary(ctx context.Context, userID, orgID string) error {
	return observe(ctx, s.observer, "roster.set_primary", map[string]any{"user_id": userID, "org_id": orgID}, func() error {
		if err := s.requireIDs(userID, orgID); err != nil {
			return err
		}
		err := s.client.SetPrimary(ctx, userID, orgID)
		s.journal.record(ctx, domain.OpSetPrimary, orgID, userID, userDept(userID, orgID), err)
		if err != nil {
			return err
		}
		s.dropOthersListing(userID, orgID)
		_, err = s.List(ctx, orgID, false)
		return err
	})
}

func (s *rosterService) AddAuxiliary(ctx context.Context, userID, orgID string) error {
	return observe(ctx, s.observer, "roster.add_auxiliary", map[string]any{"user_id": userID, "org_id": orgID}, func() error {
		if err := s.requireIDs(userID, orgID); err != nil {
			return err
		}
		err := s.client.AddAuxiliary(ctx, userID, orgID)
		s.journal.record(ctx, domain.OpAddAuxiliary, orgID, userID, userDept(userID, orgID), err)
		if err != nil {
			return err
		}
		_, err = s.List(ctx, orgID, false)
		return err
	})
}

func (s *rosterService) RemoveAuxiliary(ctx context.Context, userID, orgID string) error {
	return observe(ctx, s.observer, "roster.remove_auxiliary", map[string]any{"user_id": userID, "org_id": orgID}, func() error {
		if err := s.requireIDs(userID, orgID); err != nil {
			return err
		}
		if s.State(userID, orgID) == domain.Primary {
			return conflict(ErrPrimaryRemoval, orgID, "set another primary department for this user first")
		}
		err := s.client.RemoveAuxiliary(ctx, userID, orgID)
		s.journal.record(ctx, domain.OpRemoveAuxiliary, orgID, userID, userDept(userID, orgID), err)
		if err != nil {
			return err
		}
		_, err = s.List(ctx, orgID, false)
		return err
	})
}

// CountMembers counts distinct users attached anywhere in orgID's subtree.
func (s *rosterService) CountMembers(ctx context.Context, orgID string) (int, error) {
	users, err := s.List(ctx, orgID, true)
	if err != nil {
		return 0, err
	}
	seen := make(map[string]bool, len(users))
	for _, u := range users {
		seen[u.UserID] = true
	}
	return len(seen), nil
}

func (s *rosterService) requireIDs(userID, orgID string) error {
	if err := requireID("userId", userID); err != nil {
		return err
	}
	return requireID("orgId", orgID)
}

func (s *rosterService) dropOthersListing(userID, keep string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for org, users := range s.cached {
		if org == keep {
			continue
		}
		for _, u := range users {
			if u.UserID == userID {
				delete(s.cached, org)
				break
			}
		}
	}
}

func userDept(userID, orgID string) map[string]string {
	return map[string]string{"userId": userID, "deptId": orgID}
}

// MemberFilter narrows a roster listing.
type MemberFilter struct {
	Search  string
	Fuzzy   bool
	Primary domain.TriState
}

// FilterMembers returns the users matching f, preserving order.
func FilterMembers(users []domain.DeptUser, f MemberFilter) []domain.DeptUser {
	q := strings.TrimSpace(f.Search)
	var out []domain.DeptUser
	for _, u := range users {
		if !f.Primary.Matches(u.IsPrimary) {
			continue
		}
		if q != "" && !matchMember(q, f.Fuzzy, u) {
			continue
		}
		out = append(out, u)
	}
	return out
}

func matchMember(q string, fuzzyMatch bool, u domain.DeptUser) bool {
	for _, field := range []string{u.UserName, u.UserID} {
		if fuzzyMatch && fuzzy.MatchFold(q, field) {
			return true
		}
		if !fuzzyMatch && strings.Contains(strings.ToLower(field), strings.ToLower(q)) {
			return true
		}
	}
	return false
}
