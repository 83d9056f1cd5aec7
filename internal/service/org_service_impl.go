package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/alexanderramin/orgctl/internal/db"
	"github.com/alexanderramin/orgctl/internal/domain"
	"github.com/alexanderramin/orgctl/internal/impact"
	"github.com/alexanderramin/orgctl/internal/orgclient"
	"github.com/alexanderramin/orgctl/internal/repository"
	"github.com/alexanderramin/orgctl/internal/tree"
	"go.uber.org/zap"
)

// OrgOption configures an OrgService.
type OrgOption func(*orgService)

// WithJournal records every mutation attempt in j.
func WithJournal(j *Journal) OrgOption {
	return func(s *orgService) { s.journal = j }
}

// WithSnapshots saves each unfiltered tree fetch under source and lets
// LoadCached restore it. Saves run inside uow.
func WithSnapshots(uow db.UnitOfWork, snapshots repository.SnapshotRepo, source string) OrgOption {
	return func(s *orgService) {
		s.uow = uow
		s.snapshots = snapshots
		s.source = source
	}
}

// WithImpactOptions passes counters through to the impact analyzer.
func WithImpactOptions(opts ...impact.Option) OrgOption {
	return func(s *orgService) { s.impactOpts = append(s.impactOpts, opts...) }
}

// WithOrgLogger sets the logger used for non-fatal failures.
func WithOrgLogger(l *zap.Logger) OrgOption {
	return func(s *orgService) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithOrgObserver reports each use case to obs.
func WithOrgObserver(obs UseCaseObserver) OrgOption {
	return func(s *orgService) { s.observer = useCaseObserverOrNoop([]UseCaseObserver{obs}) }
}

type orgService struct {
	client     orgclient.Client
	store      *tree.Store
	analyzer   *impact.Analyzer
	impactOpts []impact.Option
	journal    *Journal
	uow        db.UnitOfWork
	snapshots  repository.SnapshotRepo
	source     string
	logger     *zap.Logger
	observer   UseCaseObserver

	mu        sync.Mutex
	lastQuery orgclient.TreeQuery
	active    *domain.OrgDetail
}

func NewOrgService(client orgclient.Client, store *tree.Store, opts ...OrgOption) OrgService {
	s := &orgService{
		client:   client,
		store:    store,
		logger:   zap.NewNop(),
		observer: NoopUseCaseObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.analyzer = impact.NewAnalyzer(store, s.impactOpts...)
	return s
}

func (s *orgService) Store() *tree.Store { return s.store }

func (s *orgService) Refresh(ctx context.Context, q orgclient.TreeQuery) error {
	s.mu.Lock()
	s.lastQuery = q
	s.mu.Unlock()
	return observe(ctx, s.observer, "org.refresh", map[string]any{"name": q.Name}, func() error {
		return s.fetch(ctx, q)
	})
}

// refetch reloads the tree with the last query after a mutation.
func (s *orgService) refetch(ctx context.Context) error {
	s.mu.Lock()
	q := s.lastQuery
	s.mu.Unlock()
	if err := s.fetch(ctx, q); err != nil {
		return fmt.Errorf("change saved but reloading the tree failed: %w", err)
	}
	return nil
}

func (s *orgService) fetch(ctx context.Context, q orgclient.TreeQuery) error {
	nodes, err := s.client.FetchTree(ctx, q)
	if err != nil {
		return err
	}
	s.store.ReplaceAll(nodes)
	if q.Name == "" && q.Status == nil {
		s.saveSnapshot(ctx, nodes)
	}
	return nil
}

func (s *orgService) saveSnapshot(ctx context.Context, nodes []domain.OrgNode) {
	if s.uow == nil || s.source == "" {
		return
	}
	snap := &domain.TreeSnapshot{Source: s.source, Nodes: nodes, FetchedAt: time.Now().UTC()}
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return repository.NewSQLiteSnapshotRepo(tx).Save(ctx, snap)
	})
	if err != nil {
		s.logger.Warn("snapshot_save_failed", zap.String("source", s.source), zap.Error(err))
	}
}

// LoadCached replaces the store with the last saved snapshot.
func (s *orgService) LoadCached(ctx context.Context) (*domain.TreeSnapshot, error) {
	if s.snapshots == nil {
		return nil, fmt.Errorf("no snapshot store configured: %w", repository.ErrNotFound)
	}
	snap, err := s.snapshots.Get(ctx, s.source)
	if err != nil {
		return nil, err
	}
	s.store.ReplaceAll(snap.Nodes)
	return snap, nil
}

func (s *orgService) Create(ctx context.Context, d domain.OrgDraft) (string, error) {
	var id string
	err := observe(ctx, s.observer, "org.create", map[string]any{"parent_id": d.ParentID}, func() error {
		if err := validateDraft(&d); err != nil {
			return err
		}
		if !domain.IsRootParent(d.ParentID) && s.store.Len() > 0 {
			if _, ok := s.store.Get(d.ParentID); !ok {
				return &ValidationError{Field: "parentId", Message: "does not match a loaded organization"}
			}
		}
		var err error
		id, err = s.client.Create(ctx, d)
		s.journal.record(ctx, domain.OpCreate, id, "", d, err)
		if err != nil {
			return err
		}
		return s.refetch(ctx)
	})
	return id, err
}

func (s *orgService) Update(ctx context.Context, id string, p domain.OrgPatch) error {
	return observe(ctx, s.observer, "org.update", map[string]any{"org_id": id}, func() error {
		return s.update(ctx, domain.OpUpdate, id, p)
	})
}

func (s *orgService) SetStatus(ctx context.Context, id string, status domain.OrgStatus) error {
	return observe(ctx, s.observer, "org.set_status", map[string]any{"org_id": id, "status": status.String()}, func() error {
		return s.update(ctx, domain.OpSetStatus, id, domain.OrgPatch{Status: &status})
	})
}

// update sends a parent change through the move endpoint and every other
// field through the update endpoint.
func (s *orgService) update(ctx context.Context, op domain.Operation, id string, p domain.OrgPatch) error {
	node, ok := s.store.Get(id)
	if !ok {
		return notFound(id)
	}
	if err := validatePatch(&p); err != nil {
		return err
	}

	var move *orgclient.MoveRequest
	if p.ParentID != nil {
		req, err := s.reparentRequest(node, *p.ParentID)
		if err != nil {
			return err
		}
		move = req
		p.ParentID = nil
	}
	if move == nil && p.IsEmpty() {
		return nil
	}

	if move != nil {
		err := s.client.Move(ctx, *move)
		s.journal.record(ctx, domain.OpMove, id, "", move, err)
		if err != nil {
			return err
		}
	}
	if !p.IsEmpty() {
		err := s.client.Update(ctx, id, p)
		s.journal.record(ctx, op, id, "", patchPayload(p), err)
		if err != nil {
			if move != nil {
				// The move already landed; show it.
				_ = s.refetch(ctx)
			}
			return err
		}
	}

	if err := s.refetch(ctx); err != nil {
		return err
	}
	return s.refreshActive(ctx, id)
}

// reparentRequest returns nil when parentID is the current parent.
func (s *orgService) reparentRequest(node domain.OrgNode, parentID string) (*orgclient.MoveRequest, error) {
	target := parentID
	if domain.IsRootParent(target) {
		target = domain.RootParentID
	}
	current := node.ParentID
	if domain.IsRootParent(current) {
		current = domain.RootParentID
	}
	if target == current {
		return nil, nil
	}
	if target == node.ID || s.store.IsDescendant(node.ID, target) {
		return nil, conflict(ErrCycle, node.ID, "choose a parent outside this node's subtree")
	}
	if target != domain.RootParentID {
		if _, ok := s.store.Get(target); !ok {
			return nil, &ValidationError{Field: "parentId", Message: "does not match a loaded organization"}
		}
	}
	order := nodeIDs(s.store.ChildrenOf(target))
	order = append(order, node.ID)
	return &orgclient.MoveRequest{ID: node.ID, TargetParentID: target, SortOrders: order}, nil
}

func (s *orgService) Move(ctx context.Context, id, targetParentID string, siblingOrder []string) error {
	return observe(ctx, s.observer, "org.move", map[string]any{"org_id": id, "target_parent_id": targetParentID}, func() error {
		if _, ok := s.store.Get(id); !ok {
			return notFound(id)
		}
		if normalizeParent(targetParentID) != s.store.ParentKey(id) {
			return conflict(ErrCrossParentMove, id, "drag only reorders siblings; change the parent from the edit form")
		}
		siblings := nodeIDs(s.store.Siblings(id))
		if !samePermutation(siblings, siblingOrder) {
			return &ValidationError{Field: "sortOrders", Message: "must list every sibling exactly once"}
		}
		return s.move(ctx, id, siblingOrder)
	})
}

func (s *orgService) move(ctx context.Context, id string, order []string) error {
	node, _ := s.store.Get(id)
	parent := node.ParentID
	if domain.IsRootParent(parent) {
		parent = domain.RootParentID
	}
	req := orgclient.MoveRequest{ID: id, TargetParentID: parent, SortOrders: order}
	err := s.client.Move(ctx, req)
	s.journal.record(ctx, domain.OpMove, id, "", req, err)
	if err != nil {
		return err
	}
	return s.refetch(ctx)
}

// Reorder moves id into targetID's slot among their shared siblings.
func (s *orgService) Reorder(ctx context.Context, id, targetID string) error {
	return observe(ctx, s.observer, "org.reorder", map[string]any{"org_id": id, "target_id": targetID}, func() error {
		if _, ok := s.store.Get(id); !ok {
			return notFound(id)
		}
		if _, ok := s.store.Get(targetID); !ok {
			return notFound(targetID)
		}
		if s.store.ParentKey(id) != s.store.ParentKey(targetID) {
			return conflict(ErrCrossParentMove, id, "drag only reorders siblings; change the parent from the edit form")
		}
		if id == targetID {
			return nil
		}
		return s.move(ctx, id, reorderIDs(nodeIDs(s.store.Siblings(id)), id, targetID))
	})
}

// Shift moves id delta positions among its siblings, clamped to the ends.
func (s *orgService) Shift(ctx context.Context, id string, delta int) error {
	if _, ok := s.store.Get(id); !ok {
		return notFound(id)
	}
	siblings := nodeIDs(s.store.Siblings(id))
	from := slices.Index(siblings, id)
	to := min(max(from+delta, 0), len(siblings)-1)
	if to == from {
		return nil
	}
	return s.Reorder(ctx, id, siblings[to])
}

func (s *orgService) Delete(ctx context.Context, id string, force bool) error {
	return observe(ctx, s.observer, "org.delete", map[string]any{"org_id": id, "force": force}, func() error {
		if _, ok := s.store.Get(id); !ok {
			return notFound(id)
		}
		if !force && s.store.HasChildren(id) {
			return conflict(ErrHasChildren, id, "review the impact and confirm a forced delete")
		}
		err := s.client.Delete(ctx, id)
		s.journal.record(ctx, domain.OpDelete, id, "", map[string]any{"force": force}, err)
		if err != nil {
			return err
		}
		s.mu.Lock()
		if s.active != nil && s.active.ID == id {
			s.active = nil
		}
		s.mu.Unlock()
		return s.refetch(ctx)
	})
}

func (s *orgService) Detail(ctx context.Context, id string) (*domain.OrgDetail, error) {
	if err := requireID("id", id); err != nil {
		return nil, err
	}
	d, err := s.client.FetchDetail(ctx, id)
	if err != nil {
		if orgclient.HasCode(err, orgclient.CodeNotFound) {
			return nil, notFound(id)
		}
		return nil, err
	}
	return d, nil
}

func (s *orgService) SetActive(ctx context.Context, id string) (*domain.OrgDetail, error) {
	d, err := s.Detail(ctx, id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.active = d
	s.mu.Unlock()
	return d, nil
}

func (s *orgService) Active() *domain.OrgDetail {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return nil
	}
	cp := *s.active
	return &cp
}

func (s *orgService) ClearActive() {
	s.mu.Lock()
	s.active = nil
	s.mu.Unlock()
}

func (s *orgService) refreshActive(ctx context.Context, id string) error {
	s.mu.Lock()
	isActive := s.active != nil && s.active.ID == id
	s.mu.Unlock()
	if !isActive {
		return nil
	}
	_, err := s.SetActive(ctx, id)
	return err
}

func (s *orgService) Impact(ctx context.Context, id string, action domain.ImpactAction) (impact.Summary, error) {
	if !domain.ValidImpactActions[string(action)] {
		return impact.Summary{}, &ValidationError{Field: "action", Message: "must be delete or deactivate"}
	}
	sum, err := s.analyzer.Analyze(ctx, id, action)
	if errors.Is(err, impact.ErrUnknownNode) {
		return impact.Summary{}, notFound(id)
	}
	return sum, err
}

func normalizeParent(id string) string {
	if domain.IsRootParent(id) {
		return ""
	}
	return id
}

func nodeIDs(nodes []domain.OrgNode) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}

func samePermutation(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as, bs := slices.Clone(a), slices.Clone(b)
	slices.Sort(as)
	slices.Sort(bs)
	return slices.Equal(as, bs)
}

// reorderIDs removes id and reinserts it at targetID's original index.
func reorderIDs(ids []string, id, targetID string) []string {
	at := slices.Index(ids, targetID)
	out := slices.DeleteFunc(slices.Clone(ids), func(s string) bool { return s == id })
	return slices.Insert(out, at, id)
}

// patchPayload flattens a patch for the journal.
func patchPayload(p domain.OrgPatch) map[string]any {
	m := make(map[string]any)
	if p.Name != nil {
		m["name"] = *p.Name
	}
	if p.Code != nil {
		m["code"] = *p.Code
	}
	if p.Type != nil {
		m["type"] = int(*p.Type)
	}
	if p.Status != nil {
		m["status"] = int(*p.Status)
	}
	if p.SortOrder != nil {
		m["sortOrder"] = *p.SortOrder
	}
	if p.LeaderID != nil {
		m["leaderId"] = *p.LeaderID
	}
	if p.Description != nil {
		m["desc"] = *p.Description
	}
	if p.Region != nil {
		m["region"] = *p.Region
	}
	if p.IsMainDepartment != nil {
		m["isMainDepartment"] = *p.IsMainDepartment
	}
	return m
}
