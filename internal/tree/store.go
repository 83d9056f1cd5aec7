// Package tree holds the client-side organization hierarchy: a flat store
// of nodes with parent references and a presenter that turns it into
// visible rows.
package tree

import (
	"sort"
	"sync"

	"github.com/alexanderramin/orgctl/internal/domain"
)

// rootKey indexes the children of the virtual root.
const rootKey = ""

type entry struct {
	node  domain.OrgNode
	index int // position in the received list; breaks sortOrder ties
}

// Store is a flat, replace-on-refetch collection of organization nodes.
// Every query is answered from the current snapshot; unknown ids yield
// empty results rather than errors. Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	nodes    map[string]*entry
	order    []string
	children map[string][]string
	version  uint64
}

func NewStore() *Store {
	return &Store{
		nodes:    make(map[string]*entry),
		children: make(map[string][]string),
	}
}

// ReplaceAll swaps the whole collection. Nodes may arrive in any order.
// When an id repeats, the first occurrence wins. Nodes whose parent is not
// in the collection are indexed as roots so they stay reachable.
func (s *Store) ReplaceAll(nodes []domain.OrgNode) {
	byID := make(map[string]*entry, len(nodes))
	order := make([]string, 0, len(nodes))
	for i, n := range nodes {
		if n.ID == "" {
			continue
		}
		if _, dup := byID[n.ID]; dup {
			continue
		}
		byID[n.ID] = &entry{node: n, index: i}
		order = append(order, n.ID)
	}

	children := make(map[string][]string)
	for _, id := range order {
		e := byID[id]
		key := e.node.ParentID
		if domain.IsRootParent(key) || byID[key] == nil || key == id {
			key = rootKey
		}
		children[key] = append(children[key], id)
	}
	for _, ids := range children {
		sort.SliceStable(ids, func(i, j int) bool {
			a, b := byID[ids[i]], byID[ids[j]]
			if a.node.SortOrder != b.node.SortOrder {
				return a.node.SortOrder < b.node.SortOrder
			}
			return a.index < b.index
		})
	}

	s.mu.Lock()
	s.nodes = byID
	s.order = order
	s.children = children
	s.version++
	s.mu.Unlock()
}

// Version increases on every ReplaceAll.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Get returns a copy of the node with the given id.
func (s *Store) Get(id string) (domain.OrgNode, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.nodes[id]
	if !ok {
		return domain.OrgNode{}, false
	}
	return e.node, true
}

// All returns every node in received order.
func (s *Store) All() []domain.OrgNode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.OrgNode, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.nodes[id].node)
	}
	return out
}

// Roots returns the root-level nodes in sibling order.
func (s *Store) Roots() []domain.OrgNode {
	return s.ChildrenOf(rootKey)
}

// ChildrenOf returns the direct children of id sorted by sortOrder, ties in
// received order. An empty id or RootParentID selects the root level.
func (s *Store) ChildrenOf(id string) []domain.OrgNode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.childrenLocked(normalizeKey(id))
}

// HasChildren reports whether id has at least one child.
func (s *Store) HasChildren(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.children[normalizeKey(id)]) > 0
}

// Siblings returns the nodes sharing id's parent, including id itself.
func (s *Store) Siblings(id string) []domain.OrgNode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.nodes[id]
	if !ok {
		return nil
	}
	return s.childrenLocked(s.parentKeyLocked(e))
}

// ParentKey returns the index key of id's parent: the parent id, or ""
// for root-level nodes.
func (s *Store) ParentKey(id string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.nodes[id]
	if !ok {
		return rootKey
	}
	return s.parentKeyLocked(e)
}

// DescendantsOf returns every node below id in pre-order. Each node is
// visited at most once, so malformed cyclic data still terminates.
func (s *Store) DescendantsOf(id string) []domain.OrgNode {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.nodes[id]; !ok {
		return nil
	}
	visited := map[string]bool{id: true}
	var out []domain.OrgNode
	stack := reversed(s.children[id])
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		out = append(out, s.nodes[cur].node)
		stack = append(stack, reversed(s.children[cur])...)
	}
	return out
}

// PathOf returns the ancestor names from the root down to id, inclusive.
func (s *Store) PathOf(id string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var names []string
	visited := make(map[string]bool)
	cur := id
	for {
		e, ok := s.nodes[cur]
		if !ok || visited[cur] {
			break
		}
		visited[cur] = true
		names = append(names, e.node.Name)
		if domain.IsRootParent(e.node.ParentID) {
			break
		}
		cur = e.node.ParentID
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return names
}

// IsDescendant reports whether id lies strictly below ancestorID.
func (s *Store) IsDescendant(ancestorID, id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	visited := make(map[string]bool)
	e, ok := s.nodes[id]
	for ok && !visited[e.node.ID] {
		visited[e.node.ID] = true
		if domain.IsRootParent(e.node.ParentID) {
			return false
		}
		if e.node.ParentID == ancestorID {
			return true
		}
		e, ok = s.nodes[e.node.ParentID]
	}
	return false
}

func (s *Store) childrenLocked(key string) []domain.OrgNode {
	ids := s.children[key]
	if len(ids) == 0 {
		return nil
	}
	out := make([]domain.OrgNode, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.nodes[id].node)
	}
	return out
}

func (s *Store) parentKeyLocked(e *entry) string {
	p := e.node.ParentID
	if domain.IsRootParent(p) || s.nodes[p] == nil || p == e.node.ID {
		return rootKey
	}
	return p
}

func normalizeKey(id string) string {
	if domain.IsRootParent(id) {
		return rootKey
	}
	return id
}

func reversed(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[len(ids)-1-i] = id
	}
	return out
}
