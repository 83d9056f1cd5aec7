package tree

import "github.com/alexanderramin/orgctl/internal/domain"

// Row is one visible line of the tree.
type Row struct {
	Node        domain.OrgNode
	Depth       int
	Expanded    bool
	HasChildren bool
}

// Presenter owns the expand/collapse state of one editing session and
// derives visible rows from a Store. It is not safe for concurrent use;
// the TUI drives it from the bubbletea update loop.
type Presenter struct {
	store    *Store
	expanded map[string]bool
	seeded   bool
}

// NewPresenter returns a presenter whose expanded set starts with every
// root-level node once the store first holds data.
func NewPresenter(store *Store) *Presenter {
	return &Presenter{store: store, expanded: make(map[string]bool)}
}

func (p *Presenter) Store() *Store { return p.store }

func (p *Presenter) seed() {
	if p.seeded || p.store.Len() == 0 {
		return
	}
	for _, n := range p.store.Roots() {
		p.expanded[n.ID] = true
	}
	p.seeded = true
}

func (p *Presenter) IsExpanded(id string) bool {
	p.seed()
	return p.expanded[id]
}

// ToggleExpand flips id's membership in the expanded set and returns the new state.
func (p *Presenter) ToggleExpand(id string) bool {
	p.seed()
	if p.expanded[id] {
		delete(p.expanded, id)
		return false
	}
	p.expanded[id] = true
	return true
}

func (p *Presenter) Expand(id string) {
	p.seed()
	p.expanded[id] = true
}

func (p *Presenter) Collapse(id string) {
	p.seed()
	delete(p.expanded, id)
}

// ExpandAll marks every node that has children as expanded.
func (p *Presenter) ExpandAll() {
	p.seeded = true
	for _, n := range p.store.All() {
		if p.store.HasChildren(n.ID) {
			p.expanded[n.ID] = true
		}
	}
}

func (p *Presenter) CollapseAll() {
	p.seeded = true
	p.expanded = make(map[string]bool)
}

// Reveal expands every ancestor of id so that it becomes visible.
func (p *Presenter) Reveal(id string) {
	p.seed()
	visited := make(map[string]bool)
	cur := id
	for !visited[cur] {
		visited[cur] = true
		parent := p.store.ParentKey(cur)
		if parent == rootKey {
			return
		}
		p.expanded[parent] = true
		cur = parent
	}
}

// Expanded returns a copy of the expanded set.
func (p *Presenter) Expanded() map[string]bool {
	p.seed()
	out := make(map[string]bool, len(p.expanded))
	for id := range p.expanded {
		out[id] = true
	}
	return out
}

// FlattenVisible walks the tree depth-first from the roots, siblings in
// sort order, and emits a node only when every ancestor is expanded.
// The result is rebuilt on every call.
func (p *Presenter) FlattenVisible() []Row {
	p.seed()
	var rows []Row
	visited := make(map[string]bool)
	var walk func(nodes []domain.OrgNode, depth int)
	walk = func(nodes []domain.OrgNode, depth int) {
		for _, n := range nodes {
			if visited[n.ID] {
				continue
			}
			visited[n.ID] = true
			children := p.store.ChildrenOf(n.ID)
			row := Row{
				Node:        n,
				Depth:       depth,
				Expanded:    p.expanded[n.ID],
				HasChildren: len(children) > 0,
			}
			rows = append(rows, row)
			if row.Expanded && row.HasChildren {
				walk(children, depth+1)
			}
		}
	}
	walk(p.store.Roots(), 0)
	return rows
}

// Rows applies f to the visible rows. Each row is judged on its own; the
// expanded set is left untouched.
func (p *Presenter) Rows(f Filter) []Row {
	rows := p.FlattenVisible()
	if f.IsZero() {
		return rows
	}
	out := rows[:0]
	for _, r := range rows {
		if f.Match(r.Node, r.HasChildren) {
			out = append(out, r)
		}
	}
	return out
}
