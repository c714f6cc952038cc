// Package canvas turns a stored mind map into what a client draws: the
// nodes visible under the current expansion state, the edges between
// them and a deterministic layout. Nothing here is safe for concurrent
// use; keep one ViewState per session.
package canvas

import (
	"sort"

	"github.com/google/uuid"

	types "github.com/yungbote/luminar-backend/internal/domain"
)

// Index is a parent to children adjacency view over flat node rows,
// built once per materialization.
type Index struct {
	nodes    map[uuid.UUID]*types.MindMapNode
	children map[uuid.UUID][]uuid.UUID
	roots    []uuid.UUID
}

func NewIndex(nodes []*types.MindMapNode) *Index {
	idx := &Index{
		nodes:    make(map[uuid.UUID]*types.MindMapNode, len(nodes)),
		children: map[uuid.UUID][]uuid.UUID{},
	}
	for _, n := range nodes {
		if n != nil && n.ID != uuid.Nil {
			idx.nodes[n.ID] = n
		}
	}
	for id, n := range idx.nodes {
		if n.ParentID != nil {
			if _, ok := idx.nodes[*n.ParentID]; ok {
				idx.children[*n.ParentID] = append(idx.children[*n.ParentID], id)
				continue
			}
		}
		idx.roots = append(idx.roots, id)
	}
	idx.sortIDs(idx.roots)
	for parent := range idx.children {
		idx.sortIDs(idx.children[parent])
	}
	return idx
}

func (idx *Index) sortIDs(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool {
		a, b := idx.nodes[ids[i]], idx.nodes[ids[j]]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.ID.String() < b.ID.String()
	})
}

func (idx *Index) Roots() []uuid.UUID { return idx.roots }

func (idx *Index) Children(id uuid.UUID) []uuid.UUID { return idx.children[id] }

func (idx *Index) Node(id uuid.UUID) (*types.MindMapNode, bool) {
	n, ok := idx.nodes[id]
	return n, ok
}

func (idx *Index) Len() int { return len(idx.nodes) }
