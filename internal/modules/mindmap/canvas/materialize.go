package canvas

import (
	"fmt"

	"github.com/google/uuid"
)

// Node is one visible mind map node. X and Y are the centre of its box.
type Node struct {
	ID          uuid.UUID  `json:"id"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty"`
	Label       string     `json:"label"`
	Content     string     `json:"content"`
	Level       int        `json:"level"`
	HasChildren bool       `json:"has_children"`
	Expanded    bool       `json:"expanded"`
	Selected    bool       `json:"selected"`
	X           float64    `json:"x"`
	Y           float64    `json:"y"`
}

type Edge struct {
	ID     string    `json:"id"`
	Source uuid.UUID `json:"source"`
	Target uuid.UUID `json:"target"`
}

type Rect struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

func (r Rect) Width() float64  { return r.MaxX - r.MinX }
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Graph is a laid out, framed view of the visible part of a mind map.
type Graph struct {
	Nodes  []Node `json:"nodes"`
	Edges  []Edge `json:"edges"`
	Bounds Rect   `json:"bounds"`
}

const DefaultPadding = 100

// Visible walks the roots depth-first and descends into a node's children
// only while it is expanded. The result is in pre-order.
func Visible(idx *Index, state *ViewState) []Node {
	out := make([]Node, 0, len(idx.Roots()))
	var walk func(id uuid.UUID, level int)
	walk = func(id uuid.UUID, level int) {
		n, ok := idx.Node(id)
		if !ok {
			return
		}
		kids := idx.Children(id)
		expanded := state.IsExpanded(id)
		out = append(out, Node{
			ID:          n.ID,
			ParentID:    n.ParentID,
			Label:       n.Label,
			Content:     n.Content,
			Level:       level,
			HasChildren: len(kids) > 0,
			Expanded:    expanded,
			Selected:    state.Selected != nil && *state.Selected == n.ID,
		})
		if !expanded {
			return
		}
		for _, c := range kids {
			walk(c, level+1)
		}
	}
	for _, r := range idx.Roots() {
		walk(r, 0)
	}
	return out
}

// Materialize recomputes the visible graph and its layout from scratch.
func Materialize(idx *Index, state *ViewState) Graph {
	nodes := Visible(idx, state)
	visible := make(map[uuid.UUID]bool, len(nodes))
	for _, n := range nodes {
		visible[n.ID] = true
	}
	edges := make([]Edge, 0, len(nodes))
	for _, n := range nodes {
		if n.ParentID != nil && visible[*n.ParentID] {
			edges = append(edges, Edge{
				ID:     fmt.Sprintf("e-%s-%s", n.ParentID, n.ID),
				Source: *n.ParentID,
				Target: n.ID,
			})
		}
	}
	Layout(nodes)
	return Graph{Nodes: nodes, Edges: edges, Bounds: FitBounds(nodes, DefaultPadding)}
}

// FitBounds frames every node centre plus padding on each side.
func FitBounds(nodes []Node, padding float64) Rect {
	if len(nodes) == 0 {
		return Rect{}
	}
	r := Rect{MinX: nodes[0].X, MinY: nodes[0].Y, MaxX: nodes[0].X, MaxY: nodes[0].Y}
	for _, n := range nodes[1:] {
		r.MinX = min(r.MinX, n.X)
		r.MinY = min(r.MinY, n.Y)
		r.MaxX = max(r.MaxX, n.X)
		r.MaxY = max(r.MaxY, n.Y)
	}
	r.MinX -= padding
	r.MinY -= padding
	r.MaxX += padding
	r.MaxY += padding
	return r
}
