package canvas

import "github.com/google/uuid"

const (
	LevelSpacing = 200.0
	LeafSlot     = 350.0
	RootGap      = 1000.0
)

// Layout assigns coordinates to pre-ordered visible nodes, top to bottom.
// Every leaf takes one slot, parents sit centred over their first and last
// child, and root subtrees are placed left to right with RootGap between
// them.
func Layout(nodes []Node) {
	if len(nodes) == 0 {
		return
	}
	pos := make(map[uuid.UUID]int, len(nodes))
	for i, n := range nodes {
		pos[n.ID] = i
	}
	children := make(map[uuid.UUID][]int, len(nodes))
	var roots []int
	for i, n := range nodes {
		if n.ParentID != nil {
			if _, ok := pos[*n.ParentID]; ok {
				children[*n.ParentID] = append(children[*n.ParentID], i)
				continue
			}
		}
		roots = append(roots, i)
	}

	var place func(i, level int, cursor *float64)
	place = func(i, level int, cursor *float64) {
		nodes[i].Y = float64(level) * LevelSpacing
		kids := children[nodes[i].ID]
		if len(kids) == 0 {
			nodes[i].X = *cursor
			*cursor += LeafSlot
			return
		}
		for _, k := range kids {
			place(k, level+1, cursor)
		}
		nodes[i].X = (nodes[kids[0]].X + nodes[kids[len(kids)-1]].X) / 2
	}

	cursor := 0.0
	for n, r := range roots {
		if n > 0 {
			// cursor sits one slot past the previous subtree's last leaf.
			cursor += RootGap - LeafSlot
		}
		place(r, 0, &cursor)
	}
}
