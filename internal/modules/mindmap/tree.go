package mindmap

import (
	"sort"

	"github.com/google/uuid"

	types "github.com/yungbote/luminar-backend/internal/domain"
)

// TreeNode is the nested form of a mind map, as the model returns it and as
// clients read it back. ID is only set for trees rebuilt from storage.
type TreeNode struct {
	ID       string      `json:"id,omitempty"`
	Label    string      `json:"label"`
	Content  string      `json:"content"`
	Children []*TreeNode `json:"children,omitempty"`
}

// Depth returns the number of levels in the tree rooted at n.
func (n *TreeNode) Depth() int {
	if n == nil {
		return 0
	}
	max := 0
	for _, c := range n.Children {
		if d := c.Depth(); d > max {
			max = d
		}
	}
	return max + 1
}

// Size counts the nodes of the tree rooted at n.
func (n *TreeNode) Size() int {
	if n == nil {
		return 0
	}
	total := 1
	for _, c := range n.Children {
		total += c.Size()
	}
	return total
}

// prune drops every node below maxDepth levels and reports how many were
// removed. maxDepth <= 0 keeps everything.
func prune(n *TreeNode, maxDepth int) int {
	if n == nil || maxDepth <= 0 {
		return 0
	}
	return pruneAt(n, 1, maxDepth)
}

func pruneAt(n *TreeNode, level, maxDepth int) int {
	if level >= maxDepth {
		removed := 0
		for _, c := range n.Children {
			removed += c.Size()
		}
		n.Children = nil
		return removed
	}
	removed := 0
	for _, c := range n.Children {
		removed += pruneAt(c, level+1, maxDepth)
	}
	return removed
}

// Flatten walks root depth-first and returns rows in parent-before-child
// order. Depth is the recursion depth and Order the index among siblings.
func Flatten(workspaceID, generationID uuid.UUID, root *TreeNode) []*types.MindMapNode {
	if root == nil {
		return nil
	}
	out := make([]*types.MindMapNode, 0, root.Size())
	var walk func(n *TreeNode, parent *uuid.UUID, depth, order int)
	walk = func(n *TreeNode, parent *uuid.UUID, depth, order int) {
		row := &types.MindMapNode{
			ID:           uuid.New(),
			WorkspaceID:  workspaceID,
			GenerationID: generationID,
			ParentID:     parent,
			Label:        n.Label,
			Content:      n.Content,
			Depth:        depth,
			Order:        order,
		}
		out = append(out, row)
		id := row.ID
		for i, c := range n.Children {
			if c != nil {
				walk(c, &id, depth+1, i)
			}
		}
	}
	walk(root, nil, 0, 0)
	return out
}

// BuildTree rebuilds the nested form of flat rows. Rows whose parent is
// missing are treated as roots. Siblings are ordered by Order, then ID.
func BuildTree(nodes []*types.MindMapNode) []*TreeNode {
	present := make(map[uuid.UUID]bool, len(nodes))
	for _, n := range nodes {
		if n != nil {
			present[n.ID] = true
		}
	}
	children := map[uuid.UUID][]*types.MindMapNode{}
	var roots []*types.MindMapNode
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if n.ParentID == nil || !present[*n.ParentID] {
			roots = append(roots, n)
			continue
		}
		children[*n.ParentID] = append(children[*n.ParentID], n)
	}

	var build func(n *types.MindMapNode) *TreeNode
	build = func(n *types.MindMapNode) *TreeNode {
		kids := children[n.ID]
		sortSiblings(kids)
		t := &TreeNode{ID: n.ID.String(), Label: n.Label, Content: n.Content}
		for _, k := range kids {
			t.Children = append(t.Children, build(k))
		}
		return t
	}

	sortSiblings(roots)
	out := make([]*TreeNode, 0, len(roots))
	for _, r := range roots {
		out = append(out, build(r))
	}
	return out
}

func sortSiblings(nodes []*types.MindMapNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Order != nodes[j].Order {
			return nodes[i].Order < nodes[j].Order
		}
		return nodes[i].ID.String() < nodes[j].ID.String()
	})
}
