package mindmap

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/luminar-backend/internal/data/repos/testutil"
	types "github.com/yungbote/luminar-backend/internal/domain"
)

func nodesFor(ws, gen uuid.UUID, labels ...string) []*types.MindMapNode {
	root := &types.MindMapNode{ID: uuid.New(), WorkspaceID: ws, GenerationID: gen, Label: labels[0]}
	out := []*types.MindMapNode{root}
	for i, l := range labels[1:] {
		parent := root.ID
		out = append(out, &types.MindMapNode{ID: uuid.New(), WorkspaceID: ws, GenerationID: gen, ParentID: &parent, Label: l, Depth: 1, Order: i})
	}
	return out
}

func TestReplaceWorkspaceNodes(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewMindMapNodeRepo(db, testutil.Logger(t))
	ws := testutil.SeedWorkspace(t, ctx, db, uuid.New())
	other := testutil.SeedWorkspace(t, ctx, db, uuid.New())

	if err := repo.ReplaceWorkspaceNodes(ctx, nil, other.ID, nodesFor(other.ID, uuid.New(), "Other")); err != nil {
		t.Fatalf("seed other: %v", err)
	}
	if err := repo.ReplaceWorkspaceNodes(ctx, nil, ws.ID, nodesFor(ws.ID, uuid.New(), "X", "Y", "Z")); err != nil {
		t.Fatalf("first replace: %v", err)
	}
	gen2 := uuid.New()
	if err := repo.ReplaceWorkspaceNodes(ctx, nil, ws.ID, nodesFor(ws.ID, gen2, "P", "Q")); err != nil {
		t.Fatalf("second replace: %v", err)
	}

	rows, err := repo.ListByWorkspace(ctx, nil, ws.ID)
	if err != nil {
		t.Fatalf("ListByWorkspace: %v", err)
	}
	if len(rows) != 2 || rows[0].Label != "P" || rows[1].Label != "Q" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	for _, r := range rows {
		if r.GenerationID != gen2 {
			t.Fatalf("mixed generations: %+v", r)
		}
	}
	if others, _ := repo.ListByWorkspace(ctx, nil, other.ID); len(others) != 1 {
		t.Fatalf("other workspace touched: %d rows", len(others))
	}
}

func TestReplaceWorkspaceNodesRollsBackOnInsertFailure(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewMindMapNodeRepo(db, testutil.Logger(t))
	ws := testutil.SeedWorkspace(t, ctx, db, uuid.New())

	if err := repo.ReplaceWorkspaceNodes(ctx, nil, ws.ID, nodesFor(ws.ID, uuid.New(), "X", "Y")); err != nil {
		t.Fatalf("first replace: %v", err)
	}
	bad := nodesFor(ws.ID, uuid.New(), "P", "Q")
	bad[1].ID = bad[0].ID // primary key collision fails the insert
	if err := repo.ReplaceWorkspaceNodes(ctx, nil, ws.ID, bad); err == nil {
		t.Fatalf("expected insert failure")
	}

	rows, err := repo.ListByWorkspace(ctx, nil, ws.ID)
	if err != nil {
		t.Fatalf("ListByWorkspace: %v", err)
	}
	if len(rows) != 2 || rows[0].Label != "X" {
		t.Fatalf("old tree not preserved: %+v", rows)
	}
}
