package materials

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/luminar-backend/internal/data/repos/testutil"
	types "github.com/yungbote/luminar-backend/internal/domain"
	domainerrs "github.com/yungbote/luminar-backend/internal/pkg/errors"
)

func TestMaterialChunkRepoListByWorkspaceOrdering(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewMaterialChunkRepo(db, testutil.Logger(t))

	ws := testutil.SeedWorkspace(t, ctx, tx, uuid.New())
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	older := &types.Material{WorkspaceID: ws.ID, OriginalFileName: "a.pdf", MimeType: "application/pdf", StorageKey: "a", CreatedAt: base}
	newer := &types.Material{WorkspaceID: ws.ID, OriginalFileName: "b.pdf", MimeType: "application/pdf", StorageKey: "b", CreatedAt: base.Add(time.Hour)}
	for _, m := range []*types.Material{newer, older} {
		if err := tx.Create(m).Error; err != nil {
			t.Fatalf("seed material: %v", err)
		}
	}

	chunks := []*types.MaterialChunk{
		{MaterialID: newer.ID, WorkspaceID: ws.ID, Ordinal: 0, Text: "n0"},
		{MaterialID: older.ID, WorkspaceID: ws.ID, Ordinal: 1, Text: "o1"},
		{MaterialID: older.ID, WorkspaceID: ws.ID, Ordinal: 0, Text: "o0"},
	}
	for _, c := range chunks {
		if err := c.SetVector([]float32{1, 0}); err != nil {
			t.Fatalf("SetVector: %v", err)
		}
	}
	if _, err := repo.CreateBatch(ctx, tx, chunks); err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}

	got, err := repo.ListByWorkspace(ctx, tx, ws.ID)
	if err != nil {
		t.Fatalf("ListByWorkspace: %v", err)
	}
	var texts []string
	for _, c := range got {
		texts = append(texts, c.Text)
	}
	want := []string{"o0", "o1", "n0"}
	if len(texts) != len(want) {
		t.Fatalf("len: want=%d got=%v", len(want), texts)
	}
	for i := range want {
		if texts[i] != want[i] {
			t.Fatalf("order: want=%v got=%v", want, texts)
		}
	}

	vec, err := got[0].Vector()
	if err != nil || len(vec) != 2 || vec[0] != 1 {
		t.Fatalf("Vector: err=%v vec=%v", err, vec)
	}
}

func TestMaterialChunkRepoDuplicateOrdinal(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewMaterialChunkRepo(db, testutil.Logger(t))

	ws := testutil.SeedWorkspace(t, ctx, tx, uuid.New())
	m := testutil.SeedMaterial(t, ctx, tx, ws.ID, "doc.pdf")
	testutil.SeedChunk(t, ctx, tx, m, 0, "first", []float32{1})

	_, err := repo.CreateBatch(ctx, tx, []*types.MaterialChunk{{MaterialID: m.ID, WorkspaceID: ws.ID, Ordinal: 0, Text: "dup"}})
	if !errors.Is(err, domainerrs.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got=%v", err)
	}
}

func TestMaterialChunkRepoDeleteByMaterial(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewMaterialChunkRepo(db, testutil.Logger(t))

	ws := testutil.SeedWorkspace(t, ctx, tx, uuid.New())
	m1 := testutil.SeedMaterial(t, ctx, tx, ws.ID, "one.pdf")
	m2 := testutil.SeedMaterial(t, ctx, tx, ws.ID, "two.pdf")
	c1 := testutil.SeedChunk(t, ctx, tx, m1, 0, "a", []float32{1})
	testutil.SeedChunk(t, ctx, tx, m2, 0, "b", []float32{1})

	ids, err := repo.IDsByMaterial(ctx, tx, m1.ID)
	if err != nil || len(ids) != 1 || ids[0] != c1.ID {
		t.Fatalf("IDsByMaterial: err=%v ids=%v", err, ids)
	}
	if err := repo.DeleteByMaterial(ctx, tx, m1.ID); err != nil {
		t.Fatalf("DeleteByMaterial: %v", err)
	}
	rest, err := repo.IDsByWorkspace(ctx, tx, ws.ID)
	if err != nil || len(rest) != 1 {
		t.Fatalf("IDsByWorkspace: err=%v ids=%v", err, rest)
	}
	if rows, err := repo.GetByIDs(ctx, tx, []uuid.UUID{c1.ID}); err != nil || len(rows) != 0 {
		t.Fatalf("GetByIDs after delete: err=%v len=%d", err, len(rows))
	}
}
