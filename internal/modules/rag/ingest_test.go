package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/luminar-backend/internal/data/repos"
	"github.com/yungbote/luminar-backend/internal/data/repos/testutil"
	types "github.com/yungbote/luminar-backend/internal/domain"
	domainerrs "github.com/yungbote/luminar-backend/internal/pkg/errors"
	"github.com/yungbote/luminar-backend/internal/platform/logger"
)

func TestIngestPersistsChunksAndVectors(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	ws := testutil.SeedWorkspace(t, ctx, db, uuid.New())
	m := testutil.SeedMaterial(t, ctx, db, ws.ID, "bio.pdf")
	m.ExtractedText = strings.Repeat("x", 25)

	chunkRepo := repos.NewMaterialChunkRepo(db, logger.Nop())
	matRepo := repos.NewMaterialRepo(db, logger.Nop())
	vec := &fakeVectorStore{}
	ing := NewIngestor(logger.Nop(), db, chunkRepo, matRepo,
		NewEmbedder(logger.Nop(), &fakeModel{}, EmbedderConfig{Dim: 2, Concurrency: 2}),
		vec, IngestConfig{ChunkSize: 10, ChunkOverlap: 2})

	n, err := ing.Ingest(ctx, m)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	// ceil((25-2)/8) = 3
	if n != 3 {
		t.Fatalf("chunks: want=3 got=%d", n)
	}
	rows, err := chunkRepo.ListByWorkspace(ctx, nil, ws.ID)
	if err != nil || len(rows) != 3 {
		t.Fatalf("ListByWorkspace: err=%v len=%d", err, len(rows))
	}
	for i, r := range rows {
		if r.Ordinal != i || r.Dim != 2 {
			t.Fatalf("row %d: ordinal=%d dim=%d", i, r.Ordinal, r.Dim)
		}
	}
	if got := len(vec.upserted[ws.ID.String()]); got != 3 {
		t.Fatalf("upserted vectors: want=3 got=%d", got)
	}
	stored, err := matRepo.GetByID(ctx, nil, m.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.EmbeddingStatus != types.EmbeddingReady || stored.ChunkCount != 3 {
		t.Fatalf("material not marked ready: %+v", stored)
	}

	// Re-ingesting replaces rather than appends.
	if _, err := ing.Ingest(ctx, m); err != nil {
		t.Fatalf("re-Ingest: %v", err)
	}
	if ids, _ := chunkRepo.IDsByMaterial(ctx, nil, m.ID); len(ids) != 3 {
		t.Fatalf("after re-ingest: want=3 chunks got=%d", len(ids))
	}
	if got := len(vec.deleted[ws.ID.String()]); got != 3 {
		t.Fatalf("stale vectors deleted: want=3 got=%d", got)
	}
}

func TestIngestFailureMarksMaterialFailed(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	ws := testutil.SeedWorkspace(t, ctx, db, uuid.New())
	m := testutil.SeedMaterial(t, ctx, db, ws.ID, "bad.pdf")
	m.ExtractedText = "okokokokbadbad"

	chunkRepo := repos.NewMaterialChunkRepo(db, logger.Nop())
	matRepo := repos.NewMaterialRepo(db, logger.Nop())
	ing := NewIngestor(logger.Nop(), db, chunkRepo, matRepo,
		NewEmbedder(logger.Nop(), &fakeModel{failOn: "bad"}, EmbedderConfig{}),
		nil, IngestConfig{ChunkSize: 8, ChunkOverlap: 0})

	if _, err := ing.Ingest(ctx, m); !errors.Is(err, domainerrs.ErrEmbeddingFailure) {
		t.Fatalf("want ErrEmbeddingFailure got=%v", err)
	}
	if ids, _ := chunkRepo.IDsByMaterial(ctx, nil, m.ID); len(ids) != 0 {
		t.Fatalf("no chunks should be kept, got=%d", len(ids))
	}
	stored, _ := matRepo.GetByID(ctx, nil, m.ID)
	if stored.EmbeddingStatus != types.EmbeddingFailed || stored.EmbeddingError == "" {
		t.Fatalf("material not marked failed: %+v", stored)
	}
}

func TestRemoveDeletesChunksAndVectors(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	ws := testutil.SeedWorkspace(t, ctx, db, uuid.New())
	m := testutil.SeedMaterial(t, ctx, db, ws.ID, "gone.pdf")
	testutil.SeedChunk(t, ctx, db, m, 0, "a", []float32{1, 0})

	vec := &fakeVectorStore{}
	chunkRepo := repos.NewMaterialChunkRepo(db, logger.Nop())
	ing := NewIngestor(logger.Nop(), db, chunkRepo, repos.NewMaterialRepo(db, logger.Nop()),
		NewEmbedder(logger.Nop(), &fakeModel{}, EmbedderConfig{}), vec, IngestConfig{})

	ids, err := ing.Remove(ctx, nil, m)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if left, _ := chunkRepo.IDsByMaterial(ctx, nil, m.ID); len(left) != 0 {
		t.Fatalf("chunks remain: %d", len(left))
	}
	if len(vec.deleted) != 0 {
		t.Fatalf("vectors must wait for DropVectors")
	}
	ing.DropVectors(ctx, ws.ID, ids)
	if len(vec.deleted[ws.ID.String()]) != 1 {
		t.Fatalf("vector delete not issued: %v", vec.deleted)
	}
}
