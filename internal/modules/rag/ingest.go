package rag

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	types "github.com/yungbote/luminar-backend/internal/domain"
	"github.com/yungbote/luminar-backend/internal/observability"
	"github.com/yungbote/luminar-backend/internal/platform/logger"
	"github.com/yungbote/luminar-backend/internal/platform/pinecone"
)

type ChunkWriter interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, chunks []*types.MaterialChunk) ([]*types.MaterialChunk, error)
	IDsByMaterial(ctx context.Context, tx *gorm.DB, materialID uuid.UUID) ([]uuid.UUID, error)
	DeleteByMaterial(ctx context.Context, tx *gorm.DB, materialID uuid.UUID) error
}

type MaterialStatusWriter interface {
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
}

type IngestConfig struct {
	ChunkSize    int
	ChunkOverlap int
}

// Ingestor turns a material's extracted text into embedded chunks.
type Ingestor struct {
	db        *gorm.DB
	chunks    ChunkWriter
	materials MaterialStatusWriter
	embedder  *Embedder
	vec       pinecone.VectorStore
	cfg       IngestConfig
	log       *logger.Logger
}

func NewIngestor(log *logger.Logger, db *gorm.DB, chunks ChunkWriter, materials MaterialStatusWriter, embedder *Embedder, vec pinecone.VectorStore, cfg IngestConfig) *Ingestor {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = DefaultChunkOverlap
	}
	return &Ingestor{
		db:        db,
		chunks:    chunks,
		materials: materials,
		embedder:  embedder,
		vec:       vec,
		cfg:       cfg,
		log:       log.With("service", "Ingestor"),
	}
}

// Ingest chunks and embeds m.ExtractedText, replacing any earlier chunks of
// m in one transaction. Ordinals are assigned before embedding starts. On
// failure the material is marked failed and no chunks are kept.
func (i *Ingestor) Ingest(ctx context.Context, m *types.Material) (int, error) {
	ctx, span := observability.StartSpan(ctx, "rag.ingest", attribute.String("material_id", m.ID.String()))
	defer span.End()

	n, err := i.ingest(ctx, m)
	if err != nil {
		span.RecordError(err)
		i.log.Warn("ingestion failed", "material_id", m.ID, "error", err)
		if uerr := i.materials.UpdateFields(ctx, nil, m.ID, map[string]interface{}{
			"embedding_status": types.EmbeddingFailed,
			"embedding_error":  truncate(err.Error(), 500),
		}); uerr != nil {
			i.log.Error("mark material failed", "material_id", m.ID, "error", uerr)
		}
		m.EmbeddingStatus = types.EmbeddingFailed
		return 0, err
	}
	m.EmbeddingStatus = types.EmbeddingReady
	m.ChunkCount = n
	return n, nil
}

func (i *Ingestor) ingest(ctx context.Context, m *types.Material) (int, error) {
	texts, err := Chunk(m.ExtractedText, i.cfg.ChunkSize, i.cfg.ChunkOverlap)
	if err != nil {
		return 0, err
	}
	vecs, err := i.embedder.EmbedAll(ctx, texts)
	if err != nil {
		return 0, err
	}

	rows := make([]*types.MaterialChunk, len(texts))
	for ord, t := range texts {
		c := &types.MaterialChunk{
			ID:          uuid.New(),
			MaterialID:  m.ID,
			WorkspaceID: m.WorkspaceID,
			Ordinal:     ord,
			Text:        t,
		}
		if err := c.SetVector(vecs[ord]); err != nil {
			return 0, err
		}
		rows[ord] = c
	}

	var staleIDs []uuid.UUID
	err = i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids, err := i.chunks.IDsByMaterial(ctx, tx, m.ID)
		if err != nil {
			return err
		}
		staleIDs = ids
		if err := i.chunks.DeleteByMaterial(ctx, tx, m.ID); err != nil {
			return err
		}
		if _, err := i.chunks.CreateBatch(ctx, tx, rows); err != nil {
			return fmt.Errorf("persist chunks: %w", err)
		}
		return i.materials.UpdateFields(ctx, tx, m.ID, map[string]interface{}{
			"embedding_status": types.EmbeddingReady,
			"embedding_error":  "",
			"chunk_count":      len(rows),
		})
	})
	if err != nil {
		return 0, err
	}

	i.syncVectors(ctx, m.WorkspaceID, staleIDs, rows)
	i.log.Info("material ingested", "material_id", m.ID, "chunks", len(rows))
	return len(rows), nil
}

// syncVectors mirrors chunks into the vector index. SQL stays authoritative,
// so failures are logged only.
func (i *Ingestor) syncVectors(ctx context.Context, workspaceID uuid.UUID, stale []uuid.UUID, rows []*types.MaterialChunk) {
	if i.vec == nil {
		return
	}
	i.DropVectors(ctx, workspaceID, stale)
	vectors := make([]pinecone.Vector, 0, len(rows))
	for _, c := range rows {
		v, err := c.Vector()
		if err != nil {
			continue
		}
		vectors = append(vectors, pinecone.Vector{
			ID:     c.ID.String(),
			Values: v,
			Metadata: map[string]any{
				"material_id": c.MaterialID.String(),
				"ordinal":     c.Ordinal,
			},
		})
	}
	if err := i.vec.Upsert(ctx, workspaceID.String(), vectors); err != nil {
		i.log.Warn("vector upsert failed (continuing)", "workspace_id", workspaceID, "vectors", len(vectors), "error", err)
	}
}

// Remove deletes a material's chunks and returns their ids so the caller
// can drop the vectors once its transaction commits.
func (i *Ingestor) Remove(ctx context.Context, tx *gorm.DB, m *types.Material) ([]uuid.UUID, error) {
	ids, err := i.chunks.IDsByMaterial(ctx, tx, m.ID)
	if err != nil {
		return nil, err
	}
	if err := i.chunks.DeleteByMaterial(ctx, tx, m.ID); err != nil {
		return nil, err
	}
	return ids, nil
}

// DropVectors removes chunk vectors from the index. Failures are logged.
func (i *Ingestor) DropVectors(ctx context.Context, workspaceID uuid.UUID, chunkIDs []uuid.UUID) {
	if i.vec == nil || len(chunkIDs) == 0 {
		return
	}
	if err := i.vec.DeleteIDs(ctx, workspaceID.String(), uuidStrings(chunkIDs)); err != nil {
		i.log.Warn("vector delete failed (continuing)", "workspace_id", workspaceID, "vectors", len(chunkIDs), "error", err)
	}
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
