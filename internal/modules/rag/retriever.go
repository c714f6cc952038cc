package rag

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	types "github.com/yungbote/luminar-backend/internal/domain"
	"github.com/yungbote/luminar-backend/internal/observability"
	"github.com/yungbote/luminar-backend/internal/platform/logger"
	"github.com/yungbote/luminar-backend/internal/platform/pinecone"
)

const DefaultTopK = 3

// ScoredChunk is one retrieval hit. Score is cosine similarity.
type ScoredChunk struct {
	ChunkID    uuid.UUID `json:"chunk_id"`
	MaterialID uuid.UUID `json:"material_id"`
	Ordinal    int       `json:"ordinal"`
	Text       string    `json:"text"`
	Score      float64   `json:"score"`
}

// ChunkSource is the subset of the chunk repo retrieval reads from.
type ChunkSource interface {
	ListByWorkspace(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID) ([]*types.MaterialChunk, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.MaterialChunk, error)
}

type Retriever struct {
	chunks       ChunkSource
	vec          pinecone.VectorStore
	defaultK     int
	denseTimeout time.Duration
	log          *logger.Logger
}

// NewRetriever builds a retriever; vec may be nil to always score in process.
func NewRetriever(log *logger.Logger, chunks ChunkSource, vec pinecone.VectorStore, defaultK int) *Retriever {
	if defaultK <= 0 {
		defaultK = DefaultTopK
	}
	return &Retriever{
		chunks:       chunks,
		vec:          vec,
		defaultK:     defaultK,
		denseTimeout: 2 * time.Second,
		log:          log.With("service", "Retriever"),
	}
}

// TopK returns at most k chunks of the workspace, score descending. Ties
// keep insertion order.
func (r *Retriever) TopK(ctx context.Context, workspaceID uuid.UUID, q []float32, k int) ([]ScoredChunk, error) {
	if k <= 0 {
		k = r.defaultK
	}
	ctx, span := observability.StartSpan(ctx, "rag.retrieve",
		attribute.String("workspace_id", workspaceID.String()),
		attribute.Int("k", k),
	)
	defer span.End()

	if r.vec != nil {
		hits, err := r.dense(ctx, workspaceID, q, k)
		if err != nil {
			r.log.Warn("dense retrieval failed; falling back to sql", "workspace_id", workspaceID, "error", err)
		} else if len(hits) > 0 {
			span.SetAttributes(attribute.String("mode", "dense"))
			return hits, nil
		}
	}
	span.SetAttributes(attribute.String("mode", "sql"))
	return r.scan(ctx, workspaceID, q, k)
}

func (r *Retriever) dense(ctx context.Context, workspaceID uuid.UUID, q []float32, k int) ([]ScoredChunk, error) {
	qctx, cancel := context.WithTimeout(ctx, r.denseTimeout)
	defer cancel()
	matches, err := r.vec.QueryMatches(qctx, workspaceID.String(), q, k)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(matches))
	for _, m := range matches {
		id, err := uuid.Parse(strings.TrimSpace(m.ID))
		if err != nil || id == uuid.Nil {
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.chunks.GetByIDs(ctx, nil, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*types.MaterialChunk, len(rows))
	for _, c := range rows {
		if c != nil && c.WorkspaceID == workspaceID {
			byID[c.ID] = c
		}
	}
	out := make([]ScoredChunk, 0, len(matches))
	for _, m := range matches {
		id, _ := uuid.Parse(strings.TrimSpace(m.ID))
		c, ok := byID[id]
		if !ok {
			// Stale vector whose chunk is gone.
			continue
		}
		out = append(out, scored(c, m.Score))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func (r *Retriever) scan(ctx context.Context, workspaceID uuid.UUID, q []float32, k int) ([]ScoredChunk, error) {
	rows, err := r.chunks.ListByWorkspace(ctx, nil, workspaceID)
	if err != nil {
		return nil, err
	}
	out := make([]ScoredChunk, 0, len(rows))
	for _, c := range rows {
		if c == nil {
			continue
		}
		v, err := c.Vector()
		if err != nil {
			r.log.Warn("skipping chunk with unreadable embedding", "chunk_id", c.ID, "error", err)
			continue
		}
		out = append(out, scored(c, cosine(q, v)))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func scored(c *types.MaterialChunk, score float64) ScoredChunk {
	return ScoredChunk{
		ChunkID:    c.ID,
		MaterialID: c.MaterialID,
		Ordinal:    c.Ordinal,
		Text:       c.Text,
		Score:      score,
	}
}

// JoinContext joins hit texts with the separator used in prompts.
func JoinContext(hits []ScoredChunk) string {
	parts := make([]string, 0, len(hits))
	for _, h := range hits {
		parts = append(parts, h.Text)
	}
	return strings.Join(parts, "\n\n---\n\n")
}
