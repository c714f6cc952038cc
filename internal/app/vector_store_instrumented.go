package app

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/luminar-backend/internal/observability"
	"github.com/yungbote/luminar-backend/internal/platform/logger"
	"github.com/yungbote/luminar-backend/internal/platform/pinecone"
)

var _ pinecone.VectorStore = (*instrumentedVectorStore)(nil)

// instrumentedVectorStore traces every call and logs slow or failed ones.
type instrumentedVectorStore struct {
	provider string
	inner    pinecone.VectorStore
	log      *logger.Logger
	slow     time.Duration
}

func instrumentVectorStore(log *logger.Logger, provider string, inner pinecone.VectorStore) pinecone.VectorStore {
	if inner == nil {
		return nil
	}
	return &instrumentedVectorStore{
		provider: provider,
		inner:    inner,
		log:      log.With("service", "VectorStore", "provider", provider),
		slow:     2 * time.Second,
	}
}

func (s *instrumentedVectorStore) Upsert(ctx context.Context, namespace string, vectors []pinecone.Vector) error {
	ctx, done := s.start(ctx, "upsert", namespace, attribute.Int("vectors", len(vectors)))
	err := s.inner.Upsert(ctx, namespace, vectors)
	done(err)
	return err
}

func (s *instrumentedVectorStore) QueryMatches(ctx context.Context, namespace string, q []float32, topK int) ([]pinecone.VectorMatch, error) {
	ctx, done := s.start(ctx, "query_matches", namespace, attribute.Int("top_k", topK))
	out, err := s.inner.QueryMatches(ctx, namespace, q, topK)
	done(err)
	return out, err
}

func (s *instrumentedVectorStore) DeleteIDs(ctx context.Context, namespace string, ids []string) error {
	ctx, done := s.start(ctx, "delete_ids", namespace, attribute.Int("ids", len(ids)))
	err := s.inner.DeleteIDs(ctx, namespace, ids)
	done(err)
	return err
}

func (s *instrumentedVectorStore) start(ctx context.Context, op, namespace string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	attrs = append(attrs,
		attribute.String("vector.provider", s.provider),
		attribute.String("vector.namespace", namespace),
	)
	ctx, span := observability.StartSpan(ctx, "vectorstore."+op, attrs...)
	begin := time.Now()
	return ctx, func(err error) {
		dur := time.Since(begin)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			s.log.Warn("Vector store call failed", "op", op, "duration_ms", dur.Milliseconds(), "error", err)
		} else if dur > s.slow {
			s.log.Warn("Slow vector store call", "op", op, "duration_ms", dur.Milliseconds())
		}
		span.End()
	}
}
