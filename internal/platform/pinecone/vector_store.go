package pinecone

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/luminar-backend/internal/platform/logger"
)

// VectorStore is the nearest-neighbour port shared by every provider.
// Namespaces isolate tenants; callers pass the bare namespace and the store
// applies its own prefix.
type VectorStore interface {
	Upsert(ctx context.Context, namespace string, vectors []Vector) error
	// QueryMatches returns IDs with their similarity scores (higher is better).
	QueryMatches(ctx context.Context, namespace string, q []float32, topK int) ([]VectorMatch, error)
	DeleteIDs(ctx context.Context, namespace string, ids []string) error
}

type VectorMatch struct {
	ID    string
	Score float64
}

type VectorStoreConfig struct {
	IndexName       string
	IndexHost       string
	NamespacePrefix string
}

var _ VectorStore = (*vectorStore)(nil)

type vectorStore struct {
	log       *logger.Logger
	pc        Client
	indexHost string
	nsPrefix  string
}

// NewVectorStore resolves the index host via describe_index when it is not
// configured.
func NewVectorStore(log *logger.Logger, pc Client, cfg VectorStoreConfig) (VectorStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if pc == nil {
		return nil, fmt.Errorf("pinecone client required")
	}
	host := strings.TrimSpace(cfg.IndexHost)
	if host == "" {
		name := strings.TrimSpace(cfg.IndexName)
		if name == "" {
			return nil, fmt.Errorf("missing PINECONE_INDEX_NAME")
		}
		desc, err := pc.DescribeIndex(context.Background(), name)
		if err != nil {
			return nil, err
		}
		host = strings.TrimSpace(desc.Host)
		log.Warn("PINECONE_INDEX_HOST not set; resolved via describe_index", "index_name", name, "index_host", host)
	}
	prefix := strings.TrimSpace(cfg.NamespacePrefix)
	if prefix == "" {
		prefix = "lm"
	}
	return &vectorStore{
		log:       log.With("service", "PineconeVectorStore"),
		pc:        pc,
		indexHost: host,
		nsPrefix:  prefix,
	}, nil
}

// Pinecone caps request sizes; chunk vectors carry 768+ floats each.
const (
	upsertBatchSize = 100
	deleteBatchSize = 1000
)

func (s *vectorStore) Upsert(ctx context.Context, namespace string, vectors []Vector) error {
	if s == nil || s.pc == nil || len(vectors) == 0 {
		return nil
	}
	ns := s.qualifyNamespace(namespace)
	for start := 0; start < len(vectors); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(vectors))
		if _, err := s.pc.UpsertVectors(ctx, s.indexHost, UpsertRequest{
			Namespace: ns,
			Vectors:   vectors[start:end],
		}); err != nil {
			return fmt.Errorf("pinecone upsert batch %d-%d: %w", start, end, err)
		}
	}
	return nil
}

func (s *vectorStore) QueryMatches(ctx context.Context, namespace string, q []float32, topK int) ([]VectorMatch, error) {
	if s == nil || s.pc == nil {
		return nil, fmt.Errorf("vector store unavailable")
	}
	resp, err := s.pc.Query(ctx, s.indexHost, QueryRequest{
		Namespace: s.qualifyNamespace(namespace),
		Vector:    q,
		TopK:      topK,
	})
	if err != nil {
		return nil, err
	}
	out := make([]VectorMatch, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		if strings.TrimSpace(m.ID) == "" {
			continue
		}
		out = append(out, VectorMatch{ID: m.ID, Score: m.Score})
	}
	return out, nil
}

func (s *vectorStore) DeleteIDs(ctx context.Context, namespace string, ids []string) error {
	if s == nil || s.pc == nil || len(ids) == 0 {
		return nil
	}
	ns := s.qualifyNamespace(namespace)
	for start := 0; start < len(ids); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(ids))
		if err := s.pc.DeleteVectors(ctx, s.indexHost, DeleteRequest{
			Namespace: ns,
			IDs:       ids[start:end],
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *vectorStore) qualifyNamespace(ns string) string {
	ns = strings.TrimSpace(ns)
	if ns == "" {
		return s.nsPrefix
	}
	return s.nsPrefix + ":" + ns
}
