package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/luminar-backend/internal/platform/ctxutil"
	"github.com/yungbote/luminar-backend/internal/platform/logger"
	"github.com/yungbote/luminar-backend/internal/platform/pinecone"
)

const (
	payloadNamespaceKey = "_lm_namespace"
	payloadVectorIDKey  = "_lm_vector_id"
	maxBodyBytes        = 4 << 20
	maxErrorBodyBytes   = 1024
)

var pointIDNamespace = uuid.MustParse("6b3f6c1e-57d4-4f8e-9a57-2f1d0c8e4a11")

var _ pinecone.VectorStore = (*vectorStore)(nil)

type vectorStore struct {
	log      *logger.Logger
	cfg      Config
	baseURL  string
	distance string
	http     *http.Client
}

type envelope struct {
	Result json.RawMessage `json:"result"`
	Status json.RawMessage `json:"status"`
}

type scoredPoint struct {
	ID      json.RawMessage `json:"id"`
	Score   float64         `json:"score"`
	Payload map[string]any  `json:"payload"`
}

// NewVectorStore checks the collection, creating it with cosine distance
// when it does not exist yet.
func NewVectorStore(log *logger.Logger, cfg Config) (pinecone.VectorStore, error) {
	s, err := newVectorStore(log, cfg, nil)
	if err != nil {
		return nil, err
	}
	if err := s.ensureCollection(context.Background()); err != nil {
		return nil, err
	}
	s.log.Info("Qdrant vector store ready",
		"url", s.baseURL,
		"collection", cfg.Collection,
		"vector_dim", cfg.VectorDim,
		"distance", s.distance,
	)
	return s, nil
}

func newVectorStore(log *logger.Logger, cfg Config, hc *http.Client) (*vectorStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	if strings.TrimSpace(cfg.NamespacePrefix) == "" {
		cfg.NamespacePrefix = "lm"
	}
	return &vectorStore{
		log:      log.With("service", "QdrantVectorStore"),
		cfg:      cfg,
		baseURL:  strings.TrimRight(cfg.URL, "/"),
		distance: "Cosine",
		http:     hc,
	}, nil
}

func (s *vectorStore) Upsert(ctx context.Context, namespace string, vectors []pinecone.Vector) error {
	const op = "upsert"
	if len(vectors) == 0 {
		return nil
	}
	ns := s.qualifyNamespace(namespace)
	points := make([]map[string]any, 0, len(vectors))
	for _, v := range vectors {
		id := strings.TrimSpace(v.ID)
		if id == "" {
			return opErr(op, OperationErrorValidation, "vector id is required", nil)
		}
		if len(v.Values) != s.cfg.VectorDim {
			return opErr(op, OperationErrorValidation,
				fmt.Sprintf("vector %q dimension mismatch: expected=%d got=%d", id, s.cfg.VectorDim, len(v.Values)), nil)
		}
		payload := make(map[string]any, len(v.Metadata)+2)
		for k, val := range v.Metadata {
			payload[k] = val
		}
		payload[payloadNamespaceKey] = ns
		payload[payloadVectorIDKey] = id
		points = append(points, map[string]any{
			"id":      pointID(ns, id),
			"vector":  v.Values,
			"payload": payload,
		})
	}
	return s.doJSON(ctx, op, http.MethodPut, s.collectionPath("/points?wait=true"), map[string]any{"points": points}, nil)
}

func (s *vectorStore) QueryMatches(ctx context.Context, namespace string, q []float32, topK int) ([]pinecone.VectorMatch, error) {
	const op = "query"
	if len(q) != s.cfg.VectorDim {
		return nil, opErr(op, OperationErrorValidation,
			fmt.Sprintf("query vector dimension mismatch: expected=%d got=%d", s.cfg.VectorDim, len(q)), nil)
	}
	if topK <= 0 {
		topK = 10
	}
	ns := s.qualifyNamespace(namespace)

	var points []scoredPoint
	req := map[string]any{
		"vector":       q,
		"limit":        topK,
		"with_payload": true,
		"filter":       namespaceFilter(ns),
	}
	if err := s.doJSON(ctx, op, http.MethodPost, s.collectionPath("/points/search"), req, &points); err != nil {
		return nil, err
	}

	out := make([]pinecone.VectorMatch, 0, len(points))
	for _, p := range points {
		id, _ := p.Payload[payloadVectorIDKey].(string)
		if strings.TrimSpace(id) == "" {
			// Points written by another tool; skip rather than guess the mapping.
			continue
		}
		out = append(out, pinecone.VectorMatch{ID: id, Score: s.normalizeScore(p.Score)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].ID < out[j].ID
		}
		return out[i].Score > out[j].Score
	})
	return out, nil
}

func (s *vectorStore) DeleteIDs(ctx context.Context, namespace string, ids []string) error {
	const op = "delete"
	ns := s.qualifyNamespace(namespace)
	seen := make(map[string]struct{}, len(ids))
	points := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		pid := pointID(ns, id)
		if _, dup := seen[pid]; dup {
			continue
		}
		seen[pid] = struct{}{}
		points = append(points, pid)
	}
	if len(points) == 0 {
		return nil
	}
	return s.doJSON(ctx, op, http.MethodPost, s.collectionPath("/points/delete?wait=true"), map[string]any{"points": points}, nil)
}

func (s *vectorStore) ensureCollection(ctx context.Context) error {
	const op = "bootstrap"
	var info struct {
		Config struct {
			Params struct {
				Vectors struct {
					Size     int    `json:"size"`
					Distance string `json:"distance"`
				} `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	}
	err := s.doJSON(ctx, op, http.MethodGet, s.collectionPath(""), nil, &info)
	var oe *OperationError
	if errors.As(err, &oe) && oe.StatusCode == http.StatusNotFound {
		s.log.Info("creating qdrant collection", "collection", s.cfg.Collection, "vector_dim", s.cfg.VectorDim)
		body := map[string]any{"vectors": map[string]any{"size": s.cfg.VectorDim, "distance": "Cosine"}}
		return s.doJSON(ctx, op, http.MethodPut, s.collectionPath(""), body, nil)
	}
	if err != nil {
		return err
	}
	if size := info.Config.Params.Vectors.Size; size != 0 && size != s.cfg.VectorDim {
		return opErr(op, OperationErrorValidation,
			fmt.Sprintf("collection %q vector size mismatch: expected=%d actual=%d", s.cfg.Collection, s.cfg.VectorDim, size), nil)
	}
	if d := strings.TrimSpace(info.Config.Params.Vectors.Distance); d != "" {
		s.distance = d
	}
	return nil
}

func (s *vectorStore) doJSON(ctx context.Context, op, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return opErr(op, OperationErrorEncodeFailed, "encode request failed", err)
		}
		body = &buf
	}
	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), method, s.baseURL+path, body)
	if err != nil {
		return opErr(op, OperationErrorTransportFailed, "build request failed", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.APIKey != "" {
		req.Header.Set("api-key", s.cfg.APIKey)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return classifyTransportError(op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return opErr(op, OperationErrorDecodeFailed, "read response failed", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &OperationError{
			Code:       OperationErrorRemote,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    truncateBody(raw),
		}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode envelope failed", err)
	}
	if msg := envelopeError(env.Status); msg != "" {
		return &OperationError{Code: OperationErrorRemote, Operation: op, StatusCode: resp.StatusCode, Message: msg}
	}
	if out == nil || len(env.Result) == 0 || string(env.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode result failed", err)
	}
	return nil
}

func classifyTransportError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return opErr(op, OperationErrorTimeout, "request timed out", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return opErr(op, OperationErrorTimeout, "request timed out", err)
	}
	return opErr(op, OperationErrorTransportFailed, "request failed", err)
}

// envelopeError returns "" for an "ok" status and the error text otherwise.
func envelopeError(raw json.RawMessage) string {
	status := strings.TrimSpace(string(raw))
	if status == "" || status == "null" {
		return ""
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		if strings.EqualFold(str, "ok") || strings.EqualFold(str, "acknowledged") {
			return ""
		}
		return "status=" + str
	}
	var obj struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && strings.TrimSpace(obj.Error) != "" {
		return strings.TrimSpace(obj.Error)
	}
	return "status=" + status
}

func truncateBody(raw []byte) string {
	if len(raw) <= maxErrorBodyBytes {
		return string(raw)
	}
	return string(raw[:maxErrorBodyBytes]) + "..."
}

func (s *vectorStore) qualifyNamespace(namespace string) string {
	ns := strings.TrimSpace(namespace)
	if ns == "" {
		return s.cfg.NamespacePrefix
	}
	return s.cfg.NamespacePrefix + ":" + ns
}

// pointID derives a stable UUID so re-upserting a chunk overwrites its point.
func pointID(namespace, vectorID string) string {
	return uuid.NewSHA1(pointIDNamespace, []byte(namespace+"|"+vectorID)).String()
}

func (s *vectorStore) collectionPath(suffix string) string {
	return "/collections/" + s.cfg.Collection + suffix
}

func (s *vectorStore) normalizeScore(score float64) float64 {
	switch strings.ToLower(s.distance) {
	case "euclid", "manhattan":
		if score < 0 {
			score = -score
		}
		return 1.0 / (1.0 + score)
	default:
		return score
	}
}
