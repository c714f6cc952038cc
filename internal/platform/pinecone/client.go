package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/luminar-backend/internal/pkg/httpx"
	"github.com/yungbote/luminar-backend/internal/platform/ctxutil"
	"github.com/yungbote/luminar-backend/internal/platform/logger"
)

// Client is the subset of the Pinecone REST API the vector store uses.
type Client interface {
	DescribeIndex(ctx context.Context, indexName string) (*IndexDescription, error)
	UpsertVectors(ctx context.Context, host string, req UpsertRequest) (*UpsertResponse, error)
	Query(ctx context.Context, host string, req QueryRequest) (*QueryResponse, error)
	DeleteVectors(ctx context.Context, host string, req DeleteRequest) error
}

type Config struct {
	APIKey     string
	APIVersion string
	BaseURL    string
	Timeout    time.Duration
	// MaxRetries bounds retries of transient failures; negative disables them.
	MaxRetries   int
	RetryBackoff time.Duration
}

const maxRetryWait = 10 * time.Second

type client struct {
	log    *logger.Logger
	cfg    Config
	http   *http.Client
	scheme string
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing Pinecone API key")
	}
	if strings.TrimSpace(cfg.APIVersion) == "" {
		cfg.APIVersion = "2025-10"
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.pinecone.io"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	} else if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 250 * time.Millisecond
	}
	return &client{
		log:    log.With("client", "PineconeClient"),
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		scheme: "https",
	}, nil
}

type IndexDescription struct {
	Name      string `json:"name"`
	Host      string `json:"host"`
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric"`
}

func (c *client) DescribeIndex(ctx context.Context, indexName string) (*IndexDescription, error) {
	indexName = strings.TrimSpace(indexName)
	if indexName == "" {
		return nil, fmt.Errorf("indexName required")
	}
	u := strings.TrimRight(c.cfg.BaseURL, "/") + "/indexes/" + indexName
	out, err := doJSON[IndexDescription](c, ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("pinecone describe_index: %w", err)
	}
	if strings.TrimSpace(out.Host) == "" {
		return nil, fmt.Errorf("pinecone describe_index returned empty host")
	}
	return out, nil
}

type Vector struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type UpsertRequest struct {
	Vectors   []Vector `json:"vectors"`
	Namespace string   `json:"namespace,omitempty"`
}

type UpsertResponse struct {
	UpsertedCount int64 `json:"upsertedCount"`
}

func (c *client) UpsertVectors(ctx context.Context, host string, req UpsertRequest) (*UpsertResponse, error) {
	if len(req.Vectors) == 0 {
		return &UpsertResponse{}, nil
	}
	u, err := c.dataURL(host, "/vectors/upsert")
	if err != nil {
		return nil, err
	}
	return doJSON[UpsertResponse](c, ctx, http.MethodPost, u, req)
}

type QueryRequest struct {
	Namespace       string    `json:"namespace,omitempty"`
	Vector          []float32 `json:"vector,omitempty"`
	TopK            int       `json:"topK"`
	IncludeValues   bool      `json:"includeValues,omitempty"`
	IncludeMetadata bool      `json:"includeMetadata,omitempty"`
}

type QueryMatch struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type QueryResponse struct {
	Matches []QueryMatch `json:"matches"`
}

func (c *client) Query(ctx context.Context, host string, req QueryRequest) (*QueryResponse, error) {
	if req.TopK <= 0 {
		req.TopK = 10
	}
	if len(req.Vector) == 0 {
		return nil, fmt.Errorf("query vector required")
	}
	u, err := c.dataURL(host, "/query")
	if err != nil {
		return nil, err
	}
	return doJSON[QueryResponse](c, ctx, http.MethodPost, u, req)
}

type DeleteRequest struct {
	IDs       []string `json:"ids,omitempty"`
	Namespace string   `json:"namespace,omitempty"`
	DeleteAll bool     `json:"deleteAll,omitempty"`
}

func (c *client) DeleteVectors(ctx context.Context, host string, req DeleteRequest) error {
	if len(req.IDs) == 0 && !req.DeleteAll {
		return nil
	}
	u, err := c.dataURL(host, "/vectors/delete")
	if err != nil {
		return err
	}
	_, err = doJSON[map[string]any](c, ctx, http.MethodPost, u, req)
	return err
}

func (c *client) dataURL(host, path string) (string, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return "", fmt.Errorf("host required")
	}
	if strings.Contains(host, "://") {
		return strings.TrimRight(host, "/") + path, nil
	}
	return c.scheme + "://" + host + path, nil
}

// APIError is a non-2xx answer from Pinecone.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > 512 {
		body = body[:512] + "..."
	}
	return fmt.Sprintf("pinecone http %d: %s", e.Status, body)
}

func (e *APIError) HTTPStatusCode() int { return e.Status }

// doJSON sends body as JSON and decodes the answer into T. Timeouts, 408/429
// and 5xx answers are retried with jittered exponential backoff.
func doJSON[T any](c *client, ctx context.Context, method, url string, body any) (*T, error) {
	ctx = ctxutil.Default(ctx)
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("pinecone encode: %w", err)
		}
		payload = b
	}

	backoff := c.cfg.RetryBackoff
	for attempt := 0; ; attempt++ {
		raw, resp, err := c.send(ctx, method, url, payload)
		if err == nil {
			var out T
			if len(bytes.TrimSpace(raw)) > 0 {
				if err := json.Unmarshal(raw, &out); err != nil {
					return nil, fmt.Errorf("pinecone decode: %w", err)
				}
			}
			return &out, nil
		}
		if attempt >= c.cfg.MaxRetries || !httpx.IsRetryableError(err) {
			return nil, err
		}
		wait := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, maxRetryWait))
		c.log.Warn("pinecone request retry",
			"method", method,
			"attempt", attempt+1,
			"wait_ms", wait.Milliseconds(),
			"error", err,
		)
		if serr := httpx.Sleep(ctx, wait); serr != nil {
			return nil, err
		}
		backoff *= 2
	}
}

func (c *client) send(ctx context.Context, method, url string, payload []byte) ([]byte, *http.Response, error) {
	var rdr io.Reader
	if payload != nil {
		rdr = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rdr)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Api-Key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Pinecone-Api-Version", c.cfg.APIVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, resp, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp, &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	return raw, resp, nil
}
