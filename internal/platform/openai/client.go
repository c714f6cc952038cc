package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/yungbote/luminar-backend/internal/pkg/httpx"
	"github.com/yungbote/luminar-backend/internal/platform/ctxutil"
	"github.com/yungbote/luminar-backend/internal/platform/envutil"
	"github.com/yungbote/luminar-backend/internal/platform/logger"
)

// Usage is the token accounting reported by the provider.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Generation is one text completion.
type Generation struct {
	Text  string
	Model string
	Usage Usage
}

// Client covers the two model capabilities the backend needs: text
// generation and embeddings. Any OpenAI-compatible endpoint works.
type Client interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
	Generate(ctx context.Context, system string, user string) (Generation, error)
}

// APIStyle selects the generation endpoint.
type APIStyle string

const (
	APIStyleResponses APIStyle = "responses"
	APIStyleChat      APIStyle = "chat"
)

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	EmbedModel  string
	EmbedDim    int
	Style       APIStyle
	Temperature *float64
	Timeout     time.Duration
	MaxRetries  int
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

// ConfigFromEnv reads OPENAI_* variables.
func ConfigFromEnv() Config {
	cfg := Config{
		APIKey:     strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		BaseURL:    envutil.String("OPENAI_BASE_URL", "https://api.openai.com"),
		Model:      envutil.String("OPENAI_MODEL", "gpt-4o-mini"),
		EmbedModel: envutil.String("OPENAI_EMBED_MODEL", "text-embedding-3-small"),
		EmbedDim:   envutil.Int("OPENAI_EMBED_DIMENSIONS", 0),
		Style:      APIStyle(strings.ToLower(envutil.String("OPENAI_API_STYLE", string(APIStyleResponses)))),
		Timeout:    envutil.Duration("OPENAI_TIMEOUT_SECONDS", 180*time.Second),
		MaxRetries: envutil.Int("OPENAI_MAX_RETRIES", 3),
	}
	if raw := strings.ToLower(strings.TrimSpace(os.Getenv("OPENAI_TEMPERATURE"))); raw != "off" && raw != "none" {
		t := envutil.Float("OPENAI_TEMPERATURE", 0.2)
		cfg.Temperature = &t
	}
	return cfg
}

func NewClient(log *logger.Logger) (Client, error) {
	return New(log, ConfigFromEnv())
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	switch cfg.Style {
	case APIStyleResponses, APIStyleChat:
	case "":
		cfg.Style = APIStyleResponses
	default:
		return nil, fmt.Errorf("invalid OPENAI_API_STYLE=%q (allowed: %q, %q)", cfg.Style, APIStyleResponses, APIStyleChat)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 180 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &client{
		log:        log.With("service", "OpenAIClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type openAIHTTPError struct {
	StatusCode int
	Body       string
}

func (e *openAIHTTPError) Error() string {
	return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Body)
}

func (e *openAIHTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (c *client) doOnce(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if td := ctxutil.GetTraceData(ctx); td != nil && td.RequestID != "" {
		req.Header.Set("X-Client-Request-Id", td.RequestID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &openAIHTTPError{StatusCode: resp.StatusCode, Body: truncate(string(raw), 2048)}
	}
	return resp, raw, nil
}

// do retries retryable failures with exponential backoff, honouring
// Retry-After.
func (c *client) do(ctx context.Context, method, path string, body any, out any) error {
	ctx = ctxutil.Default(ctx)
	backoff := time.Second
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		resp, raw, err := c.doOnce(ctx, method, path, body)
		if err == nil {
			if out == nil {
				return nil
			}
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("openai decode error: %w; raw=%s", uErr, truncate(string(raw), 512))
			}
			return nil
		}
		if !httpx.IsRetryableError(err) || attempt >= c.cfg.MaxRetries {
			return err
		}
		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, 10*time.Second))
		c.log.Warn("OpenAI request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.cfg.MaxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		if sErr := httpx.Sleep(ctx, sleepFor); sErr != nil {
			return err
		}
		backoff *= 2
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
