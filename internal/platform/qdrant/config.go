package qdrant

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/luminar-backend/internal/platform/envutil"
)

type Config struct {
	URL             string
	APIKey          string
	Collection      string
	NamespacePrefix string
	VectorDim       int
	Timeout         time.Duration
}

type ConfigErrorCode string

const (
	ConfigErrorMissingURL        ConfigErrorCode = "missing_url"
	ConfigErrorInvalidURL        ConfigErrorCode = "invalid_url"
	ConfigErrorMissingCollection ConfigErrorCode = "missing_collection"
	ConfigErrorInvalidVectorDim  ConfigErrorCode = "invalid_vector_dim"
)

type ConfigError struct {
	Code  ConfigErrorCode
	Value string
	Cause error
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "invalid qdrant config"
	}
	switch e.Code {
	case ConfigErrorMissingURL:
		return "QDRANT_URL is required"
	case ConfigErrorInvalidURL:
		return fmt.Sprintf("invalid QDRANT_URL=%q; expected absolute URL like http://qdrant:6333", e.Value)
	case ConfigErrorMissingCollection:
		return "QDRANT_COLLECTION is required"
	case ConfigErrorInvalidVectorDim:
		return fmt.Sprintf("invalid vector dimension %q; expected positive integer", e.Value)
	default:
		return "invalid qdrant config"
	}
}

func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// ConfigFromEnv reads QDRANT_* variables. The vector dimension falls back to
// EMBEDDING_DIM so both sides agree unless explicitly overridden.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		URL:             envutil.String("QDRANT_URL", ""),
		APIKey:          envutil.String("QDRANT_API_KEY", ""),
		Collection:      envutil.String("QDRANT_COLLECTION", "luminar_chunks"),
		NamespacePrefix: envutil.String("QDRANT_NAMESPACE_PREFIX", "lm"),
		VectorDim:       envutil.Int("QDRANT_VECTOR_DIM", envutil.Int("EMBEDDING_DIM", 768)),
		Timeout:         envutil.Duration("QDRANT_TIMEOUT", 10*time.Second),
	}
	if err := ValidateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.URL) == "" {
		return &ConfigError{Code: ConfigErrorMissingURL}
	}
	parsed, err := url.Parse(cfg.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return &ConfigError{Code: ConfigErrorInvalidURL, Value: cfg.URL, Cause: err}
	}
	if strings.TrimSpace(cfg.Collection) == "" {
		return &ConfigError{Code: ConfigErrorMissingCollection}
	}
	if cfg.VectorDim <= 0 {
		return &ConfigError{Code: ConfigErrorInvalidVectorDim, Value: strconv.Itoa(cfg.VectorDim)}
	}
	return nil
}
