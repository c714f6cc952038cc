package app

import (
	"errors"
	"fmt"
	"net"
	neturl "net/url"
	"strings"
	"time"

	"github.com/yungbote/luminar-backend/internal/platform/envutil"
	"github.com/yungbote/luminar-backend/internal/platform/logger"
	"github.com/yungbote/luminar-backend/internal/platform/pinecone"
	"github.com/yungbote/luminar-backend/internal/platform/qdrant"
)

type VectorProvider string

const (
	VectorProviderPinecone VectorProvider = "pinecone"
	VectorProviderQdrant   VectorProvider = "qdrant"
	VectorProviderNone     VectorProvider = "none"
)

var (
	newPineconeClient      = pinecone.New
	newPineconeVectorStore = pinecone.NewVectorStore
	newQdrantVectorStore   = qdrant.NewVectorStore
	qdrantConfigFromEnv    = qdrant.ConfigFromEnv
)

type VectorProviderBootstrapErrorCode string

const (
	VectorProviderBootstrapErrorInvalidProvider      VectorProviderBootstrapErrorCode = "invalid_provider"
	VectorProviderBootstrapErrorMissingQdrantURL     VectorProviderBootstrapErrorCode = "missing_qdrant_url"
	VectorProviderBootstrapErrorInvalidQdrantURL     VectorProviderBootstrapErrorCode = "invalid_qdrant_url"
	VectorProviderBootstrapErrorMissingQdrantColl    VectorProviderBootstrapErrorCode = "missing_qdrant_collection"
	VectorProviderBootstrapErrorInvalidQdrantVector  VectorProviderBootstrapErrorCode = "invalid_qdrant_vector_dim"
	VectorProviderBootstrapErrorQdrantConfigFailed   VectorProviderBootstrapErrorCode = "qdrant_config_failed"
	VectorProviderBootstrapErrorConnectFailed        VectorProviderBootstrapErrorCode = "connect_failed"
	VectorProviderBootstrapErrorProviderInitFailed   VectorProviderBootstrapErrorCode = "provider_init_failed"
	VectorProviderBootstrapCodeDisabledMissingAPIKey VectorProviderBootstrapErrorCode = "disabled_missing_api_key"
)

type VectorProviderBootstrapError struct {
	Code     VectorProviderBootstrapErrorCode
	Provider string
	Cause    error
}

func (e *VectorProviderBootstrapError) Error() string {
	if e == nil {
		return "vector provider bootstrap failed"
	}
	return fmt.Sprintf("vector provider bootstrap failed (code=%s provider=%q): %v", e.Code, e.Provider, e.Cause)
}

func (e *VectorProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveVectorStore returns nil without error for the none provider and
// for pinecone without an API key. Retrieval then stays on the SQL scan.
func resolveVectorStore(log *logger.Logger, cfg Config) (pinecone.VectorStore, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.VectorProvider))
	log.Info("Selecting vector store provider", "provider", provider)

	switch VectorProvider(provider) {
	case "", VectorProviderNone:
		log.Info("Vector store disabled; retrieval uses the SQL scan")
		return nil, nil

	case VectorProviderQdrant:
		qcfg, err := qdrantConfigFromEnv()
		if err != nil {
			return nil, bootstrapFailed(log, provider, err)
		}
		if !envutil.Set("QDRANT_VECTOR_DIM") && cfg.Tunables.EmbeddingDim > 0 {
			qcfg.VectorDim = cfg.Tunables.EmbeddingDim
		}
		vs, err := newQdrantVectorStore(log, qcfg)
		if err != nil {
			return nil, bootstrapFailed(log, provider, err)
		}
		return instrumentVectorStore(log, provider, vs), nil

	case VectorProviderPinecone:
		apiKey := envutil.String("PINECONE_API_KEY", "")
		if apiKey == "" {
			log.Warn("PINECONE_API_KEY not set; vector search disabled", "code", VectorProviderBootstrapCodeDisabledMissingAPIKey)
			return nil, nil
		}
		pc, err := newPineconeClient(log, pinecone.Config{
			APIKey:     apiKey,
			APIVersion: envutil.String("PINECONE_API_VERSION", ""),
			BaseURL:    envutil.String("PINECONE_BASE_URL", ""),
			Timeout:    envutil.Duration("PINECONE_TIMEOUT", 30*time.Second),
		})
		if err != nil {
			return nil, bootstrapFailed(log, provider, err)
		}
		vs, err := newPineconeVectorStore(log, pc, pinecone.VectorStoreConfig{
			IndexName:       envutil.String("PINECONE_INDEX_NAME", ""),
			IndexHost:       envutil.String("PINECONE_INDEX_HOST", ""),
			NamespacePrefix: envutil.String("PINECONE_NAMESPACE_PREFIX", "lm"),
		})
		if err != nil {
			return nil, bootstrapFailed(log, provider, err)
		}
		return instrumentVectorStore(log, provider, vs), nil

	default:
		err := &VectorProviderBootstrapError{
			Code:     VectorProviderBootstrapErrorInvalidProvider,
			Provider: provider,
			Cause:    fmt.Errorf("unsupported vector provider %q", provider),
		}
		log.Error("Vector store provider selection failed", "provider", provider, "error_code", err.Code, "error", err)
		return nil, err
	}
}

func bootstrapFailed(log *logger.Logger, provider string, err error) error {
	classified := classifyVectorProviderBootstrapError(provider, err)
	log.Error(
		"Vector store provider bootstrap failed",
		"provider", provider,
		"error_code", vectorProviderBootstrapErrorCode(classified),
		"error", classified,
	)
	return classified
}

func classifyVectorProviderBootstrapError(provider string, err error) error {
	wrap := func(code VectorProviderBootstrapErrorCode) error {
		return &VectorProviderBootstrapError{Code: code, Provider: provider, Cause: err}
	}

	var cfgErr *qdrant.ConfigError
	if errors.As(err, &cfgErr) {
		switch cfgErr.Code {
		case qdrant.ConfigErrorMissingURL:
			return wrap(VectorProviderBootstrapErrorMissingQdrantURL)
		case qdrant.ConfigErrorInvalidURL:
			return wrap(VectorProviderBootstrapErrorInvalidQdrantURL)
		case qdrant.ConfigErrorMissingCollection:
			return wrap(VectorProviderBootstrapErrorMissingQdrantColl)
		case qdrant.ConfigErrorInvalidVectorDim:
			return wrap(VectorProviderBootstrapErrorInvalidQdrantVector)
		default:
			return wrap(VectorProviderBootstrapErrorQdrantConfigFailed)
		}
	}

	var urlErr *neturl.Error
	if errors.As(err, &urlErr) {
		return wrap(VectorProviderBootstrapErrorConnectFailed)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return wrap(VectorProviderBootstrapErrorConnectFailed)
	}
	errLower := strings.ToLower(err.Error())
	if strings.Contains(errLower, "ready check failed") || strings.Contains(errLower, "connection refused") {
		return wrap(VectorProviderBootstrapErrorConnectFailed)
	}
	return wrap(VectorProviderBootstrapErrorProviderInitFailed)
}

func vectorProviderBootstrapErrorCode(err error) VectorProviderBootstrapErrorCode {
	var bootstrapErr *VectorProviderBootstrapError
	if errors.As(err, &bootstrapErr) && bootstrapErr.Code != "" {
		return bootstrapErr.Code
	}
	return VectorProviderBootstrapErrorConnectFailed
}
