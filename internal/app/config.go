package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/luminar-backend/internal/modules/mindmap"
	"github.com/yungbote/luminar-backend/internal/modules/rag"
	"github.com/yungbote/luminar-backend/internal/platform/envutil"
	"github.com/yungbote/luminar-backend/internal/platform/logger"
	"github.com/yungbote/luminar-backend/internal/services"
)

// Tunables are the knobs that shape retrieval and generation. They can come
// from a YAML file named by CONFIG_FILE; environment variables override it.
type Tunables struct {
	ChunkSize       int     `yaml:"chunk_size"`
	ChunkOverlap    int     `yaml:"chunk_overlap"`
	TopK            int     `yaml:"top_k"`
	ExplanationTopK int     `yaml:"explanation_top_k"`
	EmbeddingDim    int     `yaml:"embedding_dim"`
	EmbedWorkers    int     `yaml:"embed_workers"`
	EmbedRatePerSec float64 `yaml:"embed_rate_per_sec"`
	MaxInputChars   int     `yaml:"max_input_chars"`
	MaxDepth        int     `yaml:"max_depth"`
	MaxUploadBytes  int64   `yaml:"max_upload_bytes"`

	MaxWorkspacesPerUser     int `yaml:"max_workspaces_per_user"`
	MaxMaterialsPerWorkspace int `yaml:"max_materials_per_workspace"`
	MaxAIRequestsPerDay      int `yaml:"max_ai_requests_per_day"`
}

func DefaultTunables() Tunables {
	limits := services.DefaultUsageLimits()
	return Tunables{
		ChunkSize:                rag.DefaultChunkSize,
		ChunkOverlap:             rag.DefaultChunkOverlap,
		TopK:                     rag.DefaultTopK,
		ExplanationTopK:          mindmap.DefaultExplanationTopK,
		EmbeddingDim:             768,
		EmbedWorkers:             4,
		MaxInputChars:            mindmap.DefaultMaxInputChars,
		MaxDepth:                 mindmap.DefaultMaxDepth,
		MaxUploadBytes:           services.DefaultMaxUploadBytes,
		MaxWorkspacesPerUser:     limits.MaxWorkspacesPerUser,
		MaxMaterialsPerWorkspace: limits.MaxMaterialsPerWorkspace,
		MaxAIRequestsPerDay:      limits.MaxAIRequestsPerDay,
	}
}

func (t Tunables) UsageLimits() services.UsageLimits {
	return services.UsageLimits{
		MaxWorkspacesPerUser:     t.MaxWorkspacesPerUser,
		MaxMaterialsPerWorkspace: t.MaxMaterialsPerWorkspace,
		MaxAIRequestsPerDay:      t.MaxAIRequestsPerDay,
	}
}

func (t Tunables) validate() error {
	if t.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", t.ChunkSize)
	}
	if t.ChunkOverlap < 0 || t.ChunkOverlap >= t.ChunkSize {
		return fmt.Errorf("chunk_overlap must be in [0, chunk_size), got %d", t.ChunkOverlap)
	}
	if t.TopK <= 0 || t.ExplanationTopK <= 0 {
		return fmt.Errorf("top_k values must be positive")
	}
	if t.MaxDepth < 0 {
		return fmt.Errorf("max_depth must be >= 0, got %d", t.MaxDepth)
	}
	return nil
}

type Config struct {
	ServiceName string
	Environment string
	Version     string

	Port         string
	FrontendURL  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	JWTSecretKey   string
	JWTIssuer      string
	AccessTokenTTL time.Duration

	// VectorProvider is pinecone, qdrant or none. none keeps retrieval on
	// the SQL scan.
	VectorProvider string
	MindMapLockTTL time.Duration

	Tunables Tunables
}

// LoadConfig reads the YAML overlay, if any, and then the environment.
func LoadConfig(log *logger.Logger) (Config, error) {
	t := DefaultTunables()
	if path := envutil.String("CONFIG_FILE", ""); path != "" {
		if err := loadTunablesFile(path, &t); err != nil {
			return Config{}, err
		}
		log.Info("Loaded tunables overlay", "path", path)
	}
	t = tunablesFromEnv(t)
	if err := t.validate(); err != nil {
		return Config{}, fmt.Errorf("invalid tunables: %w", err)
	}

	cfg := Config{
		ServiceName:    envutil.String("SERVICE_NAME", "luminar-api"),
		Environment:    envutil.String("APP_ENV", "development"),
		Version:        envutil.String("APP_VERSION", "dev"),
		Port:           envutil.String("PORT", "8080"),
		FrontendURL:    envutil.String("FRONTEND_URL", ""),
		ReadTimeout:    envutil.Duration("HTTP_READ_TIMEOUT", 30*time.Second),
		WriteTimeout:   envutil.Duration("HTTP_WRITE_TIMEOUT", 2*time.Minute),
		JWTSecretKey:   envutil.String("JWT_SECRET_KEY", ""),
		JWTIssuer:      envutil.String("JWT_ISSUER", ""),
		AccessTokenTTL: envutil.Duration("ACCESS_TOKEN_TTL", time.Hour),
		VectorProvider: strings.ToLower(envutil.String("VECTOR_PROVIDER", "none")),
		MindMapLockTTL: envutil.Duration("MINDMAP_LOCK_TTL", 2*time.Minute),
		Tunables:       t,
	}
	if cfg.JWTSecretKey == "" {
		if cfg.Environment == "production" {
			return Config{}, errors.New("JWT_SECRET_KEY is required in production")
		}
		log.Warn("JWT_SECRET_KEY not set; using development secret")
		cfg.JWTSecretKey = "luminar-dev-secret"
	}
	return cfg, nil
}

func loadTunablesFile(path string, t *Tunables) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, t); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func tunablesFromEnv(t Tunables) Tunables {
	t.ChunkSize = envutil.Int("CHUNK_SIZE", t.ChunkSize)
	t.ChunkOverlap = envutil.Int("CHUNK_OVERLAP", t.ChunkOverlap)
	t.TopK = envutil.Int("RETRIEVAL_TOP_K", t.TopK)
	t.ExplanationTopK = envutil.Int("EXPLANATION_TOP_K", t.ExplanationTopK)
	t.EmbeddingDim = envutil.Int("EMBEDDING_DIM", t.EmbeddingDim)
	t.EmbedWorkers = envutil.Int("EMBED_WORKERS", t.EmbedWorkers)
	t.EmbedRatePerSec = envutil.Float("EMBED_RATE_PER_SEC", t.EmbedRatePerSec)
	t.MaxInputChars = envutil.Int("MINDMAP_MAX_INPUT_CHARS", t.MaxInputChars)
	t.MaxDepth = envutil.Int("MINDMAP_MAX_DEPTH", t.MaxDepth)
	t.MaxUploadBytes = int64(envutil.Int("MAX_UPLOAD_BYTES", int(t.MaxUploadBytes)))
	t.MaxWorkspacesPerUser = envutil.Int("MAX_WORKSPACES_PER_USER", t.MaxWorkspacesPerUser)
	t.MaxMaterialsPerWorkspace = envutil.Int("MAX_MATERIALS_PER_WORKSPACE", t.MaxMaterialsPerWorkspace)
	t.MaxAIRequestsPerDay = envutil.Int("MAX_AI_REQUESTS_PER_DAY", t.MaxAIRequestsPerDay)
	return t
}
