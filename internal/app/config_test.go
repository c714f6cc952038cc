package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/yungbote/luminar-backend/internal/platform/logger"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CONFIG_FILE", "CHUNK_SIZE", "CHUNK_OVERLAP", "RETRIEVAL_TOP_K", "EXPLANATION_TOP_K",
		"MINDMAP_MAX_DEPTH", "MAX_AI_REQUESTS_PER_DAY", "JWT_SECRET_KEY", "APP_ENV", "VECTOR_PROVIDER",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := LoadConfig(logger.Nop())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	tn := cfg.Tunables
	if tn.ChunkSize != 1000 || tn.ChunkOverlap != 200 || tn.TopK != 3 || tn.ExplanationTopK != 3 {
		t.Fatalf("retrieval defaults: %+v", tn)
	}
	if tn.MaxDepth != 4 || tn.MaxInputChars != 30000 {
		t.Fatalf("generation defaults: %+v", tn)
	}
	if l := tn.UsageLimits(); l.MaxWorkspacesPerUser != 3 || l.MaxMaterialsPerWorkspace != 1 || l.MaxAIRequestsPerDay != 10 {
		t.Fatalf("limit defaults: %+v", l)
	}
	if cfg.VectorProvider != "none" || cfg.Port != "8080" || cfg.JWTSecretKey == "" {
		t.Fatalf("config defaults: %+v", cfg)
	}
}

func TestLoadConfigYAMLOverlayEnvWins(t *testing.T) {
	clearConfigEnv(t)
	path := filepath.Join(t.TempDir(), "tunables.yaml")
	yml := "chunk_size: 500\nchunk_overlap: 50\nmax_ai_requests_per_day: 99\n"
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("CHUNK_OVERLAP", "100")

	cfg, err := LoadConfig(logger.Nop())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Tunables.ChunkSize != 500 || cfg.Tunables.ChunkOverlap != 100 || cfg.Tunables.MaxAIRequestsPerDay != 99 {
		t.Fatalf("overlay: %+v", cfg.Tunables)
	}
}

func TestLoadConfigRejects(t *testing.T) {
	cases := map[string]map[string]string{
		"overlap >= size":           {"CHUNK_SIZE": "100", "CHUNK_OVERLAP": "100"},
		"missing secret production": {"APP_ENV": "production"},
		"negative depth":            {"MINDMAP_MAX_DEPTH": "-1"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearConfigEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := LoadConfig(logger.Nop()); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
