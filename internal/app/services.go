package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/luminar-backend/internal/data/graph"
	"github.com/yungbote/luminar-backend/internal/modules/mindmap"
	"github.com/yungbote/luminar-backend/internal/modules/rag"
	"github.com/yungbote/luminar-backend/internal/pkg/keylock"
	"github.com/yungbote/luminar-backend/internal/platform/logger"
	"github.com/yungbote/luminar-backend/internal/services"
)

type Services struct {
	Auth        services.AuthService
	Usage       services.UsageService
	Workspace   services.WorkspaceService
	Material    services.MaterialService
	MindMap     services.MindMapService
	Explanation services.ExplanationService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, c Clients) Services {
	log.Info("Wiring services...")
	t := cfg.Tunables

	usage := services.NewUsageService(log, t.UsageLimits(), r.Workspace, r.Material, r.AIRequestLog)

	// Retrieval
	embedder := rag.NewEmbedder(log, c.OpenAI, rag.EmbedderConfig{
		Dim:         t.EmbeddingDim,
		Concurrency: t.EmbedWorkers,
		RatePerSec:  t.EmbedRatePerSec,
	})
	ingestor := rag.NewIngestor(log, db, r.MaterialChunk, r.Material, embedder, c.Vectors, rag.IngestConfig{
		ChunkSize:    t.ChunkSize,
		ChunkOverlap: t.ChunkOverlap,
	})
	retriever := rag.NewRetriever(log, r.MaterialChunk, c.Vectors, t.TopK)

	// Mind map
	var lock mindmap.Locker = keylock.New()
	if c.RedisLock != nil {
		lock = c.RedisLock
	}
	projector := graph.NewMindMapProjector(c.Neo4j, log)
	store := mindmap.NewStore(log, r.MindMapNode)
	generator := mindmap.NewGenerator(log, mindmap.GeneratorDeps{
		Materials: r.Material,
		Store:     store,
		Model:     c.OpenAI,
		Lock:      lock,
		Projector: projector,
		Usage:     usage,
	}, mindmap.GeneratorConfig{MaxInputChars: t.MaxInputChars, MaxDepth: t.MaxDepth})
	explainer := mindmap.NewExplainer(log, mindmap.ExplainerDeps{
		Nodes:     store,
		Embedder:  embedder,
		Retriever: retriever,
		Model:     c.OpenAI,
		Usage:     usage,
	}, t.ExplanationTopK)

	return Services{
		Auth:  services.NewAuthService(log, cfg.JWTSecretKey, cfg.JWTIssuer),
		Usage: usage,
		Workspace: services.NewWorkspaceService(db, log, r.Workspace, r.Material, r.MaterialChunk, r.MindMapNode,
			usage, ingestor, c.Objects, projector),
		Material: services.NewMaterialService(db, log, r.Workspace, r.Material, usage,
			services.NewTextExtractor(), c.Objects, ingestor, t.MaxUploadBytes),
		MindMap:     services.NewMindMapService(log, r.Workspace, store, generator, usage),
		Explanation: services.NewExplanationService(log, r.Workspace, store, explainer, usage),
	}
}
