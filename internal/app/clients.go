package app

import (
	"context"
	"fmt"

	"github.com/yungbote/luminar-backend/internal/platform/envutil"
	"github.com/yungbote/luminar-backend/internal/platform/gcp"
	"github.com/yungbote/luminar-backend/internal/platform/logger"
	"github.com/yungbote/luminar-backend/internal/platform/neo4jdb"
	"github.com/yungbote/luminar-backend/internal/platform/openai"
	"github.com/yungbote/luminar-backend/internal/platform/pinecone"
	"github.com/yungbote/luminar-backend/internal/platform/redislock"
)

type Clients struct {
	OpenAI    openai.Client
	Vectors   pinecone.VectorStore // nil: SQL scan only
	Objects   gcp.ObjectStore
	ObjectCfg gcp.ObjectStorageConfig
	Neo4j     *neo4jdb.Client   // nil: no graph projection
	RedisLock *redislock.Locker // nil: in-process locks
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var c Clients

	// OpenAI
	aiCfg := openai.ConfigFromEnv()
	if !envutil.Set("OPENAI_EMBED_DIMENSIONS") {
		aiCfg.EmbedDim = cfg.Tunables.EmbeddingDim
	}
	ai, err := openai.New(log, aiCfg)
	if err != nil {
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	}
	c.OpenAI = ai

	// Vector store
	if c.Vectors, err = resolveVectorStore(log, cfg); err != nil {
		return Clients{}, err
	}

	// Object storage
	if c.Objects, c.ObjectCfg, err = resolveObjectStore(log); err != nil {
		return Clients{}, err
	}

	// Neo4j
	if c.Neo4j, err = neo4jdb.NewFromEnv(log); err != nil {
		c.Close(context.Background())
		return Clients{}, fmt.Errorf("init neo4j: %w", err)
	}

	// Redis
	if c.RedisLock, err = redislock.NewFromEnv(log, cfg.MindMapLockTTL); err != nil {
		c.Close(context.Background())
		return Clients{}, fmt.Errorf("init redis lock: %w", err)
	}
	return c, nil
}

func (c Clients) Close(ctx context.Context) {
	if c.Objects != nil {
		_ = c.Objects.Close()
	}
	if c.Neo4j != nil {
		_ = c.Neo4j.Close(ctx)
	}
	if c.RedisLock != nil {
		_ = c.RedisLock.Close()
	}
}
