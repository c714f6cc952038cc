package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/luminar-backend/internal/data/repos"
	"github.com/yungbote/luminar-backend/internal/platform/logger"
)

type Repos struct {
	Workspace     repos.WorkspaceRepo
	Material      repos.MaterialRepo
	MaterialChunk repos.MaterialChunkRepo
	MindMapNode   repos.MindMapNodeRepo
	AIRequestLog  repos.AIRequestLogRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Workspace:     repos.NewWorkspaceRepo(db, log),
		Material:      repos.NewMaterialRepo(db, log),
		MaterialChunk: repos.NewMaterialChunkRepo(db, log),
		MindMapNode:   repos.NewMindMapNodeRepo(db, log),
		AIRequestLog:  repos.NewAIRequestLogRepo(db, log),
	}
}
