package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/luminar-backend/internal/data/repos/materials"
	"github.com/yungbote/luminar-backend/internal/data/repos/mindmap"
	"github.com/yungbote/luminar-backend/internal/data/repos/usage"
	"github.com/yungbote/luminar-backend/internal/data/repos/workspaces"
	"github.com/yungbote/luminar-backend/internal/platform/logger"
)

type WorkspaceRepo = workspaces.WorkspaceRepo
type MaterialRepo = materials.MaterialRepo
type MaterialChunkRepo = materials.MaterialChunkRepo
type MindMapNodeRepo = mindmap.MindMapNodeRepo
type AIRequestLogRepo = usage.AIRequestLogRepo

func NewWorkspaceRepo(db *gorm.DB, baseLog *logger.Logger) WorkspaceRepo {
	return workspaces.NewWorkspaceRepo(db, baseLog)
}
func NewMaterialRepo(db *gorm.DB, baseLog *logger.Logger) MaterialRepo {
	return materials.NewMaterialRepo(db, baseLog)
}
func NewMaterialChunkRepo(db *gorm.DB, baseLog *logger.Logger) MaterialChunkRepo {
	return materials.NewMaterialChunkRepo(db, baseLog)
}
func NewMindMapNodeRepo(db *gorm.DB, baseLog *logger.Logger) MindMapNodeRepo {
	return mindmap.NewMindMapNodeRepo(db, baseLog)
}
func NewAIRequestLogRepo(db *gorm.DB, baseLog *logger.Logger) AIRequestLogRepo {
	return usage.NewAIRequestLogRepo(db, baseLog)
}
