package mindmap

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/luminar-backend/internal/data/repos/dberr"
	types "github.com/yungbote/luminar-backend/internal/domain"
	"github.com/yungbote/luminar-backend/internal/platform/logger"
)

type MindMapNodeRepo interface {
	// ReplaceWorkspaceNodes deletes every node of the workspace and inserts
	// nodes in one transaction. Parents must precede their children.
	ReplaceWorkspaceNodes(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID, nodes []*types.MindMapNode) error
	ListByWorkspace(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID) ([]*types.MindMapNode, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.MindMapNode, error)
	DeleteByWorkspace(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID) error
}

type mindMapNodeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMindMapNodeRepo(db *gorm.DB, baseLog *logger.Logger) MindMapNodeRepo {
	repoLog := baseLog.With("repo", "MindMapNodeRepo")
	return &mindMapNodeRepo{db: db, log: repoLog}
}

func (r *mindMapNodeRepo) ReplaceWorkspaceNodes(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID, nodes []*types.MindMapNode) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		if err := txx.Where("workspace_id = ?", workspaceID).Delete(&types.MindMapNode{}).Error; err != nil {
			return err
		}
		if len(nodes) == 0 {
			return nil
		}
		if err := txx.CreateInBatches(nodes, 200).Error; err != nil {
			return dberr.Classify(err)
		}
		return nil
	})
}

func (r *mindMapNodeRepo) ListByWorkspace(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID) ([]*types.MindMapNode, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.MindMapNode
	if err := transaction.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("depth ASC, sort_index ASC, id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *mindMapNodeRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.MindMapNode, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var n types.MindMapNode
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&n).Error; err != nil {
		return nil, dberr.Classify(err)
	}
	return &n, nil
}

func (r *mindMapNodeRepo) DeleteByWorkspace(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Where("workspace_id = ?", workspaceID).Delete(&types.MindMapNode{}).Error
}
