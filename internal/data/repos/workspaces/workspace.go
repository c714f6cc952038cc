package workspaces

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/luminar-backend/internal/data/repos/dberr"
	types "github.com/yungbote/luminar-backend/internal/domain"
	"github.com/yungbote/luminar-backend/internal/platform/logger"
)

type WorkspaceRepo interface {
	Create(ctx context.Context, tx *gorm.DB, ws *types.Workspace) (*types.Workspace, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Workspace, error)
	GetByIDForUser(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) (*types.Workspace, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Workspace, error)
	CountByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type workspaceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWorkspaceRepo(db *gorm.DB, baseLog *logger.Logger) WorkspaceRepo {
	repoLog := baseLog.With("repo", "WorkspaceRepo")
	return &workspaceRepo{db: db, log: repoLog}
}

func (r *workspaceRepo) Create(ctx context.Context, tx *gorm.DB, ws *types.Workspace) (*types.Workspace, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(ws).Error; err != nil {
		return nil, dberr.Classify(err)
	}
	return ws, nil
}

func (r *workspaceRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Workspace, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var ws types.Workspace
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&ws).Error; err != nil {
		return nil, dberr.Classify(err)
	}
	return &ws, nil
}

// GetByIDForUser returns ErrNotFound both for missing workspaces and for
// workspaces owned by someone else.
func (r *workspaceRepo) GetByIDForUser(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) (*types.Workspace, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var ws types.Workspace
	if err := transaction.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&ws).Error; err != nil {
		return nil, dberr.Classify(err)
	}
	return &ws, nil
}

func (r *workspaceRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Workspace, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Workspace
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *workspaceRepo) CountByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	err := transaction.WithContext(ctx).Model(&types.Workspace{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

func (r *workspaceRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Where("id = ?", id).Delete(&types.Workspace{}).Error
}
