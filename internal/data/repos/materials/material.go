package materials

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/luminar-backend/internal/data/repos/dberr"
	types "github.com/yungbote/luminar-backend/internal/domain"
	"github.com/yungbote/luminar-backend/internal/platform/logger"
)

type MaterialRepo interface {
	Create(ctx context.Context, tx *gorm.DB, m *types.Material) (*types.Material, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Material, error)
	// ListByWorkspace returns materials oldest first, the order used to
	// assemble mind-map input.
	ListByWorkspace(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID) ([]*types.Material, error)
	CountByWorkspace(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID) (int64, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	DeleteByWorkspace(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID) error
}

type materialRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMaterialRepo(db *gorm.DB, baseLog *logger.Logger) MaterialRepo {
	repoLog := baseLog.With("repo", "MaterialRepo")
	return &materialRepo{db: db, log: repoLog}
}

func (r *materialRepo) Create(ctx context.Context, tx *gorm.DB, m *types.Material) (*types.Material, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(m).Error; err != nil {
		return nil, dberr.Classify(err)
	}
	return m, nil
}

func (r *materialRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Material, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var m types.Material
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, dberr.Classify(err)
	}
	return &m, nil
}

func (r *materialRepo) ListByWorkspace(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID) ([]*types.Material, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Material
	if err := transaction.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("created_at ASC, id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *materialRepo) CountByWorkspace(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	err := transaction.WithContext(ctx).Model(&types.Material{}).Where("workspace_id = ?", workspaceID).Count(&n).Error
	return n, err
}

func (r *materialRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Material{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *materialRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Where("id = ?", id).Delete(&types.Material{}).Error
}

func (r *materialRepo) DeleteByWorkspace(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Where("workspace_id = ?", workspaceID).Delete(&types.Material{}).Error
}
