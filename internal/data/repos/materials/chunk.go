package materials

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/luminar-backend/internal/data/repos/dberr"
	types "github.com/yungbote/luminar-backend/internal/domain"
	"github.com/yungbote/luminar-backend/internal/platform/logger"
)

type MaterialChunkRepo interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, chunks []*types.MaterialChunk) ([]*types.MaterialChunk, error)
	// ListByWorkspace returns every chunk of a workspace ordered by
	// (material created_at, material id, ordinal), the insertion order
	// retrieval relies on for stable tie-breaking.
	ListByWorkspace(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID) ([]*types.MaterialChunk, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.MaterialChunk, error)
	IDsByMaterial(ctx context.Context, tx *gorm.DB, materialID uuid.UUID) ([]uuid.UUID, error)
	IDsByWorkspace(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID) ([]uuid.UUID, error)
	DeleteByMaterial(ctx context.Context, tx *gorm.DB, materialID uuid.UUID) error
	DeleteByWorkspace(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID) error
}

type materialChunkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMaterialChunkRepo(db *gorm.DB, baseLog *logger.Logger) MaterialChunkRepo {
	repoLog := baseLog.With("repo", "MaterialChunkRepo")
	return &materialChunkRepo{db: db, log: repoLog}
}

func (r *materialChunkRepo) CreateBatch(ctx context.Context, tx *gorm.DB, chunks []*types.MaterialChunk) ([]*types.MaterialChunk, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(chunks) == 0 {
		return []*types.MaterialChunk{}, nil
	}
	// Keep batches small because Text and Embedding are large.
	const batchSize = 100
	if err := transaction.WithContext(ctx).CreateInBatches(chunks, batchSize).Error; err != nil {
		return nil, dberr.Classify(err)
	}
	return chunks, nil
}

func (r *materialChunkRepo) ListByWorkspace(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID) ([]*types.MaterialChunk, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.MaterialChunk
	if err := transaction.WithContext(ctx).
		Select("material_chunk.*").
		Joins("JOIN material ON material.id = material_chunk.material_id").
		Where("material.workspace_id = ?", workspaceID).
		Order("material.created_at ASC, material.id ASC, material_chunk.ordinal ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *materialChunkRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.MaterialChunk, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.MaterialChunk
	if len(ids) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *materialChunkRepo) IDsByMaterial(ctx context.Context, tx *gorm.DB, materialID uuid.UUID) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var ids []uuid.UUID
	err := transaction.WithContext(ctx).
		Model(&types.MaterialChunk{}).
		Where("material_id = ?", materialID).
		Order("ordinal ASC").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *materialChunkRepo) IDsByWorkspace(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var ids []uuid.UUID
	err := transaction.WithContext(ctx).
		Model(&types.MaterialChunk{}).
		Where("workspace_id = ?", workspaceID).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *materialChunkRepo) DeleteByMaterial(ctx context.Context, tx *gorm.DB, materialID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Where("material_id = ?", materialID).Delete(&types.MaterialChunk{}).Error
}

func (r *materialChunkRepo) DeleteByWorkspace(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Where("workspace_id = ?", workspaceID).Delete(&types.MaterialChunk{}).Error
}
