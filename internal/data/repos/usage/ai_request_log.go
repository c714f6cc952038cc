package usage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/luminar-backend/internal/domain"
	"github.com/yungbote/luminar-backend/internal/platform/logger"
)

type AIRequestLogRepo interface {
	Create(ctx context.Context, tx *gorm.DB, entry *types.AIRequestLog) error
	CountSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time) (int64, error)
}

type aiRequestLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAIRequestLogRepo(db *gorm.DB, baseLog *logger.Logger) AIRequestLogRepo {
	repoLog := baseLog.With("repo", "AIRequestLogRepo")
	return &aiRequestLogRepo{db: db, log: repoLog}
}

func (r *aiRequestLogRepo) Create(ctx context.Context, tx *gorm.DB, entry *types.AIRequestLog) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(entry).Error
}

func (r *aiRequestLogRepo) CountSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	err := transaction.WithContext(ctx).
		Model(&types.AIRequestLog{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Count(&n).Error
	return n, err
}
