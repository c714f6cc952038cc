package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/luminar-backend/internal/data/repos"
	types "github.com/yungbote/luminar-backend/internal/domain"
	domainerrs "github.com/yungbote/luminar-backend/internal/pkg/errors"
	"github.com/yungbote/luminar-backend/internal/platform/logger"
)

// UsageLimits are the free-tier caps. Zero disables a limit.
type UsageLimits struct {
	MaxWorkspacesPerUser     int
	MaxMaterialsPerWorkspace int
	MaxAIRequestsPerDay      int
}

func DefaultUsageLimits() UsageLimits {
	return UsageLimits{
		MaxWorkspacesPerUser:     3,
		MaxMaterialsPerWorkspace: 1,
		MaxAIRequestsPerDay:      10,
	}
}

type UsageService interface {
	CanCreateWorkspace(ctx context.Context, userID uuid.UUID) (bool, error)
	CanUploadMaterial(ctx context.Context, workspaceID uuid.UUID) (bool, error)
	CanMakeAIRequest(ctx context.Context, userID uuid.UUID) (bool, error)
	// Record appends to the request log. It never fails the caller.
	Record(ctx context.Context, entry *types.AIRequestLog)
}

type usageService struct {
	log        *logger.Logger
	limits     UsageLimits
	workspaces repos.WorkspaceRepo
	materials  repos.MaterialRepo
	requests   repos.AIRequestLogRepo
	now        func() time.Time
}

func NewUsageService(
	log *logger.Logger,
	limits UsageLimits,
	workspaces repos.WorkspaceRepo,
	materials repos.MaterialRepo,
	requests repos.AIRequestLogRepo,
) UsageService {
	return &usageService{
		log:        log.With("service", "UsageService"),
		limits:     limits,
		workspaces: workspaces,
		materials:  materials,
		requests:   requests,
		now:        time.Now,
	}
}

func (us *usageService) CanCreateWorkspace(ctx context.Context, userID uuid.UUID) (bool, error) {
	if us.limits.MaxWorkspacesPerUser <= 0 {
		return true, nil
	}
	n, err := us.workspaces.CountByUser(ctx, nil, userID)
	if err != nil {
		return false, err
	}
	return n < int64(us.limits.MaxWorkspacesPerUser), nil
}

func (us *usageService) CanUploadMaterial(ctx context.Context, workspaceID uuid.UUID) (bool, error) {
	if us.limits.MaxMaterialsPerWorkspace <= 0 {
		return true, nil
	}
	n, err := us.materials.CountByWorkspace(ctx, nil, workspaceID)
	if err != nil {
		return false, err
	}
	return n < int64(us.limits.MaxMaterialsPerWorkspace), nil
}

func (us *usageService) CanMakeAIRequest(ctx context.Context, userID uuid.UUID) (bool, error) {
	if us.limits.MaxAIRequestsPerDay <= 0 {
		return true, nil
	}
	n, err := us.requests.CountSince(ctx, nil, userID, us.now().Add(-24*time.Hour))
	if err != nil {
		return false, err
	}
	return n < int64(us.limits.MaxAIRequestsPerDay), nil
}

func (us *usageService) Record(ctx context.Context, entry *types.AIRequestLog) {
	if entry == nil || entry.UserID == uuid.Nil {
		return
	}
	if err := us.requests.Create(ctx, nil, entry); err != nil {
		us.log.Warn("failed to log AI request", "user_id", entry.UserID, "request_type", entry.RequestType, "error", err)
	}
}

// ensureAIQuota maps an exhausted daily budget to ErrLimitExceeded.
func ensureAIQuota(ctx context.Context, usage UsageService, userID uuid.UUID) error {
	ok, err := usage.CanMakeAIRequest(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return limitErr("daily AI request limit reached")
	}
	return nil
}

func limitErr(msg string) error {
	return &limitError{msg: msg}
}

type limitError struct{ msg string }

func (e *limitError) Error() string { return e.msg }
func (e *limitError) Unwrap() error { return domainerrs.ErrLimitExceeded }
