package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/luminar-backend/internal/data/repos"
	"github.com/yungbote/luminar-backend/internal/modules/mindmap"
	"github.com/yungbote/luminar-backend/internal/platform/logger"
)

type ExplanationService interface {
	Explain(ctx context.Context, userID, nodeID uuid.UUID, style string) (*mindmap.Explanation, error)
}

type explanationService struct {
	log        *logger.Logger
	workspaces repos.WorkspaceRepo
	store      *mindmap.Store
	explainer  *mindmap.Explainer
	usage      UsageService
}

func NewExplanationService(
	log *logger.Logger,
	workspaces repos.WorkspaceRepo,
	store *mindmap.Store,
	explainer *mindmap.Explainer,
	usage UsageService,
) ExplanationService {
	return &explanationService{
		log:        log.With("service", "ExplanationService"),
		workspaces: workspaces,
		store:      store,
		explainer:  explainer,
		usage:      usage,
	}
}

// Explain checks the style, ownership and quota before any model call.
// Nodes in other users' workspaces are reported as missing.
func (es *explanationService) Explain(ctx context.Context, userID, nodeID uuid.UUID, style string) (*mindmap.Explanation, error) {
	st, err := mindmap.ParseStyle(style)
	if err != nil {
		return nil, err
	}
	node, err := es.store.Get(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	if _, err := es.workspaces.GetByIDForUser(ctx, nil, userID, node.WorkspaceID); err != nil {
		return nil, err
	}
	if err := ensureAIQuota(ctx, es.usage, userID); err != nil {
		return nil, err
	}
	return es.explainer.ExplainNode(ctx, node, st, userID)
}
