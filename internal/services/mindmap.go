package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/luminar-backend/internal/data/repos"
	types "github.com/yungbote/luminar-backend/internal/domain"
	"github.com/yungbote/luminar-backend/internal/modules/mindmap"
	"github.com/yungbote/luminar-backend/internal/modules/mindmap/canvas"
	domainerrs "github.com/yungbote/luminar-backend/internal/pkg/errors"
	"github.com/yungbote/luminar-backend/internal/platform/logger"
)

// ViewRequest is the client's session state, carried on the query string.
// Roots start expanded; Collapsed overrides that.
type ViewRequest struct {
	Expanded  []uuid.UUID
	Collapsed []uuid.UUID
	Selected  *uuid.UUID
}

type MindMapService interface {
	Generate(ctx context.Context, userID, workspaceID uuid.UUID) (*mindmap.Result, error)
	List(ctx context.Context, userID, workspaceID uuid.UUID) ([]*types.MindMapNode, error)
	Tree(ctx context.Context, userID, workspaceID uuid.UUID) ([]*mindmap.TreeNode, error)
	View(ctx context.Context, userID, workspaceID uuid.UUID, req ViewRequest) (canvas.Graph, error)
	RenderPNG(ctx context.Context, userID, workspaceID uuid.UUID, req ViewRequest, width int) ([]byte, error)
}

type mindMapService struct {
	log        *logger.Logger
	workspaces repos.WorkspaceRepo
	store      *mindmap.Store
	generator  *mindmap.Generator
	usage      UsageService
}

func NewMindMapService(
	log *logger.Logger,
	workspaces repos.WorkspaceRepo,
	store *mindmap.Store,
	generator *mindmap.Generator,
	usage UsageService,
) MindMapService {
	return &mindMapService{
		log:        log.With("service", "MindMapService"),
		workspaces: workspaces,
		store:      store,
		generator:  generator,
		usage:      usage,
	}
}

func (ms *mindMapService) Generate(ctx context.Context, userID, workspaceID uuid.UUID) (*mindmap.Result, error) {
	if _, err := ms.workspaces.GetByIDForUser(ctx, nil, userID, workspaceID); err != nil {
		return nil, err
	}
	if err := ensureAIQuota(ctx, ms.usage, userID); err != nil {
		return nil, err
	}
	return ms.generator.Generate(ctx, workspaceID, userID)
}

func (ms *mindMapService) List(ctx context.Context, userID, workspaceID uuid.UUID) ([]*types.MindMapNode, error) {
	if _, err := ms.workspaces.GetByIDForUser(ctx, nil, userID, workspaceID); err != nil {
		return nil, err
	}
	nodes, err := ms.store.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if nodes == nil {
		nodes = []*types.MindMapNode{}
	}
	return nodes, nil
}

func (ms *mindMapService) Tree(ctx context.Context, userID, workspaceID uuid.UUID) ([]*mindmap.TreeNode, error) {
	nodes, err := ms.List(ctx, userID, workspaceID)
	if err != nil {
		return nil, err
	}
	return mindmap.BuildTree(nodes), nil
}

func (ms *mindMapService) View(ctx context.Context, userID, workspaceID uuid.UUID, req ViewRequest) (canvas.Graph, error) {
	nodes, err := ms.List(ctx, userID, workspaceID)
	if err != nil {
		return canvas.Graph{}, err
	}
	idx := canvas.NewIndex(nodes)
	return canvas.Materialize(idx, viewState(idx, req)), nil
}

func (ms *mindMapService) RenderPNG(ctx context.Context, userID, workspaceID uuid.UUID, req ViewRequest, width int) ([]byte, error) {
	g, err := ms.View(ctx, userID, workspaceID, req)
	if err != nil {
		return nil, err
	}
	// View answers an empty graph for a workspace without a tree; an image of
	// nothing is a missing resource.
	if len(g.Nodes) == 0 {
		return nil, fmt.Errorf("%w: workspace %s has no mind map", domainerrs.ErrNotFound, workspaceID)
	}
	return canvas.RenderPNG(g, width)
}

func viewState(idx *canvas.Index, req ViewRequest) *canvas.ViewState {
	state := canvas.NewViewState()
	state.EnsureRootsExpanded(idx)
	for _, id := range req.Expanded {
		if !state.IsExpanded(id) {
			state.Toggle(id)
		}
	}
	for _, id := range req.Collapsed {
		if state.IsExpanded(id) {
			state.Toggle(id)
		}
	}
	if req.Selected != nil {
		if _, ok := idx.Node(*req.Selected); ok {
			state.Select(*req.Selected)
		}
	}
	return state
}
