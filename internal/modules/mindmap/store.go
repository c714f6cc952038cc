package mindmap

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/luminar-backend/internal/data/repos"
	types "github.com/yungbote/luminar-backend/internal/domain"
	domainerrs "github.com/yungbote/luminar-backend/internal/pkg/errors"
	"github.com/yungbote/luminar-backend/internal/platform/logger"
)

// Store persists mind maps as flat node rows. A workspace only ever holds
// the rows of a single generation.
type Store struct {
	nodes repos.MindMapNodeRepo
	log   *logger.Logger
}

func NewStore(log *logger.Logger, nodes repos.MindMapNodeRepo) *Store {
	return &Store{nodes: nodes, log: log.With("service", "MindMapStore")}
}

// ReplaceAll swaps the workspace's tree for root in one transaction.
func (s *Store) ReplaceAll(ctx context.Context, workspaceID uuid.UUID, root *TreeNode) ([]*types.MindMapNode, error) {
	if workspaceID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing workspace id", domainerrs.ErrInvalidArgument)
	}
	if root == nil {
		return nil, fmt.Errorf("%w: nil tree", domainerrs.ErrMalformedResponse)
	}
	rows := Flatten(workspaceID, uuid.New(), root)
	if err := s.nodes.ReplaceWorkspaceNodes(ctx, nil, workspaceID, rows); err != nil {
		return nil, fmt.Errorf("replace mind map: %w", err)
	}
	s.log.Debug("mind map replaced", "workspace_id", workspaceID, "nodes", len(rows))
	return rows, nil
}

func (s *Store) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]*types.MindMapNode, error) {
	return s.nodes.ListByWorkspace(ctx, nil, workspaceID)
}

func (s *Store) DeleteWorkspaceNodes(ctx context.Context, workspaceID uuid.UUID) error {
	return s.nodes.DeleteByWorkspace(ctx, nil, workspaceID)
}

// Get returns ErrNotFound for unknown ids.
func (s *Store) Get(ctx context.Context, nodeID uuid.UUID) (*types.MindMapNode, error) {
	return s.nodes.GetByID(ctx, nil, nodeID)
}
