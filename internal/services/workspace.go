package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/luminar-backend/internal/data/repos"
	types "github.com/yungbote/luminar-backend/internal/domain"
	"github.com/yungbote/luminar-backend/internal/modules/rag"
	domainerrs "github.com/yungbote/luminar-backend/internal/pkg/errors"
	"github.com/yungbote/luminar-backend/internal/platform/gcp"
	"github.com/yungbote/luminar-backend/internal/platform/logger"
)

const (
	maxWorkspaceTitle       = 100
	maxWorkspaceDescription = 500
)

type WorkspaceService interface {
	Create(ctx context.Context, userID uuid.UUID, title, description string) (*types.Workspace, error)
	List(ctx context.Context, userID uuid.UUID) ([]*types.Workspace, error)
	Get(ctx context.Context, userID, workspaceID uuid.UUID) (*types.Workspace, error)
	// Delete removes the workspace with its materials, chunks and mind map.
	Delete(ctx context.Context, userID, workspaceID uuid.UUID) error
}

// GraphCleaner drops a workspace's projected mind map.
type GraphCleaner interface {
	Delete(ctx context.Context, workspaceID uuid.UUID) error
}

type workspaceService struct {
	db         *gorm.DB
	log        *logger.Logger
	workspaces repos.WorkspaceRepo
	materials  repos.MaterialRepo
	chunks     repos.MaterialChunkRepo
	nodes      repos.MindMapNodeRepo
	usage      UsageService
	ingestor   *rag.Ingestor
	objects    gcp.ObjectStore
	graph      GraphCleaner
}

func NewWorkspaceService(
	db *gorm.DB,
	log *logger.Logger,
	workspaces repos.WorkspaceRepo,
	materials repos.MaterialRepo,
	chunks repos.MaterialChunkRepo,
	nodes repos.MindMapNodeRepo,
	usage UsageService,
	ingestor *rag.Ingestor,
	objects gcp.ObjectStore,
	graph GraphCleaner,
) WorkspaceService {
	return &workspaceService{
		db:         db,
		log:        log.With("service", "WorkspaceService"),
		workspaces: workspaces,
		materials:  materials,
		chunks:     chunks,
		nodes:      nodes,
		usage:      usage,
		ingestor:   ingestor,
		objects:    objects,
		graph:      graph,
	}
}

func (ws *workspaceService) Create(ctx context.Context, userID uuid.UUID, title, description string) (*types.Workspace, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if n := utf8.RuneCountInString(title); n == 0 || n > maxWorkspaceTitle {
		return nil, fmt.Errorf("%w: title must be 1-%d characters", domainerrs.ErrInvalidArgument, maxWorkspaceTitle)
	}
	if utf8.RuneCountInString(description) > maxWorkspaceDescription {
		return nil, fmt.Errorf("%w: description must be at most %d characters", domainerrs.ErrInvalidArgument, maxWorkspaceDescription)
	}
	ok, err := ws.usage.CanCreateWorkspace(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, limitErr("workspace limit reached")
	}
	created, err := ws.workspaces.Create(ctx, nil, &types.Workspace{
		UserID:      userID,
		Title:       title,
		Description: description,
	})
	if err != nil {
		return nil, err
	}
	ws.log.Info("workspace created", "workspace_id", created.ID, "user_id", userID)
	return created, nil
}

func (ws *workspaceService) List(ctx context.Context, userID uuid.UUID) ([]*types.Workspace, error) {
	return ws.workspaces.ListByUser(ctx, nil, userID)
}

// Get hides other users' workspaces behind ErrNotFound.
func (ws *workspaceService) Get(ctx context.Context, userID, workspaceID uuid.UUID) (*types.Workspace, error) {
	return ws.workspaces.GetByIDForUser(ctx, nil, userID, workspaceID)
}

func (ws *workspaceService) Delete(ctx context.Context, userID, workspaceID uuid.UUID) error {
	w, err := ws.Get(ctx, userID, workspaceID)
	if err != nil {
		return err
	}
	mats, err := ws.materials.ListByWorkspace(ctx, nil, w.ID)
	if err != nil {
		return err
	}
	var chunkIDs []uuid.UUID
	err = ws.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids, err := ws.chunks.IDsByWorkspace(ctx, tx, w.ID)
		if err != nil {
			return err
		}
		chunkIDs = ids
		if err := ws.nodes.DeleteByWorkspace(ctx, tx, w.ID); err != nil {
			return err
		}
		if err := ws.chunks.DeleteByWorkspace(ctx, tx, w.ID); err != nil {
			return err
		}
		if err := ws.materials.DeleteByWorkspace(ctx, tx, w.ID); err != nil {
			return err
		}
		return ws.workspaces.Delete(ctx, tx, w.ID)
	})
	if err != nil {
		return fmt.Errorf("delete workspace: %w", err)
	}

	if ws.ingestor != nil {
		ws.ingestor.DropVectors(ctx, w.ID, chunkIDs)
	}
	for _, m := range mats {
		deleteObject(ctx, ws.log, ws.objects, m.StorageKey)
	}
	if ws.graph != nil {
		if err := ws.graph.Delete(ctx, w.ID); err != nil {
			ws.log.Warn("mind map projection cleanup failed (continuing)", "workspace_id", w.ID, "error", err)
		}
	}
	ws.log.Info("workspace deleted", "workspace_id", w.ID, "materials", len(mats), "chunks", len(chunkIDs))
	return nil
}

func deleteObject(ctx context.Context, log *logger.Logger, objects gcp.ObjectStore, key string) {
	if objects == nil || strings.TrimSpace(key) == "" {
		return
	}
	if err := objects.Delete(ctx, key); err != nil {
		log.Warn("object delete failed (continuing)", "key", key, "error", err)
	}
}
