package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/luminar-backend/internal/data/repos"
	types "github.com/yungbote/luminar-backend/internal/domain"
	"github.com/yungbote/luminar-backend/internal/modules/rag"
	domainerrs "github.com/yungbote/luminar-backend/internal/pkg/errors"
	"github.com/yungbote/luminar-backend/internal/platform/gcp"
	"github.com/yungbote/luminar-backend/internal/platform/logger"
)

const DefaultMaxUploadBytes int64 = 10 << 20

// UploadFile is one multipart upload. Size is what the client declared;
// the reader is still capped at the service limit.
type UploadFile struct {
	Name     string
	MimeType string
	Size     int64
	Reader   io.Reader
}

type MaterialService interface {
	Upload(ctx context.Context, userID, workspaceID uuid.UUID, file UploadFile) (*types.Material, error)
	// List returns the workspace's materials, newest first.
	List(ctx context.Context, userID, workspaceID uuid.UUID) ([]*types.Material, error)
	Delete(ctx context.Context, userID, materialID uuid.UUID) (*types.Material, error)
}

type materialService struct {
	db             *gorm.DB
	log            *logger.Logger
	workspaces     repos.WorkspaceRepo
	materials      repos.MaterialRepo
	usage          UsageService
	extractor      TextExtractor
	objects        gcp.ObjectStore
	ingestor       *rag.Ingestor
	maxUploadBytes int64
}

func NewMaterialService(
	db *gorm.DB,
	log *logger.Logger,
	workspaces repos.WorkspaceRepo,
	materials repos.MaterialRepo,
	usage UsageService,
	extractor TextExtractor,
	objects gcp.ObjectStore,
	ingestor *rag.Ingestor,
	maxUploadBytes int64,
) MaterialService {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &materialService{
		db:             db,
		log:            log.With("service", "MaterialService"),
		workspaces:     workspaces,
		materials:      materials,
		usage:          usage,
		extractor:      extractor,
		objects:        objects,
		ingestor:       ingestor,
		maxUploadBytes: maxUploadBytes,
	}
}

func (ms *materialService) Upload(ctx context.Context, userID, workspaceID uuid.UUID, file UploadFile) (*types.Material, error) {
	if _, err := ms.workspaces.GetByIDForUser(ctx, nil, userID, workspaceID); err != nil {
		return nil, err
	}
	ok, err := ms.usage.CanUploadMaterial(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, limitErr("material limit reached for this workspace")
	}
	if file.Reader == nil {
		return nil, fmt.Errorf("%w: missing file", domainerrs.ErrInvalidArgument)
	}
	if file.Size > ms.maxUploadBytes {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", domainerrs.ErrInvalidArgument, ms.maxUploadBytes)
	}
	data, err := io.ReadAll(io.LimitReader(file.Reader, ms.maxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > ms.maxUploadBytes {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", domainerrs.ErrInvalidArgument, ms.maxUploadBytes)
	}

	text, err := ms.extractor.Extract(file.Name, file.MimeType, data)
	if err != nil {
		return nil, err
	}

	key := storageKey(workspaceID, file.Name)
	if err := ms.objects.Upload(ctx, key, normalizeMime(file.MimeType), bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("upload material: %w", err)
	}

	m, err := ms.materials.Create(ctx, nil, &types.Material{
		WorkspaceID:      workspaceID,
		OriginalFileName: filepath.Base(file.Name),
		MimeType:         normalizeMime(file.MimeType),
		SizeBytes:        int64(len(data)),
		StorageKey:       key,
		FileURL:          ms.objects.PublicURL(key),
		ExtractedText:    text,
	})
	if err != nil {
		deleteObject(ctx, ms.log, ms.objects, key)
		return nil, err
	}
	ms.log.Info("material uploaded", "material_id", m.ID, "workspace_id", workspaceID, "bytes", len(data), "text_chars", len(text))

	// The upload stands even when ingestion fails; the material is then
	// marked failed and can be re-uploaded.
	if _, err := ms.ingestor.Ingest(ctx, m); err != nil {
		ms.log.Warn("ingestion failed; keeping upload", "material_id", m.ID, "error", err)
	}
	return m, nil
}

func (ms *materialService) List(ctx context.Context, userID, workspaceID uuid.UUID) ([]*types.Material, error) {
	if _, err := ms.workspaces.GetByIDForUser(ctx, nil, userID, workspaceID); err != nil {
		return nil, err
	}
	mats, err := ms.materials.ListByWorkspace(ctx, nil, workspaceID)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(mats)-1; i < j; i, j = i+1, j-1 {
		mats[i], mats[j] = mats[j], mats[i]
	}
	return mats, nil
}

func (ms *materialService) Delete(ctx context.Context, userID, materialID uuid.UUID) (*types.Material, error) {
	m, err := ms.materials.GetByID(ctx, nil, materialID)
	if err != nil {
		return nil, err
	}
	if _, err := ms.workspaces.GetByIDForUser(ctx, nil, userID, m.WorkspaceID); err != nil {
		return nil, err
	}
	var chunkIDs []uuid.UUID
	err = ms.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids, err := ms.ingestor.Remove(ctx, tx, m)
		if err != nil {
			return err
		}
		chunkIDs = ids
		return ms.materials.Delete(ctx, tx, m.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("delete material: %w", err)
	}
	ms.ingestor.DropVectors(ctx, m.WorkspaceID, chunkIDs)
	deleteObject(ctx, ms.log, ms.objects, m.StorageKey)
	ms.log.Info("material deleted", "material_id", m.ID, "workspace_id", m.WorkspaceID, "chunks", len(chunkIDs))
	return m, nil
}

func storageKey(workspaceID uuid.UUID, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if len(ext) > 10 || strings.ContainsAny(ext, `/\`) {
		ext = ""
	}
	return fmt.Sprintf("workspaces/%s/%s%s", workspaceID, uuid.New(), ext)
}
