package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/luminar-backend/internal/http/response"
	"github.com/yungbote/luminar-backend/internal/platform/logger"
	"github.com/yungbote/luminar-backend/internal/services"
)

// multipart overhead allowed on top of the file limit before gin spills
// to disk.
const multipartSlack = 1 << 20

type MaterialHandler struct {
	log            *logger.Logger
	materials      services.MaterialService
	maxUploadBytes int64
}

func NewMaterialHandler(log *logger.Logger, materials services.MaterialService, maxUploadBytes int64) *MaterialHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = services.DefaultMaxUploadBytes
	}
	return &MaterialHandler{
		log:            log.With("handler", "MaterialHandler"),
		materials:      materials,
		maxUploadBytes: maxUploadBytes,
	}
}

// POST /api/materials/upload/:workspaceId
func (h *MaterialHandler) Upload(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	wsID, ok := pathUUID(c, "workspaceId", "invalid_workspace_id")
	if !ok {
		return
	}
	limit := h.maxUploadBytes + multipartSlack
	if c.Request.ContentLength > limit {
		response.RespondError(c, http.StatusRequestEntityTooLarge, "file_too_large", errors.New("upload exceeds size limit"))
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	fh, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			response.RespondError(c, http.StatusRequestEntityTooLarge, "file_too_large", err)
			return
		}
		response.RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_file", err)
		return
	}
	defer f.Close()

	m, err := h.materials.Upload(c.Request.Context(), userID, wsID, services.UploadFile{
		Name:     fh.Filename,
		MimeType: fh.Header.Get("Content-Type"),
		Size:     fh.Size,
		Reader:   f,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"material": m})
}

// GET /api/materials/:workspaceId
func (h *MaterialHandler) List(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	wsID, ok := pathUUID(c, "workspaceId", "invalid_workspace_id")
	if !ok {
		return
	}
	list, err := h.materials.List(c.Request.Context(), userID, wsID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"materials": list})
}

// DELETE /api/materials/:id
func (h *MaterialHandler) Delete(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id", "invalid_material_id")
	if !ok {
		return
	}
	m, err := h.materials.Delete(c.Request.Context(), userID, id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"material": m})
}
