package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/luminar-backend/internal/http/response"
	"github.com/yungbote/luminar-backend/internal/modules/mindmap/canvas"
	"github.com/yungbote/luminar-backend/internal/platform/logger"
	"github.com/yungbote/luminar-backend/internal/services"
)

type MindMapHandler struct {
	log      *logger.Logger
	mindmaps services.MindMapService
}

func NewMindMapHandler(log *logger.Logger, mindmaps services.MindMapService) *MindMapHandler {
	return &MindMapHandler{log: log.With("handler", "MindMapHandler"), mindmaps: mindmaps}
}

// POST /api/ai/mindmap/:workspaceId
func (h *MindMapHandler) Generate(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	wsID, ok := pathUUID(c, "workspaceId", "invalid_workspace_id")
	if !ok {
		return
	}
	res, err := h.mindmaps.Generate(c.Request.Context(), userID, wsID)
	if err != nil {
		h.log.Warn("mind map generation failed", "workspace_id", wsID.String(), "error", err)
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, res)
}

// GET /api/ai/mindmap/:workspaceId
func (h *MindMapHandler) List(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	wsID, ok := pathUUID(c, "workspaceId", "invalid_workspace_id")
	if !ok {
		return
	}
	nodes, err := h.mindmaps.List(c.Request.Context(), userID, wsID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"nodes": nodes})
}

// GET /api/ai/mindmap/:workspaceId/view
func (h *MindMapHandler) View(c *gin.Context) {
	userID, wsID, req, ok := h.viewArgs(c)
	if !ok {
		return
	}
	g, err := h.mindmaps.View(c.Request.Context(), userID, wsID, req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, g)
}

// GET /api/ai/mindmap/:workspaceId/image.png
func (h *MindMapHandler) Image(c *gin.Context) {
	userID, wsID, req, ok := h.viewArgs(c)
	if !ok {
		return
	}
	width := canvas.DefaultImageWidth
	if raw := strings.TrimSpace(c.Query("width")); raw != "" {
		w, err := strconv.Atoi(raw)
		if err != nil || w <= 0 {
			response.RespondError(c, http.StatusBadRequest, "invalid_width", err)
			return
		}
		width = w
	}
	png, err := h.mindmaps.RenderPNG(c.Request.Context(), userID, wsID, req, width)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

func (h *MindMapHandler) viewArgs(c *gin.Context) (uuid.UUID, uuid.UUID, services.ViewRequest, bool) {
	var req services.ViewRequest
	userID, ok := requestUser(c)
	if !ok {
		return uuid.Nil, uuid.Nil, req, false
	}
	wsID, ok := pathUUID(c, "workspaceId", "invalid_workspace_id")
	if !ok {
		return uuid.Nil, uuid.Nil, req, false
	}
	var err error
	if req.Expanded, err = queryUUIDs(c, "expanded"); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_expanded", err)
		return uuid.Nil, uuid.Nil, req, false
	}
	if req.Collapsed, err = queryUUIDs(c, "collapsed"); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_collapsed", err)
		return uuid.Nil, uuid.Nil, req, false
	}
	if raw := strings.TrimSpace(c.Query("selected")); raw != "" {
		sel, err := uuid.Parse(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_selected", err)
			return uuid.Nil, uuid.Nil, req, false
		}
		req.Selected = &sel
	}
	return userID, wsID, req, true
}
