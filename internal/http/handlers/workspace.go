package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/luminar-backend/internal/http/response"
	"github.com/yungbote/luminar-backend/internal/platform/logger"
	"github.com/yungbote/luminar-backend/internal/services"
)

type WorkspaceHandler struct {
	log        *logger.Logger
	workspaces services.WorkspaceService
}

func NewWorkspaceHandler(log *logger.Logger, workspaces services.WorkspaceService) *WorkspaceHandler {
	return &WorkspaceHandler{log: log.With("handler", "WorkspaceHandler"), workspaces: workspaces}
}

type createWorkspaceRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// GET /api/workspaces
func (h *WorkspaceHandler) List(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	list, err := h.workspaces.List(c.Request.Context(), userID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"workspaces": list})
}

// POST /api/workspaces
func (h *WorkspaceHandler) Create(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	var req createWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	ws, err := h.workspaces.Create(c.Request.Context(), userID, req.Title, req.Description)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"workspace": ws})
}

// GET /api/workspaces/:id
func (h *WorkspaceHandler) Get(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	wsID, ok := pathUUID(c, "id", "invalid_workspace_id")
	if !ok {
		return
	}
	ws, err := h.workspaces.Get(c.Request.Context(), userID, wsID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"workspace": ws})
}

// DELETE /api/workspaces/:id
func (h *WorkspaceHandler) Delete(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	wsID, ok := pathUUID(c, "id", "invalid_workspace_id")
	if !ok {
		return
	}
	if err := h.workspaces.Delete(c.Request.Context(), userID, wsID); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "workspace deleted"})
}
