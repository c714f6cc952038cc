package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/luminar-backend/internal/http/response"
	"github.com/yungbote/luminar-backend/internal/platform/logger"
	"github.com/yungbote/luminar-backend/internal/services"
)

type ExplanationHandler struct {
	log          *logger.Logger
	explanations services.ExplanationService
}

func NewExplanationHandler(log *logger.Logger, explanations services.ExplanationService) *ExplanationHandler {
	return &ExplanationHandler{log: log.With("handler", "ExplanationHandler"), explanations: explanations}
}

// GET /api/ai/explanation/:nodeId?style=funny|real-world|movie-analogy
func (h *ExplanationHandler) Explain(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	nodeID, ok := pathUUID(c, "nodeId", "invalid_node_id")
	if !ok {
		return
	}
	exp, err := h.explanations.Explain(c.Request.Context(), userID, nodeID, c.Query("style"))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, exp)
}
