package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/luminar-backend/internal/http/handlers"
	httpMW "github.com/yungbote/luminar-backend/internal/http/middleware"
	"github.com/yungbote/luminar-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	FrontendURL string
	// LocalObjectsDir is served under /objects when object storage runs in
	// local mode. Empty disables the route.
	LocalObjectsDir string

	AuthMiddleware *httpMW.AuthMiddleware

	WorkspaceHandler   *httpH.WorkspaceHandler
	MaterialHandler    *httpH.MaterialHandler
	MindMapHandler     *httpH.MindMapHandler
	ExplanationHandler *httpH.ExplanationHandler
	HealthHandler      *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.FrontendURL))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.LocalObjectsDir != "" {
		r.Static("/objects", cfg.LocalObjectsDir)
	}

	protected := r.Group("/api")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}
	{
		// Workspaces
		if cfg.WorkspaceHandler != nil {
			protected.GET("/workspaces", cfg.WorkspaceHandler.List)
			protected.POST("/workspaces", cfg.WorkspaceHandler.Create)
			protected.GET("/workspaces/:id", cfg.WorkspaceHandler.Get)
			protected.DELETE("/workspaces/:id", cfg.WorkspaceHandler.Delete)
		}

		// Materials
		if cfg.MaterialHandler != nil {
			protected.POST("/materials/upload/:workspaceId", cfg.MaterialHandler.Upload)
			protected.GET("/materials/:workspaceId", cfg.MaterialHandler.List)
			protected.DELETE("/materials/:id", cfg.MaterialHandler.Delete)
		}

		// Mind map
		if cfg.MindMapHandler != nil {
			protected.POST("/ai/mindmap/:workspaceId", cfg.MindMapHandler.Generate)
			protected.GET("/ai/mindmap/:workspaceId", cfg.MindMapHandler.List)
			protected.GET("/ai/mindmap/:workspaceId/view", cfg.MindMapHandler.View)
			protected.GET("/ai/mindmap/:workspaceId/image.png", cfg.MindMapHandler.Image)
		}

		// Explanations
		if cfg.ExplanationHandler != nil {
			protected.GET("/ai/explanation/:nodeId", cfg.ExplanationHandler.Explain)
		}
	}

	return r
}
