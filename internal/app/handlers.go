package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/luminar-backend/internal/http"
	httpH "github.com/yungbote/luminar-backend/internal/http/handlers"
	httpMW "github.com/yungbote/luminar-backend/internal/http/middleware"
	"github.com/yungbote/luminar-backend/internal/platform/gcp"
	"github.com/yungbote/luminar-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health      *httpH.HealthHandler
	Workspace   *httpH.WorkspaceHandler
	Material    *httpH.MaterialHandler
	MindMap     *httpH.MindMapHandler
	Explanation *httpH.ExplanationHandler
}

func wireMiddleware(log *logger.Logger, s Services) Middleware {
	return Middleware{Auth: httpMW.NewAuthMiddleware(log, s.Auth)}
}

func wireHandlers(log *logger.Logger, cfg Config, s Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:      httpH.NewHealthHandler(),
		Workspace:   httpH.NewWorkspaceHandler(log, s.Workspace),
		Material:    httpH.NewMaterialHandler(log, s.Material, cfg.Tunables.MaxUploadBytes),
		MindMap:     httpH.NewMindMapHandler(log, s.MindMap),
		Explanation: httpH.NewExplanationHandler(log, s.Explanation),
	}
}

func wireRouter(log *logger.Logger, cfg Config, objects gcp.ObjectStorageConfig, h Handlers, mw Middleware) *gin.Engine {
	localDir := ""
	if objects.Mode == gcp.ObjectStorageModeLocal {
		localDir = objects.LocalDir
	}
	return http.NewRouter(http.RouterConfig{
		Log:                log,
		ServiceName:        cfg.ServiceName,
		FrontendURL:        cfg.FrontendURL,
		LocalObjectsDir:    localDir,
		AuthMiddleware:     mw.Auth,
		HealthHandler:      h.Health,
		WorkspaceHandler:   h.Workspace,
		MaterialHandler:    h.Material,
		MindMapHandler:     h.MindMap,
		ExplanationHandler: h.Explanation,
	})
}
