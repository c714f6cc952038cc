package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/yungbote/luminar-backend/internal/data/db"
	"github.com/yungbote/luminar-backend/internal/http"
	"github.com/yungbote/luminar-backend/internal/observability"
	"github.com/yungbote/luminar-backend/internal/platform/envutil"
	"github.com/yungbote/luminar-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Clients  Clients
	Services Services

	dbService    *db.Service
	otelShutdown func(context.Context) error
}

// LoadEnv reads .env when present. A missing file is not an error.
func LoadEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func NewLogger() (*logger.Logger, error) {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return log, nil
}

func New(ctx context.Context, log *logger.Logger) (*App, error) {
	log.Info("Loading configuration...")
	cfg, err := LoadConfig(log)
	if err != nil {
		return nil, err
	}

	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})

	dbService, err := db.New(log, db.ConfigFromEnv())
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	theDB := dbService.DB()
	if err := db.AutoMigrateAll(theDB); err != nil {
		_ = dbService.Close()
		return nil, err
	}

	clients, err := wireClients(log, cfg)
	if err != nil {
		_ = dbService.Close()
		return nil, err
	}
	reposet := wireRepos(theDB, log)
	svc := wireServices(theDB, log, cfg, reposet, clients)
	mw := wireMiddleware(log, svc)
	handlers := wireHandlers(log, cfg, svc)
	router := wireRouter(log, cfg, clients.ObjectCfg, handlers, mw)

	return &App{
		Log:          log,
		DB:           theDB,
		Router:       router,
		Cfg:          cfg,
		Repos:        reposet,
		Clients:      clients,
		Services:     svc,
		dbService:    dbService,
		otelShutdown: otelShutdown,
	}, nil
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	addr := ":" + a.Cfg.Port
	a.Log.Info("Server starting", "addr", addr)
	srv := http.NewServer(a.Router, http.ServerConfig{
		Addr:         addr,
		ReadTimeout:  a.Cfg.ReadTimeout,
		WriteTimeout: a.Cfg.WriteTimeout,
	})
	return srv.Run(ctx)
}

func (a *App) Close(ctx context.Context) {
	a.Clients.Close(ctx)
	if a.dbService != nil {
		if err := a.dbService.Close(); err != nil {
			a.Log.Warn("Database close failed", "error", err)
		}
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("OTel shutdown failed", "error", err)
		}
	}
}
