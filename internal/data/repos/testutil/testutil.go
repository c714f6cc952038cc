package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/luminar-backend/internal/data/db"
	types "github.com/yungbote/luminar-backend/internal/domain"
	"github.com/yungbote/luminar-backend/internal/platform/logger"
)

var (
	logOnce sync.Once
	logg    *logger.Logger
	logErr  error

	dbSeq atomic.Int64
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

// DB returns a freshly migrated database. It is an isolated in-memory SQLite
// database unless TEST_POSTGRES_DSN points at Postgres, in which case tests
// should wrap their work in Tx.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	cfg := &gorm.Config{Logger: gormLogger.Default.LogMode(gormLogger.Silent)}

	var (
		gdb *gorm.DB
		err error
	)
	if dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN")); dsn != "" {
		cfg.DisableForeignKeyConstraintWhenMigrating = true
		gdb, err = gorm.Open(postgres.Open(dsn), cfg)
	} else {
		name := fmt.Sprintf("file:testdb%d_%s?mode=memory&cache=shared&_fk=1", dbSeq.Add(1), uuid.NewString()[:8])
		gdb, err = gorm.Open(sqlite.Open(name), cfg)
		if err == nil {
			sqlDB, _ := gdb.DB()
			sqlDB.SetMaxOpenConns(1)
			tb.Cleanup(func() { _ = sqlDB.Close() })
		}
	}
	if err != nil {
		tb.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrateAll(gdb); err != nil {
		tb.Fatalf("migrate test db: %v", err)
	}
	return gdb
}

func Tx(tb testing.TB, gdb *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := gdb.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}

func SeedWorkspace(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID) *types.Workspace {
	tb.Helper()
	ws := &types.Workspace{UserID: userID, Title: "Biology 101"}
	if err := tx.WithContext(ctx).Create(ws).Error; err != nil {
		tb.Fatalf("seed workspace: %v", err)
	}
	return ws
}

func SeedMaterial(tb testing.TB, ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID, name string) *types.Material {
	tb.Helper()
	m := &types.Material{
		WorkspaceID:      workspaceID,
		OriginalFileName: name,
		MimeType:         "application/pdf",
		StorageKey:       "workspaces/" + workspaceID.String() + "/" + name,
		ExtractedText:    "text of " + name,
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed material: %v", err)
	}
	return m
}

func SeedChunk(tb testing.TB, ctx context.Context, tx *gorm.DB, m *types.Material, ordinal int, text string, vec []float32) *types.MaterialChunk {
	tb.Helper()
	c := &types.MaterialChunk{MaterialID: m.ID, WorkspaceID: m.WorkspaceID, Ordinal: ordinal, Text: text}
	if err := c.SetVector(vec); err != nil {
		tb.Fatalf("encode vector: %v", err)
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed chunk: %v", err)
	}
	return c
}
