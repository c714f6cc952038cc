package db

import (
	"testing"

	"github.com/yungbote/luminar-backend/internal/domain"
	"github.com/yungbote/luminar-backend/internal/platform/logger"
)

func TestConfigFromEnvBuildsPostgresDSN(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRES_USER", "app")
	t.Setenv("POSTGRES_PASSWORD", "p@ss")
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_PORT", "5433")
	t.Setenv("POSTGRES_NAME", "luminar")
	t.Setenv("POSTGRES_SSLMODE", "")

	cfg := ConfigFromEnv()
	if cfg.Driver != DriverPostgres {
		t.Fatalf("driver: got=%q", cfg.Driver)
	}
	want := "postgres://app:p%40ss@db:5433/luminar?sslmode=disable"
	if cfg.DSN != want {
		t.Fatalf("dsn: want=%q got=%q", want, cfg.DSN)
	}
}

func TestOpenSQLiteAndMigrate(t *testing.T) {
	svc, err := New(logger.Nop(), Config{Driver: DriverSQLite, SQLitePath: "file:dbtest?mode=memory&cache=shared"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer svc.Close()
	if err := AutoMigrateAll(svc.DB()); err != nil {
		t.Fatalf("AutoMigrateAll: %v", err)
	}
	for _, m := range domain.Models() {
		if !svc.DB().Migrator().HasTable(m) {
			t.Fatalf("missing table for %T", m)
		}
	}
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	if _, err := New(logger.Nop(), Config{Driver: "mysql"}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
