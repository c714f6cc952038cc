package db

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/luminar-backend/internal/platform/envutil"
	"github.com/yungbote/luminar-backend/internal/platform/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Driver        string
	DSN           string
	SQLitePath    string
	SlowThreshold time.Duration
	MaxOpenConns  int
}

// ConfigFromEnv builds a DSN from DATABASE_URL or the POSTGRES_* variables.
func ConfigFromEnv() Config {
	cfg := Config{
		Driver:        strings.ToLower(envutil.String("DB_DRIVER", DriverPostgres)),
		DSN:           envutil.String("DATABASE_URL", ""),
		SQLitePath:    envutil.String("SQLITE_PATH", "luminar.db"),
		SlowThreshold: envutil.Duration("DB_SLOW_THRESHOLD", time.Second),
		MaxOpenConns:  envutil.Int("DB_MAX_OPEN_CONNS", 20),
	}
	if cfg.Driver == DriverPostgres && cfg.DSN == "" {
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(envutil.String("POSTGRES_USER", "postgres"), envutil.String("POSTGRES_PASSWORD", "")),
			Host:     envutil.String("POSTGRES_HOST", "localhost") + ":" + envutil.String("POSTGRES_PORT", "5432"),
			Path:     "/" + envutil.String("POSTGRES_NAME", "luminar"),
			RawQuery: "sslmode=" + envutil.String("POSTGRES_SSLMODE", "disable"),
		}
		cfg.DSN = u.String()
	}
	return cfg
}

type Service struct {
	db     *gorm.DB
	driver string
	log    *logger.Logger
}

func New(log *logger.Logger, cfg Config) (*Service, error) {
	serviceLog := log.With("service", "DatabaseService")

	gcfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: cfg.Driver != DriverSQLite,
		Logger: gormLogger.New(gormWriter{log: serviceLog}, gormLogger.Config{
			SlowThreshold:             cfg.SlowThreshold,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		}),
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("postgres DSN required")
		}
		dialector = postgres.Open(cfg.DSN)
	case DriverSQLite:
		dialector = sqlite.Open(sqliteDSN(cfg.SQLitePath))
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, gcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Driver, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Driver == DriverSQLite {
		// SQLite serialises writers; one connection avoids SQLITE_BUSY.
		sqlDB.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	serviceLog.Info("database connected", "driver", cfg.Driver)
	return &Service{db: db, driver: cfg.Driver, log: serviceLog}, nil
}

func (s *Service) DB() *gorm.DB { return s.db }

func (s *Service) Driver() string { return s.driver }

func (s *Service) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	return "file:" + path + "?_fk=1"
}

// gormWriter routes gorm's slow-query and error output through the service logger.
type gormWriter struct {
	log *logger.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.log.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}
