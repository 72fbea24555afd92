// Package db opens the gorm connection pool and brings the schema up to date.
package db

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ecodescarte-user-service/internal/config"
	"ecodescarte-user-service/internal/infrastructure/db/migrations"
	"ecodescarte-user-service/internal/infrastructure/db/postgres"
	"github.com/pressly/goose/v3"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	connectAttempts = 5
	retryDelay      = 2 * time.Second
)

// Open connects with retries, applies the pool settings and pings.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	gormCfg := &gorm.Config{
		Logger:         newGormLogger(cfg, log),
		TranslateError: true,
	}

	var gdb *gorm.DB
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		gdb, err = gorm.Open(dialector, gormCfg)
		if err == nil {
			break
		}
		log.Warn("database connection failed, retrying", "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database after retries: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("db handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("db ping failed: %w", err)
	}

	log.Info("database connection established", "driver", cfg.Driver)
	return gdb, nil
}

func Dialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	dsn := cfg.ConnectionString()
	switch cfg.Driver {
	case "postgres":
		return gormpostgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(sqliteDSN(dsn)), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// sqliteDSN turns on foreign keys, which sqlite leaves off per connection.
func sqliteDSN(dsn string) string {
	if dsn == "" {
		dsn = "ecodescarte.db"
	}
	if strings.Contains(dsn, "_foreign_keys") || strings.Contains(dsn, "_fk") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=on"
}

// Migrate runs the embedded goose migrations when enabled for Postgres and
// falls back to AutoMigrate otherwise.
func Migrate(ctx context.Context, gdb *gorm.DB, cfg config.DatabaseConfig, log *slog.Logger) error {
	if cfg.Migrations && cfg.Driver == "postgres" {
		sqlDB, err := gdb.DB()
		if err != nil {
			return err
		}
		goose.SetBaseFS(migrations.Migrations)
		if err := goose.SetDialect("pgx"); err != nil {
			return fmt.Errorf("goose dialect: %w", err)
		}
		if err := goose.UpContext(ctx, sqlDB, "."); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
		log.Info("sql migrations applied")
		return nil
	}

	for _, m := range postgres.Models() {
		if err := gdb.WithContext(ctx).AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	log.Info("database models synchronized")
	return nil
}

func Close(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func newGormLogger(cfg config.DatabaseConfig, log *slog.Logger) logger.Interface {
	level := logger.Silent
	if cfg.Logging {
		level = logger.Info
	}
	return logger.New(slog.NewLogLogger(log.Handler(), slog.LevelDebug), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}
