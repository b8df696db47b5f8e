// Package db opens the relational store and prepares its schema.
package db

import (
	"fmt"
	"strings"
	"time"

	"github.com/synageion/synageion/internal/config"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const connectAttempts = 5

// Open connects to the configured engine. Unique-constraint violations are
// translated to gorm.ErrDuplicatedKey. SQLite gets a single connection, so
// writers are serialized by the pool instead of failing with SQLITE_BUSY.
func Open(cfg config.DatabaseConfig, log *zap.SugaredLogger) (*gorm.DB, error) {
	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}
	gcfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(SQLiteDSN(cfg.Path))
	case "postgres":
		dialector = postgres.Open(NormalizeDSN(cfg.DSN))
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", cfg.Driver)
	}

	var db *gorm.DB
	var err error
	for i := 1; i <= connectAttempts; i++ {
		db, err = gorm.Open(dialector, gcfg)
		if err == nil {
			break
		}
		if cfg.Driver == "sqlite" || i == connectAttempts {
			break
		}
		log.Warnw("database connection failed, retrying", "attempt", i, "error", err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("db: connect: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db: pool: %w", err)
	}
	if cfg.Driver == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.Exec("SELECT 1").Error; err != nil {
		return nil, fmt.Errorf("db: ping: %w", err)
	}
	target := cfg.Path
	if cfg.Driver == "postgres" {
		target = MaskDSN(cfg.DSN)
	}
	log.Infow("database connected", "driver", cfg.Driver, "target", target)
	return db, nil
}

// SQLiteDSN enables foreign keys on a SQLite path or URI.
func SQLiteDSN(path string) string {
	if strings.Contains(path, "_foreign_keys=") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on"
}

// Ping checks connectivity; used by the health endpoint.
func Ping(db *gorm.DB) error {
	return db.Exec("SELECT 1").Error
}
