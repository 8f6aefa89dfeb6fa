package database

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mroshb/receipt_bot/internal/config"
	"github.com/mroshb/receipt_bot/internal/models"
	"github.com/mroshb/receipt_bot/pkg/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// MemoryPath opens a private in-memory store, used by tests
const MemoryPath = ":memory:"

func Connect(cfg *config.Config) (*gorm.DB, error) {
	var logLevel gormlogger.LogLevel
	if cfg.AppEnv == "development" {
		logLevel = gormlogger.Info
	} else {
		logLevel = gormlogger.Error
	}

	return Open(cfg.DBPath, logLevel)
}

// Open opens (creating if needed) the SQLite file at path.
func Open(path string, logLevel gormlogger.LogLevel) (*gorm.DB, error) {
	if path != MemoryPath {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn(path)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// SQLite serializes writers; one connection also keeps :memory: databases
	// alive for the lifetime of the pool.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	logger.Info("Database connected", "path", path)
	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	logger.Info("Running database migrations...")

	if err := db.AutoMigrate(&models.InvoiceSnapshot{}); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

func dsn(path string) string {
	if path == MemoryPath {
		return "file::memory:?_foreign_keys=on"
	}
	return "file:" + path + "?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"
}
