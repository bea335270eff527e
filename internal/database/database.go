package database

import (
	"fmt"
	"log"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/awanllm/chat-gateway/internal/config"
	"github.com/awanllm/chat-gateway/internal/models"
)

// InitDB opens the relational store described by config, sizes the
// connection pool and creates missing tables.
func InitDB(config *config.Config) (*gorm.DB, error) {
	dialector, err := dialectorFor(config.GetDSN())
	if err != nil {
		return nil, err
	}

	logLevel := logger.Warn
	if config.Debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	if config.DBMaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(config.DBMaxOpenConns)
	}
	if config.DBMaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(config.DBMaxIdleConns)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Printf("✅ Database ready (%s)", dialector.Name())
	return db, nil
}

// Migrate creates the conversation and credential tables if they are absent.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.ConversationMessage{}, &models.APIKey{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// dialectorFor picks the gorm driver from the connection string.
// "sqlite://path" and "file:" URIs select SQLite, everything else PostgreSQL.
func dialectorFor(dsn string) (gorm.Dialector, error) {
	switch {
	case dsn == "":
		return nil, fmt.Errorf("empty database connection string")
	case strings.HasPrefix(dsn, "sqlite://"):
		return sqlite.Open(strings.TrimPrefix(dsn, "sqlite://")), nil
	case strings.HasPrefix(dsn, "file:"):
		return sqlite.Open(dsn), nil
	default:
		return postgres.Open(dsn), nil
	}
}
