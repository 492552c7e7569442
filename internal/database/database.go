package database

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pathakanu/myAgenda/internal/model"
)

// New creates a GORM database connection.
// When databaseURL is provided PostgreSQL is used, otherwise SQLite at sqlitePath.
func New(databaseURL, sqlitePath string, log zerolog.Logger) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	if databaseURL != "" {
		db, err = gorm.Open(postgres.Open(databaseURL), gormConfig)
	} else {
		if sqlitePath == "" {
			sqlitePath = "agenda.db"
		}
		db, err = gorm.Open(sqlite.Open(sqlitePath), gormConfig)
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := Prepare(db); err != nil {
		return nil, err
	}

	logBackend(db, sqlitePath, log)
	return db, nil
}

// Prepare tunes the connection pool and migrates the schema.
func Prepare(db *gorm.DB) error {
	if db.Dialector.Name() == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("sqlite handle: %w", err)
		}
		// SQLite allows one writer at a time.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		if err := db.Exec("PRAGMA busy_timeout = 5000").Error; err != nil {
			return fmt.Errorf("sqlite pragma: %w", err)
		}
	}
	return Migrate(db)
}

// Migrate creates or updates the reminder and appointment tables and their indexes.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.Reminder{}, &model.Appointment{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func logBackend(db *gorm.DB, sqlitePath string, log zerolog.Logger) {
	dialector := db.Dialector.Name()
	switch strings.ToLower(dialector) {
	case "postgres":
		log.Info().Msg("database: connected to PostgreSQL")
	case "sqlite":
		log.Info().Str("path", sqlitePath).Msg("database: using SQLite")
	default:
		log.Info().Str("dialector", dialector).Msg("database: connected")
	}
}
