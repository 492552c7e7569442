package cli

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/pathakanu/myAgenda/internal/appointment"
	"github.com/pathakanu/myAgenda/internal/calendar"
	"github.com/pathakanu/myAgenda/internal/config"
	"github.com/pathakanu/myAgenda/internal/database"
	"github.com/pathakanu/myAgenda/internal/logger"
	"github.com/pathakanu/myAgenda/internal/model"
	"github.com/pathakanu/myAgenda/internal/reminder"
	"github.com/pathakanu/myAgenda/internal/temporal"
)

const serviceName = "myagenda"

// app is the wired core shared by every command.
type app struct {
	cfg          *config.Config
	log          zerolog.Logger
	db           *gorm.DB
	store        *database.Store
	reminders    *reminder.Service
	appointments *appointment.Service
	calendar     *calendar.Aggregator
}

func openApp() (*app, error) {
	cfg, err := config.Load(logger.New(serviceName, "info"))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load configuration", err)
	}

	lg := logger.New(serviceName, cfg.LogLevel)
	log.Logger = lg

	db, err := database.New(cfg.DatabaseURL, cfg.SQLitePath, lg)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "database init failed", err)
	}

	st := database.NewStore(db)
	validator := temporal.New(temporal.SystemClock, cfg.GraceWindow)
	return &app{
		cfg:          cfg,
		log:          lg,
		db:           db,
		store:        st,
		reminders:    reminder.NewService(st, validator, lg.With().Str("component", "reminders").Logger()),
		appointments: appointment.NewService(st, validator, lg.With().Str("component", "appointments").Logger()),
		calendar:     calendar.NewAggregator(st, cfg.Location(), temporal.SystemClock, lg.With().Str("component", "calendar").Logger()),
	}, nil
}

func (a *app) Close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// domainExit maps service errors to exit codes.
func domainExit(message string, err error) error {
	if model.IsValidationError(err) || model.IsTemporalError(err) || model.IsConflictError(err) ||
		model.IsNotFoundError(err) || model.IsAuthorizationError(err) {
		return WrapExitError(ExitFailure, message, err)
	}
	return WrapExitError(ExitCommandError, message, err)
}
