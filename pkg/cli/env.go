package cli

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/taskboard/pkg/config"
	"github.com/platinummonkey/taskboard/pkg/observability"
	"github.com/platinummonkey/taskboard/pkg/storage"
)

// loadConfig is replaced in tests
var loadConfig = config.LoadConfig

// newProcessLogger builds the logger for startup, shutdown and CLI output
func newProcessLogger(level observability.LogLevel) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	switch level {
	case observability.DebugLevel:
		logger.SetLevel(logrus.DebugLevel)
	case observability.WarnLevel:
		logger.SetLevel(logrus.WarnLevel)
	case observability.ErrorLevel:
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}
	return logger
}

// openDatabase connects and brings the schema up to date
func openDatabase(ctx context.Context, cfg storage.Config, log *logrus.Logger) (*sql.DB, error) {
	db, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	applied, err := storage.RunMigrations(ctx, db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	log.WithFields(logrus.Fields{
		"driver":  cfg.Driver,
		"applied": applied,
	}).Info("database ready")
	return db, nil
}
