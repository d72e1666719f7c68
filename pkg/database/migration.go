package database

import (
	"fmt"
	"os"

	"github.com/Gobusters/ectologger"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type migrationLogger struct {
	ectologger.Logger
}

func (l migrationLogger) Verbose() bool {
	return true
}

func (l migrationLogger) Printf(format string, v ...any) {
	l.Infof(format, v...)
}

// MigrationConfig holds migration runner configuration.
type MigrationConfig struct {
	FolderPath   string
	DatabaseName string
}

// Migrate applies all pending file migrations from the configured folder.
func Migrate(db *sqlx.DB, cfg MigrationConfig, logger ectologger.Logger) error {
	folder := cfg.FolderPath
	if _, err := os.Stat(folder); err != nil {
		workingDirectory, _ := os.Getwd()
		folder = workingDirectory + "/" + cfg.FolderPath
	}
	if _, err := os.Stat(folder); err != nil {
		return errors.Wrap(err, fmt.Sprintf("migration folder %s does not exist", folder))
	}

	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return errors.Wrap(err, "failed to create migration driver")
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+folder, cfg.DatabaseName, driver)
	if err != nil {
		return errors.Wrap(err, "failed to create migration instance")
	}
	m.Log = migrationLogger{logger}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return errors.Wrap(err, "failed to apply migrations")
	}

	version, dirty, _ := m.Version()
	logger.WithFields(map[string]any{"version": version, "dirty": dirty}).Info("Database migrations applied")
	return nil
}
