package database

import (
	"database/sql"
	"errors"
	"fmt"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// MigrationResult tells whether RunMigrations changed the schema.
type MigrationResult struct {
	Applied bool
	Version uint
	Dirty   bool
}

// withMigrator opens a short-lived database/sql connection through the pgx
// stdlib driver and hands a migrate instance to fn.
func withMigrator(databaseURL, sourceURL string, fn func(m *migrate.Migrate) error) (err error) {
	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database connection for migrations: %w", err)
	}
	defer migrationDB.Close()
	if err := migrationDB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database for migrations: %w", err)
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create postgres driver instance for migrations: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance(sourceURL, "postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}
	defer func() {
		sourceErr, dbErr := m.Close()
		if err == nil {
			err = errors.Join(sourceErr, dbErr)
		}
	}()
	return fn(m)
}

// RunMigrations applies every pending up migration from sourceURL.
func RunMigrations(databaseURL, sourceURL string) (MigrationResult, error) {
	var res MigrationResult
	err := withMigrator(databaseURL, sourceURL, func(m *migrate.Migrate) error {
		upErr := m.Up()
		if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
			return fmt.Errorf("failed to apply migrations: %w", upErr)
		}
		res.Applied = upErr == nil
		version, dirty, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			return fmt.Errorf("failed to read migration version: %w", err)
		}
		res.Version, res.Dirty = version, dirty
		return nil
	})
	return res, err
}

// RollbackMigrations reverts the last steps migrations.
func RollbackMigrations(databaseURL, sourceURL string, steps int) error {
	if steps < 1 {
		return fmt.Errorf("steps must be at least 1")
	}
	return withMigrator(databaseURL, sourceURL, func(m *migrate.Migrate) error {
		if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to roll back migrations: %w", err)
		}
		return nil
	})
}
