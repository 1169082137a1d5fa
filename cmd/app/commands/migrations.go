package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"path"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/allisson/trustlog/internal/database"
)

// MigrateOptions selects the schema change applied by RunMigrations.
type MigrateOptions struct {
	Driver           string
	ConnectionString string
	// Dir holds one sub-directory per dialect, "postgresql" and "mysql".
	Dir string
	// RollbackSteps reverts that many migrations instead of applying pending ones.
	RollbackSteps int
}

func migrationsSource(dir, driver string) (string, error) {
	if dir == "" {
		dir = "migrations"
	}
	switch database.Dialect(driver) {
	case database.PostgreSQL:
		return "file://" + path.Join(dir, "postgresql"), nil
	case database.MySQL:
		return "file://" + path.Join(dir, "mysql"), nil
	default:
		return "", fmt.Errorf("failed to create migrate instance: unsupported driver %q", driver)
	}
}

// RunMigrations brings the schema up to date, or rolls back RollbackSteps
// migrations. The memory driver has no schema and is a no-op.
func RunMigrations(logger *slog.Logger, opts MigrateOptions) error {
	if opts.Driver == database.Memory {
		logger.Info("memory driver has no schema, skipping migrations")
		return nil
	}
	if opts.RollbackSteps < 0 {
		return fmt.Errorf("rollback steps must not be negative, got %d", opts.RollbackSteps)
	}

	source, err := migrationsSource(opts.Dir, opts.Driver)
	if err != nil {
		return err
	}

	logger.Info("running database migrations",
		slog.String("driver", opts.Driver),
		slog.String("source", source),
		slog.Int("rollback_steps", opts.RollbackSteps),
	)

	m, err := migrate.New(source, opts.ConnectionString)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer closeMigrate(m, logger)

	if opts.RollbackSteps > 0 {
		err = m.Steps(-opts.RollbackSteps)
	} else {
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		logger.Info("schema is empty")
	case err != nil:
		return fmt.Errorf("failed to read schema version: %w", err)
	case dirty:
		return fmt.Errorf("schema left dirty at version %d", version)
	default:
		logger.Info("migrations completed", slog.Uint64("version", uint64(version)))
	}
	return nil
}
