package database

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations
var migrationsFS embed.FS

// gooseDialect maps a dialect to goose's dialect name
func gooseDialect(dialect string) (string, error) {
	switch dialect {
	case DialectSQLite:
		return "sqlite3", nil
	case DialectPostgres:
		return "postgres", nil
	case DialectMySQL:
		return "mysql", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDialect, dialect)
	}
}

func migrationsDir(dialect string) string {
	return "migrations/" + dialect
}

// RunMigrations executes all pending migrations for the dialect
func RunMigrations(db *sql.DB, dialect string, logger *zap.Logger) error {
	name, err := gooseDialect(dialect)
	if err != nil {
		return err
	}

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect(name); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	dir := migrationsDir(dialect)
	logger.Info("Checking for pending migrations...", zap.String("dir", dir))

	if err := goose.Up(db, dir); err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Migrations completed successfully", zap.String("dialect", dialect))
	return nil
}

// MigrationVersion returns the schema version currently applied
func MigrationVersion(db *sql.DB, dialect string) (int64, error) {
	name, err := gooseDialect(dialect)
	if err != nil {
		return 0, err
	}

	if err := goose.SetDialect(name); err != nil {
		return 0, fmt.Errorf("failed to set goose dialect: %w", err)
	}

	version, err := goose.GetDBVersion(db)
	if err != nil {
		return 0, fmt.Errorf("failed to read migration version: %w", err)
	}
	return version, nil
}
