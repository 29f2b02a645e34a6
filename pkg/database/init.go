package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/Alijeyrad/internhub_backend/config"
)

// InitializeDatabase creates the application database through the
// maintenance "postgres" database and reports whether it had to. An existing
// database is left untouched.
func InitializeDatabase(ctx context.Context, cfg config.DatabaseConfig) (bool, error) {
	if cfg.DBName == "" {
		return false, errors.New("database name is not configured")
	}

	admin := FromCentralConfig(cfg)
	admin.DBName = "postgres"

	conn, err := openSQLDB(ctx, admin)
	if err != nil {
		return false, fmt.Errorf("connect to maintenance database: %w", err)
	}
	defer conn.Close()

	created, err := ensureDatabase(ctx, conn, cfg.DBName)
	if err != nil {
		return false, fmt.Errorf("create database %q: %w", cfg.DBName, err)
	}
	return created, nil
}

// ensureDatabase reports whether it had to create name.
func ensureDatabase(ctx context.Context, conn *sql.DB, name string) (bool, error) {
	var exists bool
	if err := conn.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)`, name,
	).Scan(&exists); err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	// CREATE DATABASE takes no bind parameters.
	if _, err := conn.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(name)); err != nil {
		var pqErr *pq.Error
		// duplicate_database: a concurrent init won the race
		if errors.As(err, &pqErr) && pqErr.Code == "42P04" {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
