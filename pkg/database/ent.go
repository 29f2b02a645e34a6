package database

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/Alijeyrad/internhub_backend/config"
	"github.com/Alijeyrad/internhub_backend/internal/repo"
)

// NewRepoClient opens the postgres pool and wraps it in an ent SQL driver.
func NewRepoClient(cfg config.DatabaseConfig) (*repo.Client, error) {
	return NewRepoClientFromConfig(FromCentralConfig(cfg))
}

func NewRepoClientFromConfig(cfg Config) (*repo.Client, error) {
	db, err := openSQLDB(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	drv := entsql.OpenDB(dialect.Postgres, db)
	return repo.NewClient(drv), nil
}

// Migrate applies the embedded schema. It is safe to run repeatedly.
func Migrate(ctx context.Context, client *repo.Client) error {
	if err := client.Migrate(ctx); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
