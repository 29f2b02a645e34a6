package repo

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// Migrate applies the schema. Every statement is idempotent.
func (c *Client) Migrate(ctx context.Context) error {
	var res sql.Result
	if err := c.drv.Exec(ctx, schemaSQL, []any{}, &res); err != nil {
		return fmt.Errorf("apply schema: %w", classify(err))
	}
	return nil
}
