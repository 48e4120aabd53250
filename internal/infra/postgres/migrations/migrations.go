// Package migrations holds the bun migrations for the postgres schema.
package migrations

import (
	"context"
	"embed"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

//go:embed sql/*.sql
var sqlFiles embed.FS

// Migrations is the ordered set applied by the migrate command and on server start.
var Migrations = migrate.NewMigrations()

func execFile(ctx context.Context, db *bun.DB, name string) error {
	body, err := sqlFiles.ReadFile("sql/" + name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if _, err := db.ExecContext(ctx, string(body)); err != nil {
		return fmt.Errorf("exec %s: %w", name, err)
	}
	return nil
}
