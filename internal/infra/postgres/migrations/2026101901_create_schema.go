package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			return execFile(ctx, db, "0001_create_schema.up.sql")
		},
		func(ctx context.Context, db *bun.DB) error {
			return execFile(ctx, db, "0001_create_schema.down.sql")
		},
	)
}
