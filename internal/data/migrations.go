package data

import (
	"context"

	"github.com/besf/portal/internal/migrate"
)

// RunMigrations applies the embedded schema migrations.
func RunMigrations(ctx context.Context, db PgxPool) error {
	return migrate.Run(ctx, db)
}
