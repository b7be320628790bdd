package main

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/besf/portal/internal/bootstrap"
)

// connectDB opens the Postgres pool for a command. Commands never need Redis.
func connectDB(cmdCtx *commandContext) (*pgxpool.Pool, error) {
	pool, err := bootstrap.ConnectPostgres(cmdCtx.Ctx, bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	return pool, nil
}
