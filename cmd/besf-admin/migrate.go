package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/besf/portal/internal/bootstrap"
	"github.com/besf/portal/internal/devseed"
)

const defaultMigrationTimeout = 5 * time.Minute

type migrateOptions struct {
	Timeout time.Duration
}

type dbSeedOptions struct {
	Timeout time.Duration
	Force   bool
}

func parseMigrateFlags(args []string) (migrateOptions, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	opts := migrateOptions{}
	fs.DurationVar(&opts.Timeout, "timeout", defaultMigrationTimeout, "maximum time to wait for migrations")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.Timeout <= 0 {
		return opts, errors.New("--timeout must be positive")
	}
	return opts, nil
}

func parseDBSeedFlags(args []string) (dbSeedOptions, error) {
	fs := flag.NewFlagSet("db-seed", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	opts := dbSeedOptions{}
	fs.DurationVar(&opts.Timeout, "timeout", defaultMigrationTimeout, "maximum time to wait")
	fs.BoolVar(&opts.Force, "force", false, "seed even when DEV is not set")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.Timeout <= 0 {
		return opts, errors.New("--timeout must be positive")
	}
	return opts, nil
}

func runMigrations(cmdCtx *commandContext, args []string) error {
	opts, err := parseMigrateFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, opts.Timeout)
	defer cancel()

	pool, err := connectDB(cmdCtx)
	if err != nil {
		return err
	}
	defer pool.Close()

	cmdCtx.Logger.Info("running database migrations")

	if migrateErr := bootstrap.RunMigrations(ctx, pool, cmdCtx.Logger); migrateErr != nil {
		return fmt.Errorf("run migrations: %w", migrateErr)
	}

	cmdCtx.Logger.Info("migrations completed successfully")
	return nil
}

func runDBSeed(cmdCtx *commandContext, args []string) error {
	opts, err := parseDBSeedFlags(args)
	if err != nil {
		return err
	}
	if !cmdCtx.Config.IsDev && !opts.Force {
		return errors.New("db-seed creates accounts with a shared password; set DEV=true or pass --force")
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, opts.Timeout)
	defer cancel()

	pool, err := connectDB(cmdCtx)
	if err != nil {
		return err
	}
	defer pool.Close()

	if migrateErr := bootstrap.RunMigrations(ctx, pool, cmdCtx.Logger); migrateErr != nil {
		return fmt.Errorf("run migrations: %w", migrateErr)
	}

	if seedErr := devseed.Run(ctx, devseed.NewServices(pool), cmdCtx.Logger); seedErr != nil {
		return fmt.Errorf("seed: %w", seedErr)
	}

	return writef(cmdCtx.Out, "Seed complete. Seeded accounts use the password %q.\n", devseed.DevPassword)
}
