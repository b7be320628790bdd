package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/besf/portal/internal/data"
	domainauth "github.com/besf/portal/internal/domain/auth"
	"github.com/besf/portal/internal/domain/model"
	"github.com/besf/portal/internal/service"
	"github.com/besf/portal/internal/validation"
)

// roleSetter is the part of the admin service the role commands use.
type roleSetter interface {
	SetRoleByEmail(ctx context.Context, email string, role domainauth.Role) (*model.Profile, error)
}

func runPromote(cmdCtx *commandContext, args []string) error {
	return runRoleCommand(cmdCtx, args, domainauth.RoleAdmin)
}

func runDemote(cmdCtx *commandContext, args []string) error {
	return runRoleCommand(cmdCtx, args, domainauth.RoleUser)
}

func runRoleCommand(cmdCtx *commandContext, args []string, role domainauth.Role) error {
	email, err := parseEmailArg(args)
	if err != nil {
		return err
	}

	pool, err := connectDB(cmdCtx)
	if err != nil {
		return err
	}
	defer pool.Close()

	admin, err := newAdminService(pool, cmdCtx.Logger)
	if err != nil {
		return err
	}
	return changeRole(cmdCtx.Ctx, admin, cmdCtx.Out, email, role)
}

func newAdminService(db data.PgxPool, logger *slog.Logger) (*service.AdminService, error) {
	return service.NewAdminService(service.AdminServiceOptions{
		Profiles: data.NewProfileRepo(db),
		Stats:    data.NewStatsRepo(db),
		Activity: data.NewActivityRepo(db),
		Logger:   logger,
	})
}

// parseEmailArg expects exactly one email address and normalizes it.
func parseEmailArg(args []string) (string, error) {
	if len(args) != 1 {
		return "", errors.New("expected exactly one email argument")
	}
	email, ferr := validation.Email.Parse(args[0])
	if ferr != nil {
		return "", fmt.Errorf("invalid email: %w", ferr)
	}
	return email, nil
}

func changeRole(ctx context.Context, admin roleSetter, out io.Writer, email string, role domainauth.Role) error {
	p, err := admin.SetRoleByEmail(ctx, email, role)
	if err != nil {
		return fmt.Errorf("set role of %s: %w", email, err)
	}
	return writef(out, "%s (%s) is now %s\n", p.Email, p.UserID, p.Role)
}
