package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/besf/portal/internal/core"
	domainauth "github.com/besf/portal/internal/domain/auth"
	"github.com/besf/portal/internal/domain/model"
	apperrors "github.com/besf/portal/internal/errors"
)

// AdminServiceOptions groups dependencies for AdminService.
type AdminServiceOptions struct {
	Profiles core.ProfileRepository
	Stats    core.StatsRepository
	Activity core.ActivityRepository // Optional
	Logger   *slog.Logger
}

// AdminService backs the admin dashboard and the operator CLI.
type AdminService struct {
	profiles core.ProfileRepository
	stats    core.StatsRepository
	activity core.ActivityRepository
	logger   *slog.Logger
}

// NewAdminService constructs a new AdminService.
func NewAdminService(opts AdminServiceOptions) (*AdminService, error) {
	if opts.Profiles == nil {
		return nil, errors.New("ProfileRepository is required")
	}
	if opts.Stats == nil {
		return nil, errors.New("StatsRepository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminService{
		profiles: opts.Profiles,
		stats:    opts.Stats,
		activity: opts.Activity,
		logger:   logger.With("component", "admin_service"),
	}, nil
}

// Dashboard gathers the headline counts concurrently. The first failure cancels the rest.
func (s *AdminService) Dashboard(ctx context.Context) (*model.DashboardCounts, error) {
	var out model.DashboardCounts
	g, gctx := errgroup.WithContext(ctx)

	counts := []struct {
		dst *int
		fn  func(context.Context) (int, error)
	}{
		{&out.Profiles, s.stats.CountProfiles},
		{&out.Gamers, s.stats.CountGamers},
		{&out.Events, s.stats.CountEvents},
		{&out.GameRegistrations, s.stats.CountGameRegistrations},
		{&out.EventRegistrations, s.stats.CountEventRegistrations},
	}
	for _, c := range counts {
		g.Go(func() error {
			n, err := c.fn(gctx)
			if err != nil {
				return err
			}
			*c.dst = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("dashboard counts: %w", err)
	}
	return &out, nil
}

// ListUsers returns a page of profiles, newest first.
func (s *AdminService) ListUsers(ctx context.Context, limit, offset int) ([]*model.Profile, error) {
	users, err := s.profiles.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// SetRole changes a member's role. Admins cannot demote themselves. Gates pick up the new
// role on their next refresh.
func (s *AdminService) SetRole(ctx context.Context, actorID, userID string, role domainauth.Role) (*model.Profile, error) {
	if role != domainauth.RoleAdmin && role != domainauth.RoleUser {
		return nil, apperrors.ValidationField("role", "Role must be admin or user")
	}
	if actorID != "" && actorID == userID && role != domainauth.RoleAdmin {
		return nil, apperrors.ValidationField("role", "You cannot remove your own admin role")
	}

	p, err := s.profiles.SetRole(ctx, userID, role)
	if err != nil {
		return nil, err
	}

	actor := actorID
	if actor == "" {
		actor = userID
	}
	logActivity(ctx, s.activity, s.logger, model.LogActivityRequest{
		UserID:       actor,
		Action:       "role_changed",
		ResourceType: "profile",
		ResourceID:   p.ID,
		Details:      map[string]string{"user_id": userID, "role": string(role)},
	})
	s.logger.InfoContext(ctx, "role changed", "actor", actorID, "user_id", userID, "role", string(role))
	return p, nil
}

// SetRoleByEmail changes the role of the profile registered with email. It is used by
// the operator CLI, which has no acting member.
func (s *AdminService) SetRoleByEmail(ctx context.Context, email string, role domainauth.Role) (*model.Profile, error) {
	p, err := s.profiles.GetByEmail(ctx, email)
	if apperrors.IsNotFound(err) {
		return nil, apperrors.NotFoundf("no profile with email %q", email)
	}
	if err != nil {
		return nil, err
	}
	return s.SetRole(ctx, "", p.UserID, role)
}
