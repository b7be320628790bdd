package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/besf/portal/internal/core"
	"github.com/besf/portal/internal/domain/model"
	"github.com/besf/portal/internal/validation"
)

// recentActivityLimit is how many activity entries the profile page shows.
const recentActivityLimit = 10

// ProfileServiceOptions groups dependencies for ProfileService.
type ProfileServiceOptions struct {
	Profiles core.ProfileRepository // Required
	Activity core.ActivityRepository // Optional
	Logger   *slog.Logger
}

// ProfileService reads and edits the signed-in member's own profile.
type ProfileService struct {
	profiles core.ProfileRepository
	activity core.ActivityRepository
	logger   *slog.Logger
}

// NewProfileService constructs a new ProfileService.
func NewProfileService(opts ProfileServiceOptions) (*ProfileService, error) {
	if opts.Profiles == nil {
		return nil, errors.New("ProfileRepository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileService{
		profiles: opts.Profiles,
		activity: opts.Activity,
		logger:   logger.With("component", "profile_service"),
	}, nil
}

// Get returns the profile owned by userID.
func (s *ProfileService) Get(ctx context.Context, userID string) (*model.Profile, error) {
	p, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// Update validates and stores the editable profile fields, then records the change.
func (s *ProfileService) Update(ctx context.Context, userID string, in validation.ProfileUpdate) (*model.Profile, error) {
	clean, err := validation.ValidateProfileUpdate(in)
	if err != nil {
		return nil, fieldError(err)
	}

	p, err := s.profiles.Update(ctx, userID, model.UpdateProfileRequest{
		Username:  clean.Username,
		FirstName: clean.FirstName,
		LastName:  clean.LastName,
	})
	if err != nil {
		return nil, err
	}

	logActivity(ctx, s.activity, s.logger, model.LogActivityRequest{
		UserID:       userID,
		Action:       "profile_updated",
		ResourceType: "profile",
		ResourceID:   p.ID,
		Details:      clean,
	})
	return p, nil
}

// RecentActivity returns the member's latest activity entries, newest first.
func (s *ProfileService) RecentActivity(ctx context.Context, userID string) ([]*model.ActivityLog, error) {
	if s.activity == nil {
		return nil, nil
	}
	logs, err := s.activity.ListRecent(ctx, userID, recentActivityLimit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	return logs, nil
}
