package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/besf/portal/internal/core"
	"github.com/besf/portal/internal/domain/model"
	apperrors "github.com/besf/portal/internal/errors"
	"github.com/besf/portal/internal/ports"
	"github.com/besf/portal/internal/ratelimit"
	"github.com/besf/portal/internal/validation"
)

// RegistrationServiceOptions groups dependencies for RegistrationService.
type RegistrationServiceOptions struct {
	Games      core.GameRepository
	UserGames  core.UserGameRepository
	Events     core.EventRepository
	UserEvents core.UserEventRepository
	Activity   core.ActivityRepository // Optional
	Limiter    ports.RateLimiter
	Logger     *slog.Logger
}

// RegistrationService handles a member's game and event registrations. Every write is
// scoped to the caller's user ID.
type RegistrationService struct {
	games      core.GameRepository
	userGames  core.UserGameRepository
	events     core.EventRepository
	userEvents core.UserEventRepository
	activity   core.ActivityRepository
	limiter    ports.RateLimiter
	logger     *slog.Logger
}

// NewRegistrationService constructs a new RegistrationService.
func NewRegistrationService(opts RegistrationServiceOptions) (*RegistrationService, error) {
	switch {
	case opts.Games == nil:
		return nil, errors.New("GameRepository is required")
	case opts.UserGames == nil:
		return nil, errors.New("UserGameRepository is required")
	case opts.Events == nil:
		return nil, errors.New("EventRepository is required")
	case opts.UserEvents == nil:
		return nil, errors.New("UserEventRepository is required")
	case opts.Limiter == nil:
		return nil, errors.New("RateLimiter is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RegistrationService{
		games:      opts.Games,
		userGames:  opts.UserGames,
		events:     opts.Events,
		userEvents: opts.UserEvents,
		activity:   opts.Activity,
		limiter:    opts.Limiter,
		logger:     logger.With("component", "registration_service"),
	}, nil
}

// ListGames returns the games open for registration.
func (s *RegistrationService) ListGames(ctx context.Context) ([]*model.Game, error) {
	games, err := s.games.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	return games, nil
}

// MyGames returns the member's active game registrations.
func (s *RegistrationService) MyGames(ctx context.Context, userID string) ([]*model.UserGame, error) {
	ugs, err := s.userGames.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user games: %w", err)
	}
	return ugs, nil
}

// RegisterGame registers the member for an active game. Attempts are rate limited per member.
func (s *RegistrationService) RegisterGame(
	ctx context.Context,
	userID, gameID string,
	in validation.GameRegistration,
) (*model.UserGame, error) {
	p := ratelimit.GameRegister
	limited, err := s.limiter.IsRateLimited(ctx, p.Key(userID), p.MaxAttempts, p.Window)
	if err != nil {
		return nil, fmt.Errorf("check game registration rate limit: %w", err)
	}
	if limited {
		s.logger.WarnContext(ctx, "game registration rate limited", "user_id", userID)
		return nil, apperrors.RateLimited()
	}

	clean, err := validation.ValidateGameRegistration(in)
	if err != nil {
		return nil, fieldError(err)
	}
	if err := s.requireActiveGame(ctx, gameID); err != nil {
		return nil, err
	}

	ug, err := s.userGames.Upsert(ctx, model.UpsertUserGameRequest{
		UserID:     userID,
		GameID:     gameID,
		GamerTag:   clean.GamerTag,
		SkillLevel: clean.SkillLevel,
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, userID, "game_registered", "user_game", ug.ID, clean)
	return ug, nil
}

// UpdateGame changes the gamer tag or skill level of an existing registration.
func (s *RegistrationService) UpdateGame(
	ctx context.Context,
	userID, gameID string,
	in validation.GameRegistration,
) (*model.UserGame, error) {
	clean, err := validation.ValidateGameRegistration(in)
	if err != nil {
		return nil, fieldError(err)
	}
	if err := s.requireActiveGame(ctx, gameID); err != nil {
		return nil, err
	}
	ug, err := s.userGames.Upsert(ctx, model.UpsertUserGameRequest{
		UserID:     userID,
		GameID:     gameID,
		GamerTag:   clean.GamerTag,
		SkillLevel: clean.SkillLevel,
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, userID, "game_updated", "user_game", ug.ID, clean)
	return ug, nil
}

// LeaveGame deactivates the member's registration for a game.
func (s *RegistrationService) LeaveGame(ctx context.Context, userID, gameID string) error {
	ok, err := s.userGames.Deactivate(ctx, userID, gameID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NotFound("Registration not found")
	}
	s.record(ctx, userID, "game_left", "game", gameID, nil)
	return nil
}

func (s *RegistrationService) requireActiveGame(ctx context.Context, gameID string) error {
	if gameID == "" {
		return apperrors.ValidationField("game_id", "Please select a game")
	}
	g, err := s.games.GetByID(ctx, gameID)
	if apperrors.IsNotFound(err) {
		return apperrors.NotFound("Game not found")
	}
	if err != nil {
		return err
	}
	if !g.IsActive {
		return apperrors.NotFound("Game not found")
	}
	return nil
}

// ListEvents returns the published events.
func (s *RegistrationService) ListEvents(ctx context.Context) ([]*model.Event, error) {
	events, err := s.events.ListPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// MyEvents returns the member's event registrations.
func (s *RegistrationService) MyEvents(ctx context.Context, userID string) ([]*model.UserEvent, error) {
	ues, err := s.userEvents.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user events: %w", err)
	}
	return ues, nil
}

// RegisterEvent registers the member for a published event. A cancelled registration is
// reopened; an active one is a conflict.
func (s *RegistrationService) RegisterEvent(
	ctx context.Context,
	userID, eventID string,
	in validation.EventRegistration,
) (*model.UserEvent, error) {
	clean, err := validation.ValidateEventRegistration(in)
	if err != nil {
		return nil, fieldError(err)
	}
	if err := s.requirePublishedEvent(ctx, eventID); err != nil {
		return nil, err
	}

	ue, err := s.userEvents.Create(ctx, model.UpsertUserEventRequest{
		UserID:   userID,
		EventID:  eventID,
		TeamName: clean.TeamName,
		Notes:    clean.Notes,
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, userID, "event_registered", "user_event", ue.ID, clean)
	return ue, nil
}

// UpdateEvent edits the team name and notes of an active registration.
func (s *RegistrationService) UpdateEvent(
	ctx context.Context,
	userID, eventID string,
	in validation.EventRegistration,
) (*model.UserEvent, error) {
	clean, err := validation.ValidateEventRegistration(in)
	if err != nil {
		return nil, fieldError(err)
	}
	ue, err := s.userEvents.Update(ctx, model.UpsertUserEventRequest{
		UserID:   userID,
		EventID:  eventID,
		TeamName: clean.TeamName,
		Notes:    clean.Notes,
	})
	if apperrors.IsNotFound(err) {
		return nil, apperrors.NotFound("Registration not found")
	}
	if err != nil {
		return nil, err
	}
	s.record(ctx, userID, "event_updated", "user_event", ue.ID, clean)
	return ue, nil
}

// CancelEvent marks the member's registration cancelled.
func (s *RegistrationService) CancelEvent(ctx context.Context, userID, eventID string) error {
	ok, err := s.userEvents.Cancel(ctx, userID, eventID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NotFound("Registration not found")
	}
	s.record(ctx, userID, "event_cancelled", "event", eventID, nil)
	return nil
}

func (s *RegistrationService) requirePublishedEvent(ctx context.Context, eventID string) error {
	if eventID == "" {
		return apperrors.ValidationField("event_id", "Please select an event")
	}
	_, err := s.events.GetPublished(ctx, eventID)
	if apperrors.IsNotFound(err) {
		return apperrors.NotFound("Event not found")
	}
	return err
}

func (s *RegistrationService) record(ctx context.Context, userID, action, resourceType, resourceID string, details any) {
	logActivity(ctx, s.activity, s.logger, model.LogActivityRequest{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      details,
	})
}
