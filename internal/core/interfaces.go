// Package core holds the repository contracts shared by the service and data layers.
package core

import (
	"context"

	domainauth "github.com/besf/portal/internal/domain/auth"
	"github.com/besf/portal/internal/domain/model"
)

// These interfaces are the contracts between the service layer and the data layer.
// Services depend on them; internal/data provides the pgx implementations.

// ProfileRepository defines profile persistence. Every mutating call is scoped by userID.
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID string) (*model.Profile, error)
	GetByEmail(ctx context.Context, email string) (*model.Profile, error)
	// Ensure inserts a profile for req.UserID unless one exists and returns the stored row.
	Ensure(ctx context.Context, req model.EnsureProfileRequest) (*model.Profile, error)
	Update(ctx context.Context, userID string, req model.UpdateProfileRequest) (*model.Profile, error)
	SetRole(ctx context.Context, userID string, role domainauth.Role) (*model.Profile, error)
	List(ctx context.Context, limit, offset int) ([]*model.Profile, error)
	LookupRole(ctx context.Context, userID string) (domainauth.Role, bool, error)
}

// AccountRepository stores password credentials.
type AccountRepository interface {
	Create(ctx context.Context, acct model.Account) (*model.Account, error)
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
}

// GameRepository lists the games members can register for.
type GameRepository interface {
	ListActive(ctx context.Context) ([]*model.Game, error)
	GetByID(ctx context.Context, id string) (*model.Game, error)
}

// UserGameRepository stores a member's game registrations.
type UserGameRepository interface {
	ListByUser(ctx context.Context, userID string) ([]*model.UserGame, error)
	Upsert(ctx context.Context, req model.UpsertUserGameRequest) (*model.UserGame, error)
	Deactivate(ctx context.Context, userID, gameID string) (bool, error)
}

// EventRepository lists published events.
type EventRepository interface {
	ListPublished(ctx context.Context) ([]*model.Event, error)
	GetPublished(ctx context.Context, id string) (*model.Event, error)
}

// UserEventRepository stores a member's event registrations.
type UserEventRepository interface {
	ListByUser(ctx context.Context, userID string) ([]*model.UserEvent, error)
	Create(ctx context.Context, req model.UpsertUserEventRequest) (*model.UserEvent, error)
	Update(ctx context.Context, req model.UpsertUserEventRequest) (*model.UserEvent, error)
	Cancel(ctx context.Context, userID, eventID string) (bool, error)
}

// GamerRepository writes the public gamer register.
type GamerRepository interface {
	Create(ctx context.Context, req model.CreateGamerRequest) (*model.Gamer, error)
}

// ActivityRepository records and reads member activity.
type ActivityRepository interface {
	Log(ctx context.Context, req model.LogActivityRequest) error
	ListRecent(ctx context.Context, userID string, limit int) ([]*model.ActivityLog, error)
}

// StatsRepository produces the admin dashboard counts. Each call is independent so callers
// may run them concurrently.
type StatsRepository interface {
	CountProfiles(ctx context.Context) (int, error)
	CountGamers(ctx context.Context) (int, error)
	CountEvents(ctx context.Context) (int, error)
	CountGameRegistrations(ctx context.Context) (int, error)
	CountEventRegistrations(ctx context.Context) (int, error)
}
