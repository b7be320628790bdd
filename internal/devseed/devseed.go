// Package devseed fills a development database with published events and sign-in
// accounts so the portal can be exercised locally.
package devseed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/besf/portal/internal/core"
	"github.com/besf/portal/internal/data"
	domainauth "github.com/besf/portal/internal/domain/auth"
	"github.com/besf/portal/internal/domain/model"
	apperrors "github.com/besf/portal/internal/errors"
	"github.com/besf/portal/internal/security"
)

// DevPassword is the password of every seeded account.
const DevPassword = "BesfDev123"

// Member is one seeded password account.
type Member struct {
	Email     string
	FirstName string
	LastName  string
	Role      domainauth.Role
}

// Event is one seeded published event, dated relative to the seed run.
type Event struct {
	Title       string
	Description string
	Location    string
	DaysAhead   int
}

// Services bundles the dependencies needed for development seeding.
type Services struct {
	DB       data.PgxPool
	accounts core.AccountRepository
	profiles core.ProfileRepository
	hasher   *security.Hasher
	now      func() time.Time
}

// NewServices constructs the seeding dependencies over db. Password hashes use the
// minimum bcrypt cost; these accounts only exist on dev databases.
func NewServices(db data.PgxPool) Services {
	return Services{
		DB:       db,
		accounts: data.NewAccountRepo(db),
		profiles: data.NewProfileRepo(db),
		hasher:   security.NewHasher(4),
		now:      time.Now,
	}
}

// DefaultMembers returns the accounts seeded by Run.
func DefaultMembers() []Member {
	return []Member{
		{Email: "admin@besf.local", FirstName: "Boitumelo", LastName: "Admin", Role: domainauth.RoleAdmin},
		{Email: "member@besf.local", FirstName: "Tebogo", LastName: "Member", Role: domainauth.RoleUser},
	}
}

// DefaultEvents returns the events seeded by Run.
func DefaultEvents() []Event {
	return []Event{
		{
			Title:       "BESF National Qualifiers",
			Description: "Open qualifiers for the national team across all supported titles.",
			Location:    "Gaborone",
			DaysAhead:   21,
		},
		{
			Title:       "Francistown Community LAN",
			Description: "A relaxed LAN weekend for new and returning players.",
			Location:    "Francistown",
			DaysAhead:   45,
		},
		{
			Title:       "Mobile Legends Open",
			Description: "Five-a-side Mobile Legends tournament.",
			Location:    "Online",
			DaysAhead:   10,
		},
	}
}

// Run executes the full development seeding workflow against the provided DB.
func Run(ctx context.Context, svcs Services, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	failures := 0
	failures += seedEvents(ctx, svcs, DefaultEvents(), logger)
	failures += seedMembers(ctx, svcs, DefaultMembers(), logger)
	if failures > 0 {
		return fmt.Errorf("%d seed errors; check logs", failures)
	}
	return nil
}

func seedEvents(ctx context.Context, svcs Services, events []Event, logger *slog.Logger) int {
	failures := 0
	for _, ev := range events {
		created, err := createEvent(ctx, svcs, ev)
		if err != nil {
			logger.ErrorContext(ctx, "failed to create event", "title", ev.Title, "error", err)
			failures++
			continue
		}
		msg := "event already exists"
		if created {
			msg = "created event"
		}
		logger.InfoContext(ctx, msg, "title", ev.Title)
	}
	return failures
}

// createEvent inserts ev unless an event with the same title exists.
func createEvent(ctx context.Context, svcs Services, ev Event) (bool, error) {
	when := svcs.now().UTC().Truncate(time.Hour).AddDate(0, 0, ev.DaysAhead)
	tag, err := svcs.DB.Exec(ctx, `
		INSERT INTO events (title, description, event_date, location, is_published)
		SELECT $1, $2, $3, $4, true
		WHERE NOT EXISTS (SELECT 1 FROM events WHERE title = $1)`,
		ev.Title, ev.Description, when, ev.Location,
	)
	if err != nil {
		return false, fmt.Errorf("insert event: %w", apperrors.MapDBError(err))
	}
	return tag.RowsAffected() > 0, nil
}

func seedMembers(ctx context.Context, svcs Services, members []Member, logger *slog.Logger) int {
	failures := 0
	for _, m := range members {
		created, err := createMember(ctx, svcs, m)
		if err != nil {
			logger.ErrorContext(ctx, "failed to create member", "email", m.Email, "error", err)
			failures++
			continue
		}
		msg := "member already exists"
		if created {
			msg = "created member"
		}
		logger.InfoContext(ctx, msg, "email", m.Email, "role", string(m.Role))
	}
	return failures
}

// createMember creates the password account and its profile. An existing account is
// left as it is.
func createMember(ctx context.Context, svcs Services, m Member) (bool, error) {
	hash, err := svcs.hasher.Hash(DevPassword)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	email := strings.ToLower(m.Email)

	acct, err := svcs.accounts.Create(ctx, model.Account{
		UserID:       "pw|" + uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
	})
	if apperrors.IsConflict(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if _, err := svcs.profiles.Ensure(ctx, model.EnsureProfileRequest{
		UserID:    acct.UserID,
		Email:     email,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Role:      m.Role,
	}); err != nil {
		return false, fmt.Errorf("ensure profile for %s: %w", email, err)
	}
	return true, nil
}
