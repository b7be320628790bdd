package data

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/besf/portal/internal/core"
	"github.com/besf/portal/internal/data/pgxutil"
	"github.com/besf/portal/internal/domain/model"
	apperrors "github.com/besf/portal/internal/errors"
)

// EventRepo reads published events.
type EventRepo struct {
	db PgxPool
}

var _ core.EventRepository = (*EventRepo)(nil)

func NewEventRepo(db PgxPool) *EventRepo { return &EventRepo{db: db} }

const eventColumns = `id, title, description, event_date, location, is_published, created_at`

func scanEvent(row pgx.Row) (*model.Event, error) {
	var e model.Event
	if err := row.Scan(&e.ID, &e.Title, &e.Description, &e.EventDate, &e.Location, &e.IsPublished, &e.CreatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

// ListPublished returns published events by date, undated last.
func (r *EventRepo) ListPublished(ctx context.Context) ([]*model.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+eventColumns+` FROM events WHERE is_published ORDER BY event_date ASC NULLS LAST`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", apperrors.MapDBError(err))
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.Event, error) { return scanEvent(row) })
	if err != nil {
		return nil, fmt.Errorf("scan events: %w", err)
	}
	return out, nil
}

// GetPublished returns a published event; unpublished events are not found.
func (r *EventRepo) GetPublished(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(r.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1 AND is_published`, id))
	if err != nil {
		return nil, fmt.Errorf("get event: %w", apperrors.MapDBError(err))
	}
	return e, nil
}

// UserEventRepo stores member event registrations.
type UserEventRepo struct {
	db PgxPool
}

var _ core.UserEventRepository = (*UserEventRepo)(nil)

func NewUserEventRepo(db PgxPool) *UserEventRepo { return &UserEventRepo{db: db} }

func scanUserEvent(row pgx.Row) (*model.UserEvent, error) {
	var ue model.UserEvent
	if err := row.Scan(
		&ue.ID, &ue.UserID, &ue.EventID, &ue.EventTitle, &ue.Status, &ue.TeamName, &ue.Notes, &ue.RegisteredAt,
	); err != nil {
		return nil, err
	}
	return &ue, nil
}

const userEventSelect = `
		SELECT x.id, x.user_id, x.event_id, e.title, x.status, x.team_name, x.notes, x.registered_at
		FROM x JOIN events e ON e.id = x.event_id`

// ListByUser returns every registration of userID, newest first.
func (r *UserEventRepo) ListByUser(ctx context.Context, userID string) ([]*model.UserEvent, error) {
	rows, err := r.db.Query(ctx, `
		SELECT ue.id, ue.user_id, ue.event_id, e.title, ue.status, ue.team_name, ue.notes, ue.registered_at
		FROM user_events ue
		JOIN events e ON e.id = ue.event_id
		WHERE ue.user_id = $1
		ORDER BY ue.registered_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user events: %w", apperrors.MapDBError(err))
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.UserEvent, error) { return scanUserEvent(row) })
	if err != nil {
		return nil, fmt.Errorf("scan user events: %w", err)
	}
	return out, nil
}

// Create registers userID for an event. A cancelled registration is revived; an active
// one is a conflict.
func (r *UserEventRepo) Create(ctx context.Context, req model.UpsertUserEventRequest) (*model.UserEvent, error) {
	ue, err := scanUserEvent(r.db.QueryRow(ctx, `
		WITH x AS (
			INSERT INTO user_events (user_id, event_id, team_name, notes, status)
			VALUES ($1, $2, $3, $4, 'registered')
			ON CONFLICT (user_id, event_id) DO UPDATE
			SET status = 'registered', team_name = EXCLUDED.team_name, notes = EXCLUDED.notes, registered_at = now()
			WHERE user_events.status = 'cancelled'
			RETURNING id, user_id, event_id, status, team_name, notes, registered_at
		)`+userEventSelect,
		req.UserID, req.EventID, pgxutil.NullIfEmpty(req.TeamName), pgxutil.NullIfEmpty(req.Notes),
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ConflictField("event_id", apperrors.MsgAlreadyRegistered)
	}
	if err != nil {
		return nil, fmt.Errorf("create user event: %w", apperrors.MapDBError(err))
	}
	return ue, nil
}

// Update edits team name and notes of an active registration.
func (r *UserEventRepo) Update(ctx context.Context, req model.UpsertUserEventRequest) (*model.UserEvent, error) {
	ue, err := scanUserEvent(r.db.QueryRow(ctx, `
		WITH x AS (
			UPDATE user_events SET team_name = $3, notes = $4
			WHERE user_id = $1 AND event_id = $2 AND status = 'registered'
			RETURNING id, user_id, event_id, status, team_name, notes, registered_at
		)`+userEventSelect,
		req.UserID, req.EventID, pgxutil.NullIfEmpty(req.TeamName), pgxutil.NullIfEmpty(req.Notes),
	))
	if err != nil {
		return nil, fmt.Errorf("update user event: %w", apperrors.MapDBError(err))
	}
	return ue, nil
}

// Cancel marks an active registration cancelled. It reports false when none was active.
func (r *UserEventRepo) Cancel(ctx context.Context, userID, eventID string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE user_events SET status = 'cancelled'
		WHERE user_id = $1 AND event_id = $2 AND status = 'registered'`, userID, eventID)
	if err != nil {
		return false, fmt.Errorf("cancel user event: %w", apperrors.MapDBError(err))
	}
	return tag.RowsAffected() > 0, nil
}
