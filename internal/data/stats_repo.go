package data

import (
	"context"
	"fmt"

	"github.com/besf/portal/internal/core"
	apperrors "github.com/besf/portal/internal/errors"
)

// StatsRepo counts rows for the admin dashboard.
type StatsRepo struct {
	db PgxPool
}

var _ core.StatsRepository = (*StatsRepo)(nil)

func NewStatsRepo(db PgxPool) *StatsRepo { return &StatsRepo{db: db} }

func (r *StatsRepo) count(ctx context.Context, what, query string) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", what, apperrors.MapDBError(err))
	}
	return n, nil
}

func (r *StatsRepo) CountProfiles(ctx context.Context) (int, error) {
	return r.count(ctx, "profiles", `SELECT count(*) FROM profiles`)
}

func (r *StatsRepo) CountGamers(ctx context.Context) (int, error) {
	return r.count(ctx, "gamers", `SELECT count(*) FROM gamers`)
}

func (r *StatsRepo) CountEvents(ctx context.Context) (int, error) {
	return r.count(ctx, "events", `SELECT count(*) FROM events WHERE is_published`)
}

func (r *StatsRepo) CountGameRegistrations(ctx context.Context) (int, error) {
	return r.count(ctx, "game registrations", `SELECT count(*) FROM user_games WHERE is_active`)
}

func (r *StatsRepo) CountEventRegistrations(ctx context.Context) (int, error) {
	return r.count(ctx, "event registrations", `SELECT count(*) FROM user_events WHERE status = 'registered'`)
}
