package data

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/besf/portal/internal/core"
	"github.com/besf/portal/internal/data/pgxutil"
	"github.com/besf/portal/internal/domain/model"
	apperrors "github.com/besf/portal/internal/errors"
)

// GameRepo reads the game catalogue.
type GameRepo struct {
	db PgxPool
}

var _ core.GameRepository = (*GameRepo)(nil)

func NewGameRepo(db PgxPool) *GameRepo { return &GameRepo{db: db} }

func scanGame(row pgx.Row) (*model.Game, error) {
	var g model.Game
	if err := row.Scan(&g.ID, &g.Name, &g.Description, &g.IsActive, &g.CreatedAt); err != nil {
		return nil, err
	}
	return &g, nil
}

// ListActive returns active games ordered by name.
func (r *GameRepo) ListActive(ctx context.Context) ([]*model.Game, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, description, is_active, created_at
		FROM games WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", apperrors.MapDBError(err))
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.Game, error) { return scanGame(row) })
	if err != nil {
		return nil, fmt.Errorf("scan games: %w", err)
	}
	return out, nil
}

// GetByID returns a game regardless of its active flag.
func (r *GameRepo) GetByID(ctx context.Context, id string) (*model.Game, error) {
	g, err := scanGame(r.db.QueryRow(ctx, `
		SELECT id, name, description, is_active, created_at FROM games WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get game: %w", apperrors.MapDBError(err))
	}
	return g, nil
}

// UserGameRepo stores member game registrations.
type UserGameRepo struct {
	db PgxPool
}

var _ core.UserGameRepository = (*UserGameRepo)(nil)

func NewUserGameRepo(db PgxPool) *UserGameRepo { return &UserGameRepo{db: db} }

func scanUserGame(row pgx.Row) (*model.UserGame, error) {
	var ug model.UserGame
	if err := row.Scan(
		&ug.ID, &ug.UserID, &ug.GameID, &ug.GameName, &ug.GamerTag, &ug.SkillLevel, &ug.IsActive, &ug.JoinedAt,
	); err != nil {
		return nil, err
	}
	return &ug, nil
}

// ListByUser returns the active registrations of userID, newest first.
func (r *UserGameRepo) ListByUser(ctx context.Context, userID string) ([]*model.UserGame, error) {
	rows, err := r.db.Query(ctx, `
		SELECT ug.id, ug.user_id, ug.game_id, g.name, ug.gamer_tag, ug.skill_level, ug.is_active, ug.joined_at
		FROM user_games ug
		JOIN games g ON g.id = ug.game_id
		WHERE ug.user_id = $1 AND ug.is_active
		ORDER BY ug.joined_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user games: %w", apperrors.MapDBError(err))
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.UserGame, error) { return scanUserGame(row) })
	if err != nil {
		return nil, fmt.Errorf("scan user games: %w", err)
	}
	return out, nil
}

// Upsert registers userID for a game, or updates and reactivates an existing registration.
func (r *UserGameRepo) Upsert(ctx context.Context, req model.UpsertUserGameRequest) (*model.UserGame, error) {
	ug, err := scanUserGame(r.db.QueryRow(ctx, `
		WITH up AS (
			INSERT INTO user_games (user_id, game_id, gamer_tag, skill_level, is_active)
			VALUES ($1, $2, $3, $4, true)
			ON CONFLICT (user_id, game_id) DO UPDATE
			SET gamer_tag = EXCLUDED.gamer_tag, skill_level = EXCLUDED.skill_level, is_active = true
			RETURNING id, user_id, game_id, gamer_tag, skill_level, is_active, joined_at
		)
		SELECT up.id, up.user_id, up.game_id, g.name, up.gamer_tag, up.skill_level, up.is_active, up.joined_at
		FROM up JOIN games g ON g.id = up.game_id`,
		req.UserID, req.GameID, pgxutil.NullIfEmpty(req.GamerTag), pgxutil.NullIfEmpty(req.SkillLevel),
	))
	if err != nil {
		return nil, fmt.Errorf("upsert user game: %w", apperrors.MapDBError(err))
	}
	return ug, nil
}

// Deactivate marks the registration inactive. It reports false when none was active.
func (r *UserGameRepo) Deactivate(ctx context.Context, userID, gameID string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE user_games SET is_active = false
		WHERE user_id = $1 AND game_id = $2 AND is_active`, userID, gameID)
	if err != nil {
		return false, fmt.Errorf("deactivate user game: %w", apperrors.MapDBError(err))
	}
	return tag.RowsAffected() > 0, nil
}
