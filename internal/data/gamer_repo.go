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

// GamerRepo writes the public gamer register.
type GamerRepo struct {
	db PgxPool
}

var _ core.GamerRepository = (*GamerRepo)(nil)

func NewGamerRepo(db PgxPool) *GamerRepo { return &GamerRepo{db: db} }

// Create inserts the gamer and their game links in one transaction.
func (r *GamerRepo) Create(ctx context.Context, req model.CreateGamerRequest) (*model.Gamer, error) {
	if len(req.Games) == 0 {
		return nil, errors.New("at least one game is required")
	}
	var g model.Gamer
	err := pgxutil.WithTx(ctx, r.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			INSERT INTO gamers (name, surname, omang_cipher, omang_digest, consent_given)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, name, surname, omang_cipher, consent_given, created_at`,
			req.Name, req.Surname, req.OmangCipher, req.OmangDigest, req.ConsentGiven,
		).Scan(&g.ID, &g.Name, &g.Surname, &g.OmangCipher, &g.ConsentGiven, &g.CreatedAt); err != nil {
			return fmt.Errorf("insert gamer: %w", err)
		}
		for _, link := range req.Games {
			if _, err := tx.Exec(ctx, `
				INSERT INTO gamer_games (gamer_id, game_id, gamer_id_for_game)
				VALUES ($1, $2, $3)`, g.ID, link.GameID, link.GamerID); err != nil {
				return fmt.Errorf("insert gamer game %s: %w", link.GameID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create gamer: %w", apperrors.MapDBError(err))
	}
	return &g, nil
}
