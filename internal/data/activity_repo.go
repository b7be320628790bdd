package data

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/besf/portal/internal/core"
	"github.com/besf/portal/internal/data/pgxutil"
	"github.com/besf/portal/internal/domain/model"
	apperrors "github.com/besf/portal/internal/errors"
)

// ActivityRepo appends to and reads the member activity log.
type ActivityRepo struct {
	db PgxPool
}

var _ core.ActivityRepository = (*ActivityRepo)(nil)

func NewActivityRepo(db PgxPool) *ActivityRepo { return &ActivityRepo{db: db} }

// Log appends one entry. Details are stored as JSON; nil stores NULL.
func (r *ActivityRepo) Log(ctx context.Context, req model.LogActivityRequest) error {
	var details []byte
	if req.Details != nil {
		b, err := json.Marshal(req.Details)
		if err != nil {
			return fmt.Errorf("marshal activity details: %w", err)
		}
		details = b
	}
	if _, err := r.db.Exec(ctx, `
		INSERT INTO activity_logs (user_id, action, resource_type, resource_id, details)
		VALUES ($1, $2, $3, $4, $5)`,
		req.UserID, req.Action, req.ResourceType, pgxutil.NullIfEmpty(req.ResourceID), details,
	); err != nil {
		return fmt.Errorf("log activity: %w", apperrors.MapDBError(err))
	}
	return nil
}

// ListRecent returns the latest entries of userID.
func (r *ActivityRepo) ListRecent(ctx context.Context, userID string, limit int) ([]*model.ActivityLog, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, action, resource_type, resource_id, details, created_at
		FROM activity_logs WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", apperrors.MapDBError(err))
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.ActivityLog, error) {
		var a model.ActivityLog
		if err := row.Scan(&a.ID, &a.UserID, &a.Action, &a.ResourceType, &a.ResourceID, &a.Details, &a.CreatedAt); err != nil {
			return nil, err
		}
		return &a, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan activity: %w", err)
	}
	return out, nil
}
