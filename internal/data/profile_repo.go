package data

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/besf/portal/internal/core"
	"github.com/besf/portal/internal/data/pgxutil"
	domainauth "github.com/besf/portal/internal/domain/auth"
	"github.com/besf/portal/internal/domain/model"
	apperrors "github.com/besf/portal/internal/errors"
)

const profileColumns = `id, user_id, email, username, first_name, last_name, role, created_at, updated_at`

// ProfileRepo stores member profiles. It also answers the Gate's role lookups.
type ProfileRepo struct {
	db PgxPool
}

var _ core.ProfileRepository = (*ProfileRepo)(nil)

// NewProfileRepo creates a ProfileRepo.
func NewProfileRepo(db PgxPool) *ProfileRepo { return &ProfileRepo{db: db} }

func scanProfile(row pgx.Row) (*model.Profile, error) {
	var p model.Profile
	if err := row.Scan(
		&p.ID, &p.UserID, &p.Email, &p.Username, &p.FirstName, &p.LastName,
		&p.Role, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByUserID returns the profile owned by userID.
func (r *ProfileRepo) GetByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	p, err := scanProfile(r.db.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, userID))
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", apperrors.MapDBError(err))
	}
	return p, nil
}

// GetByEmail finds a profile by case-insensitive email.
func (r *ProfileRepo) GetByEmail(ctx context.Context, email string) (*model.Profile, error) {
	p, err := scanProfile(r.db.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE lower(email) = lower($1)`, email))
	if err != nil {
		return nil, fmt.Errorf("get profile by email: %w", apperrors.MapDBError(err))
	}
	return p, nil
}

// Ensure creates the profile on first sign-in. An existing row keeps its role and names;
// only the email is refreshed.
func (r *ProfileRepo) Ensure(ctx context.Context, req model.EnsureProfileRequest) (*model.Profile, error) {
	if req.UserID == "" {
		return nil, apperrors.ValidationField("user_id", "user id is required")
	}
	role := req.Role
	if role == "" {
		role = domainauth.RoleUser
	}
	p, err := scanProfile(r.db.QueryRow(ctx, `
		INSERT INTO profiles (user_id, email, first_name, last_name, role)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET email = EXCLUDED.email
		RETURNING `+profileColumns,
		req.UserID, req.Email, pgxutil.NullIfEmpty(req.FirstName), pgxutil.NullIfEmpty(req.LastName), role,
	))
	if err != nil {
		return nil, fmt.Errorf("ensure profile: %w", apperrors.MapDBError(err))
	}
	return p, nil
}

// Update writes the editable profile fields of userID.
func (r *ProfileRepo) Update(ctx context.Context, userID string, req model.UpdateProfileRequest) (*model.Profile, error) {
	p, err := scanProfile(r.db.QueryRow(ctx, `
		UPDATE profiles
		SET username = $2, first_name = $3, last_name = $4, updated_at = now()
		WHERE user_id = $1
		RETURNING `+profileColumns,
		userID, req.Username, pgxutil.NullIfEmpty(req.FirstName), pgxutil.NullIfEmpty(req.LastName),
	))
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", apperrors.MapDBError(err))
	}
	return p, nil
}

// SetRole changes the role of userID.
func (r *ProfileRepo) SetRole(ctx context.Context, userID string, role domainauth.Role) (*model.Profile, error) {
	p, err := scanProfile(r.db.QueryRow(ctx, `
		UPDATE profiles SET role = $2, updated_at = now()
		WHERE user_id = $1
		RETURNING `+profileColumns,
		userID, role,
	))
	if err != nil {
		return nil, fmt.Errorf("set role: %w", apperrors.MapDBError(err))
	}
	return p, nil
}

// List returns profiles newest first.
func (r *ProfileRepo) List(ctx context.Context, limit, offset int) ([]*model.Profile, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+profileColumns+` FROM profiles ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", apperrors.MapDBError(err))
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.Profile, error) {
		return scanProfile(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan profiles: %w", err)
	}
	return out, nil
}

// LookupRole reads only the role column. found is false when no profile exists.
func (r *ProfileRepo) LookupRole(ctx context.Context, userID string) (domainauth.Role, bool, error) {
	var role domainauth.Role
	err := r.db.QueryRow(ctx, `SELECT role FROM profiles WHERE user_id = $1`, userID).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup role: %w", apperrors.MapDBError(err))
	}
	return role, true, nil
}
