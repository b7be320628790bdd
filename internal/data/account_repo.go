package data

import (
	"context"
	"fmt"

	"github.com/besf/portal/internal/core"
	"github.com/besf/portal/internal/domain/model"
	apperrors "github.com/besf/portal/internal/errors"
)

// AccountRepo stores password credentials for email sign-in.
type AccountRepo struct {
	db PgxPool
}

var _ core.AccountRepository = (*AccountRepo)(nil)

func NewAccountRepo(db PgxPool) *AccountRepo { return &AccountRepo{db: db} }

// Create inserts an account. A duplicate email maps to a conflict.
func (r *AccountRepo) Create(ctx context.Context, acct model.Account) (*model.Account, error) {
	out := acct
	err := r.db.QueryRow(ctx, `
		INSERT INTO accounts (user_id, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING created_at`,
		acct.UserID, acct.Email, acct.PasswordHash,
	).Scan(&out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create account: %w", apperrors.MapDBError(err))
	}
	return &out, nil
}

// GetByEmail finds the account for a normalized email.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	var a model.Account
	err := r.db.QueryRow(ctx, `
		SELECT user_id, email, password_hash, created_at
		FROM accounts WHERE lower(email) = lower($1)`, email,
	).Scan(&a.UserID, &a.Email, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", apperrors.MapDBError(err))
	}
	return &a, nil
}
