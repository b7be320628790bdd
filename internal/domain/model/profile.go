//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"time"

	domainauth "github.com/besf/portal/internal/domain/auth"
)

// Profile is the member record owned by one authenticated user.
// Role is the backend-owned flag the Gate mirrors into isAdmin.
type Profile struct {
	ID        string          `json:"id"                   db:"id"`
	UserID    string          `json:"user_id"              db:"user_id"`
	Email     string          `json:"email"                db:"email"`
	Username  *string         `json:"username,omitempty"   db:"username"`
	FirstName *string         `json:"first_name,omitempty" db:"first_name"`
	LastName  *string         `json:"last_name,omitempty"  db:"last_name"`
	Role      domainauth.Role `json:"role"                 db:"role"`
	CreatedAt time.Time       `json:"created_at"           db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"           db:"updated_at"`
}

// DisplayName returns the best human label for the profile.
func (p *Profile) DisplayName() string {
	if p == nil {
		return ""
	}
	if p.FirstName != nil && *p.FirstName != "" {
		if p.LastName != nil && *p.LastName != "" {
			return *p.FirstName + " " + *p.LastName
		}
		return *p.FirstName
	}
	if p.Username != nil && *p.Username != "" {
		return *p.Username
	}
	return p.Email
}

// EnsureProfileRequest creates a profile on first sign-in when none exists.
type EnsureProfileRequest struct {
	UserID    string
	Email     string
	FirstName string
	LastName  string
	Role      domainauth.Role
}

// UpdateProfileRequest carries validated profile fields.
// Empty first/last names are stored as NULL.
type UpdateProfileRequest struct {
	Username  string
	FirstName string
	LastName  string
}

// Account is a password credential owned by one user.
type Account struct {
	UserID       string    `json:"user_id"    db:"user_id"`
	Email        string    `json:"email"      db:"email"`
	PasswordHash string    `json:"-"          db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
