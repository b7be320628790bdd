// Package auth contains domain-level types for authentication, sessions and the
// per-client authorization gate. It is pure and free of framework/adapter concerns.
package auth

import "time"

// Role is the value stored in a profile's role column.
// Only RoleAdmin grants anything; every other value is treated as an ordinary member.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// IsAdmin reports whether r is exactly the admin role.
func (r Role) IsAdmin() bool { return r == RoleAdmin }

// Identity is the authenticated principal behind a Session.
// Adapters map provider-specific claims into this shape.
type Identity struct {
	UserID    string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	// Groups are provider group memberships; only used to seed the initial profile role.
	Groups []string `json:"-"`
	// ExpiresAt is the absolute expiry reported by the identity provider, if any.
	ExpiresAt time.Time `json:"-"`
}

// Session is the credential bundle held for one browser client.
// ClientID ties it to the client cookie; AccessToken is a signed bearer token
// that must still verify for the session to count.
type Session struct {
	ID          string    `json:"id"`
	ClientID    string    `json:"client_id"`
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name,omitempty"`
	LastName    string    `json:"last_name,omitempty"`
	AccessToken string    `json:"access_token"`
	IssuedAt    time.Time `json:"issued_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Identity returns the principal carried by the session.
func (s Session) Identity() Identity {
	return Identity{
		UserID:    s.UserID,
		Email:     s.Email,
		FirstName: s.FirstName,
		LastName:  s.LastName,
		ExpiresAt: s.ExpiresAt,
	}
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// ChangeKind names a session lifecycle notification.
type ChangeKind string

const (
	ChangeSignedIn       ChangeKind = "SIGNED_IN"
	ChangeSignedOut      ChangeKind = "SIGNED_OUT"
	ChangeTokenRefreshed ChangeKind = "TOKEN_REFRESHED"
	ChangeUserUpdated    ChangeKind = "USER_UPDATED"
)

// SessionChange is pushed to subscribers whenever a client's session changes.
// Session is nil for sign-out.
type SessionChange struct {
	Kind     ChangeKind `json:"kind"`
	ClientID string     `json:"client_id"`
	Session  *Session   `json:"session,omitempty"`
	At       time.Time  `json:"at"`
}

// GateState is a read-only snapshot of one client's authorization state.
type GateState struct {
	Session  *Session  `json:"-"`
	Identity *Identity `json:"user,omitempty"`
	IsAdmin  bool      `json:"is_admin"`
	Loading  bool      `json:"loading"`
}

// IsAuthenticated is true exactly when an Identity is present.
func (s GateState) IsAuthenticated() bool { return s.Identity != nil }
