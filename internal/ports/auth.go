// Package ports defines interfaces (hexagonal ports) for auth, session and
// throttling behavior. Implementations live in internal/adapters, internal/data
// and internal/ratelimit; orchestration in internal/service.
package ports

import (
	"context"
	"errors"
	"time"

	domainauth "github.com/besf/portal/internal/domain/auth"
)

// BeginInput carries inputs for initiating an auth flow.
type BeginInput struct {
	RedirectURL string
}

// AuthProvider initiates and completes an authentication flow against an IdP.
type AuthProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the login flow, verifying state and nonce, and returns the authenticated identity.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.Identity, error)
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// ErrSessionNotFound is returned by SessionStore.Get when a client has no session.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore persists the current session of each browser client.
// Get returns ErrSessionNotFound (wrapped) when the client has none.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, clientID string) (domainauth.Session, error)
	Delete(ctx context.Context, clientID string) error
}

// Subscription is a cancellable registration for session changes.
type Subscription interface {
	Unsubscribe() error
}

// SessionNotifier fans session changes out to the subscribers of each client.
type SessionNotifier interface {
	Publish(ctx context.Context, change domainauth.SessionChange) error
	Subscribe(clientID string, fn func(domainauth.SessionChange)) (Subscription, error)
}

// SessionSource is the Gate's view of the auth collaborator for one client.
type SessionSource interface {
	// CurrentSession returns the client's session, or nil when signed out.
	CurrentSession(ctx context.Context) (*domainauth.Session, error)
	// Subscribe registers fn for every subsequent change of this client's session.
	Subscribe(fn func(domainauth.SessionChange)) (Subscription, error)
	// SignOut invalidates the session server-side and announces it.
	SignOut(ctx context.Context) error
}

// RoleLookup reads the role column of the profile owned by userID.
// found is false when no profile row exists.
type RoleLookup interface {
	LookupRole(ctx context.Context, userID string) (role domainauth.Role, found bool, err error)
}

// RateLimiter is a sliding-window throttle shared by request handlers.
type RateLimiter interface {
	IsRateLimited(ctx context.Context, key string, maxAttempts int, window time.Duration) (bool, error)
	Reset(ctx context.Context, key string) error
}

// RoleMapper chooses the role a brand-new profile starts with.
type RoleMapper interface {
	Map(id domainauth.Identity) domainauth.Role
}
