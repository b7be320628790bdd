// Package auth contains hand-written in-memory doubles for the auth ports,
// for tests that need working state rather than call expectations.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domainauth "github.com/besf/portal/internal/domain/auth"
	"github.com/besf/portal/internal/ports"
)

var (
	_ ports.AuthProvider = (*MockAuthProvider)(nil)
	_ ports.SessionStore = (*MemorySessionStore)(nil)
	_ ports.RoleLookup   = (*RoleTable)(nil)
)

// MockAuthProvider simulates an IdP with deterministic state and nonce values.
type MockAuthProvider struct {
	BeginFunc    func(ctx context.Context, in ports.BeginInput) (authURL, state, nonce string, err error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error)

	AuthURL     string
	StatePrefix string
	NoncePrefix string
	DefaultUser domainauth.Identity

	mu        sync.Mutex
	callCount int
}

// NewMockAuthProvider creates a MockAuthProvider with sensible defaults.
func NewMockAuthProvider() *MockAuthProvider {
	return &MockAuthProvider{
		AuthURL:     "https://mock-idp/auth",
		StatePrefix: "state",
		NoncePrefix: "nonce",
		DefaultUser: domainauth.Identity{
			UserID:    "mock-user-1",
			FirstName: "Mock",
			LastName:  "User",
			Email:     "mock.user@example.com",
		},
	}
}

func (m *MockAuthProvider) Begin(ctx context.Context, in ports.BeginInput) (string, string, string, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, in)
	}
	m.mu.Lock()
	m.callCount++
	n := m.callCount
	m.mu.Unlock()

	authURL := cmp(m.AuthURL, "https://mock-idp/auth")
	state := fmt.Sprintf("%s-%d", cmp(m.StatePrefix, "state"), n)
	nonce := fmt.Sprintf("%s-%d", cmp(m.NoncePrefix, "nonce"), n)
	return authURL, state, nonce, nil
}

func (m *MockAuthProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}
	user := m.DefaultUser
	if user.UserID == "" {
		user = domainauth.Identity{UserID: "mock-user-1", Email: "mock.user@example.com"}
	}
	user.ExpiresAt = time.Now().Add(time.Hour)
	return user, nil
}

func cmp(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// MemorySessionStore keeps sessions by client ID.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]domainauth.Session
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]domainauth.Session)}
}

func (m *MemorySessionStore) Save(_ context.Context, sess domainauth.Session) error {
	if sess.ClientID == "" {
		return errors.New("session client ID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ClientID] = sess
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, clientID string) (domainauth.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[clientID]
	if !ok {
		return domainauth.Session{}, ports.ErrSessionNotFound
	}
	return sess, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, clientID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, clientID)
	return nil
}

// Len reports how many clients hold a session.
func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// RoleTable answers role lookups from a map. Err, when set, fails every lookup.
type RoleTable struct {
	mu    sync.Mutex
	roles map[string]domainauth.Role
	Err   error
}

// NewRoleTable creates an empty RoleTable.
func NewRoleTable() *RoleTable {
	return &RoleTable{roles: make(map[string]domainauth.Role)}
}

// Set records the role of userID.
func (r *RoleTable) Set(userID string, role domainauth.Role) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roles[userID] = role
}

// Fail makes every later lookup return err; nil restores normal lookups.
func (r *RoleTable) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Err = err
}

func (r *RoleTable) LookupRole(_ context.Context, userID string) (domainauth.Role, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return "", false, r.Err
	}
	role, ok := r.roles[userID]
	return role, ok, nil
}
