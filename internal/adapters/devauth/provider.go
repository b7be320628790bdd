// Package devauth provides a config-driven AuthProvider for local development.
package devauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"time"

	domainauth "github.com/besf/portal/internal/domain/auth"
	"github.com/besf/portal/internal/ports"
)

// Config controls the dev auth provider behavior.
// UserID and Email are required.
type Config struct {
	UserID          string
	Email           string
	FirstName       string
	LastName        string
	Groups          []string
	SessionDuration time.Duration // default 8h when zero
	Now             func() time.Time
}

// Provider implements ports.AuthProvider for local development.
// Begin short-circuits the IdP by pointing straight at our own callback;
// Exchange ignores the code and returns the configured identity.
type Provider struct {
	identity        domainauth.Identity
	sessionDuration time.Duration
	now             func() time.Time
}

var _ ports.AuthProvider = (*Provider)(nil)

// NewProvider constructs a dev auth provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.UserID == "" {
		return nil, errors.New("dev auth: UserID is required")
	}
	if cfg.Email == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	dur := cfg.SessionDuration
	if dur <= 0 {
		dur = 8 * time.Hour
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Provider{
		identity: domainauth.Identity{
			UserID:    "dev|" + cfg.UserID,
			Email:     cfg.Email,
			FirstName: cfg.FirstName,
			LastName:  cfg.LastName,
			Groups:    append([]string(nil), cfg.Groups...),
		},
		sessionDuration: dur,
		now:             now,
	}, nil
}

// Begin returns a local callback URL with fresh state and nonce.
func (p *Provider) Begin(_ context.Context, _ ports.BeginInput) (string, string, string, error) {
	state, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}
	q := url.Values{"code": {"dev"}, "state": {state}}
	return "/auth/callback?" + q.Encode(), state, nonce, nil
}

// Exchange returns the configured identity with a fresh expiry. State and nonce
// checks belong to the callback handler.
func (p *Provider) Exchange(_ context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if in.Code == "" {
		return domainauth.Identity{}, errors.New("authorization code is required")
	}
	id := p.identity
	id.Groups = append([]string(nil), p.identity.Groups...)
	id.ExpiresAt = p.now().Add(p.sessionDuration)
	return id, nil
}

func randomString(n int) (string, error) {
	b := make([]byte, (n*3+3)/4+1)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b)[:n], nil
}
