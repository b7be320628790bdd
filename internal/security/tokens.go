// Package security issues session access tokens and hashes passwords.
package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultIssuer = "besf-portal"

// ErrInvalidToken wraps every token verification failure.
var ErrInvalidToken = errors.New("invalid access token")

// AccessClaims are the claims carried by a session access token.
type AccessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenConfig configures a TokenManager.
type TokenConfig struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
	Leeway time.Duration
	Now    func() time.Time
}

// TokenManager signs and verifies HS256 access tokens.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	leeway time.Duration
	now    func() time.Time
}

// NewTokenManager validates cfg and returns a TokenManager.
func NewTokenManager(cfg TokenConfig) (*TokenManager, error) {
	if len(cfg.Secret) < 32 {
		return nil, errors.New("token secret must be at least 32 bytes")
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("token TTL must be positive")
	}
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = defaultIssuer
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &TokenManager{
		secret: append([]byte(nil), cfg.Secret...),
		issuer: issuer,
		ttl:    cfg.TTL,
		leeway: cfg.Leeway,
		now:    now,
	}, nil
}

// TTL is the lifetime of issued tokens.
func (m *TokenManager) TTL() time.Duration { return m.ttl }

// Issue signs a token for userID and returns it with its expiry.
func (m *TokenManager) Issue(userID, email string) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, errors.New("user ID is required")
	}
	now := m.now()
	exp := now.Add(m.ttl)
	claims := AccessClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, exp, nil
}

// Parse verifies the signature, algorithm, issuer and expiry and returns the claims.
func (m *TokenManager) Parse(token string) (*AccessClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(m.leeway),
		jwt.WithTimeFunc(m.now),
	)
	claims := &AccessClaims{}
	if _, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}

// Verify returns the subject of a valid token.
func (m *TokenManager) Verify(token string) (string, error) {
	claims, err := m.Parse(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}
