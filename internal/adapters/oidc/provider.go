// Package oidc signs members in through an OpenID Connect identity provider.
package oidc

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	domainauth "github.com/besf/portal/internal/domain/auth"
	"github.com/besf/portal/internal/ports"
)

// Provider implements ports.AuthProvider using OIDC/OAuth2.
type Provider struct {
	config     *oauth2.Config
	logoutURL  string
	httpClient *http.Client

	oidcProvider *gooidc.Provider
	verifier     *gooidc.IDTokenVerifier
}

var _ ports.AuthProvider = (*Provider)(nil)

// ProviderConfig holds configuration for the OIDC provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scope        string
	DiscoveryURL string
	LogoutURL    string
	HTTPClient   *http.Client // Optional, defaults to a 30s client
}

// DiscoveryDocument is the subset of the OIDC discovery document the provider reads.
type DiscoveryDocument struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserinfoEndpoint      string `json:"userinfo_endpoint"`
	JwksURI               string `json:"jwks_uri"`
}

// NewProvider fetches discovery once and builds the OAuth2 client.
func NewProvider(ctx context.Context, config ProviderConfig) (*Provider, error) {
	if config.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if config.ClientSecret == "" {
		return nil, errors.New("client secret is required")
	}
	if config.RedirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}
	if config.DiscoveryURL == "" {
		return nil, errors.New("discovery URL is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	ctx = gooidc.ClientContext(ctx, httpClient)
	issuer := strings.TrimSuffix(config.DiscoveryURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	op, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}

	return &Provider{
		logoutURL:    config.LogoutURL,
		httpClient:   httpClient,
		oidcProvider: op,
		verifier:     op.Verifier(&gooidc.Config{ClientID: config.ClientID}),
		config: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.RedirectURL,
			Scopes:       strings.Fields(config.Scope),
			Endpoint:     op.Endpoint(),
		},
	}, nil
}

// LogoutURL is the IdP end-session URL, empty when not configured.
func (p *Provider) LogoutURL() string { return p.logoutURL }

func (p *Provider) Begin(_ context.Context, in ports.BeginInput) (string, string, string, error) {
	if in.RedirectURL == "" {
		return "", "", "", errors.New("redirect URL is required")
	}
	state, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}
	// redirect_uri stays the configured RedirectURL; in.RedirectURL is where the
	// handler sends the member after the callback.
	authURL := p.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("nonce", nonce),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
	return authURL, state, nonce, nil
}

func (p *Provider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if in.Code == "" {
		return domainauth.Identity{}, errors.New("authorization code is required")
	}
	if in.State == "" {
		return domainauth.Identity{}, errors.New("state is required")
	}
	if in.Nonce == "" {
		return domainauth.Identity{}, errors.New("nonce is required")
	}

	ctx = gooidc.ClientContext(ctx, p.httpClient)
	token, err := p.config.Exchange(ctx, in.Code)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("exchange code for token: %w", err)
	}

	fields, err := p.extractFromIDToken(ctx, token, in.Nonce)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("extract id_token: %w", err)
	}
	if fields.email == "" || fields.userID == "" {
		if fillErr := p.fillFromUserInfo(ctx, token, &fields); fillErr != nil {
			return domainauth.Identity{}, fmt.Errorf("get user info: %w", fillErr)
		}
	}
	if fields.userID == "" || fields.email == "" {
		return domainauth.Identity{}, errors.New("identity provider returned no subject or email")
	}

	expiresAt := time.Now().Add(time.Hour)
	if !token.Expiry.IsZero() {
		expiresAt = token.Expiry
	}
	return domainauth.Identity{
		UserID:    "oidc|" + fields.userID,
		Email:     strings.ToLower(fields.email),
		FirstName: fields.givenName,
		LastName:  fields.familyName,
		Groups:    fields.groups,
		ExpiresAt: expiresAt,
	}, nil
}

// claims covers the standard OIDC profile claims plus the common "groups" extension.
type claims struct {
	Subject    string   `json:"sub"`
	Email      string   `json:"email"`
	GivenName  string   `json:"given_name"`
	FamilyName string   `json:"family_name"`
	Groups     []string `json:"groups"`
	Nonce      string   `json:"nonce"`
}

type idFields struct {
	userID     string
	email      string
	givenName  string
	familyName string
	groups     []string
}

func (p *Provider) extractFromIDToken(ctx context.Context, tok *oauth2.Token, expectedNonce string) (idFields, error) {
	if !slices.Contains(p.config.Scopes, gooidc.ScopeOpenID) {
		return idFields{}, nil
	}
	rawID, err := getIDTokenFromToken(tok)
	if err != nil {
		return idFields{}, err
	}
	idTok, err := p.verifier.Verify(ctx, rawID)
	if err != nil {
		return idFields{}, fmt.Errorf("verify id_token: %w", err)
	}
	var c claims
	if claimsErr := idTok.Claims(&c); claimsErr != nil {
		return idFields{}, fmt.Errorf("parse id_token claims: %w", claimsErr)
	}
	if expectedNonce != "" && c.Nonce != expectedNonce {
		return idFields{}, errors.New("invalid nonce")
	}
	return fieldsFromClaims(c), nil
}

func (p *Provider) fillFromUserInfo(ctx context.Context, tok *oauth2.Token, f *idFields) error {
	ui, err := p.oidcProvider.UserInfo(ctx, oauth2.StaticTokenSource(tok))
	if err != nil {
		return fmt.Errorf("fetch user info: %w", err)
	}
	var c claims
	if claimsErr := ui.Claims(&c); claimsErr != nil {
		return fmt.Errorf("decode user info: %w", claimsErr)
	}
	mergeMissing(f, fieldsFromClaims(c))
	return nil
}

func fieldsFromClaims(c claims) idFields {
	return idFields{
		userID:     c.Subject,
		email:      c.Email,
		givenName:  c.GivenName,
		familyName: c.FamilyName,
		groups:     c.Groups,
	}
}

// mergeMissing copies into f only the fields f does not have yet.
func mergeMissing(f *idFields, from idFields) {
	if f.userID == "" {
		f.userID = from.userID
	}
	if f.email == "" {
		f.email = from.email
	}
	if f.givenName == "" {
		f.givenName = from.givenName
	}
	if f.familyName == "" {
		f.familyName = from.familyName
	}
	if len(f.groups) == 0 {
		f.groups = from.groups
	}
}

// generateRandomString generates a URL-safe random string of exact length.
func generateRandomString(length int) (string, error) {
	if length <= 0 {
		return "", nil
	}
	b := make([]byte, (length*3+3)/4+1)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b)[:length], nil
}

func getIDTokenFromToken(tok *oauth2.Token) (string, error) {
	if tok == nil {
		return "", errors.New("nil token")
	}
	s, ok := tok.Extra("id_token").(string)
	if !ok || s == "" {
		return "", errors.New("missing id_token in token response")
	}
	return s, nil
}
