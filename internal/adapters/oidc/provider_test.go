package oidc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/besf/portal/internal/ports"
)

// fakeIdP serves discovery, token and userinfo endpoints.
func fakeIdP(t *testing.T, userinfo map[string]any) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(DiscoveryDocument{
			Issuer:                srv.URL,
			AuthorizationEndpoint: srv.URL + "/authorize",
			TokenEndpoint:         srv.URL + "/token",
			UserinfoEndpoint:      srv.URL + "/userinfo",
			JwksURI:               srv.URL + "/jwks",
		})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		if r.PostForm.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-1","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(userinfo)
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestProvider(t *testing.T, srv *httptest.Server, scope string) *Provider {
	t.Helper()
	p, err := NewProvider(context.Background(), ProviderConfig{
		ClientID:     "besf-portal",
		ClientSecret: "test-secret",
		RedirectURL:  "http://localhost:8080/auth/callback",
		Scope:        scope,
		DiscoveryURL: srv.URL + "/.well-known/openid-configuration",
		LogoutURL:    srv.URL + "/logout",
	})
	require.NoError(t, err)
	return p
}

func TestNewProvider_Discovery(t *testing.T) {
	srv := fakeIdP(t, nil)
	p := newTestProvider(t, srv, "openid profile email")
	assert.Equal(t, srv.URL+"/authorize", p.config.Endpoint.AuthURL)
	assert.Equal(t, srv.URL+"/token", p.config.Endpoint.TokenURL)
	assert.Equal(t, srv.URL+"/logout", p.LogoutURL())
}

func TestNewProvider_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		config ProviderConfig
		errMsg string
	}{
		{"missing client ID", ProviderConfig{ClientSecret: "s", RedirectURL: "http://x/cb", DiscoveryURL: "http://x"}, "client ID is required"},
		{"missing client secret", ProviderConfig{ClientID: "c", RedirectURL: "http://x/cb", DiscoveryURL: "http://x"}, "client secret is required"},
		{"missing redirect URL", ProviderConfig{ClientID: "c", ClientSecret: "s", DiscoveryURL: "http://x"}, "redirect URL is required"},
		{"missing discovery URL", ProviderConfig{ClientID: "c", ClientSecret: "s", RedirectURL: "http://x/cb"}, "discovery URL is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProvider(context.Background(), tt.config)
			require.ErrorContains(t, err, tt.errMsg)
		})
	}
}

func TestProvider_Begin(t *testing.T) {
	p := newTestProvider(t, fakeIdP(t, nil), "openid profile email")

	authURL, state, nonce, err := p.Begin(context.Background(), ports.BeginInput{RedirectURL: "/profile"})
	require.NoError(t, err)
	assert.Len(t, state, 32)
	assert.Len(t, nonce, 32)
	assert.True(t, strings.HasSuffix(strings.SplitN(authURL, "?", 2)[0], "/authorize"))
	assert.Contains(t, authURL, "client_id=besf-portal")
	assert.Contains(t, authURL, "state="+state)
	assert.Contains(t, authURL, "nonce="+nonce)

	_, _, _, err = p.Begin(context.Background(), ports.BeginInput{})
	require.ErrorContains(t, err, "redirect URL is required")
}

func TestProvider_Exchange_ValidationErrors(t *testing.T) {
	p := newTestProvider(t, fakeIdP(t, nil), "openid")
	tests := []struct {
		name   string
		input  ports.ExchangeInput
		errMsg string
	}{
		{"missing code", ports.ExchangeInput{State: "s", Nonce: "n"}, "authorization code is required"},
		{"missing state", ports.ExchangeInput{Code: "c", Nonce: "n"}, "state is required"},
		{"missing nonce", ports.ExchangeInput{Code: "c", State: "s"}, "nonce is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Exchange(context.Background(), tt.input)
			require.ErrorContains(t, err, tt.errMsg)
		})
	}
}

func TestProvider_Exchange_UserInfoFlow(t *testing.T) {
	srv := fakeIdP(t, map[string]any{
		"sub":         "abc-123",
		"email":       "Mpho@Example.com",
		"given_name":  "Mpho",
		"family_name": "Kgosi",
		"groups":      []string{"besf-admins"},
	})
	p := newTestProvider(t, srv, "profile email")

	id, err := p.Exchange(context.Background(), ports.ExchangeInput{Code: "good-code", State: "s", Nonce: "n"})
	require.NoError(t, err)
	assert.Equal(t, "oidc|abc-123", id.UserID)
	assert.Equal(t, "mpho@example.com", id.Email)
	assert.Equal(t, "Mpho", id.FirstName)
	assert.Equal(t, []string{"besf-admins"}, id.Groups)
	assert.False(t, id.ExpiresAt.IsZero())
}

func TestProvider_Exchange_Failures(t *testing.T) {
	srv := fakeIdP(t, map[string]any{"sub": "abc-123"})
	p := newTestProvider(t, srv, "profile")

	_, err := p.Exchange(context.Background(), ports.ExchangeInput{Code: "bad-code", State: "s", Nonce: "n"})
	require.ErrorContains(t, err, "exchange code for token")

	_, err = p.Exchange(context.Background(), ports.ExchangeInput{Code: "good-code", State: "s", Nonce: "n"})
	require.ErrorContains(t, err, "no subject or email")

	withOpenID := newTestProvider(t, srv, "openid profile")
	_, err = withOpenID.Exchange(context.Background(), ports.ExchangeInput{Code: "good-code", State: "s", Nonce: "n"})
	require.ErrorContains(t, err, "missing id_token")
}

func TestGenerateRandomString(t *testing.T) {
	a, err := generateRandomString(16)
	require.NoError(t, err)
	assert.Len(t, a, 16)
	b, err := generateRandomString(16)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	empty, err := generateRandomString(0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGetIDTokenFromToken(t *testing.T) {
	tok := (&oauth2.Token{}).WithExtra(map[string]any{"id_token": "abc.def.ghi"})
	raw, err := getIDTokenFromToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", raw)

	_, err = getIDTokenFromToken((&oauth2.Token{}).WithExtra(map[string]any{"x": "y"}))
	require.ErrorContains(t, err, "missing id_token")
	_, err = getIDTokenFromToken(nil)
	require.ErrorContains(t, err, "nil token")
}

func TestMergeMissing(t *testing.T) {
	f := idFields{userID: "keep", groups: []string{"x"}}
	mergeMissing(&f, idFields{userID: "other", email: "e@example.com", givenName: "G", groups: []string{"y"}})
	assert.Equal(t, "keep", f.userID)
	assert.Equal(t, "e@example.com", f.email)
	assert.Equal(t, "G", f.givenName)
	assert.Equal(t, []string{"x"}, f.groups)
}
