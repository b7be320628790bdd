package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/besf/portal/internal/domain/auth"
	"github.com/besf/portal/internal/ports"
)

func TestMockAuthProvider_Begin_Defaults(t *testing.T) {
	provider := NewMockAuthProvider()
	ctx := context.Background()
	input := ports.BeginInput{RedirectURL: "/profile"}

	authURL, state, nonce, err := provider.Begin(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "https://mock-idp/auth", authURL)
	assert.Equal(t, "state-1", state)
	assert.Equal(t, "nonce-1", nonce)

	_, state2, nonce2, err := provider.Begin(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "state-2", state2)
	assert.Equal(t, "nonce-2", nonce2)
}

func TestMockAuthProvider_Overrides(t *testing.T) {
	provider := &MockAuthProvider{
		ExchangeFunc: func(context.Context, ports.ExchangeInput) (domainauth.Identity, error) {
			return domainauth.Identity{}, errors.New("idp down")
		},
	}
	_, err := provider.Exchange(context.Background(), ports.ExchangeInput{Code: "c"})
	require.EqualError(t, err, "idp down")

	id, err := (&MockAuthProvider{}).Exchange(context.Background(), ports.ExchangeInput{})
	require.NoError(t, err)
	assert.Equal(t, "mock-user-1", id.UserID)
	assert.False(t, id.ExpiresAt.IsZero())
}

func TestMemorySessionStore(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	require.Error(t, store.Save(ctx, domainauth.Session{}))
	require.NoError(t, store.Save(ctx, domainauth.Session{ClientID: "c1", UserID: "u1"}))
	assert.Equal(t, 1, store.Len())

	got, err := store.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)

	require.NoError(t, store.Delete(ctx, "c1"))
	_, err = store.Get(ctx, "c1")
	require.ErrorIs(t, err, ports.ErrSessionNotFound)
}

func TestRoleTable(t *testing.T) {
	roles := NewRoleTable()
	roles.Set("u1", domainauth.RoleAdmin)

	role, found, err := roles.LookupRole(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, domainauth.RoleAdmin, role)

	_, found, err = roles.LookupRole(context.Background(), "u2")
	require.NoError(t, err)
	assert.False(t, found)

	roles.Fail(errors.New("db down"))
	_, _, err = roles.LookupRole(context.Background(), "u1")
	require.Error(t, err)
}
