package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/besf/portal/internal/domain/auth"
	"github.com/besf/portal/internal/ports"
	"github.com/besf/portal/internal/testutil"
)

func testSession(clientID string, ttl time.Duration) domainauth.Session {
	now := time.Now()
	return domainauth.Session{
		ID:          "sess-1",
		ClientID:    clientID,
		UserID:      "user-123",
		Email:       "user@example.com",
		AccessToken: "tok",
		IssuedAt:    now,
		ExpiresAt:   now.Add(ttl),
	}
}

func TestSessionStore_SaveAndGet(t *testing.T) {
	mr, client := testutil.NewMiniRedis(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	session := testSession("client-1", 30*time.Minute)
	require.NoError(t, store.Save(ctx, session))
	assert.True(t, mr.Exists("session:client-1"))

	retrieved, err := store.Get(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, session.UserID, retrieved.UserID)
	assert.Equal(t, session.Email, retrieved.Email)
	assert.Equal(t, session.AccessToken, retrieved.AccessToken)
	assert.WithinDuration(t, session.ExpiresAt, retrieved.ExpiresAt, time.Second)
	assert.Greater(t, mr.TTL("session:client-1"), 29*time.Minute)
}

func TestSessionStore_GetNonExistent(t *testing.T) {
	_, client := testutil.NewMiniRedis(t)
	store := NewSessionStore(client)

	_, err := store.Get(context.Background(), "nobody")
	require.ErrorIs(t, err, ports.ErrSessionNotFound)
	_, err = store.Get(context.Background(), "")
	require.ErrorIs(t, err, ports.ErrSessionNotFound)
}

func TestSessionStore_SaveReplacesClientSession(t *testing.T) {
	_, client := testutil.NewMiniRedis(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	first := testSession("client-1", time.Hour)
	require.NoError(t, store.Save(ctx, first))
	second := first
	second.ID = "sess-2"
	second.UserID = "user-456"
	require.NoError(t, store.Save(ctx, second))

	got, err := store.Get(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, "user-456", got.UserID)
}

func TestSessionStore_Delete(t *testing.T) {
	_, client := testutil.NewMiniRedis(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSession("client-1", time.Hour)))
	require.NoError(t, store.Delete(ctx, "client-1"))
	_, err := store.Get(ctx, "client-1")
	require.ErrorIs(t, err, ports.ErrSessionNotFound)

	require.NoError(t, store.Delete(ctx, "client-1"))
	require.NoError(t, store.Delete(ctx, ""))
}

func TestSessionStore_RejectsInvalid(t *testing.T) {
	_, client := testutil.NewMiniRedis(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	require.Error(t, store.Save(ctx, testSession("", time.Hour)))
	require.Error(t, store.Save(ctx, testSession("client-1", -time.Minute)))
}

func TestSessionStore_ExpiredPayloadIsRemoved(t *testing.T) {
	mr, client := testutil.NewMiniRedis(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSession("client-1", time.Hour)))
	store.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err := store.Get(ctx, "client-1")
	require.ErrorIs(t, err, ports.ErrSessionNotFound)
	assert.False(t, mr.Exists("session:client-1"))
}

func TestSessionStore_CustomPrefixAndRedisDown(t *testing.T) {
	mr, client := testutil.NewMiniRedis(t)
	store := NewSessionStoreWithPrefix(client, "besf:session:")
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSession("c9", time.Hour)))
	assert.True(t, mr.Exists("besf:session:c9"))

	mr.Close()
	_, err := store.Get(ctx, "c9")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ports.ErrSessionNotFound)
}
