package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/besf/portal/internal/adapters/localbus"
	domainauth "github.com/besf/portal/internal/domain/auth"
	"github.com/besf/portal/internal/mocks"
	authmocks "github.com/besf/portal/internal/mocks/auth"
	"github.com/besf/portal/internal/security"
	"github.com/besf/portal/internal/testutil"
)

func newTestTokens(t *testing.T, now func() time.Time) *security.TokenManager {
	t.Helper()
	tm, err := security.NewTokenManager(security.TokenConfig{
		Secret: []byte("0123456789abcdef0123456789abcdef"),
		TTL:    time.Hour,
		Now:    now,
	})
	require.NoError(t, err)
	return tm
}

func TestClientSessionSource_CurrentSession(t *testing.T) {
	clock := testutil.NewClock(testutil.TestTime())
	tokens := newTestTokens(t, clock.Now)
	store := authmocks.NewMemorySessionStore()

	src := NewClientSessionSource(ClientSessionSourceOptions{
		ClientID: "c1",
		Store:    store,
		Notifier: localbus.New(),
		Tokens:   tokens,
		Now:      clock.Now,
	})

	got, err := src.CurrentSession(t.Context())
	require.NoError(t, err)
	assert.Nil(t, got, "missing session is not an error")

	token, exp, err := tokens.Issue("u1", "u1@example.com")
	require.NoError(t, err)
	require.NoError(t, store.Save(t.Context(), domainauth.Session{
		ID: "s1", ClientID: "c1", UserID: "u1", AccessToken: token, ExpiresAt: exp,
	}))

	got, err = src.CurrentSession(t.Context())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "u1", got.UserID)

	clock.Advance(2 * time.Hour)
	got, err = src.CurrentSession(t.Context())
	require.NoError(t, err)
	assert.Nil(t, got, "expired session is treated as signed out")
}

func TestClientSessionSource_RejectsForeignToken(t *testing.T) {
	clock := testutil.NewClock(testutil.TestTime())
	tokens := newTestTokens(t, clock.Now)
	store := authmocks.NewMemorySessionStore()

	token, _, err := tokens.Issue("someone-else", "x@example.com")
	require.NoError(t, err)
	require.NoError(t, store.Save(t.Context(), domainauth.Session{
		ID: "s1", ClientID: "c1", UserID: "u1", AccessToken: token,
		ExpiresAt: clock.Now().Add(time.Hour),
	}))
	require.NoError(t, store.Save(t.Context(), domainauth.Session{
		ID: "s2", ClientID: "c2", UserID: "u2", AccessToken: "garbage",
		ExpiresAt: clock.Now().Add(time.Hour),
	}))

	for _, clientID := range []string{"c1", "c2"} {
		src := NewClientSessionSource(ClientSessionSourceOptions{
			ClientID: clientID, Store: store, Notifier: localbus.New(), Tokens: tokens, Now: clock.Now,
		})
		got, err := src.CurrentSession(t.Context())
		require.NoError(t, err)
		assert.Nil(t, got, clientID)
	}
}

func TestClientSessionSource_StoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockSessionStore(ctrl)
	store.EXPECT().Get(gomock.Any(), "c1").Return(domainauth.Session{}, errors.New("redis down"))

	src := NewClientSessionSource(ClientSessionSourceOptions{ClientID: "c1", Store: store, Notifier: localbus.New()})
	_, err := src.CurrentSession(t.Context())
	require.Error(t, err)
}

func TestClientSessionSource_SignOut(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockSessionStore(ctrl)
	notifier := mocks.NewMockSessionNotifier(ctrl)
	now := testutil.TestTime()

	src := NewClientSessionSource(ClientSessionSourceOptions{
		ClientID: "c1", Store: store, Notifier: notifier, Now: testutil.FixedTimeFunc(now),
	})

	t.Run("deletes and announces", func(t *testing.T) {
		gomock.InOrder(
			store.EXPECT().Delete(gomock.Any(), "c1").Return(nil),
			notifier.EXPECT().Publish(gomock.Any(), domainauth.SessionChange{
				Kind: domainauth.ChangeSignedOut, ClientID: "c1", At: now,
			}).Return(nil),
		)
		require.NoError(t, src.SignOut(t.Context()))
	})

	t.Run("announces even when delete fails", func(t *testing.T) {
		store.EXPECT().Delete(gomock.Any(), "c1").Return(errors.New("redis down"))
		notifier.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("pubsub down"))

		err := src.SignOut(t.Context())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "delete session")
		assert.Contains(t, err.Error(), "publish sign out")
	})
}

func TestClientSessionSource_SubscribeScopedToClient(t *testing.T) {
	bus := localbus.New()
	src := NewClientSessionSource(ClientSessionSourceOptions{
		ClientID: "c1", Store: authmocks.NewMemorySessionStore(), Notifier: bus,
	})

	_, err := src.Subscribe(nil)
	require.Error(t, err)

	var got []domainauth.ChangeKind
	sub, err := src.Subscribe(func(c domainauth.SessionChange) { got = append(got, c.Kind) })
	require.NoError(t, err)

	require.NoError(t, bus.Publish(t.Context(), domainauth.SessionChange{Kind: domainauth.ChangeSignedIn, ClientID: "c1"}))
	require.NoError(t, bus.Publish(t.Context(), domainauth.SessionChange{Kind: domainauth.ChangeSignedIn, ClientID: "c2"}))
	require.NoError(t, sub.Unsubscribe())
	require.NoError(t, bus.Publish(t.Context(), domainauth.SessionChange{Kind: domainauth.ChangeSignedOut, ClientID: "c1"}))

	assert.Equal(t, []domainauth.ChangeKind{domainauth.ChangeSignedIn}, got)
}
