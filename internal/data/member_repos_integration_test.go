package data

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/besf/portal/internal/domain/auth"
	"github.com/besf/portal/internal/domain/model"
	apperrors "github.com/besf/portal/internal/errors"
	"github.com/besf/portal/internal/testutil"
)

func TestMemberRepos_Integration(t *testing.T) {
	pool := testutil.SetupTestPool(t)
	ctx := context.Background()

	accounts := NewAccountRepo(pool)
	profiles := NewProfileRepo(pool)
	games := NewGameRepo(pool)
	userGames := NewUserGameRepo(pool)
	stats := NewStatsRepo(pool)

	t.Run("accounts are unique by email ignoring case", func(t *testing.T) {
		_, err := accounts.Create(ctx, model.Account{UserID: "pw|int-1", Email: "keabetswe@example.com", PasswordHash: "x"})
		require.NoError(t, err)

		_, err = accounts.Create(ctx, model.Account{UserID: "pw|int-2", Email: "Keabetswe@Example.com", PasswordHash: "y"})
		require.Error(t, err)
		assert.True(t, apperrors.IsConflict(err))
	})

	t.Run("ensure keeps the first profile and its role", func(t *testing.T) {
		first, err := profiles.Ensure(ctx, model.EnsureProfileRequest{
			UserID: "pw|int-1", Email: "keabetswe@example.com", Role: domainauth.RoleUser,
		})
		require.NoError(t, err)

		again, err := profiles.Ensure(ctx, model.EnsureProfileRequest{
			UserID: "pw|int-1", Email: "keabetswe@example.com", Role: domainauth.RoleAdmin,
		})
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
		assert.Equal(t, domainauth.RoleUser, again.Role)

		_, err = profiles.SetRole(ctx, "pw|int-1", domainauth.RoleAdmin)
		require.NoError(t, err)
		role, found, err := profiles.LookupRole(ctx, "pw|int-1")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, domainauth.RoleAdmin, role)

		_, found, err = profiles.LookupRole(ctx, "pw|missing")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("game registrations upsert and deactivate", func(t *testing.T) {
		active, err := games.ListActive(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, active, "games are seeded by migration")
		gameID := active[0].ID

		_, err = userGames.Upsert(ctx, model.UpsertUserGameRequest{
			UserID: "pw|int-1", GameID: gameID, GamerTag: "Kea", SkillLevel: "beginner",
		})
		require.NoError(t, err)
		ug, err := userGames.Upsert(ctx, model.UpsertUserGameRequest{
			UserID: "pw|int-1", GameID: gameID, GamerTag: "Kea.BW", SkillLevel: "expert",
		})
		require.NoError(t, err)
		require.NotNil(t, ug.SkillLevel)
		assert.Equal(t, "expert", *ug.SkillLevel)

		list, err := userGames.ListByUser(ctx, "pw|int-1")
		require.NoError(t, err)
		assert.Len(t, list, 1)

		count, err := stats.CountGameRegistrations(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		ok, err := userGames.Deactivate(ctx, "pw|int-1", gameID)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("profile count", func(t *testing.T) {
		n, err := stats.CountProfiles(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}
