package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/besf/portal/internal/domain/model"
	apperrors "github.com/besf/portal/internal/errors"
	"github.com/besf/portal/internal/mocks"
	"github.com/besf/portal/internal/ratelimit"
	"github.com/besf/portal/internal/testutil"
	"github.com/besf/portal/internal/validation"
)

type registrationFixture struct {
	svc        *RegistrationService
	games      *mocks.MockGameRepository
	userGames  *mocks.MockUserGameRepository
	events     *mocks.MockEventRepository
	userEvents *mocks.MockUserEventRepository
	activity   *mocks.MockActivityRepository
	limiter    *mocks.MockRateLimiter
}

func newRegistrationFixture(t *testing.T) *registrationFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &registrationFixture{
		games:      mocks.NewMockGameRepository(ctrl),
		userGames:  mocks.NewMockUserGameRepository(ctrl),
		events:     mocks.NewMockEventRepository(ctrl),
		userEvents: mocks.NewMockUserEventRepository(ctrl),
		activity:   mocks.NewMockActivityRepository(ctrl),
		limiter:    mocks.NewMockRateLimiter(ctrl),
	}
	svc, err := NewRegistrationService(RegistrationServiceOptions{
		Games:      f.games,
		UserGames:  f.userGames,
		Events:     f.events,
		UserEvents: f.userEvents,
		Activity:   f.activity,
		Limiter:    f.limiter,
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *registrationFixture) allowGameRegister(userID string) {
	f.limiter.EXPECT().
		IsRateLimited(gomock.Any(), "game_register_"+userID, 5, time.Minute).
		Return(false, nil)
}

func TestNewRegistrationService_RequiredDependencies(t *testing.T) {
	_, err := NewRegistrationService(RegistrationServiceOptions{})
	require.ErrorContains(t, err, "GameRepository is required")
}

func TestRegistrationService_RegisterGame(t *testing.T) {
	f := newRegistrationFixture(t)
	f.allowGameRegister("u1")
	f.games.EXPECT().GetByID(gomock.Any(), "g1").Return(&model.Game{ID: "g1", Name: "Dota 2", IsActive: true}, nil)
	f.userGames.EXPECT().Upsert(gomock.Any(), model.UpsertUserGameRequest{
		UserID: "u1", GameID: "g1", GamerTag: "Shadow_99", SkillLevel: "expert",
	}).Return(&model.UserGame{ID: "ug1", UserID: "u1", GameID: "g1", IsActive: true}, nil)
	f.activity.EXPECT().Log(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req model.LogActivityRequest) error {
			assert.Equal(t, "game_registered", req.Action)
			assert.Equal(t, "user_game", req.ResourceType)
			assert.Equal(t, "ug1", req.ResourceID)
			return nil
		})

	ug, err := f.svc.RegisterGame(t.Context(), "u1", "g1", validation.GameRegistration{
		GamerTag: "  Shadow_99 ", SkillLevel: "expert",
	})
	require.NoError(t, err)
	assert.Equal(t, "ug1", ug.ID)
}

func TestRegistrationService_RegisterGameRateLimited(t *testing.T) {
	f := newRegistrationFixture(t)
	f.limiter.EXPECT().IsRateLimited(gomock.Any(), "game_register_u1", 5, time.Minute).Return(true, nil)

	_, err := f.svc.RegisterGame(t.Context(), "u1", "g1", validation.GameRegistration{GamerTag: "abc", SkillLevel: "beginner"})
	require.True(t, apperrors.IsRateLimited(err))
}

func TestRegistrationService_RegisterGameSixthAttemptWithinWindow(t *testing.T) {
	clock := testutil.NewClock(testutil.TestTime())
	ctrl := gomock.NewController(t)
	games := mocks.NewMockGameRepository(ctrl)
	userGames := mocks.NewMockUserGameRepository(ctrl)
	svc, err := NewRegistrationService(RegistrationServiceOptions{
		Games:      games,
		UserGames:  userGames,
		Events:     mocks.NewMockEventRepository(ctrl),
		UserEvents: mocks.NewMockUserEventRepository(ctrl),
		Limiter:    ratelimit.Local{Window: ratelimit.NewSlidingWindowWithClock(clock.Now)},
	})
	require.NoError(t, err)

	games.EXPECT().GetByID(gomock.Any(), "g1").Return(&model.Game{ID: "g1", IsActive: true}, nil).Times(5)
	userGames.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(&model.UserGame{ID: "ug1"}, nil).Times(5)

	in := validation.GameRegistration{GamerTag: "abc", SkillLevel: "beginner"}
	for range 5 {
		_, err := svc.RegisterGame(t.Context(), "u1", "g1", in)
		require.NoError(t, err)
		clock.Advance(time.Second)
	}
	_, err = svc.RegisterGame(t.Context(), "u1", "g1", in)
	require.True(t, apperrors.IsRateLimited(err))

	clock.Advance(time.Minute)
	games.EXPECT().GetByID(gomock.Any(), "g1").Return(&model.Game{ID: "g1", IsActive: true}, nil)
	userGames.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(&model.UserGame{ID: "ug1"}, nil)
	_, err = svc.RegisterGame(t.Context(), "u1", "g1", in)
	require.NoError(t, err, "window has slid past the earlier attempts")
}

func TestRegistrationService_RegisterGameRejections(t *testing.T) {
	t.Run("invalid gamer tag", func(t *testing.T) {
		f := newRegistrationFixture(t)
		f.allowGameRegister("u1")
		_, err := f.svc.RegisterGame(t.Context(), "u1", "g1", validation.GameRegistration{GamerTag: "a b", SkillLevel: "expert"})
		require.True(t, apperrors.IsValidation(err))
		assert.Equal(t, "gamer_tag", apperrors.GetField(err))
	})

	t.Run("inactive game", func(t *testing.T) {
		f := newRegistrationFixture(t)
		f.allowGameRegister("u1")
		f.games.EXPECT().GetByID(gomock.Any(), "g1").Return(&model.Game{ID: "g1", IsActive: false}, nil)
		_, err := f.svc.RegisterGame(t.Context(), "u1", "g1", validation.GameRegistration{GamerTag: "abc", SkillLevel: "expert"})
		require.True(t, apperrors.IsNotFound(err))
	})

	t.Run("unknown game", func(t *testing.T) {
		f := newRegistrationFixture(t)
		f.allowGameRegister("u1")
		f.games.EXPECT().GetByID(gomock.Any(), "g9").Return(nil, apperrors.NotFound("no rows"))
		_, err := f.svc.RegisterGame(t.Context(), "u1", "g9", validation.GameRegistration{GamerTag: "abc", SkillLevel: "expert"})
		require.True(t, apperrors.IsNotFound(err))
		assert.Equal(t, "Game not found", apperrors.Message(err, ""))
	})

	t.Run("limiter failure", func(t *testing.T) {
		f := newRegistrationFixture(t)
		f.limiter.EXPECT().IsRateLimited(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(false, errors.New("redis down"))
		_, err := f.svc.RegisterGame(t.Context(), "u1", "g1", validation.GameRegistration{GamerTag: "abc", SkillLevel: "expert"})
		require.Error(t, err)
		assert.False(t, apperrors.IsRateLimited(err))
	})
}

func TestRegistrationService_UpdateAndLeaveGame(t *testing.T) {
	f := newRegistrationFixture(t)
	f.games.EXPECT().GetByID(gomock.Any(), "g1").Return(&model.Game{ID: "g1", IsActive: true}, nil)
	f.userGames.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(&model.UserGame{ID: "ug1"}, nil)
	f.activity.EXPECT().Log(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	_, err := f.svc.UpdateGame(t.Context(), "u1", "g1", validation.GameRegistration{GamerTag: "newtag", SkillLevel: "advanced"})
	require.NoError(t, err)

	f.userGames.EXPECT().Deactivate(gomock.Any(), "u1", "g1").Return(true, nil)
	require.NoError(t, f.svc.LeaveGame(t.Context(), "u1", "g1"))

	f.userGames.EXPECT().Deactivate(gomock.Any(), "u1", "g2").Return(false, nil)
	err = f.svc.LeaveGame(t.Context(), "u1", "g2")
	require.True(t, apperrors.IsNotFound(err))
}

func TestRegistrationService_RegisterEvent(t *testing.T) {
	f := newRegistrationFixture(t)
	f.events.EXPECT().GetPublished(gomock.Any(), "e1").Return(&model.Event{ID: "e1", IsPublished: true}, nil)
	f.userEvents.EXPECT().Create(gomock.Any(), model.UpsertUserEventRequest{
		UserID: "u1", EventID: "e1", TeamName: "Gaborone Wolves",
	}).Return(&model.UserEvent{ID: "ue1", Status: model.EventRegistered}, nil)
	f.activity.EXPECT().Log(gomock.Any(), gomock.Any()).Return(nil)

	ue, err := f.svc.RegisterEvent(t.Context(), "u1", "e1", validation.EventRegistration{TeamName: "Gaborone Wolves"})
	require.NoError(t, err)
	assert.Equal(t, model.EventRegistered, ue.Status)
}

func TestRegistrationService_RegisterEventConflictsAndMissing(t *testing.T) {
	f := newRegistrationFixture(t)

	f.events.EXPECT().GetPublished(gomock.Any(), "e1").Return(&model.Event{ID: "e1"}, nil)
	f.userEvents.EXPECT().Create(gomock.Any(), gomock.Any()).
		Return(nil, apperrors.ConflictField("event_id", apperrors.MsgAlreadyRegistered))
	_, err := f.svc.RegisterEvent(t.Context(), "u1", "e1", validation.EventRegistration{})
	require.True(t, apperrors.IsConflict(err))
	assert.Equal(t, "Already registered", apperrors.Message(err, ""))

	f.events.EXPECT().GetPublished(gomock.Any(), "draft").Return(nil, apperrors.NotFound("no rows"))
	_, err = f.svc.RegisterEvent(t.Context(), "u1", "draft", validation.EventRegistration{})
	require.True(t, apperrors.IsNotFound(err))

	_, err = f.svc.RegisterEvent(t.Context(), "u1", "e1", validation.EventRegistration{TeamName: "x"})
	require.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "team_name", apperrors.GetField(err))
}

func TestRegistrationService_UpdateAndCancelEvent(t *testing.T) {
	f := newRegistrationFixture(t)

	f.userEvents.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil, apperrors.NotFound("no rows"))
	_, err := f.svc.UpdateEvent(t.Context(), "u1", "e1", validation.EventRegistration{Notes: "bring snacks"})
	require.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, "Registration not found", apperrors.Message(err, ""))

	f.userEvents.EXPECT().Update(gomock.Any(), model.UpsertUserEventRequest{
		UserID: "u1", EventID: "e1", Notes: "bring snacks",
	}).Return(&model.UserEvent{ID: "ue1"}, nil)
	f.activity.EXPECT().Log(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	_, err = f.svc.UpdateEvent(t.Context(), "u1", "e1", validation.EventRegistration{Notes: "bring snacks"})
	require.NoError(t, err)

	f.userEvents.EXPECT().Cancel(gomock.Any(), "u1", "e1").Return(true, nil)
	require.NoError(t, f.svc.CancelEvent(t.Context(), "u1", "e1"))

	f.userEvents.EXPECT().Cancel(gomock.Any(), "u1", "e1").Return(false, nil)
	require.True(t, apperrors.IsNotFound(f.svc.CancelEvent(t.Context(), "u1", "e1")))
}

func TestRegistrationService_Lists(t *testing.T) {
	f := newRegistrationFixture(t)
	f.games.EXPECT().ListActive(gomock.Any()).Return([]*model.Game{{ID: "g1"}}, nil)
	f.userGames.EXPECT().ListByUser(gomock.Any(), "u1").Return(nil, errors.New("db down"))
	f.events.EXPECT().ListPublished(gomock.Any()).Return([]*model.Event{{ID: "e1"}, {ID: "e2"}}, nil)
	f.userEvents.EXPECT().ListByUser(gomock.Any(), "u1").Return([]*model.UserEvent{}, nil)

	games, err := f.svc.ListGames(t.Context())
	require.NoError(t, err)
	assert.Len(t, games, 1)

	_, err = f.svc.MyGames(t.Context(), "u1")
	require.ErrorContains(t, err, "list user games")

	events, err := f.svc.ListEvents(t.Context())
	require.NoError(t, err)
	assert.Len(t, events, 2)

	mine, err := f.svc.MyEvents(t.Context(), "u1")
	require.NoError(t, err)
	assert.Empty(t, mine)
}
