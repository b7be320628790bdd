package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/besf/portal/internal/data/cryptoutil"
	"github.com/besf/portal/internal/domain/model"
	apperrors "github.com/besf/portal/internal/errors"
	"github.com/besf/portal/internal/mocks"
	"github.com/besf/portal/internal/validation"
)

func validGamerEntry() validation.GamerRegistration {
	return validation.GamerRegistration{
		Name:         "Neo",
		Surname:      "Kgosi",
		OmangNumber:  "123456789",
		ConsentGiven: true,
		Games: []validation.GamerGame{
			{GameID: "g1", GamerID: "NeoK#1"},
			{GameID: "g2", GamerID: "neo_k"},
		},
	}
}

func newTestGamerService(t *testing.T) (*GamerService, *mocks.MockGamerRepository, *mocks.MockRateLimiter, *cryptoutil.AESGCMEncryptor) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockGamerRepository(ctrl)
	limiter := mocks.NewMockRateLimiter(ctrl)
	enc, err := cryptoutil.NewAESGCMEncryptor(cryptoutil.KeyFromString("test passphrase"))
	require.NoError(t, err)
	svc, err := NewGamerService(GamerServiceOptions{Gamers: repo, Encryptor: enc, Limiter: limiter})
	require.NoError(t, err)
	return svc, repo, limiter, enc
}

func TestGamerService_RegisterEncryptsOmang(t *testing.T) {
	svc, repo, limiter, enc := newTestGamerService(t)
	limiter.EXPECT().IsRateLimited(gomock.Any(), "gamer_register_203.0.113.7", 3, 10*time.Minute).Return(false, nil)
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req model.CreateGamerRequest) (*model.Gamer, error) {
			assert.Equal(t, "Neo", req.Name)
			assert.True(t, strings.HasPrefix(req.OmangCipher, "v1:"))
			assert.NotContains(t, req.OmangCipher, "123456789")
			plain, err := enc.Decrypt(req.OmangCipher)
			require.NoError(t, err)
			assert.Equal(t, "123456789", string(plain))
			assert.Equal(t, enc.Digest([]byte("123456789")), req.OmangDigest)
			assert.Equal(t, []model.GamerGameLink{
				{GameID: "g1", GamerID: "NeoK#1"},
				{GameID: "g2", GamerID: "neo_k"},
			}, req.Games)
			return &model.Gamer{ID: "gm1", Name: req.Name, Surname: req.Surname, ConsentGiven: true}, nil
		})

	g, err := svc.Register(t.Context(), "203.0.113.7", validGamerEntry())
	require.NoError(t, err)
	assert.Equal(t, "gm1", g.ID)
}

func TestGamerService_RegisterRejections(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*validation.GamerRegistration)
		wantField string
	}{
		{"short omang", func(r *validation.GamerRegistration) { r.OmangNumber = "12345" }, "omang_number"},
		{"letters in omang", func(r *validation.GamerRegistration) { r.OmangNumber = "12345678a" }, "omang_number"},
		{"no consent", func(r *validation.GamerRegistration) { r.ConsentGiven = false }, "consent_given"},
		{"no games", func(r *validation.GamerRegistration) { r.Games = nil }, "games"},
		{"missing gamer id", func(r *validation.GamerRegistration) { r.Games[1].GamerID = " " }, "games"},
		{"bad surname", func(r *validation.GamerRegistration) { r.Surname = "K9" }, "surname"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, limiter, _ := newTestGamerService(t)
			limiter.EXPECT().IsRateLimited(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(false, nil)

			in := validGamerEntry()
			tt.mutate(&in)
			_, err := svc.Register(t.Context(), "203.0.113.7", in)
			require.True(t, apperrors.IsValidation(err), "got %v", err)
			assert.Equal(t, tt.wantField, apperrors.GetField(err))
		})
	}
}

func TestGamerService_RegisterConflictsAndLimits(t *testing.T) {
	svc, repo, limiter, _ := newTestGamerService(t)

	limiter.EXPECT().IsRateLimited(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(false, nil).Times(2)
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).
		Return(nil, apperrors.ConflictField("omang_number", apperrors.MsgOmangTaken))
	_, err := svc.Register(t.Context(), "ip", validGamerEntry())
	require.True(t, apperrors.IsConflict(err))
	assert.Equal(t, "omang_number", apperrors.GetField(err))

	repo.EXPECT().Create(gomock.Any(), gomock.Any()).
		Return(nil, &apperrors.AppError{Code: apperrors.ErrCodeForeignKey, Message: "referenced Game does not exist"})
	_, err = svc.Register(t.Context(), "ip", validGamerEntry())
	require.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "games", apperrors.GetField(err))

	limiter.EXPECT().IsRateLimited(gomock.Any(), "gamer_register_ip", 3, 10*time.Minute).Return(true, nil)
	_, err = svc.Register(t.Context(), "ip", validGamerEntry())
	require.True(t, apperrors.IsRateLimited(err))
}
