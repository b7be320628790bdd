package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/besf/portal/internal/core"
	"github.com/besf/portal/internal/data/cryptoutil"
	"github.com/besf/portal/internal/domain/model"
	apperrors "github.com/besf/portal/internal/errors"
	"github.com/besf/portal/internal/ports"
	"github.com/besf/portal/internal/ratelimit"
	"github.com/besf/portal/internal/validation"
)

// GamerServiceOptions groups dependencies for GamerService.
type GamerServiceOptions struct {
	Gamers    core.GamerRepository
	Encryptor cryptoutil.Encryptor
	Limiter   ports.RateLimiter
	Logger    *slog.Logger
}

// GamerService accepts entries for the public national gamer register.
type GamerService struct {
	gamers    core.GamerRepository
	encryptor cryptoutil.Encryptor
	limiter   ports.RateLimiter
	logger    *slog.Logger
}

// NewGamerService constructs a new GamerService.
func NewGamerService(opts GamerServiceOptions) (*GamerService, error) {
	switch {
	case opts.Gamers == nil:
		return nil, errors.New("GamerRepository is required")
	case opts.Encryptor == nil:
		return nil, errors.New("Encryptor is required")
	case opts.Limiter == nil:
		return nil, errors.New("RateLimiter is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &GamerService{
		gamers:    opts.Gamers,
		encryptor: opts.Encryptor,
		limiter:   opts.Limiter,
		logger:    logger.With("component", "gamer_service"),
	}, nil
}

// Register validates a public entry and stores it with the Omang number encrypted.
// Submissions are rate limited per client IP.
func (s *GamerService) Register(ctx context.Context, clientIP string, in validation.GamerRegistration) (*model.Gamer, error) {
	p := ratelimit.GamerRegister
	limited, err := s.limiter.IsRateLimited(ctx, p.Key(clientIP), p.MaxAttempts, p.Window)
	if err != nil {
		return nil, fmt.Errorf("check gamer registration rate limit: %w", err)
	}
	if limited {
		s.logger.WarnContext(ctx, "gamer registration rate limited", "client_ip", clientIP)
		return nil, apperrors.RateLimited()
	}

	clean, err := validation.ValidateGamerRegistration(in)
	if err != nil {
		return nil, fieldError(err)
	}

	omang := []byte(clean.OmangNumber)
	cipher, err := s.encryptor.Encrypt(omang)
	if err != nil {
		return nil, fmt.Errorf("encrypt omang: %w", err)
	}

	links := make([]model.GamerGameLink, 0, len(clean.Games))
	for _, g := range clean.Games {
		links = append(links, model.GamerGameLink{GameID: g.GameID, GamerID: g.GamerID})
	}

	gamer, err := s.gamers.Create(ctx, model.CreateGamerRequest{
		Name:         clean.Name,
		Surname:      clean.Surname,
		OmangCipher:  cipher,
		OmangDigest:  s.encryptor.Digest(omang),
		ConsentGiven: clean.ConsentGiven,
		Games:        links,
	})
	if apperrors.IsForeignKey(err) {
		return nil, apperrors.ValidationField("games", "One of the selected games is no longer available.")
	}
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "gamer registered", "gamer_id", gamer.ID, "games", len(links))
	return gamer, nil
}
