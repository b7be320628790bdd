package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/besf/portal/config"
	"github.com/besf/portal/internal/adapters/authroles"
	"github.com/besf/portal/internal/adapters/devauth"
	"github.com/besf/portal/internal/adapters/oidc"
	"github.com/besf/portal/internal/core"
	"github.com/besf/portal/internal/ports"
	"github.com/besf/portal/internal/security"
	"github.com/besf/portal/internal/service"
)

// AuthConfig contains configuration for the auth service.
type AuthConfig struct {
	Auth     config.AuthConfig
	Sessions ports.SessionStore
	Notifier ports.SessionNotifier
	Tokens   *security.TokenManager
	Profiles core.ProfileRepository
	Accounts core.AccountRepository
	Activity core.ActivityRepository
	Limiter  ports.RateLimiter
	Logger   *slog.Logger
}

// BuildAuthService creates an auth service with the redirect provider selected by the
// configured auth mode. Password sign-in is wired whenever it is enabled.
func BuildAuthService(ctx context.Context, cfg AuthConfig) (*service.AuthService, error) {
	if cfg.Sessions == nil || cfg.Notifier == nil || cfg.Tokens == nil {
		return nil, errors.New("auth service requires a session store, notifier and token manager")
	}

	provider, err := buildAuthProvider(ctx, cfg.Auth, cfg.Logger)
	if err != nil {
		return nil, err
	}

	opts := service.AuthServiceOptions{
		Provider: provider,
		Sessions: cfg.Sessions,
		Notifier: cfg.Notifier,
		Tokens:   cfg.Tokens,
		Profiles: cfg.Profiles,
		Roles:    authroles.NewStaticRoleMapper(cfg.Auth.AdminEmails, cfg.Auth.AdminGroup),
		Activity: cfg.Activity,
		Limiter:  cfg.Limiter,
		Logger:   cfg.Logger,
	}
	if cfg.Auth.PasswordEnabled {
		opts.Accounts = cfg.Accounts
		opts.Hasher = security.NewHasher(cfg.Auth.BcryptCost)
	}

	svc, err := service.NewAuthService(opts)
	if err != nil {
		return nil, fmt.Errorf("create auth service: %w", err)
	}
	return svc, nil
}

// buildAuthProvider returns nil for password mode: redirect sign-in is then unavailable.
//
//nolint:ireturn // the provider is chosen at runtime
func buildAuthProvider(ctx context.Context, cfg config.AuthConfig, logger *slog.Logger) (ports.AuthProvider, error) {
	switch cfg.Mode {
	case config.AuthModeMock:
		prov, err := devauth.NewProvider(devauth.Config{
			UserID:          cfg.DevAuth.UserID,
			Email:           cfg.DevAuth.Email,
			FirstName:       cfg.DevAuth.FirstName,
			LastName:        cfg.DevAuth.LastName,
			Groups:          cfg.DevAuth.Groups,
			SessionDuration: cfg.TokenTTL,
		})
		if err != nil {
			return nil, fmt.Errorf("create dev auth provider: %w", err)
		}
		if logger != nil {
			logger.WarnContext(ctx, "dev sign-in enabled", "email", cfg.DevAuth.Email)
		}
		return prov, nil

	case config.AuthModeOAuth:
		oauth := cfg.OAuth
		if !oauth.Complete() {
			return nil, errors.New("oauth mode requires discovery url, client id and client secret")
		}
		prov, err := oidc.NewProvider(ctx, oidc.ProviderConfig{
			ClientID:     oauth.ClientID,
			ClientSecret: oauth.ClientSecret,
			RedirectURL:  oauth.RedirectURL,
			Scope:        oauth.Scope,
			DiscoveryURL: oauth.DiscoveryURL,
			LogoutURL:    oauth.LogoutURL,
		})
		if err != nil {
			return nil, fmt.Errorf("create oidc provider: %w", err)
		}
		return prov, nil

	default:
		return nil, nil
	}
}
