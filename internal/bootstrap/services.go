package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/besf/portal/config"
	redisadapter "github.com/besf/portal/internal/adapters/redis"
	"github.com/besf/portal/internal/data"
	"github.com/besf/portal/internal/observability/statsd"
	"github.com/besf/portal/internal/ports"
	"github.com/besf/portal/internal/ratelimit"
	"github.com/besf/portal/internal/security"
	"github.com/besf/portal/internal/service"
)

// ServiceContainer holds the services and shared runtime pieces behind the router.
type ServiceContainer struct {
	Auth          *service.AuthService
	Profiles      *service.ProfileService
	Registrations *service.RegistrationService
	Gamers        *service.GamerService
	Admin         *service.AdminService

	Gates    *service.GateRegistry
	Notifier *redisadapter.Notifier
	Limiter  RateLimiterBundle
	Metrics  MetricsBundle
}

// ServiceDeps contains the infrastructure services are built from.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          data.PgxPool
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// serviceRepositories builds repositories backing service ports; no business rules here.
type serviceRepositories struct {
	Profiles   *data.ProfileRepo
	Accounts   *data.AccountRepo
	Activity   *data.ActivityRepo
	Games      *data.GameRepo
	UserGames  *data.UserGameRepo
	Events     *data.EventRepo
	UserEvents *data.UserEventRepo
	Gamers     *data.GamerRepo
	Stats      *data.StatsRepo
}

func buildRepositories(db data.PgxPool) *serviceRepositories {
	return &serviceRepositories{
		Profiles:   data.NewProfileRepo(db),
		Accounts:   data.NewAccountRepo(db),
		Activity:   data.NewActivityRepo(db),
		Games:      data.NewGameRepo(db),
		UserGames:  data.NewUserGameRepo(db),
		Events:     data.NewEventRepo(db),
		UserEvents: data.NewUserEventRepo(db),
		Gamers:     data.NewGamerRepo(db),
		Stats:      data.NewStatsRepo(db),
	}
}

// MetricsBundle pairs the sink handed to components with the client that owns the socket.
type MetricsBundle struct {
	Sink   statsd.Sink
	Client *statsd.Client // nil when metrics are disabled
}

// Close releases the StatsD socket.
func (m MetricsBundle) Close() error {
	if m.Client == nil {
		return nil
	}
	return m.Client.Close()
}

// BuildMetrics returns a StatsD-backed sink, or a no-op sink when metrics are disabled
// or the endpoint cannot be dialled.
func BuildMetrics(cfg config.ObservabilityMetricsConfig, logger *slog.Logger) MetricsBundle {
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.IsEnabled() {
		return MetricsBundle{Sink: statsd.Nop{}}
	}

	client, err := statsd.NewClient(statsd.Config{
		Enabled: true,
		Address: cfg.StatsdAddress,
		Prefix:  cfg.Prefix,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		return MetricsBundle{Sink: statsd.Nop{}}
	}
	return MetricsBundle{Sink: client, Client: client}
}

// RateLimiterBundle is the limiter handed to services plus the process-local window, if
// any, whose janitor the runtime drives.
type RateLimiterBundle struct {
	Limiter ports.RateLimiter
	Local   *ratelimit.SlidingWindow // nil for the redis backend
}

// BuildRateLimiter selects the configured backend. The redis backend needs a client.
func BuildRateLimiter(cfg config.RateLimitConfig, client redis.UniversalClient) (RateLimiterBundle, error) {
	switch cfg.Backend {
	case config.RateLimitBackendRedis:
		if client == nil {
			return RateLimiterBundle{}, errors.New("redis rate limit backend requires a redis client")
		}
		return RateLimiterBundle{
			Limiter: ratelimit.NewRedisWindow(ratelimit.RedisWindowOptions{Client: client, Prefix: cfg.RedisPrefix}),
		}, nil
	default:
		window := ratelimit.NewSlidingWindow()
		return RateLimiterBundle{Limiter: ratelimit.Local{Window: window}, Local: window}, nil
	}
}

// NewServices builds every portal service over Postgres and Redis.
func NewServices(ctx context.Context, deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil || deps.DB == nil || deps.RedisClient == nil {
		return ServiceContainer{}, errors.New("config, database and redis are required")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	repos := buildRepositories(deps.DB)
	metrics := BuildMetrics(cfg.Observability.Metrics, logger)

	limiter, err := BuildRateLimiter(cfg.RateLimit, deps.RedisClient)
	if err != nil {
		return ServiceContainer{}, err
	}

	tokens, err := security.NewTokenManager(security.TokenConfig{
		Secret: []byte(cfg.Auth.TokenSecret),
		TTL:    cfg.Auth.TokenTTL,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create token manager: %w", err)
	}

	sessions := redisadapter.NewSessionStoreWithPrefix(deps.RedisClient, cfg.Redis.SessionPrefix)
	notifier := redisadapter.NewNotifier(redisadapter.NotifierOptions{
		Client:        deps.RedisClient,
		ChannelPrefix: cfg.Redis.ChannelPrefix,
		Logger:        logger,
	})

	c := ServiceContainer{Notifier: notifier, Limiter: limiter, Metrics: metrics}

	c.Auth, err = BuildAuthService(ctx, AuthConfig{
		Auth:     cfg.Auth,
		Sessions: sessions,
		Notifier: notifier,
		Tokens:   tokens,
		Profiles: repos.Profiles,
		Accounts: repos.Accounts,
		Activity: repos.Activity,
		Limiter:  limiter.Limiter,
		Logger:   logger,
	})
	if err != nil {
		return ServiceContainer{}, err
	}

	if c.Profiles, err = service.NewProfileService(service.ProfileServiceOptions{
		Profiles: repos.Profiles,
		Activity: repos.Activity,
		Logger:   logger,
	}); err != nil {
		return ServiceContainer{}, fmt.Errorf("create profile service: %w", err)
	}

	if c.Registrations, err = service.NewRegistrationService(service.RegistrationServiceOptions{
		Games:      repos.Games,
		UserGames:  repos.UserGames,
		Events:     repos.Events,
		UserEvents: repos.UserEvents,
		Activity:   repos.Activity,
		Limiter:    limiter.Limiter,
		Logger:     logger,
	}); err != nil {
		return ServiceContainer{}, fmt.Errorf("create registration service: %w", err)
	}

	if c.Gamers, err = service.NewGamerService(service.GamerServiceOptions{
		Gamers:    repos.Gamers,
		Encryptor: CreateEncryptor(cfg.EncryptionKey, logger),
		Limiter:   limiter.Limiter,
		Logger:    logger,
	}); err != nil {
		return ServiceContainer{}, fmt.Errorf("create gamer service: %w", err)
	}

	if c.Admin, err = service.NewAdminService(service.AdminServiceOptions{
		Profiles: repos.Profiles,
		Stats:    repos.Stats,
		Activity: repos.Activity,
		Logger:   logger,
	}); err != nil {
		return ServiceContainer{}, fmt.Errorf("create admin service: %w", err)
	}

	c.Gates = NewGateRegistry(GateDeps{
		Config:   cfg.Gate,
		Sessions: sessions,
		Notifier: notifier,
		Tokens:   tokens,
		Roles:    repos.Profiles,
		Metrics:  metrics.Sink,
		Logger:   logger,
	})

	return c, nil
}

// GateDeps contains what each client's Gate is built from.
type GateDeps struct {
	Config   config.GateConfig
	Sessions ports.SessionStore
	Notifier ports.SessionNotifier
	Tokens   service.TokenVerifier
	Roles    ports.RoleLookup
	Metrics  statsd.Sink
	Logger   *slog.Logger
}

// NewGateRegistry builds the bounded per-client Gate registry.
func NewGateRegistry(deps GateDeps) *service.GateRegistry {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return service.NewGateRegistry(service.GateRegistryOptions{
		Capacity: deps.Config.Capacity,
		IdleTTL:  deps.Config.IdleTTL,
		NewGate: func(clientID string) *service.Gate {
			return service.NewGate(service.GateOptions{
				ClientID: clientID,
				Source: service.NewClientSessionSource(service.ClientSessionSourceOptions{
					ClientID: clientID,
					Store:    deps.Sessions,
					Notifier: deps.Notifier,
					Tokens:   deps.Tokens,
					Logger:   logger,
				}),
				Roles:         deps.Roles,
				Tokens:        deps.Tokens,
				Logger:        logger,
				Metrics:       deps.Metrics,
				LookupTimeout: deps.Config.LookupTimeout,
			})
		},
		Logger:  logger,
		Metrics: deps.Metrics,
	})
}
