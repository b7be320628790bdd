package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/besf/portal/config"
	"github.com/besf/portal/internal/data"
	httpx "github.com/besf/portal/internal/http"
)

// RunConfig contains everything Run needs to serve the portal.
type RunConfig struct {
	Config      *config.AppConfig
	Services    ServiceContainer
	DB          data.PgxPool
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// HealthChecks probes Postgres and Redis for /healthz.
func HealthChecks(db data.PgxPool, client redis.UniversalClient) []httpx.HealthCheck {
	var checks []httpx.HealthCheck
	if db != nil {
		checks = append(checks, httpx.HealthCheck{Name: "postgres", Ping: db.Ping})
	}
	if client != nil {
		checks = append(checks, httpx.HealthCheck{
			Name: "redis",
			Ping: func(ctx context.Context) error { return client.Ping(ctx).Err() },
		})
	}
	return checks
}

// Run starts the session notifier, the janitors and the HTTP server, and blocks until
// ctx is cancelled or one of them fails. Shutdown is graceful either way.
func Run(ctx context.Context, cfg *RunConfig) error {
	if cfg == nil || cfg.Config == nil {
		return errors.New("run config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config
	svc := cfg.Services

	if svc.Notifier != nil {
		if err := svc.Notifier.Start(ctx); err != nil {
			return fmt.Errorf("start session notifier: %w", err)
		}
		defer func() {
			if err := svc.Notifier.Close(); err != nil {
				logger.Error("close session notifier failed", "error", err)
			}
		}()
	}
	defer func() {
		if err := svc.Metrics.Close(); err != nil {
			logger.Error("close metrics client failed", "error", err)
		}
	}()

	server, err := NewHTTPServer(&HTTPServerConfig{
		Config:       appCfg,
		Services:     svc,
		HealthChecks: HealthChecks(cfg.DB, cfg.RedisClient),
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("build http server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return serveHTTP(server, logger) })

	if svc.Gates != nil && appCfg.Gate.JanitorInterval > 0 {
		g.Go(func() error {
			svc.Gates.RunJanitor(gctx, appCfg.Gate.JanitorInterval)
			return nil
		})
	}

	if svc.Limiter.Local != nil && appCfg.RateLimit.SweepInterval > 0 {
		g.Go(func() error {
			svc.Limiter.Local.RunJanitor(gctx, appCfg.RateLimit.SweepInterval, appCfg.RateLimit.SweepMaxAge)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down services...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), appCfg.HTTP.ShutdownTimeout)
		defer cancel()
		return ShutdownHTTPServer(ShutdownConfig{
			Context: shutdownCtx,
			Server:  server,
			Gates:   svc.Gates,
			Logger:  logger,
		})
	})

	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
