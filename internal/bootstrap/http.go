package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/besf/portal/config"
	httpx "github.com/besf/portal/internal/http"
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config       *config.AppConfig
	Services     ServiceContainer
	HealthChecks []httpx.HealthCheck
	Logger       *slog.Logger
}

// NewHTTPServer builds the router, wraps it in the server middleware and returns an
// unstarted server.
func NewHTTPServer(cfg *HTTPServerConfig) (*http.Server, error) {
	if cfg == nil || cfg.Config == nil {
		return nil, errors.New("http server config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config

	router, err := httpx.NewRouter(httpx.RouterServices{
		Auth:                cfg.Services.Auth,
		Profiles:            cfg.Services.Profiles,
		Registrations:       cfg.Services.Registrations,
		Gamers:              cfg.Services.Gamers,
		Admin:               cfg.Services.Admin,
		Gates:               cfg.Services.Gates,
		GateRefreshInterval: appCfg.Gate.RefreshInterval,
		GuardGrace:          appCfg.Gate.GuardGrace,
		CookieDomain:        appCfg.HTTP.CookieDomain,
		TrustProxy:          appCfg.HTTP.TrustProxy,
		HealthChecks:        cfg.HealthChecks,
		IsDev:               appCfg.IsDev,
		Logger:              logger,
	})
	if err != nil {
		return nil, err
	}

	return &http.Server{
		Addr:         appCfg.HTTP.Addr,
		Handler:      wrapHandler(router, appCfg.HTTP, logger),
		ReadTimeout:  appCfg.HTTP.ReadTimeout,
		WriteTimeout: appCfg.HTTP.WriteTimeout,
		IdleTimeout:  appCfg.HTTP.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}, nil
}

// wrapHandler applies compression first (innermost) so logging captures compressed sizes.
// Order: Recover -> Logging -> Compression -> Router
func wrapHandler(router http.Handler, cfg config.HTTPConfig, logger *slog.Logger) http.Handler {
	h := router
	if cfg.CompressionEnabled {
		logger.Info("HTTP compression enabled", "level", cfg.CompressionLevel)
		h = httpx.Compression(httpx.CompressionConfig{Level: cfg.CompressionLevel})(h)
	}

	h = httpx.Logging(logger)(h)
	h = httpx.Recover(logger)(h)

	return h
}

// serveHTTP runs server until it is shut down. A clean shutdown returns nil.
func serveHTTP(server *http.Server, logger *slog.Logger) error {
	logger.Info("starting HTTP server", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Context context.Context
	Server  *http.Server
	Gates   interface{ Close() error }
	Logger  *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server, then closes every Gate so
// their session subscriptions are released.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("shutting down HTTP server")
	}

	err := cfg.Server.Shutdown(cfg.Context)

	if cfg.Gates != nil {
		if cerr := cfg.Gates.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}
	if err != nil {
		return err
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("HTTP server stopped")
	}

	return nil
}
