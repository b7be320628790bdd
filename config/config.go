package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: Sign-in providers, admin mapping and session tokens
//   - database.go: Postgres and Redis connections
//   - http.go: HTTP server configuration
//   - gate.go: Per-client session gates and the route guard
//   - ratelimit.go: Rate limiter backend and janitor
type AppConfig struct {
	// IsDev controls development mode behavior (template reloading, dev sign-in, etc.)
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// EncryptionKey protects Omang numbers at rest.
	// Required for production, optional for development.
	EncryptionKey string `env:"ENCRYPTION_KEY"`

	Auth AuthConfig

	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	HTTP      HTTPConfig
	Gate      GateConfig
	RateLimit RateLimitConfig

	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.HTTP.Sanitize()
	c.Auth.Sanitize()
	c.Postgres.Sanitize()
	c.Gate.Sanitize()
	c.RateLimit.Sanitize()
	c.Observability.Sanitize()

	c.EncryptionKey = strings.TrimSpace(c.EncryptionKey)

	c.detectDevMode()
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}
