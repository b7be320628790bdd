package bootstrap

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/besf/portal/config"
)

const minTokenSecretLen = 32

// InitLogger initializes the structured logger.
func InitLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
	return logger
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (config.AppConfig, error) {
	// Load .env file if it exists (development)
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return config.AppConfig{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg config.AppConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.Sanitize()
	return cfg, nil
}

// ValidateConfig rejects settings the server cannot run with. In dev mode a missing
// token secret is replaced by a random one, so sessions do not survive a restart.
func ValidateConfig(cfg *config.AppConfig, logger *slog.Logger) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	if len(cfg.Auth.TokenSecret) < minTokenSecretLen {
		if !cfg.IsDev {
			return fmt.Errorf("AUTH_TOKEN_SECRET must be at least %d bytes", minTokenSecretLen)
		}
		secret, err := randomSecret()
		if err != nil {
			return err
		}
		cfg.Auth.TokenSecret = secret
		logger.Warn("AUTH_TOKEN_SECRET not set; using an ephemeral secret for this dev process")
	}

	if cfg.EncryptionKey == "" && !cfg.IsDev {
		return errors.New("ENCRYPTION_KEY is required outside dev mode")
	}

	switch cfg.Auth.Mode {
	case config.AuthModeMock:
		if !cfg.IsDev {
			return errors.New("AUTH_MODE=mock is only allowed in dev mode")
		}
	case config.AuthModeOAuth:
		if !cfg.Auth.OAuth.Complete() {
			return errors.New("AUTH_MODE=oauth requires OAUTH_DISCOVERY_URL, OAUTH_CLIENT_ID and OAUTH_CLIENT_SECRET")
		}
	case config.AuthModePassword:
		if !cfg.Auth.PasswordEnabled {
			return errors.New("AUTH_MODE=password requires AUTH_PASSWORD_ENABLED=true")
		}
	}

	return nil
}

func randomSecret() (string, error) {
	buf := make([]byte, minTokenSecretLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
