package bootstrap

import (
	"log/slog"

	"github.com/besf/portal/internal/data/cryptoutil"
)

// CreateEncryptor builds the Omang encryptor from the configured key.
// An empty or unusable key falls back to the noop encryptor with a warning.
//
//nolint:ireturn // callers only need the interface
func CreateEncryptor(key string, logger *slog.Logger) cryptoutil.Encryptor {
	if logger == nil {
		logger = slog.Default()
	}
	if key == "" {
		logger.Warn("ENCRYPTION_KEY is empty; Omang numbers will be stored unencrypted")
		return cryptoutil.NoopEncryptor{}
	}
	enc, err := cryptoutil.NewAESGCMEncryptor(cryptoutil.KeyFromString(key))
	if err != nil {
		logger.Warn("failed to create encryptor, using noop encryptor", "error", err)
		return cryptoutil.NoopEncryptor{}
	}
	return enc
}
