// Package cryptoutil protects personal identifiers (Omang numbers) stored by the gamer register.
package cryptoutil

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Encryptor seals values for storage and derives a deterministic digest for uniqueness checks.
type Encryptor interface {
	Encrypt(plaintext []byte) (string, error)
	Decrypt(ciphertext string) ([]byte, error)
	// Digest returns a stable keyed hash of plaintext, suitable for a unique index.
	Digest(plaintext []byte) string
}

const (
	prefixV1   = "v1:"
	prefixNoop = "noop:"
)

// ErrUnknownCiphertext is returned for values not produced by this package.
var ErrUnknownCiphertext = errors.New("unknown ciphertext version")

// AESGCMEncryptor seals with AES-256-GCM and digests with HMAC-SHA256 under the same key.
type AESGCMEncryptor struct {
	aead cipher.AEAD
	mac  []byte
}

// NewAESGCMEncryptor requires a 32-byte key.
func NewAESGCMEncryptor(key []byte) (*AESGCMEncryptor, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("aes-gcm key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm: %w", err)
	}
	return &AESGCMEncryptor{aead: aead, mac: append([]byte(nil), key...)}, nil
}

// Encrypt returns "v1:" + base64(nonce || ciphertext).
func (e *AESGCMEncryptor) Encrypt(plaintext []byte) (string, error) {
	nonce := make([]byte, e.aead.NonceSize(), e.aead.NonceSize()+len(plaintext)+e.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	sealed := e.aead.Seal(nonce, nonce, plaintext, nil)
	return prefixV1 + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens values produced by Encrypt. Values written by NoopEncryptor before a key
// was configured are still readable.
func (e *AESGCMEncryptor) Decrypt(ciphertext string) ([]byte, error) {
	if rest, ok := strings.CutPrefix(ciphertext, prefixNoop); ok {
		return decodeNoop(rest)
	}
	rest, ok := strings.CutPrefix(ciphertext, prefixV1)
	if !ok {
		return nil, ErrUnknownCiphertext
	}
	data, err := base64.StdEncoding.DecodeString(rest)
	if err != nil {
		return nil, fmt.Errorf("decode ciphertext: %w", err)
	}
	ns := e.aead.NonceSize()
	if len(data) < ns {
		return nil, errors.New("ciphertext too short")
	}
	pt, err := e.aead.Open(nil, data[:ns], data[ns:], nil)
	if err != nil {
		return nil, fmt.Errorf("open ciphertext: %w", err)
	}
	return pt, nil
}

func (e *AESGCMEncryptor) Digest(plaintext []byte) string {
	h := hmac.New(sha256.New, e.mac)
	h.Write(plaintext)
	return hex.EncodeToString(h.Sum(nil))
}

// NoopEncryptor only encodes. It exists for tests and keyless local development.
type NoopEncryptor struct{}

func (NoopEncryptor) Encrypt(plaintext []byte) (string, error) {
	return prefixNoop + base64.StdEncoding.EncodeToString(plaintext), nil
}

func (NoopEncryptor) Decrypt(ciphertext string) ([]byte, error) {
	rest, ok := strings.CutPrefix(ciphertext, prefixNoop)
	if !ok {
		return nil, ErrUnknownCiphertext
	}
	return decodeNoop(rest)
}

func (NoopEncryptor) Digest(plaintext []byte) string {
	sum := sha256.Sum256(plaintext)
	return hex.EncodeToString(sum[:])
}

func decodeNoop(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode noop ciphertext: %w", err)
	}
	return b, nil
}

// KeyFromString turns a configured key into 32 bytes: a 64-char hex string is decoded,
// anything else is hashed with SHA-256.
func KeyFromString(key string) []byte {
	if decoded, err := hex.DecodeString(key); err == nil && len(decoded) == 32 {
		return decoded
	}
	sum := sha256.Sum256([]byte(key))
	return sum[:]
}
