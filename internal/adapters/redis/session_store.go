// Package redis provides the Redis-backed session store and session notifier.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/besf/portal/internal/domain/auth"
	"github.com/besf/portal/internal/ports"
)

// SessionStore keeps one session per browser client.
// Keys expire with the session's ExpiresAt.
type SessionStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

var _ ports.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates a new Redis-based session store.
func NewSessionStore(client redis.UniversalClient) *SessionStore {
	return NewSessionStoreWithPrefix(client, "session:")
}

// NewSessionStoreWithPrefix creates a Redis session store with a custom key prefix.
func NewSessionStoreWithPrefix(client redis.UniversalClient, prefix string) *SessionStore {
	return &SessionStore{client: client, prefix: prefix, now: time.Now}
}

func (s *SessionStore) key(clientID string) string { return s.prefix + clientID }

// Save stores sess under its ClientID, replacing any previous session of that client.
func (s *SessionStore) Save(ctx context.Context, sess domainauth.Session) error {
	if sess.ClientID == "" {
		return errors.New("session client ID cannot be empty")
	}
	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return errors.New("session is expired")
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(sess.ClientID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Get returns the session of clientID or ports.ErrSessionNotFound.
func (s *SessionStore) Get(ctx context.Context, clientID string) (domainauth.Session, error) {
	if clientID == "" {
		return domainauth.Session{}, ports.ErrSessionNotFound
	}

	data, err := s.client.Get(ctx, s.key(clientID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.Session{}, ports.ErrSessionNotFound
		}
		return domainauth.Session{}, fmt.Errorf("redis get: %w", err)
	}

	var sess domainauth.Session
	if unmarshalErr := json.Unmarshal(data, &sess); unmarshalErr != nil {
		return domainauth.Session{}, fmt.Errorf("unmarshal session: %w", unmarshalErr)
	}

	if sess.Expired(s.now()) {
		if deleteErr := s.Delete(ctx, clientID); deleteErr != nil {
			return domainauth.Session{}, fmt.Errorf("cleanup expired session: %w", deleteErr)
		}
		return domainauth.Session{}, ports.ErrSessionNotFound
	}
	return sess, nil
}

// Delete removes the session of clientID. Deleting a missing session is not an error.
func (s *SessionStore) Delete(ctx context.Context, clientID string) error {
	if clientID == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.key(clientID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
