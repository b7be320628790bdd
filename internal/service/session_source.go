package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	domainauth "github.com/besf/portal/internal/domain/auth"
	"github.com/besf/portal/internal/ports"
)

// TokenVerifier checks a session access token and returns the user ID it was issued for.
type TokenVerifier interface {
	Verify(token string) (userID string, err error)
}

// ClientSessionSourceOptions groups dependencies for NewClientSessionSource.
type ClientSessionSourceOptions struct {
	ClientID string
	Store    ports.SessionStore
	Notifier ports.SessionNotifier
	Tokens   TokenVerifier
	Logger   *slog.Logger
	Now      func() time.Time
}

// ClientSessionSource is the session collaborator for a single browser client.
type ClientSessionSource struct {
	clientID string
	store    ports.SessionStore
	notifier ports.SessionNotifier
	tokens   TokenVerifier
	logger   *slog.Logger
	now      func() time.Time
}

var _ ports.SessionSource = (*ClientSessionSource)(nil)

// NewClientSessionSource constructs a ClientSessionSource.
func NewClientSessionSource(opts ClientSessionSourceOptions) *ClientSessionSource {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &ClientSessionSource{
		clientID: opts.ClientID,
		store:    opts.Store,
		notifier: opts.Notifier,
		tokens:   opts.Tokens,
		logger:   logger,
		now:      now,
	}
}

// CurrentSession returns the stored session, or nil when the client has none, the
// session expired, or its access token no longer verifies for the session's user.
func (s *ClientSessionSource) CurrentSession(ctx context.Context) (*domainauth.Session, error) {
	if s.clientID == "" {
		return nil, nil
	}
	sess, err := s.store.Get(ctx, s.clientID)
	if errors.Is(err, ports.ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess.Expired(s.now()) {
		return nil, nil
	}
	if verr := verifySessionToken(s.tokens, &sess); verr != nil {
		s.logger.WarnContext(ctx, "discarding session with invalid access token",
			"client_id", s.clientID, "error", verr)
		return nil, nil
	}
	return &sess, nil
}

var errTokenSubject = errors.New("access token issued for another user")

// verifySessionToken checks that the session's access token verifies and names the
// session's user. A nil verifier accepts every session.
func verifySessionToken(tokens TokenVerifier, sess *domainauth.Session) error {
	if tokens == nil {
		return nil
	}
	userID, err := tokens.Verify(sess.AccessToken)
	if err != nil {
		return err
	}
	if userID != sess.UserID {
		return errTokenSubject
	}
	return nil
}

// Subscribe registers fn for changes to this client's session.
func (s *ClientSessionSource) Subscribe(fn func(domainauth.SessionChange)) (ports.Subscription, error) {
	if fn == nil {
		return nil, errors.New("subscriber callback is required")
	}
	return s.notifier.Subscribe(s.clientID, fn)
}

// SignOut deletes the stored session and announces SIGNED_OUT. Both steps run even if
// the first fails.
func (s *ClientSessionSource) SignOut(ctx context.Context) error {
	var errs []error
	if err := s.store.Delete(ctx, s.clientID); err != nil {
		errs = append(errs, fmt.Errorf("delete session: %w", err))
	}
	change := domainauth.SessionChange{
		Kind:     domainauth.ChangeSignedOut,
		ClientID: s.clientID,
		At:       s.now(),
	}
	if err := s.notifier.Publish(ctx, change); err != nil {
		errs = append(errs, fmt.Errorf("publish sign out: %w", err))
	}
	return errors.Join(errs...)
}
