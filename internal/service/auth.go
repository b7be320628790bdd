package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/besf/portal/internal/core"
	domainauth "github.com/besf/portal/internal/domain/auth"
	"github.com/besf/portal/internal/domain/model"
	apperrors "github.com/besf/portal/internal/errors"
	"github.com/besf/portal/internal/ports"
	"github.com/besf/portal/internal/ratelimit"
	"github.com/besf/portal/internal/security"
	"github.com/besf/portal/internal/validation"
)

const msgInvalidCredentials = "Invalid email or password"

// TokenIssuer signs session access tokens.
type TokenIssuer interface {
	Issue(userID, email string) (token string, expiresAt time.Time, err error)
}

// PasswordHasher hashes and checks account passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Provider ports.AuthProvider // Optional: OIDC or dev provider; nil disables redirect login
	Sessions ports.SessionStore
	Notifier ports.SessionNotifier
	Tokens   TokenIssuer
	Profiles core.ProfileRepository
	Roles    ports.RoleMapper
	Accounts core.AccountRepository // Optional: nil disables password sign-in
	Hasher   PasswordHasher
	Limiter  ports.RateLimiter
	Activity core.ActivityRepository // Optional
	Logger   *slog.Logger
	Now      func() time.Time
}

// AuthService orchestrates sign-in flows: it verifies who the user is, makes sure a profile
// exists, stores the session for the browser client and announces the change to its Gate.
type AuthService struct {
	provider ports.AuthProvider
	sessions ports.SessionStore
	notifier ports.SessionNotifier
	tokens   TokenIssuer
	profiles core.ProfileRepository
	roles    ports.RoleMapper
	accounts core.AccountRepository
	hasher   PasswordHasher
	limiter  ports.RateLimiter
	activity core.ActivityRepository
	logger   *slog.Logger
	now      func() time.Time
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) (*AuthService, error) {
	switch {
	case opts.Sessions == nil:
		return nil, errors.New("SessionStore is required")
	case opts.Notifier == nil:
		return nil, errors.New("SessionNotifier is required")
	case opts.Tokens == nil:
		return nil, errors.New("TokenIssuer is required")
	case opts.Profiles == nil:
		return nil, errors.New("ProfileRepository is required")
	case opts.Roles == nil:
		return nil, errors.New("RoleMapper is required")
	case opts.Accounts != nil && (opts.Hasher == nil || opts.Limiter == nil):
		return nil, errors.New("password sign-in requires a hasher and a rate limiter")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		provider: opts.Provider,
		sessions: opts.Sessions,
		notifier: opts.Notifier,
		tokens:   opts.Tokens,
		profiles: opts.Profiles,
		roles:    opts.Roles,
		accounts: opts.Accounts,
		hasher:   opts.Hasher,
		limiter:  opts.Limiter,
		activity: opts.Activity,
		logger:   logger.With("component", "auth_service"),
		now:      now,
	}, nil
}

// PasswordEnabled reports whether email/password sign-in is configured.
func (s *AuthService) PasswordEnabled() bool { return s.accounts != nil }

// RedirectEnabled reports whether an identity provider login is configured.
func (s *AuthService) RedirectEnabled() bool { return s.provider != nil }

// BeginLoginResult contains the result of beginning a login flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginLogin initiates an authentication flow and returns the provider auth URL with state and nonce.
func (s *AuthService) BeginLogin(ctx context.Context, redirectURL string) (*BeginLoginResult, error) {
	if s.provider == nil {
		return nil, errors.New("no identity provider configured")
	}
	if redirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	authURL, state, nonce, err := s.provider.Begin(ctx, ports.BeginInput{RedirectURL: redirectURL})
	if err != nil {
		return nil, fmt.Errorf("begin auth flow: %w", err)
	}

	return &BeginLoginResult{AuthURL: authURL, State: state, Nonce: nonce}, nil
}

// CompleteLoginInput groups parameters for completing a login flow.
type CompleteLoginInput struct {
	// ClientID is the client the flow started on. It is retired; the session is
	// issued under the ID returned in Session.ClientID.
	ClientID string
	Code     string
	State    string
	Nonce    string
}

// CompleteLogin exchanges the authorization code for an identity and signs the client in.
func (s *AuthService) CompleteLogin(ctx context.Context, input CompleteLoginInput) (*domainauth.Session, error) {
	if s.provider == nil {
		return nil, errors.New("no identity provider configured")
	}
	if input.Code == "" {
		return nil, errors.New("authorization code is required")
	}
	if input.State == "" {
		return nil, errors.New("state parameter is required")
	}

	identity, err := s.provider.Exchange(ctx, ports.ExchangeInput{
		Code:  input.Code,
		State: input.State,
		Nonce: input.Nonce,
	})
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	return s.startSession(ctx, input.ClientID, identity, "sign_in")
}

// SignUp creates a password account and signs the client in.
func (s *AuthService) SignUp(ctx context.Context, clientID string, in validation.Credentials) (*domainauth.Session, error) {
	if s.accounts == nil {
		return nil, apperrors.Forbidden("Password sign-up is disabled")
	}
	creds, err := validation.ValidateCredentials(in)
	if err != nil {
		return nil, fieldError(err)
	}

	hash, err := s.hasher.Hash(creds.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	acct, err := s.accounts.Create(ctx, model.Account{
		UserID:       "pw|" + uuid.NewString(),
		Email:        creds.Email,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}

	return s.startSession(ctx, clientID, domainauth.Identity{UserID: acct.UserID, Email: acct.Email}, "sign_up")
}

// SignIn checks a password against the stored account. Attempts are limited per email;
// a successful sign-in clears the counter.
func (s *AuthService) SignIn(ctx context.Context, clientID string, in validation.Credentials) (*domainauth.Session, error) {
	if s.accounts == nil {
		return nil, apperrors.Forbidden("Password sign-in is disabled")
	}
	email, ferr := validation.Email.Parse(in.Email)
	if ferr != nil {
		return nil, apperrors.ValidationField(ferr.Field, ferr.Message)
	}
	if in.Password == "" {
		return nil, apperrors.ValidationField("password", "Password is required")
	}

	key := ratelimit.SignIn.Key(email)
	limited, err := s.limiter.IsRateLimited(ctx, key, ratelimit.SignIn.MaxAttempts, ratelimit.SignIn.Window)
	if err != nil {
		return nil, fmt.Errorf("check sign-in rate limit: %w", err)
	}
	if limited {
		s.logger.WarnContext(ctx, "sign-in rate limited", "email", email)
		return nil, apperrors.RateLimited()
	}

	acct, err := s.accounts.GetByEmail(ctx, email)
	if apperrors.IsNotFound(err) {
		return nil, apperrors.Unauthorized(msgInvalidCredentials)
	}
	if err != nil {
		return nil, err
	}
	if cmpErr := s.hasher.Compare(acct.PasswordHash, in.Password); cmpErr != nil {
		if errors.Is(cmpErr, security.ErrPasswordMismatch) {
			return nil, apperrors.Unauthorized(msgInvalidCredentials)
		}
		return nil, fmt.Errorf("compare password: %w", cmpErr)
	}

	if resetErr := s.limiter.Reset(ctx, key); resetErr != nil {
		s.logger.WarnContext(ctx, "reset sign-in rate limit", "error", resetErr)
	}
	return s.startSession(ctx, clientID, domainauth.Identity{UserID: acct.UserID, Email: acct.Email}, "sign_in")
}

// Refresh issues a new access token for the client's session and announces TOKEN_REFRESHED.
func (s *AuthService) Refresh(ctx context.Context, clientID string) (*domainauth.Session, error) {
	sess, err := s.currentSession(ctx, clientID)
	if err != nil {
		return nil, err
	}

	token, exp, err := s.tokens.Issue(sess.UserID, sess.Email)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	sess.AccessToken = token
	sess.IssuedAt = s.now()
	sess.ExpiresAt = exp

	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	s.publish(ctx, domainauth.ChangeTokenRefreshed, &sess)
	return &sess, nil
}

// NotifyUserUpdated announces USER_UPDATED for the client's current session so every Gate of
// that client re-derives its identity and role.
func (s *AuthService) NotifyUserUpdated(ctx context.Context, clientID string) error {
	sess, err := s.currentSession(ctx, clientID)
	if err != nil {
		return err
	}
	s.publish(ctx, domainauth.ChangeUserUpdated, &sess)
	return nil
}

func (s *AuthService) currentSession(ctx context.Context, clientID string) (domainauth.Session, error) {
	if clientID == "" {
		return domainauth.Session{}, apperrors.Unauthorized("No active session")
	}
	sess, err := s.sessions.Get(ctx, clientID)
	if errors.Is(err, ports.ErrSessionNotFound) {
		return domainauth.Session{}, apperrors.Unauthorized("No active session")
	}
	if err != nil {
		return domainauth.Session{}, fmt.Errorf("load session: %w", err)
	}
	if sess.Expired(s.now()) {
		return domainauth.Session{}, apperrors.Unauthorized("Session expired")
	}
	return sess, nil
}

// startSession makes sure the profile row exists before SIGNED_IN is published, so the
// Gate's role lookup sees it. The session is stored under a freshly minted client ID,
// returned in Session.ClientID; the caller must hand it to the browser. A client ID
// known before authentication never identifies an authenticated session.
func (s *AuthService) startSession(
	ctx context.Context,
	prevClientID string,
	id domainauth.Identity,
	action string,
) (*domainauth.Session, error) {
	if prevClientID == "" {
		return nil, errors.New("client ID is required")
	}

	if _, err := s.profiles.Ensure(ctx, model.EnsureProfileRequest{
		UserID:    id.UserID,
		Email:     id.Email,
		FirstName: id.FirstName,
		LastName:  id.LastName,
		Role:      s.roles.Map(id),
	}); err != nil {
		return nil, fmt.Errorf("ensure profile: %w", err)
	}

	token, exp, err := s.tokens.Issue(id.UserID, id.Email)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	if !id.ExpiresAt.IsZero() && id.ExpiresAt.Before(exp) {
		exp = id.ExpiresAt
	}

	clientID := uuid.NewString()
	sess := domainauth.Session{
		ID:          uuid.NewString(),
		ClientID:    clientID,
		UserID:      id.UserID,
		Email:       id.Email,
		FirstName:   id.FirstName,
		LastName:    id.LastName,
		AccessToken: token,
		IssuedAt:    s.now(),
		ExpiresAt:   exp,
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	s.publish(ctx, domainauth.ChangeSignedIn, &sess)
	s.retireClient(ctx, prevClientID)
	logActivity(ctx, s.activity, s.logger, model.LogActivityRequest{
		UserID:       id.UserID,
		Action:       action,
		ResourceType: "session",
		ResourceID:   sess.ID,
	})
	s.logger.InfoContext(ctx, "client signed in",
		"client_id", clientID, "previous_client_id", prevClientID, "user_id", id.UserID)
	return &sess, nil
}

// retireClient removes a session still stored under a client ID that was replaced at
// sign-in and signs out the Gates of that ID.
func (s *AuthService) retireClient(ctx context.Context, clientID string) {
	_, err := s.sessions.Get(ctx, clientID)
	if errors.Is(err, ports.ErrSessionNotFound) {
		return
	}
	if err != nil {
		s.logger.WarnContext(ctx, "load replaced session", "client_id", clientID, "error", err)
	}
	if err := s.sessions.Delete(ctx, clientID); err != nil {
		s.logger.ErrorContext(ctx, "delete replaced session", "client_id", clientID, "error", err)
	}
	change := domainauth.SessionChange{Kind: domainauth.ChangeSignedOut, ClientID: clientID, At: s.now()}
	if err := s.notifier.Publish(ctx, change); err != nil {
		s.logger.ErrorContext(ctx, "publish session change", "kind", string(change.Kind), "error", err)
	}
}

// publish logs delivery failures. The session is already stored, so a Gate that missed
// the change still finds it on its next refresh.
func (s *AuthService) publish(ctx context.Context, kind domainauth.ChangeKind, sess *domainauth.Session) {
	change := domainauth.SessionChange{Kind: kind, ClientID: sess.ClientID, Session: sess, At: s.now()}
	if err := s.notifier.Publish(ctx, change); err != nil {
		s.logger.ErrorContext(ctx, "publish session change", "kind", string(kind), "error", err)
	}
}

// fieldError converts a validation failure into a field-scoped AppError.
func fieldError(err error) error {
	var fe *validation.FieldError
	if errors.As(err, &fe) {
		return apperrors.ValidationField(fe.Field, fe.Message)
	}
	return apperrors.Wrap(err, apperrors.ErrCodeValidation, "Invalid input")
}

// logActivity records a member write. Failures are logged and never fail the write itself.
func logActivity(ctx context.Context, repo core.ActivityRepository, logger *slog.Logger, req model.LogActivityRequest) {
	if repo == nil {
		return
	}
	if err := repo.Log(ctx, req); err != nil {
		logger.WarnContext(ctx, "record activity", "action", req.Action, "error", err)
	}
}
