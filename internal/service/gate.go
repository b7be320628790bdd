package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	domainauth "github.com/besf/portal/internal/domain/auth"
	"github.com/besf/portal/internal/observability/metrics"
	"github.com/besf/portal/internal/observability/statsd"
	"github.com/besf/portal/internal/ports"
)

// ErrGateClosed is returned when activating a Gate after Close.
var ErrGateClosed = errors.New("gate closed")

const defaultLookupTimeout = 5 * time.Second

// GateOptions groups dependencies for NewGate.
type GateOptions struct {
	ClientID string
	Source   ports.SessionSource
	Roles    ports.RoleLookup
	// Tokens, when set, checks the access token of pushed sessions the way the
	// session source checks stored ones. Pushed sessions that fail are treated as
	// signed out.
	Tokens  TokenVerifier
	Logger  *slog.Logger
	Metrics statsd.Sink
	// LookupTimeout bounds each derivation triggered by a pushed session change
	// and the initial refresh started by Activate.
	LookupTimeout time.Duration
}

// Gate owns the session, identity and admin flag of one browser client.
// Consumers only read it; state changes come from RefreshSession and from
// session changes pushed by the source.
type Gate struct {
	clientID      string
	source        ports.SessionSource
	roles         ports.RoleLookup
	tokens        TokenVerifier
	logger        *slog.Logger
	metrics       statsd.Sink
	lookupTimeout time.Duration

	seq atomic.Uint64

	mu        sync.RWMutex
	session   *domainauth.Session
	identity  *domainauth.Identity
	isAdmin   bool
	applied   uint64
	derivedAt time.Time
	sub       ports.Subscription
	activated bool
	closed    bool

	ready     chan struct{}
	readyOnce sync.Once
}

// NewGate constructs an inactive Gate. Call Activate to start it.
func NewGate(opts GateOptions) *Gate {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sink := opts.Metrics
	if sink == nil {
		sink = statsd.Nop{}
	}
	timeout := opts.LookupTimeout
	if timeout <= 0 {
		timeout = defaultLookupTimeout
	}
	return &Gate{
		clientID:      opts.ClientID,
		source:        opts.Source,
		roles:         opts.Roles,
		tokens:        opts.Tokens,
		logger:        logger.With("component", "gate", "client_id", opts.ClientID),
		metrics:       sink,
		lookupTimeout: timeout,
		ready:         make(chan struct{}),
	}
}

// Activate subscribes to session changes and then starts the initial refresh in the
// background. A second call is a no-op. A subscription failure is returned, but the
// initial refresh still runs so the Gate leaves the loading state.
func (g *Gate) Activate(ctx context.Context) error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return ErrGateClosed
	}
	if g.activated {
		g.mu.Unlock()
		return nil
	}
	g.activated = true
	g.mu.Unlock()

	sub, subErr := g.source.Subscribe(g.onChange)
	if subErr != nil {
		g.logger.ErrorContext(ctx, "subscribe to session changes", "error", subErr)
	}
	metrics.EmitGateOp(g.metrics, metrics.GateMetric{Op: metrics.OpSubscribe, Err: subErr})
	if subErr == nil {
		g.mu.Lock()
		if g.closed {
			g.mu.Unlock()
			_ = sub.Unsubscribe()
			return ErrGateClosed
		}
		g.sub = sub
		g.mu.Unlock()
	}

	bg := context.WithoutCancel(ctx)
	go func() {
		rctx, cancel := context.WithTimeout(bg, g.lookupTimeout)
		defer cancel()
		g.RefreshSession(rctx)
	}()

	if subErr != nil {
		return fmt.Errorf("subscribe: %w", subErr)
	}
	return nil
}

// RefreshSession re-derives the state from the source: current session, then the
// role of its user. Any failure clears the session, identity and admin flag; the
// error is logged and never returned. Loading is always cleared.
func (g *Gate) RefreshSession(ctx context.Context) domainauth.GateState {
	token := g.seq.Add(1)
	start := time.Now()

	sess, isAdmin, err := g.deriveFromSource(ctx)
	if err != nil {
		g.logger.ErrorContext(ctx, "refresh session", "error", err)
		sess, isAdmin = nil, false
	}
	g.apply(token, sess, isAdmin)
	metrics.EmitGateOp(g.metrics, metrics.GateMetric{Op: metrics.OpRefresh, Duration: time.Since(start), Err: err})
	return g.State()
}

func (g *Gate) deriveFromSource(ctx context.Context) (*domainauth.Session, bool, error) {
	sess, err := g.source.CurrentSession(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("current session: %w", err)
	}
	if sess == nil {
		return nil, false, nil
	}
	isAdmin, err := g.lookupAdmin(ctx, sess.UserID)
	if err != nil {
		return nil, false, err
	}
	return sess, isAdmin, nil
}

// onChange reacts to a pushed session change. A failed role lookup demotes the
// pushed session to non-admin instead of dropping it.
func (g *Gate) onChange(change domainauth.SessionChange) {
	token := g.seq.Add(1)
	ctx, cancel := context.WithTimeout(context.Background(), g.lookupTimeout)
	defer cancel()

	g.logger.DebugContext(ctx, "session change", "kind", string(change.Kind))
	g.metrics.Count("gate.change", 1, map[string]string{"kind": string(change.Kind)})

	sess := change.Session
	if sess != nil && sess.Expired(time.Now()) {
		sess = nil
	}
	if sess != nil {
		if err := verifySessionToken(g.tokens, sess); err != nil {
			g.logger.WarnContext(ctx, "discarding pushed session with invalid access token",
				"kind", string(change.Kind), "error", err)
			g.metrics.Count("gate.change.rejected", 1, map[string]string{"kind": string(change.Kind)})
			sess = nil
		}
	}
	if sess == nil {
		g.apply(token, nil, false)
		return
	}

	cp := *sess
	isAdmin, err := g.lookupAdmin(ctx, cp.UserID)
	if err != nil {
		g.logger.ErrorContext(ctx, "role lookup after session change", "error", err)
		isAdmin = false
	}
	g.apply(token, &cp, isAdmin)
}

func (g *Gate) lookupAdmin(ctx context.Context, userID string) (bool, error) {
	role, found, err := g.roles.LookupRole(ctx, userID)
	if err != nil {
		metrics.EmitGateOp(g.metrics, metrics.GateMetric{Op: metrics.OpRoleLookup, Err: err})
		return false, fmt.Errorf("lookup role: %w", err)
	}
	if !found {
		g.logger.DebugContext(ctx, "no profile row for user", "user_id", userID)
		return false, nil
	}
	return role.IsAdmin(), nil
}

// apply stores a derivation result unless a later-started derivation already applied.
// Loading is cleared either way.
func (g *Gate) apply(token uint64, sess *domainauth.Session, isAdmin bool) {
	g.mu.Lock()
	g.derivedAt = time.Now()
	if token > g.applied {
		g.applied = token
		g.session = sess
		if sess != nil {
			id := sess.Identity()
			g.identity = &id
			g.isAdmin = isAdmin
		} else {
			g.identity = nil
			g.isAdmin = false
		}
	} else {
		g.metrics.Count("gate.derivation.stale", 1, nil)
	}
	g.mu.Unlock()

	g.readyOnce.Do(func() { close(g.ready) })
}

// SignOut asks the source to invalidate the session. Local state is left to the
// SignedOut notification; errors are logged and swallowed.
func (g *Gate) SignOut(ctx context.Context) {
	err := g.source.SignOut(ctx)
	if err != nil {
		g.logger.ErrorContext(ctx, "sign out", "error", err)
	}
	metrics.EmitGateOp(g.metrics, metrics.GateMetric{Op: metrics.OpSignOut, Err: err})
}

// Close cancels the session subscription. It is safe to call more than once.
func (g *Gate) Close() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true
	sub := g.sub
	g.sub = nil
	g.mu.Unlock()

	if sub == nil {
		return nil
	}
	if err := sub.Unsubscribe(); err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}
	return nil
}

// ClientID returns the browser client this Gate belongs to.
func (g *Gate) ClientID() string { return g.clientID }

// State returns a snapshot of the Gate.
func (g *Gate) State() domainauth.GateState {
	loading := g.Loading()
	g.mu.RLock()
	defer g.mu.RUnlock()
	st := domainauth.GateState{IsAdmin: g.isAdmin, Loading: loading}
	if g.session != nil {
		s := *g.session
		st.Session = &s
	}
	if g.identity != nil {
		id := *g.identity
		st.Identity = &id
	}
	return st
}

// Identity returns the current identity, or nil when signed out.
func (g *Gate) Identity() *domainauth.Identity {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.identity == nil {
		return nil
	}
	id := *g.identity
	return &id
}

func (g *Gate) IsAuthenticated() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.identity != nil
}

func (g *Gate) IsAdmin() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.isAdmin
}

// DerivedAt is when the last derivation (applied or stale) completed. Zero while loading.
func (g *Gate) DerivedAt() time.Time {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.derivedAt
}

// Loading is true until the first derivation completes.
func (g *Gate) Loading() bool {
	select {
	case <-g.ready:
		return false
	default:
		return true
	}
}

// Ready is closed once the Gate has left the loading state.
func (g *Gate) Ready() <-chan struct{} { return g.ready }

// WaitReady blocks until the Gate leaves the loading state or ctx is done.
func (g *Gate) WaitReady(ctx context.Context) error {
	select {
	case <-g.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
