package httpx

import (
	"context"
	"time"

	domainauth "github.com/besf/portal/internal/domain/auth"
)

// SessionGate is the part of a client's Gate that the HTTP layer uses.
// *service.Gate implements it.
type SessionGate interface {
	ClientID() string
	State() domainauth.GateState
	Ready() <-chan struct{}
	DerivedAt() time.Time
	RefreshSession(ctx context.Context) domainauth.GateState
	SignOut(ctx context.Context)
}

// gateKey and clientIDKey are unexported context key types to avoid collisions across packages.
type (
	gateKey     struct{}
	clientIDKey struct{}
)

// WithGate returns a child context that carries the client's Gate.
// If gate is nil, the original ctx is returned unchanged.
func WithGate(ctx context.Context, gate SessionGate) context.Context {
	if gate == nil {
		return ctx
	}
	return context.WithValue(ctx, gateKey{}, gate)
}

// GateFromContext returns the Gate installed by the gate provider middleware.
func GateFromContext(ctx context.Context) (SessionGate, bool) {
	g, ok := ctx.Value(gateKey{}).(SessionGate)
	return g, ok && g != nil
}

// MustGateFromContext is GateFromContext for handlers that are only ever mounted
// behind the gate provider. It panics otherwise.
func MustGateFromContext(ctx context.Context) SessionGate {
	g, ok := GateFromContext(ctx)
	if !ok {
		panic("httpx: no session gate in context; handler is not behind GateProvider") //nolint:forbidigo // wiring bug
	}
	return g
}

// GateStateFromContext returns the Gate's snapshot, or the zero (signed-out, not loading)
// state when no Gate is installed.
func GateStateFromContext(ctx context.Context) domainauth.GateState {
	if g, ok := GateFromContext(ctx); ok {
		return g.State()
	}
	return domainauth.GateState{}
}

// SessionFromContext returns the session of the signed-in client, if any.
func SessionFromContext(ctx context.Context) (*domainauth.Session, bool) {
	st := GateStateFromContext(ctx)
	if st.Session == nil || st.Identity == nil {
		return nil, false
	}
	return st.Session, true
}

func withClientID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, clientIDKey{}, id)
}

// ClientIDFromContext returns the browser client ID assigned by the ClientID middleware.
func ClientIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(clientIDKey{}).(string)
	return id
}
