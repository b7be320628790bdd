package httpx

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	domainauth "github.com/besf/portal/internal/domain/auth"
)

// GuardDecision is the outcome of evaluating a protected route against a Gate.
type GuardDecision int

const (
	// GuardWait renders a neutral placeholder while the Gate is still loading.
	GuardWait GuardDecision = iota
	// GuardSignIn sends the visitor to the sign-in entry point.
	GuardSignIn
	// GuardLanding sends a signed-in non-admin to the landing page.
	GuardLanding
	// GuardAllow renders the protected content.
	GuardAllow
)

func (d GuardDecision) String() string {
	switch d {
	case GuardWait:
		return "wait"
	case GuardSignIn:
		return "sign_in"
	case GuardLanding:
		return "landing"
	case GuardAllow:
		return "allow"
	default:
		return "unknown"
	}
}

// Decide evaluates the guard rules in order: loading, then authentication, then the
// admin requirement.
func Decide(state domainauth.GateState, requireAdmin bool) GuardDecision {
	switch {
	case state.Loading:
		return GuardWait
	case !state.IsAuthenticated():
		return GuardSignIn
	case requireAdmin && !state.IsAdmin:
		return GuardLanding
	default:
		return GuardAllow
	}
}

const loadingRetryAfter = 1

// GuardConfig configures ProtectedRoute.
type GuardConfig struct {
	RequireAdmin bool
	// Grace is how long a request waits for a loading Gate before the placeholder is
	// returned. Zero or negative never waits.
	Grace time.Duration
	// Loading renders the browser placeholder and writes the status from loadingStatus.
	// Nil writes a minimal page.
	Loading http.HandlerFunc
}

// ProtectedRoute wraps next with the route guard. Browsers are redirected; API callers
// get JSON errors.
func ProtectedRoute(cfg GuardConfig) func(http.Handler) http.Handler {
	grace := cfg.Grace
	loading := cfg.Loading
	if loading == nil {
		loading = defaultLoadingPage
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			g, ok := GateFromContext(r.Context())
			if !ok {
				writeWait(w, r, loading)
				return
			}

			state := awaitGate(r.Context(), g, grace)
			switch Decide(state, cfg.RequireAdmin) {
			case GuardWait:
				writeWait(w, r, loading)
			case GuardSignIn:
				writeSignIn(w, r)
			case GuardLanding:
				writeLanding(w, r)
			case GuardAllow:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// awaitGate waits up to grace for a loading Gate to settle and returns its state.
func awaitGate(ctx context.Context, g SessionGate, grace time.Duration) domainauth.GateState {
	state := g.State()
	if !state.Loading || grace <= 0 {
		return state
	}
	t := time.NewTimer(grace)
	defer t.Stop()
	select {
	case <-g.Ready():
	case <-t.C:
	case <-ctx.Done():
	}
	return g.State()
}

func writeWait(w http.ResponseWriter, r *http.Request, loading http.HandlerFunc) {
	w.Header().Set("Retry-After", strconv.Itoa(loadingRetryAfter))
	w.Header().Set("Cache-Control", "no-store")
	if !IsBrowserRequest(r) {
		WriteError(w, ErrorParams{
			Code:    http.StatusServiceUnavailable,
			ErrCode: "session_loading",
			Err:     errors.New("session is still loading; retry shortly"),
		})
		return
	}
	loading(w, r)
}

// loadingStatus is 202 for htmx swaps so the client keeps polling, 200 otherwise.
func loadingStatus(r *http.Request) int {
	if IsHTMX(r) {
		return http.StatusAccepted
	}
	return http.StatusOK
}

func writeSignIn(w http.ResponseWriter, r *http.Request) {
	if !IsBrowserRequest(r) {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
		return
	}
	target := signInURL(r)
	if IsHTMX(r) {
		HTMX(w).Redirect(target)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func writeLanding(w http.ResponseWriter, r *http.Request) {
	if !IsBrowserRequest(r) {
		WriteError(w, ErrorParams{
			Code:    http.StatusForbidden,
			ErrCode: "insufficient_permissions",
			Err:     errors.New("insufficient permissions"),
		})
		return
	}
	if IsHTMX(r) {
		HTMX(w).Redirect("/")
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

const loadingHTML = `<!doctype html><html lang="en"><head><meta charset="utf-8">` +
	`<meta http-equiv="refresh" content="1"><title>Loading</title></head>` +
	`<body><div class="loading" role="status" aria-live="polite">Loading…</div></body></html>`

func defaultLoadingPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(loadingStatus(r))
	_, _ = w.Write([]byte(loadingHTML))
}
