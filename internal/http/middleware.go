package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.InfoContext(r.Context(), "http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
				slog.String("client_id", requestClientID(r)),
			)
		})
	}
}

// requestClientID reads the client ID from the context, or from the cookie when the
// logger runs outside the ClientID middleware.
func requestClientID(r *http.Request) string {
	if id := ClientIDFromContext(r.Context()); id != "" {
		return id
	}
	if c, err := r.Cookie(ClientCookieName); err == nil {
		return c.Value
	}
	return ""
}

type respWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *respWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *respWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// ClientCookieName names the cookie that identifies a browser client.
const ClientCookieName = "besf_client"

const defaultClientCookieMaxAge = 400 * 24 * time.Hour

// ClientIDConfig configures the client cookie.
type ClientIDConfig struct {
	CookieDomain string
	MaxAge       time.Duration
}

// ClientID returns a middleware that assigns every browser a stable, opaque client ID.
// A missing or malformed cookie is replaced with a fresh random ID.
func ClientID(cfg ClientIDConfig) func(http.Handler) http.Handler {
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = defaultClientCookieMaxAge
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(ClientCookieName); err == nil {
				if parsed, perr := uuid.Parse(c.Value); perr == nil {
					id = parsed.String()
				}
			}
			if id == "" {
				id = uuid.NewString()
				setClientCookie(w, r, cfg.CookieDomain, maxAge, id)
			}
			next.ServeHTTP(w, r.WithContext(withClientID(r.Context(), id)))
		})
	}
}

func setClientCookie(w http.ResponseWriter, r *http.Request, domain string, maxAge time.Duration, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     ClientCookieName,
		Value:    id,
		Path:     "/",
		Domain:   domain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(maxAge.Seconds()),
	})
}

// GateProviderConfig configures GateProvider.
type GateProviderConfig struct {
	// Acquire returns the Gate of a client, creating it on first use.
	Acquire func(ctx context.Context, clientID string) (SessionGate, error)
	// RefreshInterval re-derives a Gate whose last derivation is older than this.
	// Zero disables staleness refreshes.
	RefreshInterval time.Duration
	Logger          *slog.Logger
	Now             func() time.Time
}

// GateProvider installs the client's Gate in the request context. It must run after
// ClientID. Requests proceed without a Gate when none can be acquired; the route guard
// treats that as "not decided yet".
func GateProvider(cfg GateProviderConfig) func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := ClientIDFromContext(r.Context())
			if clientID == "" || cfg.Acquire == nil || isStaticPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			g, err := cfg.Acquire(r.Context(), clientID)
			if err != nil {
				logger.WarnContext(r.Context(), "acquire gate", "client_id", clientID, "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if cfg.RefreshInterval > 0 {
				if at := g.DerivedAt(); !at.IsZero() && now().Sub(at) >= cfg.RefreshInterval {
					g.RefreshSession(r.Context())
				}
			}
			next.ServeHTTP(w, r.WithContext(WithGate(r.Context(), g)))
		})
	}
}

func isStaticPath(p string) bool {
	return strings.HasPrefix(p, "/static/") || p == "/healthz" || p == "/favicon.ico"
}

// browserRequestKey is an unexported context key type for browser request detection.
type browserRequestKey struct{}

// BrowserDetection returns a middleware that detects browser requests vs API requests.
// It sets a context value that can be used by downstream handlers to determine
// whether to return HTML or JSON responses.
func BrowserDetection() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			isBrowser := isBrowserRequest(r)
			ctx := context.WithValue(r.Context(), browserRequestKey{}, isBrowser)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IsBrowserRequest returns true if the current request is from a browser.
func IsBrowserRequest(r *http.Request) bool {
	if val := r.Context().Value(browserRequestKey{}); val != nil {
		if isBrowser, ok := val.(bool); ok {
			return isBrowser
		}
	}
	// Fallback to direct detection if middleware wasn't used
	return isBrowserRequest(r)
}

// isBrowserRequest determines if a request is from a browser based on:
// 1. Path prefix - API routes start with /api/
// 2. Accept header - browsers typically accept text/html
// 3. HTMX requests are considered browser requests.
func isBrowserRequest(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") || strings.HasPrefix(r.URL.Path, "/static/") {
		return false
	}
	if IsHTMX(r) {
		return true
	}

	accept := r.Header.Get("Accept")
	if accept == "" {
		// No Accept header, assume browser for non-API routes
		return true
	}
	if strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html") {
		return false
	}
	return strings.Contains(accept, "text/html") || strings.Contains(accept, "*/*")
}

// signInURL builds the sign-in location that returns the user to the page they asked for.
func signInURL(r *http.Request) string {
	return "/auth?redirect_uri=" + url.QueryEscape(redirectPathForRequest(r))
}

func redirectPathForRequest(r *http.Request) string {
	if IsHTMX(r) {
		if current := safeRedirectFromURL(r.Header.Get("Hx-Current-Url")); current != "" {
			return current
		}
		if referer := safeRedirectFromURL(r.Header.Get("Referer")); referer != "" {
			return referer
		}
	}

	return safeRedirectPath(r.URL.RequestURI())
}

// isSecureRequest reports whether the request reached us over HTTPS, directly or via a proxy.
func isSecureRequest(r *http.Request) bool {
	return r.TLS != nil || isForwardedHTTPS(r)
}
