package httpx

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	portal "github.com/besf/portal"
	"github.com/besf/portal/internal/service"
)

// GateSource hands out the per-client Gates. *service.GateRegistry implements it.
type GateSource interface {
	Acquire(ctx context.Context, clientID string) (*service.Gate, error)
	// Forget drops the Gate of a client ID that was replaced.
	Forget(clientID string)
}

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth          AuthServiceInterface
	Profiles      ProfilesService
	Registrations RegistrationsService
	Gamers        GamersService
	Admin         AdminServiceInterface
	Gates         GateSource

	// GateRefreshInterval re-derives a client's Gate on a request when its last
	// derivation is older than this. Zero disables it.
	GateRefreshInterval time.Duration
	// GuardGrace is how long a protected request waits for a loading Gate. Zero never waits.
	GuardGrace time.Duration

	CookieDomain string
	TrustProxy   bool
	HealthChecks []HealthCheck

	// TemplateFS and StaticFS override where templates and static files are read from.
	// When nil, dev mode reads web/ from disk and production uses the embedded copies.
	TemplateFS fs.FS
	StaticFS   fs.FS

	IsDev  bool         // Development mode flag for hot reloading, etc.
	Logger *slog.Logger // Logger for template and HTTP errors (optional)
}

var _ GateSource = (*service.GateRegistry)(nil)

// NewRouter creates and configures the HTTP router with the client, CSRF and gate
// middleware. Logging, recovery and compression are added by the server bootstrap.
func NewRouter(services RouterServices) (http.Handler, error) {
	if services.Auth == nil || services.Registrations == nil || services.Gates == nil {
		return nil, errors.New("Auth, Registrations and Gates are required")
	}
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	templateFS, staticFS, err := resolveFilesystems(services)
	if err != nil {
		return nil, err
	}
	renderer, err := NewTemplateRenderer(TemplateRendererConfig{TemplateFS: templateFS, Logger: logger})
	if err != nil {
		return nil, err
	}

	ui := &UIHandlers{
		T:             renderer,
		Auth:          services.Auth,
		Profiles:      services.Profiles,
		Registrations: services.Registrations,
		Gamers:        services.Gamers,
		Admin:         services.Admin,
		TrustProxy:    services.TrustProxy,
		IsDev:         services.IsDev,
		Logger:        logger,
	}
	api := &APIHandlers{
		Auth:          services.Auth,
		Profiles:      services.Profiles,
		Registrations: services.Registrations,
		Gamers:        services.Gamers,
		Admin:         services.Admin,
		TrustProxy:    services.TrustProxy,
		Logger:        logger,
	}
	acquire := func(ctx context.Context, clientID string) (SessionGate, error) {
		g, err := services.Gates.Acquire(ctx, clientID)
		if err != nil {
			return nil, err
		}
		return g, nil
	}
	auth := &AuthHandlers{
		Svc:          services.Auth,
		UI:           ui,
		Acquire:      acquire,
		Forget:       services.Gates.Forget,
		CookieDomain: services.CookieDomain,
		Logger:       logger,
	}

	mux := http.NewServeMux()
	guards := routeGuards{
		member: ProtectedRoute(GuardConfig{Grace: services.GuardGrace, Loading: ui.Loading}),
		admin:  ProtectedRoute(GuardConfig{RequireAdmin: true, Grace: services.GuardGrace, Loading: ui.Loading}),
	}

	health := healthHandler(services.HealthChecks)
	mux.Handle("GET /healthz", health)
	mux.Handle("HEAD /healthz", health)
	mux.Handle("GET /static/", staticHandler(staticFS, services.IsDev))

	registerPublicRoutes(mux, ui, api)
	registerAuthRoutes(mux, auth)
	registerMemberRoutes(mux, ui, api, guards)
	registerAdminRoutes(mux, ui, api, guards)

	// Anything the patterns above do not match.
	mux.HandleFunc("/", ui.NotFound)

	var handler http.Handler = mux
	handler = GateProvider(GateProviderConfig{
		Acquire:         acquire,
		RefreshInterval: services.GateRefreshInterval,
		Logger:          logger,
	})(handler)
	handler = CSRFProtection(CSRFConfig{CookieDomain: services.CookieDomain})(handler)
	handler = ClientID(ClientIDConfig{CookieDomain: services.CookieDomain})(handler)
	return BrowserDetection()(handler), nil
}

type routeGuards struct {
	member func(http.Handler) http.Handler
	admin  func(http.Handler) http.Handler
}

func registerPublicRoutes(mux *http.ServeMux, ui *UIHandlers, api *APIHandlers) {
	mux.HandleFunc("GET /{$}", ui.Home)
	mux.Handle("GET /about", ui.staticPage(PageAbout, "About"))
	mux.HandleFunc("GET /games", ui.Games)
	mux.HandleFunc("GET /events", ui.Events)
	mux.Handle("GET /news", ui.staticPage(PageNews, "News"))
	mux.Handle("GET /contact", ui.staticPage(PageContact, "Contact"))
	mux.Handle("GET /privacy", ui.staticPage(PagePrivacy, "Privacy Policy"))
	mux.Handle("GET /terms", ui.staticPage(PageTerms, "Terms of Service"))

	mux.HandleFunc("GET /register", ui.GamerRegister)
	mux.HandleFunc("POST /register", ui.SubmitGamerRegister)

	mux.HandleFunc("GET /api/games", api.ListGames)
	mux.HandleFunc("GET /api/events", api.ListEvents)
	mux.HandleFunc("POST /api/gamers", api.RegisterGamer)
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.HandleFunc("GET /auth", h.Page)
	mux.HandleFunc("POST /auth/sign-in", h.SignIn)
	mux.HandleFunc("POST /auth/sign-up", h.SignUp)
	mux.HandleFunc("GET /auth/login", h.Login)
	mux.HandleFunc("GET /auth/callback", h.Callback)
	mux.HandleFunc("POST /auth/logout", h.Logout)
	mux.HandleFunc("POST /auth/refresh", h.Refresh)
	mux.HandleFunc("GET /auth/status", h.Status)
}

func registerMemberRoutes(mux *http.ServeMux, ui *UIHandlers, api *APIHandlers, g routeGuards) {
	member := func(fn http.HandlerFunc) http.Handler { return g.member(fn) }

	mux.Handle("GET /profile", member(ui.Profile))
	mux.Handle("POST /profile", member(ui.UpdateProfile))
	mux.Handle("GET /register-games", member(ui.RegisterGames))
	mux.Handle("POST /register-games/{gameID}", member(ui.SubmitGame))
	mux.Handle("POST /register-games/{gameID}/leave", member(ui.LeaveGame))
	mux.Handle("GET /my-events", member(ui.MyEvents))
	mux.Handle("POST /my-events/{eventID}", member(ui.SubmitEvent))
	mux.Handle("POST /my-events/{eventID}/update", member(ui.UpdateEvent))
	mux.Handle("POST /my-events/{eventID}/cancel", member(ui.CancelEvent))

	mux.Handle("GET /api/profile", member(api.GetProfile))
	mux.Handle("PUT /api/profile", member(api.UpdateProfile))
	mux.Handle("GET /api/me/activity", member(api.Activity))
	mux.Handle("GET /api/me/games", member(api.MyGames))
	mux.Handle("POST /api/me/games/{gameID}", member(api.RegisterGame))
	mux.Handle("PUT /api/me/games/{gameID}", member(api.UpdateGame))
	mux.Handle("DELETE /api/me/games/{gameID}", member(api.LeaveGame))
	mux.Handle("GET /api/me/events", member(api.MyEvents))
	mux.Handle("POST /api/me/events/{eventID}", member(api.RegisterEvent))
	mux.Handle("PUT /api/me/events/{eventID}", member(api.UpdateEvent))
	mux.Handle("DELETE /api/me/events/{eventID}", member(api.CancelEvent))
}

func registerAdminRoutes(mux *http.ServeMux, ui *UIHandlers, api *APIHandlers, g routeGuards) {
	admin := func(fn http.HandlerFunc) http.Handler { return g.admin(fn) }

	mux.Handle("GET /admin", admin(ui.AdminDashboard))
	mux.Handle("POST /admin/users/{userID}/role", admin(ui.SetUserRole))

	mux.Handle("GET /api/admin/dashboard", admin(api.Dashboard))
	mux.Handle("GET /api/admin/users", admin(api.ListUsers))
	mux.Handle("POST /api/admin/users/{userID}/role", admin(api.SetRole))
}

// resolveFilesystems picks the template and static filesystems: explicit overrides first,
// then web/ on disk in dev mode, then the embedded copies.
func resolveFilesystems(services RouterServices) (fs.FS, fs.FS, error) {
	templateFS, staticFS := services.TemplateFS, services.StaticFS
	if templateFS == nil {
		if services.IsDev {
			templateFS = os.DirFS(TemplatePathFromRoot)
		} else {
			sub, err := fs.Sub(portal.TemplateFS, TemplatePathFromRoot)
			if err != nil {
				return nil, nil, err
			}
			templateFS = sub
		}
	}
	if staticFS == nil {
		if services.IsDev {
			staticFS = os.DirFS(StaticPathFromRoot)
		} else {
			sub, err := fs.Sub(portal.StaticFS, StaticPathFromRoot)
			if err != nil {
				return nil, nil, err
			}
			staticFS = sub
		}
	}
	return templateFS, staticFS, nil
}

// staticHandler serves /static/ with cache headers: no caching in dev mode so edits show
// up immediately, a day otherwise.
func staticHandler(staticFS fs.FS, isDev bool) http.Handler {
	files := http.StripPrefix("/static/", http.FileServerFS(staticFS))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isDev {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		} else {
			w.Header().Set("Cache-Control", "public, max-age=86400")
		}
		files.ServeHTTP(w, r)
	})
}
