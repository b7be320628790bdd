package httpx

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/publicsuffix"

	"github.com/besf/portal/internal/adapters/authroles"
	"github.com/besf/portal/internal/adapters/localbus"
	"github.com/besf/portal/internal/data/cryptoutil"
	domainauth "github.com/besf/portal/internal/domain/auth"
	authmocks "github.com/besf/portal/internal/mocks/auth"
	"github.com/besf/portal/internal/ratelimit"
	"github.com/besf/portal/internal/security"
	"github.com/besf/portal/internal/service"
)

const testPassword = "Secret123"

// portalHarness runs the real router over in-memory repositories.
type portalHarness struct {
	srv      *httptest.Server
	store    *memStore
	sessions *authmocks.MemorySessionStore
}

func newPortalHarness(t *testing.T, adminEmails ...string) *portalHarness {
	t.Helper()
	SkipIfNoTemplates(t)

	logger := slog.New(slog.DiscardHandler)
	store := newMemStore()
	sessions := authmocks.NewMemorySessionStore()
	bus := localbus.New()
	t.Cleanup(func() { _ = bus.Close() })

	tokens, err := security.NewTokenManager(security.TokenConfig{
		Secret: []byte(strings.Repeat("k", 32)),
		TTL:    time.Hour,
	})
	require.NoError(t, err)

	limiter := ratelimit.Local{Window: ratelimit.NewSlidingWindow()}
	profiles := memProfiles{store}
	activity := memActivity{store}

	auth, err := service.NewAuthService(service.AuthServiceOptions{
		Sessions: sessions,
		Notifier: bus,
		Tokens:   tokens,
		Profiles: profiles,
		Roles:    authroles.NewStaticRoleMapper(adminEmails, ""),
		Accounts: memAccounts{store},
		Hasher:   security.NewHasher(4),
		Limiter:  limiter,
		Activity: activity,
		Logger:   logger,
	})
	require.NoError(t, err)

	profileSvc, err := service.NewProfileService(service.ProfileServiceOptions{
		Profiles: profiles, Activity: activity, Logger: logger,
	})
	require.NoError(t, err)

	registrations, err := service.NewRegistrationService(service.RegistrationServiceOptions{
		Games:      memGames{store},
		UserGames:  memUserGames{store},
		Events:     memEvents{store},
		UserEvents: memUserEvents{store},
		Activity:   activity,
		Limiter:    limiter,
		Logger:     logger,
	})
	require.NoError(t, err)

	enc, err := cryptoutil.NewAESGCMEncryptor(cryptoutil.KeyFromString("portal-flow-test-key"))
	require.NoError(t, err)
	gamers, err := service.NewGamerService(service.GamerServiceOptions{
		Gamers: memGamers{store}, Encryptor: enc, Limiter: limiter, Logger: logger,
	})
	require.NoError(t, err)

	admin, err := service.NewAdminService(service.AdminServiceOptions{
		Profiles: profiles, Stats: memStats{store}, Activity: activity, Logger: logger,
	})
	require.NoError(t, err)

	gates := service.NewGateRegistry(service.GateRegistryOptions{
		Capacity: 64,
		NewGate: func(clientID string) *service.Gate {
			return service.NewGate(service.GateOptions{
				ClientID: clientID,
				Source: service.NewClientSessionSource(service.ClientSessionSourceOptions{
					ClientID: clientID,
					Store:    sessions,
					Notifier: bus,
					Tokens:   tokens,
					Logger:   logger,
				}),
				Roles:  profiles,
				Tokens: tokens,
				Logger: logger,
			})
		},
		Logger: logger,
	})
	t.Cleanup(func() { _ = gates.Close() })

	handler, err := NewRouter(RouterServices{
		Auth:          auth,
		Profiles:      profileSvc,
		Registrations: registrations,
		Gamers:        gamers,
		Admin:         admin,
		Gates:         gates,
		GuardGrace:    2 * time.Second,
		TemplateFS:    os.DirFS(TemplatePathFromTest),
		StaticFS:      fstest.MapFS{"css/site.css": {Data: []byte("body{}")}},
		Logger:        logger,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &portalHarness{srv: srv, store: store, sessions: sessions}
}

// browser is one cookie-carrying client of the harness.
type browser struct {
	t      *testing.T
	base   *url.URL
	client *http.Client
}

func (p *portalHarness) newBrowser(t *testing.T) *browser {
	t.Helper()
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	require.NoError(t, err)
	base, err := url.Parse(p.srv.URL)
	require.NoError(t, err)
	b := &browser{t: t, base: base, client: &http.Client{Jar: jar, Timeout: 10 * time.Second}}
	b.get("/")
	return b
}

// page is a fully read response plus the path it ended on after redirects.
type page struct {
	Status int
	Path   string
	Query  url.Values
	Body   string
	Header http.Header
}

func (b *browser) do(req *http.Request) page {
	b.t.Helper()
	resp, err := b.client.Do(req)
	require.NoError(b.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	return page{
		Status: resp.StatusCode,
		Path:   resp.Request.URL.Path,
		Query:  resp.Request.URL.Query(),
		Body:   string(body),
		Header: resp.Header,
	}
}

func (b *browser) get(path string) page {
	b.t.Helper()
	req, err := http.NewRequestWithContext(b.t.Context(), http.MethodGet, b.base.String()+path, nil)
	require.NoError(b.t, err)
	return b.do(req)
}

func (b *browser) cookie(name string) string {
	for _, c := range b.client.Jar.Cookies(b.base) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// setCookie replaces a cookie in the browser's jar.
func (b *browser) setCookie(name, value string) {
	b.client.Jar.SetCookies(b.base, []*http.Cookie{{Name: name, Value: value, Path: "/"}})
}

// post submits a form the way the rendered pages do, hidden CSRF field included.
func (b *browser) post(path string, form url.Values) page {
	b.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	form.Set(DefaultCSRFCookieName, b.cookie(DefaultCSRFCookieName))
	req, err := http.NewRequestWithContext(b.t.Context(), http.MethodPost, b.base.String()+path,
		strings.NewReader(form.Encode()))
	require.NoError(b.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

// api sends a JSON request with the CSRF header, as app.js does for fetch calls.
func (b *browser) api(method, path string, payload any) page {
	b.t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(b.t, err)
		body = strings.NewReader(string(raw))
	}
	req, err := http.NewRequestWithContext(b.t.Context(), method, b.base.String()+path, body)
	require.NoError(b.t, err)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(DefaultCSRFHeaderName, b.cookie(DefaultCSRFCookieName))
	return b.do(req)
}

func (b *browser) signUp(email string) page {
	b.t.Helper()
	return b.post("/auth/sign-up", url.Values{
		"email":        {email},
		"password":     {testPassword},
		"redirect_uri": {"/profile"},
	})
}

func (p *portalHarness) userID(t *testing.T, email string) string {
	t.Helper()
	prof, err := memProfiles{p.store}.GetByEmail(context.Background(), email)
	require.NoError(t, err)
	return prof.UserID
}

func TestPortalFlow_ProtectedPageSendsSignedOutClientToSignIn(t *testing.T) {
	p := newPortalHarness(t)
	b := p.newBrowser(t)

	require.NotEmpty(t, b.cookie(ClientCookieName))
	require.NotEmpty(t, b.cookie(DefaultCSRFCookieName))

	pg := b.get("/profile")
	assert.Equal(t, http.StatusOK, pg.Status)
	assert.Equal(t, "/auth", pg.Path)
	assert.Equal(t, "/profile", pg.Query.Get("redirect_uri"))
	assert.Contains(t, pg.Body, "Sign in")
}

func TestPortalFlow_MemberJourney(t *testing.T) {
	p := newPortalHarness(t)
	b := p.newBrowser(t)

	pg := b.signUp("Neo@Example.com")
	require.Equal(t, http.StatusOK, pg.Status, pg.Body)
	assert.Equal(t, "/profile", pg.Path)
	assert.Contains(t, pg.Body, "Signed in as neo@example.com")
	assert.Equal(t, 1, p.sessions.Len())

	t.Run("invalid profile keeps the form", func(t *testing.T) {
		pg := b.post("/profile", url.Values{"username": {"x!"}, "first_name": {"Neo"}, "last_name": {"Mokoena"}})
		assert.Equal(t, http.StatusUnprocessableEntity, pg.Status)
		assert.Equal(t, "/profile", pg.Path)
		assert.Contains(t, pg.Body, errMsgFixBelow)
		assert.Contains(t, pg.Body, `value="x!"`)
	})

	t.Run("profile update", func(t *testing.T) {
		pg := b.post("/profile", url.Values{"username": {"neo_bw"}, "first_name": {"Neo"}, "last_name": {"Mokoena"}})
		require.Equal(t, http.StatusOK, pg.Status, pg.Body)
		assert.Equal(t, "profile_saved", pg.Query.Get("notice"))
		assert.Contains(t, pg.Body, "Profile updated successfully.")
		assert.Contains(t, pg.Body, `value="neo_bw"`)
	})

	t.Run("game registration", func(t *testing.T) {
		pg := b.post("/register-games/game-1", url.Values{"gamer_tag": {"NeoBW"}, "skill_level": {"advanced"}})
		require.Equal(t, http.StatusOK, pg.Status, pg.Body)
		assert.Contains(t, pg.Body, "You are registered for the game.")

		pg = b.post("/register-games/game-2", url.Values{"gamer_tag": {"x"}, "skill_level": {"legendary"}})
		assert.Equal(t, http.StatusUnprocessableEntity, pg.Status)

		pg = b.post("/register-games/game-1/leave", nil)
		require.Equal(t, http.StatusOK, pg.Status, pg.Body)
		assert.Contains(t, pg.Body, "You have left the game.")
	})

	t.Run("event registration and cancel", func(t *testing.T) {
		pg := b.post("/my-events/event-1", url.Values{"team_name": {"Gaborone Gunners"}})
		require.Equal(t, http.StatusOK, pg.Status, pg.Body)
		assert.Contains(t, pg.Body, "You are registered for the event.")

		pg = b.post("/my-events/event-1", url.Values{"team_name": {"Gaborone Gunners"}})
		assert.Equal(t, http.StatusConflict, pg.Status)

		pg = b.post("/my-events/event-1/cancel", nil)
		require.Equal(t, http.StatusOK, pg.Status, pg.Body)
		assert.Contains(t, pg.Body, "Your event registration was cancelled.")
	})

	t.Run("json api shares the session", func(t *testing.T) {
		pg := b.api(http.MethodGet, "/api/profile", nil)
		require.Equal(t, http.StatusOK, pg.Status, pg.Body)
		assert.Contains(t, pg.Body, `"username":"neo_bw"`)

		pg = b.api(http.MethodGet, "/auth/status", nil)
		assert.Contains(t, pg.Body, `"authenticated":true`)
		assert.Contains(t, pg.Body, `"is_admin":false`)
	})

	t.Run("members cannot reach admin", func(t *testing.T) {
		pg := b.get("/admin")
		assert.Equal(t, "/", pg.Path)

		pg = b.api(http.MethodGet, "/api/admin/dashboard", nil)
		assert.Equal(t, http.StatusForbidden, pg.Status)
	})

	t.Run("sign out", func(t *testing.T) {
		pg := b.post("/auth/logout", nil)
		assert.Equal(t, "/", pg.Path)
		assert.Zero(t, p.sessions.Len())

		pg = b.get("/my-events")
		assert.Equal(t, "/auth", pg.Path)
	})
}

func TestPortalFlow_ClientIDChangesAcrossSignInAndSignOut(t *testing.T) {
	p := newPortalHarness(t)
	member := p.newBrowser(t)
	preAuth := member.cookie(ClientCookieName)
	require.NotEmpty(t, preAuth)

	pg := member.signUp("lerato@example.com")
	require.Equal(t, http.StatusOK, pg.Status, pg.Body)
	assert.Equal(t, "/profile", pg.Path)
	signedIn := member.cookie(ClientCookieName)
	assert.NotEqual(t, preAuth, signedIn)

	other := p.newBrowser(t)
	other.setCookie(ClientCookieName, preAuth)
	pg = other.get("/profile")
	assert.Equal(t, "/auth", pg.Path, "an ID known before sign-in carries no session")

	other.setCookie(ClientCookieName, signedIn)
	pg = other.get("/profile")
	require.Equal(t, "/profile", pg.Path)

	pg = member.post("/auth/logout", nil)
	assert.Equal(t, "/", pg.Path)
	assert.NotEqual(t, signedIn, member.cookie(ClientCookieName))
	assert.Zero(t, p.sessions.Len())

	pg = other.get("/profile")
	assert.Equal(t, "/auth", pg.Path)
}

func TestPortalFlow_SignInWhileSignedInRetiresOldClient(t *testing.T) {
	p := newPortalHarness(t)
	b := p.newBrowser(t)
	b.signUp("kitso@example.com")
	first := b.cookie(ClientCookieName)

	pg := b.post("/auth/sign-in", url.Values{"email": {"kitso@example.com"}, "password": {testPassword}})
	require.Equal(t, http.StatusOK, pg.Status, pg.Body)
	assert.NotEqual(t, first, b.cookie(ClientCookieName))
	assert.Equal(t, 1, p.sessions.Len(), "the session of the replaced ID is removed")

	stale := p.newBrowser(t)
	stale.setCookie(ClientCookieName, first)
	pg = stale.get("/my-events")
	assert.Equal(t, "/auth", pg.Path)
}

func TestPortalFlow_SignInWithWrongPassword(t *testing.T) {
	p := newPortalHarness(t)
	first := p.newBrowser(t)
	first.signUp("tumi@example.com")

	b := p.newBrowser(t)
	pg := b.post("/auth/sign-in", url.Values{"email": {"tumi@example.com"}, "password": {"Wrong1234"}})
	assert.Equal(t, http.StatusUnauthorized, pg.Status)
	assert.Contains(t, pg.Body, "Invalid email or password")
	assert.Contains(t, pg.Body, `value="tumi@example.com"`)

	pg = b.post("/auth/sign-in", url.Values{
		"email":        {"tumi@example.com"},
		"password":     {testPassword},
		"redirect_uri": {"/my-events"},
	})
	require.Equal(t, http.StatusOK, pg.Status, pg.Body)
	assert.Equal(t, "/my-events", pg.Path)
}

func TestPortalFlow_WriteWithoutCSRFTokenIsRejected(t *testing.T) {
	p := newPortalHarness(t)
	b := p.newBrowser(t)

	req, err := http.NewRequestWithContext(t.Context(), http.MethodPost, p.srv.URL+"/auth/sign-up",
		strings.NewReader(url.Values{"email": {"x@example.com"}, "password": {testPassword}}.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	pg := b.do(req)

	assert.Equal(t, http.StatusForbidden, pg.Status)
	assert.Zero(t, p.sessions.Len())
}

func TestPortalFlow_AdminPromotesMember(t *testing.T) {
	p := newPortalHarness(t, "chair@besf.org")

	member := p.newBrowser(t)
	member.signUp("player@example.com")
	memberID := p.userID(t, "player@example.com")

	admin := p.newBrowser(t)
	pg := admin.signUp("chair@besf.org")
	require.Equal(t, http.StatusOK, pg.Status, pg.Body)
	adminID := p.userID(t, "chair@besf.org")

	pg = admin.get("/admin")
	require.Equal(t, http.StatusOK, pg.Status, pg.Body)
	assert.Equal(t, "/admin", pg.Path)
	assert.Contains(t, pg.Body, "player@example.com")
	assert.Contains(t, pg.Body, "/admin/users/"+memberID+"/role")
	assert.NotContains(t, pg.Body, "/admin/users/"+adminID+"/role", "no role form for the acting admin")

	pg = admin.post("/admin/users/"+memberID+"/role", url.Values{"role": {"admin"}})
	require.Equal(t, http.StatusOK, pg.Status, pg.Body)
	assert.Contains(t, pg.Body, "Role updated.")

	role, found, err := memProfiles{p.store}.LookupRole(context.Background(), memberID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, domainauth.RoleAdmin, role)

	// The promoted member's Gate picks the role up on its next derivation.
	pg = member.post("/auth/refresh", nil)
	require.Equal(t, http.StatusOK, pg.Status, pg.Body)
	pg = member.get("/admin")
	assert.Equal(t, "/admin", pg.Path)

	pg = admin.post("/admin/users/"+adminID+"/role", url.Values{"role": {"user"}})
	assert.Equal(t, http.StatusUnprocessableEntity, pg.Status)
	assert.Contains(t, pg.Body, "You cannot remove your own admin role")
}

func TestPortalFlow_PublicGamerRegister(t *testing.T) {
	p := newPortalHarness(t)
	b := p.newBrowser(t)

	pg := b.get("/register")
	require.Equal(t, http.StatusOK, pg.Status)
	assert.Contains(t, pg.Body, "Valorant")
	assert.NotContains(t, pg.Body, "Retired Title")

	form := func(omang string) url.Values {
		return url.Values{
			"name":            {"Kagiso"},
			"surname":         {"Molefe"},
			"omang_number":    {omang},
			"consent_given":   {"on"},
			"game_id":         {"game-1"},
			"gamer_id_game-1": {"kagiso#BW1"},
		}
	}

	pg = b.post("/register", form("123456789"))
	require.Equal(t, http.StatusOK, pg.Status, pg.Body)
	assert.Contains(t, pg.Body, "Thank you! Your registration has been received.")
	require.Len(t, p.store.gamers, 1)
	assert.NotContains(t, p.store.gamers[0].OmangCipher, "123456789")

	pg = b.post("/register", form("123456789"))
	assert.Equal(t, http.StatusConflict, pg.Status)
	assert.NotContains(t, pg.Body, "123456789", "the Omang number is never echoed back")
	assert.Contains(t, pg.Body, `value="kagiso#BW1"`)

	pg = b.post("/register", form("987654321"))
	require.Equal(t, http.StatusOK, pg.Status, pg.Body)

	pg = b.post("/register", form("111222333"))
	assert.Equal(t, http.StatusTooManyRequests, pg.Status)
	assert.Len(t, p.store.gamers, 2)
}

func TestPortalFlow_PublicPagesAndNotFound(t *testing.T) {
	p := newPortalHarness(t)
	b := p.newBrowser(t)

	for _, path := range []string{"/", "/about", "/games", "/events", "/news", "/contact", "/privacy", "/terms", "/auth"} {
		pg := b.get(path)
		assert.Equal(t, http.StatusOK, pg.Status, path)
		assert.Contains(t, pg.Body, "</html>", path)
	}

	pg := b.get("/no-such-page")
	assert.Equal(t, http.StatusNotFound, pg.Status)
	assert.Contains(t, pg.Body, "Page not found")

	pg = b.api(http.MethodGet, "/api/no-such-endpoint", nil)
	assert.Equal(t, http.StatusNotFound, pg.Status)
	assert.Contains(t, pg.Body, `"error":"not_found"`)

	pg = b.api(http.MethodGet, "/api/games", nil)
	require.Equal(t, http.StatusOK, pg.Status)
	assert.Contains(t, pg.Body, "Valorant")

	pg = b.get("/static/css/site.css")
	assert.Equal(t, http.StatusOK, pg.Status)
	assert.Equal(t, "public, max-age=86400", pg.Header.Get("Cache-Control"))

	pg = b.get("/healthz")
	assert.Equal(t, http.StatusOK, pg.Status)
}

func TestPortalFlow_HTMXNavigationRendersPartial(t *testing.T) {
	p := newPortalHarness(t)
	b := p.newBrowser(t)

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, p.srv.URL+"/games", nil)
	require.NoError(t, err)
	req.Header.Set("Hx-Request", "true")
	req.Header.Set("Hx-Target", "main")
	pg := b.do(req)

	require.Equal(t, http.StatusOK, pg.Status)
	assert.True(t, strings.HasPrefix(pg.Body, "<title>BESF - Games</title>"))
	assert.Contains(t, pg.Body, `hx-swap-oob="outerHTML"`)
	assert.NotContains(t, pg.Body, "</html>")
	assert.Contains(t, pg.Header.Get("Hx-Trigger"), "nav:activate")
}
