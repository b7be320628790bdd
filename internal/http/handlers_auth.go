package httpx

import (
	"context"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/besf/portal/internal/domain/auth"
	apperrors "github.com/besf/portal/internal/errors"
	"github.com/besf/portal/internal/service"
	"github.com/besf/portal/internal/validation"
)

const (
	cookieOAuthState   = "oauth_state"
	cookieOAuthNonce   = "oauth_nonce"
	cookiePostLogin    = "post_login_redirect"
	oauthCookieMaxAge  = 600 // 10 minutes
	statusWaitDuration = 2 * time.Second
)

// AuthHandlers provides HTTP handlers for sign-in, sign-out and session status.
// Every successful change re-derives the client's Gate before responding so the
// next request sees the new state.
//
// A sign-in moves the browser to the client ID the auth service issued and a sign-out
// to a fresh one, so an ID seen before a sign-in never carries the signed-in session.
type AuthHandlers struct {
	Svc AuthServiceInterface
	UI  *UIHandlers
	// Acquire and Forget manage the Gates of the issued and replaced client IDs.
	// Without them the handlers fall back to the Gate in the request context.
	Acquire      func(ctx context.Context, clientID string) (SessionGate, error)
	Forget       func(clientID string)
	CookieDomain string
	Logger       *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

var authMeta = PageMeta{Title: "BESF - Sign in", PageTitle: "Sign in", CurrentPage: PageAuth}

// Page renders the sign-in entry point. Signed-in clients go straight to redirect_uri.
// GET /auth?redirect_uri=<path>.
func (h *AuthHandlers) Page(w http.ResponseWriter, r *http.Request) {
	redirectURI := safeRedirectPath(r.URL.Query().Get("redirect_uri"))
	if g, ok := GateFromContext(r.Context()); ok {
		if st := awaitGate(r.Context(), g, statusWaitDuration); st.IsAuthenticated() {
			http.Redirect(w, r, redirectURI, http.StatusSeeOther)
			return
		}
	}
	h.renderPage(w, r, http.StatusOK, NewTemplateData(r, authMeta).
		With("Form", validation.Credentials{}).
		With("Mode", r.URL.Query().Get("mode")).
		With("RedirectURI", redirectURI).
		Build())
}

func (h *AuthHandlers) renderPage(w http.ResponseWriter, r *http.Request, status int, data map[string]any) {
	data["PasswordEnabled"] = h.Svc.PasswordEnabled()
	data["RedirectEnabled"] = h.Svc.RedirectEnabled()
	h.UI.render(w, r, status, data)
}

// isJSONRequest reports whether the request body is JSON.
func isJSONRequest(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

type credentialsRequest struct {
	validation.Credentials
	RedirectURI string `json:"redirect_uri"`
}

func (h *AuthHandlers) readCredentials(w http.ResponseWriter, r *http.Request) (credentialsRequest, bool) {
	var req credentialsRequest
	if isJSONRequest(r) {
		return req, DecodeJSON(w, r, &req)
	}
	req.Email = r.PostFormValue("email")
	req.Password = r.PostFormValue("password")
	req.RedirectURI = r.PostFormValue("redirect_uri")
	return req, true
}

// SignIn handles email/password sign-in from the form or JSON.
// POST /auth/sign-in.
func (h *AuthHandlers) SignIn(w http.ResponseWriter, r *http.Request) {
	h.passwordFlow(w, r, "signin", h.Svc.SignIn)
}

// SignUp creates a password account and signs the client in.
// POST /auth/sign-up.
func (h *AuthHandlers) SignUp(w http.ResponseWriter, r *http.Request) {
	h.passwordFlow(w, r, "signup", h.Svc.SignUp)
}

type passwordFunc func(ctx context.Context, clientID string, in validation.Credentials) (*domainauth.Session, error)

func (h *AuthHandlers) passwordFlow(w http.ResponseWriter, r *http.Request, mode string, fn passwordFunc) {
	req, ok := h.readCredentials(w, r)
	if !ok {
		return
	}
	redirectURI := safeRedirectPath(req.RedirectURI)

	sess, err := fn(r.Context(), ClientIDFromContext(r.Context()), req.Credentials)
	if err != nil {
		if !IsBrowserRequest(r) || isJSONRequest(r) {
			WriteAppError(w, err)
			return
		}
		var (
			fieldErrs map[string]string
			msg       string
			status    int
		)
		if apperrors.IsUnauthorized(err) {
			msg, status = apperrors.Message(err, "Invalid email or password."), http.StatusUnauthorized
		} else {
			fieldErrs, msg, status = h.UI.formFailure(r, err)
		}
		h.renderPage(w, r, status, NewTemplateData(r, authMeta).
			WithError(msg).
			WithFieldErrors(fieldErrs).
			With("Form", validation.Credentials{Email: req.Email}).
			With("Mode", mode).
			With("RedirectURI", redirectURI).
			Build())
		return
	}

	st := h.adoptClient(w, r, sess.ClientID)
	if !IsBrowserRequest(r) || isJSONRequest(r) {
		WriteJSON(w, http.StatusOK, statusPayload(st))
		return
	}
	redirectAfterPost(w, r, redirectURI)
}

// refresh re-derives the client's Gate and returns its new state.
func (h *AuthHandlers) refresh(r *http.Request) domainauth.GateState {
	g, ok := GateFromContext(r.Context())
	if !ok {
		return domainauth.GateState{}
	}
	return g.RefreshSession(r.Context())
}

// adoptClient sets clientID as the browser's client cookie, drops the Gate of the ID the
// request came in with and returns the derived state of the new client's Gate.
func (h *AuthHandlers) adoptClient(w http.ResponseWriter, r *http.Request, clientID string) domainauth.GateState {
	prev := ClientIDFromContext(r.Context())
	if clientID == "" || clientID == prev {
		return h.refresh(r)
	}
	setClientCookie(w, r, h.CookieDomain, defaultClientCookieMaxAge, clientID)
	if h.Forget != nil && prev != "" {
		h.Forget(prev)
	}
	if h.Acquire == nil {
		return domainauth.GateState{}
	}
	g, err := h.Acquire(r.Context(), clientID)
	if err != nil {
		h.logger().WarnContext(r.Context(), "acquire gate for new client", "client_id", clientID, "error", err)
		return domainauth.GateState{}
	}
	return g.RefreshSession(r.Context())
}

// Login starts the identity-provider flow.
// GET /auth/login?redirect_uri=<optional_redirect>.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	if !h.Svc.RedirectEnabled() {
		h.UI.NotFound(w, r)
		return
	}
	redirectURI := safeRedirectPath(r.URL.Query().Get("redirect_uri"))

	result, err := h.Svc.BeginLogin(r.Context(), redirectURI)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "begin login failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_failed",
			Err:     errors.New("unable to start sign-in"),
		})
		return
	}

	h.setOAuthCookies(w, r, oauthCookieParams{State: result.State, Nonce: result.Nonce, RedirectURI: redirectURI})
	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

// Callback completes the identity-provider flow for this client.
// GET /auth/callback?code=<code>&state=<state>.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_code",
			Err:     errors.New("authorization code is required"),
		})
		return
	}
	stateCookie, err := r.Cookie(cookieOAuthState)
	if state == "" || err != nil || stateCookie.Value != state {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_state",
			Err:     errors.New("invalid or missing state parameter"),
		})
		return
	}
	nonceCookie, err := r.Cookie(cookieOAuthNonce)
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_nonce",
			Err:     errors.New("missing nonce parameter"),
		})
		return
	}

	sess, err := h.Svc.CompleteLogin(r.Context(), service.CompleteLoginInput{
		ClientID: ClientIDFromContext(r.Context()),
		Code:     code,
		State:    state,
		Nonce:    nonceCookie.Value,
	})
	if err != nil {
		h.logger().WarnContext(r.Context(), "complete login failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "login_completion_failed",
			Err:     errors.New("sign-in could not be completed"),
		})
		return
	}

	h.clearCookie(w, r, cookieOAuthState)
	h.clearCookie(w, r, cookieOAuthNonce)
	h.adoptClient(w, r, sess.ClientID)
	http.Redirect(w, r, h.getPostLoginRedirect(w, r), http.StatusFound)
}

// Logout signs the client out and moves the browser to a fresh client ID.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if g, ok := GateFromContext(r.Context()); ok {
		g.SignOut(r.Context())
		g.RefreshSession(r.Context())
	}
	if h.Forget != nil {
		if prev := ClientIDFromContext(r.Context()); prev != "" {
			h.Forget(prev)
		}
	}
	setClientCookie(w, r, h.CookieDomain, defaultClientCookieMaxAge, uuid.NewString())

	if !IsBrowserRequest(r) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
		return
	}
	redirectAfterPost(w, r, "/")
}

// Refresh issues a new access token for the client's session.
// POST /auth/refresh.
func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	sess, err := h.Svc.Refresh(r.Context(), ClientIDFromContext(r.Context()))
	if err != nil {
		WriteAppError(w, err)
		return
	}
	h.refresh(r)
	WriteJSON(w, http.StatusOK, map[string]any{"expires_at": sess.ExpiresAt})
}

// Status reports the client's Gate state, waiting briefly for a loading Gate.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	var st domainauth.GateState
	if g, ok := GateFromContext(r.Context()); ok {
		st = awaitGate(r.Context(), g, statusWaitDuration)
	}
	w.Header().Set("Cache-Control", "no-store")
	WriteJSON(w, http.StatusOK, statusPayload(st))
}

type statusResponse struct {
	Authenticated bool                 `json:"authenticated"`
	Loading       bool                 `json:"loading"`
	IsAdmin       bool                 `json:"is_admin"`
	User          *domainauth.Identity `json:"user,omitempty"`
	ExpiresAt     *time.Time           `json:"expires_at,omitempty"`
}

func statusPayload(st domainauth.GateState) statusResponse {
	resp := statusResponse{
		Authenticated: st.IsAuthenticated(),
		Loading:       st.Loading,
		IsAdmin:       st.IsAdmin,
		User:          st.Identity,
	}
	if st.Session != nil && !st.Session.ExpiresAt.IsZero() {
		exp := st.Session.ExpiresAt
		resp.ExpiresAt = &exp
	}
	return resp
}

// clearCookie clears a cookie by setting it to expire immediately.
// It mirrors key attributes (Secure, Path, Domain, SameSite) used when setting cookies
// to maximize compatibility across browsers during deletion.
func (h *AuthHandlers) clearCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

// oauthCookieParams groups values needed to set OAuth cookies.
type oauthCookieParams struct {
	State       string
	Nonce       string
	RedirectURI string
}

// setOAuthCookies stores OAuth state, nonce, and the post-login redirect in short-lived cookies.
func (h *AuthHandlers) setOAuthCookies(w http.ResponseWriter, r *http.Request, p oauthCookieParams) {
	secure := isSecureRequest(r)
	for name, value := range map[string]string{
		cookieOAuthState: p.State,
		cookieOAuthNonce: p.Nonce,
		cookiePostLogin:  p.RedirectURI,
	} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    value,
			Path:     "/",
			Domain:   h.CookieDomain,
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   oauthCookieMaxAge,
		})
	}
}

// getPostLoginRedirect returns the post-login redirect URL and clears the cookie.
func (h *AuthHandlers) getPostLoginRedirect(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(cookiePostLogin)
	if err != nil {
		return "/"
	}
	h.clearCookie(w, r, cookiePostLogin)
	return safeRedirectPath(c.Value)
}
