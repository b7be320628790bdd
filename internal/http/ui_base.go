package httpx

import (
	"context"
	"html"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	domainauth "github.com/besf/portal/internal/domain/auth"
	"github.com/besf/portal/internal/domain/model"
	apperrors "github.com/besf/portal/internal/errors"
	"github.com/besf/portal/internal/service"
	"github.com/besf/portal/internal/validation"
)

// AuthServiceInterface defines the auth operations the HTTP layer needs.
type AuthServiceInterface interface {
	PasswordEnabled() bool
	RedirectEnabled() bool
	BeginLogin(ctx context.Context, redirectURL string) (*service.BeginLoginResult, error)
	CompleteLogin(ctx context.Context, input service.CompleteLoginInput) (*domainauth.Session, error)
	SignUp(ctx context.Context, clientID string, in validation.Credentials) (*domainauth.Session, error)
	SignIn(ctx context.Context, clientID string, in validation.Credentials) (*domainauth.Session, error)
	Refresh(ctx context.Context, clientID string) (*domainauth.Session, error)
	NotifyUserUpdated(ctx context.Context, clientID string) error
}

// ProfilesService is a minimal interface for profile pages and the profile API.
type ProfilesService interface {
	Get(ctx context.Context, userID string) (*model.Profile, error)
	Update(ctx context.Context, userID string, in validation.ProfileUpdate) (*model.Profile, error)
	RecentActivity(ctx context.Context, userID string) ([]*model.ActivityLog, error)
}

// RegistrationsService exposes game and event registration.
type RegistrationsService interface {
	ListGames(ctx context.Context) ([]*model.Game, error)
	MyGames(ctx context.Context, userID string) ([]*model.UserGame, error)
	RegisterGame(ctx context.Context, userID, gameID string, in validation.GameRegistration) (*model.UserGame, error)
	UpdateGame(ctx context.Context, userID, gameID string, in validation.GameRegistration) (*model.UserGame, error)
	LeaveGame(ctx context.Context, userID, gameID string) error
	ListEvents(ctx context.Context) ([]*model.Event, error)
	MyEvents(ctx context.Context, userID string) ([]*model.UserEvent, error)
	RegisterEvent(ctx context.Context, userID, eventID string, in validation.EventRegistration) (*model.UserEvent, error)
	UpdateEvent(ctx context.Context, userID, eventID string, in validation.EventRegistration) (*model.UserEvent, error)
	CancelEvent(ctx context.Context, userID, eventID string) error
}

// GamersService accepts public register entries.
type GamersService interface {
	Register(ctx context.Context, clientIP string, in validation.GamerRegistration) (*model.Gamer, error)
}

// AdminServiceInterface is the admin dashboard's view of the backend.
type AdminServiceInterface interface {
	Dashboard(ctx context.Context) (*model.DashboardCounts, error)
	ListUsers(ctx context.Context, limit, offset int) ([]*model.Profile, error)
	SetRole(ctx context.Context, actorID, userID string, role domainauth.Role) (*model.Profile, error)
}

// Compile-time interface assertions to ensure concrete services satisfy their HTTP interfaces.
var (
	_ AuthServiceInterface  = (*service.AuthService)(nil)
	_ ProfilesService       = (*service.ProfileService)(nil)
	_ RegistrationsService  = (*service.RegistrationService)(nil)
	_ GamersService         = (*service.GamerService)(nil)
	_ AdminServiceInterface = (*service.AdminService)(nil)
	_ SessionGate           = (*service.Gate)(nil)
)

// UIHandlers serves browser-facing routes.
type UIHandlers struct {
	T             *TemplateRenderer
	Auth          AuthServiceInterface
	Profiles      ProfilesService
	Registrations RegistrationsService
	Gamers        GamersService
	Admin         AdminServiceInterface
	TrustProxy    bool
	IsDev         bool // Development mode flag for enhanced error reporting
	Logger        *slog.Logger
}

// logger returns the configured logger or falls back to slog.Default().
func (h *UIHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// PageSpec defines metadata and an optional fetch for page-specific data.
type PageSpec struct {
	Meta   PageMeta
	Status int
	Fetch  func(ctx context.Context, data map[string]any) error
}

// Page builds base data, optionally fetches content data, and renders.
func (h *UIHandlers) Page(w http.ResponseWriter, r *http.Request, spec PageSpec) {
	data := basePageData(r, spec.Meta)
	if spec.Fetch != nil {
		if err := spec.Fetch(r.Context(), data); err != nil {
			h.logger().ErrorContext(r.Context(), "page data fetch failed",
				"error", err,
				"page", spec.Meta.CurrentPage,
			)
			markPageError(data)
		}
	}
	h.render(w, r, spec.Status, data)
}

// render writes a full page, or for htmx navigation only the content block plus
// the document title and an out-of-band header update.
func (h *UIHandlers) render(w http.ResponseWriter, r *http.Request, status int, data map[string]any) {
	if status == 0 {
		status = http.StatusOK
	}
	if !WantsPartial(r) {
		if err := h.T.RenderFull(w, status, data); err != nil {
			h.logAndRenderTemplateError(w, r, err, "full page render")
		}
		return
	}

	title, _ := data["Title"].(string)
	pageTitle, _ := data["PageTitle"].(string)
	currentPage, _ := data["CurrentPage"].(string)

	// Hint client JS to update nav active state based on current path
	triggers := map[string]any{"nav:activate": map[string]string{"path": r.URL.Path}}
	if failed, _ := data["Error"].(bool); failed {
		if msg, _ := data["ErrorMessage"].(string); strings.TrimSpace(msg) != "" {
			triggers["showToast"] = map[string]string{"message": msg, "type": "error"}
		}
	}
	SetHXTriggers(w, triggers)

	var prefix strings.Builder
	prefix.WriteString(`<title>` + html.EscapeString(title) + `</title>`)
	prefix.WriteString(`<h1 id="page-title" class="page-title" hx-swap-oob="outerHTML">` +
		html.EscapeString(pageTitle) + `</h1>`)

	pw := &prefixWriter{ResponseWriter: w, prefix: prefix.String()}
	if err := h.T.RenderContent(pw, currentPage, status, data); err != nil {
		h.logAndRenderTemplateError(w, r, err, "partial content render")
	}
}

// prefixWriter emits prefix right after the header so partial responses stay a single write path.
type prefixWriter struct {
	http.ResponseWriter
	prefix  string
	written bool
}

func (p *prefixWriter) Write(b []byte) (int, error) {
	if !p.written {
		p.written = true
		if _, err := p.ResponseWriter.Write([]byte(p.prefix)); err != nil {
			return 0, err
		}
	}
	return p.ResponseWriter.Write(b)
}

func markPageError(data map[string]any) {
	data["Error"] = true
	if _, ok := data["ErrorMessage"]; ok {
		return
	}
	data["ErrorMessage"] = errMsgGeneric
}

// formFailure turns a service error into what a form re-render shows: field errors
// for validation failures and a banner message otherwise. Unexpected errors are logged.
func (h *UIHandlers) formFailure(r *http.Request, err error) (map[string]string, string, int) {
	switch {
	case apperrors.IsValidation(err) || apperrors.IsForeignKey(err):
		if field := apperrors.GetField(err); field != "" {
			return map[string]string{field: apperrors.Message(err, errMsgFixBelow)}, errMsgFixBelow, http.StatusUnprocessableEntity
		}
		return nil, apperrors.Message(err, errMsgFixBelow), http.StatusUnprocessableEntity
	case apperrors.IsConflict(err):
		errs := map[string]string{}
		if field := apperrors.GetField(err); field != "" {
			errs[field] = apperrors.Message(err, "")
		}
		return errs, apperrors.Message(err, errMsgGeneric), http.StatusConflict
	case apperrors.IsRateLimited(err):
		return nil, apperrors.MsgRateLimited, http.StatusTooManyRequests
	case apperrors.IsNotFound(err):
		return nil, apperrors.Message(err, "Not found."), http.StatusNotFound
	case apperrors.IsForbidden(err):
		return nil, apperrors.Message(err, "You do not have permission to do that."), http.StatusForbidden
	default:
		h.logger().ErrorContext(r.Context(), "form submission failed",
			"error", err,
			"path", r.URL.Path,
		)
		return nil, errMsgGeneric, http.StatusInternalServerError
	}
}

// logAndRenderTemplateError logs template errors and renders them in dev mode.
func (h *UIHandlers) logAndRenderTemplateError(w http.ResponseWriter, r *http.Request, err error, context string) {
	h.logger().Error("template rendering failed",
		"error", err,
		"context", context,
		"path", r.URL.Path,
		"method", r.Method,
	)

	if h.IsDev {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		if _, writeErr := w.Write([]byte(
			`<div class="template-error"><h2>Template Rendering Error</h2>` +
				`<p><strong>Context:</strong> ` + html.EscapeString(context) + `</p>` +
				`<p><strong>Path:</strong> ` + html.EscapeString(r.URL.Path) + `</p>` +
				`<pre>` + html.EscapeString(err.Error()) + `</pre></div>`,
		)); writeErr != nil {
			h.logger().Error("failed to write template error response", "error", writeErr)
		}
		return
	}

	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// redirectAfterPost sends the browser to target after a successful form post, using
// Hx-Redirect for htmx so the whole page (and its nav state) reloads.
func redirectAfterPost(w http.ResponseWriter, r *http.Request, target string) {
	if IsHTMX(r) {
		HTMX(w).Redirect(target)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// getPageParams parses pagination params from URL query with sane defaults.
func getPageParams(q url.Values) (int, int) {
	page := 1
	pageSize := 20
	if p := q.Get("page"); p != "" {
		if n, err := strconv.Atoi(p); err == nil && n > 0 {
			page = n
		}
	}
	if s := q.Get("page_size"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 100 {
			pageSize = n
		}
	}
	return page, pageSize
}

// pageOpts represents pagination options for list views.
type pageOpts struct {
	Page     int
	PageSize int
}

// LimitAndOffset returns limit/offset used for pagination fetches,
// always fetching one extra item to detect next-page availability.
func (p pageOpts) LimitAndOffset() (int, int) {
	page := p.Page
	if page <= 0 {
		page = 1
	}
	pageSize := p.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	return pageSize + 1, (page - 1) * pageSize
}

// paginate is a generic paginator for limit/offset list endpoints.
func paginate[T any](
	ctx context.Context,
	p pageOpts,
	fetch func(context.Context, int, int) ([]T, error),
) ([]T, paginationResult, error) {
	limit, offset := p.LimitAndOffset()
	items, err := fetch(ctx, limit, offset)
	if err != nil {
		return nil, paginationResult{}, err
	}
	res := paginationResult{HasPrev: p.Page > 1, HasNext: len(items) > p.PageSize}
	if res.HasNext {
		items = items[:p.PageSize]
	}
	if len(items) > 0 {
		res.StartIndex = offset + 1
		res.EndIndex = offset + len(items)
	}
	return items, res, nil
}

type paginationResult struct {
	HasPrev    bool
	HasNext    bool
	StartIndex int
	EndIndex   int
}

// buildPageURL returns a URL with page and page_size set, preserving other query params.
// Whitespace-only values and htmx transport params are dropped.
func buildPageURL(basePath string, q url.Values, p pageOpts) string {
	qq := make(url.Values, len(q))
	for k, v := range q {
		if strings.HasPrefix(k, "hx-") || strings.HasPrefix(k, "hx_") {
			continue
		}
		tmp := make([]string, 0, len(v))
		for _, s := range v {
			if strings.TrimSpace(s) != "" {
				tmp = append(tmp, s)
			}
		}
		if len(tmp) > 0 {
			qq[k] = tmp
		}
	}
	qq.Set("page", strconv.Itoa(p.Page))
	qq.Set("page_size", strconv.Itoa(p.PageSize))
	return basePath + "?" + qq.Encode()
}
