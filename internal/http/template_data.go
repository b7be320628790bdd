package httpx

import (
	"net/http"
	"strings"
	"time"

	"github.com/besf/portal/internal/http/ui/viewmodel"
)

const (
	errMsgFixBelow = "Please fix the errors below."
	errMsgGeneric  = "An unexpected error occurred. Please try again."
)

// PageMeta contains metadata for page rendering.
type PageMeta struct {
	Title       string
	PageTitle   string
	CurrentPage string
}

// buildLayout constructs shared layout metadata from the request's Gate state.
func buildLayout(r *http.Request, meta PageMeta) viewmodel.Layout {
	layout := viewmodel.Layout{
		Title:       meta.Title,
		PageTitle:   meta.PageTitle,
		CurrentPage: meta.CurrentPage,
		CSRFToken:   GetCSRFToken(r),
	}

	st := GateStateFromContext(r.Context())
	layout.Loading = st.Loading
	layout.IsAdmin = st.IsAdmin
	if st.IsAuthenticated() {
		layout.IsAuthenticated = true
		name := strings.TrimSpace(st.Identity.FirstName + " " + st.Identity.LastName)
		if name == "" {
			name = st.Identity.Email
		}
		layout.User = &viewmodel.User{Email: st.Identity.Email, Name: name}
	}
	return layout
}

// basePageData constructs the common page data map with user context.
func basePageData(r *http.Request, meta PageMeta) map[string]any {
	layout := buildLayout(r, meta)
	data := map[string]any{
		"Title":           layout.Title,
		"PageTitle":       layout.PageTitle,
		"CurrentPage":     layout.CurrentPage,
		"IsAuthenticated": layout.IsAuthenticated,
		"IsAdmin":         layout.IsAdmin,
		"Loading":         layout.Loading,
		"Year":            time.Now().Year(),
		"CSRFToken":       layout.CSRFToken,
		"User":            layout.User,
		"Errors":          map[string]string{},
	}
	return data
}

// TemplateDataBuilder provides a fluent API for building template data maps.
type TemplateDataBuilder struct {
	data map[string]any
}

// NewTemplateData creates a new TemplateDataBuilder initialized with basePageData.
func NewTemplateData(r *http.Request, meta PageMeta) *TemplateDataBuilder {
	return &TemplateDataBuilder{
		data: basePageData(r, meta),
	}
}

// WithError sets a general error message.
func (b *TemplateDataBuilder) WithError(msg string) *TemplateDataBuilder {
	b.data["Error"] = true
	b.data["ErrorMessage"] = msg
	return b
}

// WithFieldErrors adds field-level validation errors.
func (b *TemplateDataBuilder) WithFieldErrors(errs map[string]string) *TemplateDataBuilder {
	if len(errs) > 0 {
		b.data["Errors"] = errs
	}
	return b
}

// With adds a custom field to the template data.
func (b *TemplateDataBuilder) With(key string, value any) *TemplateDataBuilder {
	b.data[key] = value
	return b
}

// Build returns the final template data map.
func (b *TemplateDataBuilder) Build() map[string]any {
	return b.data
}
