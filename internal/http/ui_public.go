package httpx

import (
	"context"
	"errors"
	"net/http"
)

var errNotFound = errors.New("resource not found")

// staticPage returns a handler for a page with no data beyond the layout.
func (h *UIHandlers) staticPage(page, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.Page(w, r, PageSpec{Meta: PageMeta{Title: "BESF - " + title, PageTitle: title, CurrentPage: page}})
	}
}

// Home serves the landing page with the next published events.
func (h *UIHandlers) Home(w http.ResponseWriter, r *http.Request) {
	h.Page(w, r, PageSpec{
		Meta: PageMeta{Title: "Botswana Esports Federation", PageTitle: "Welcome", CurrentPage: PageHome},
		Fetch: func(ctx context.Context, data map[string]any) error {
			if h.Registrations == nil {
				return nil
			}
			events, err := h.Registrations.ListEvents(ctx)
			if err != nil {
				return err
			}
			if len(events) > 3 {
				events = events[:3]
			}
			data["Events"] = events
			return nil
		},
	})
}

// Games lists the active games.
func (h *UIHandlers) Games(w http.ResponseWriter, r *http.Request) {
	h.Page(w, r, PageSpec{
		Meta: PageMeta{Title: "BESF - Games", PageTitle: "Games", CurrentPage: PageGames},
		Fetch: func(ctx context.Context, data map[string]any) error {
			games, err := h.Registrations.ListGames(ctx)
			if err != nil {
				return err
			}
			data["Games"] = games
			return nil
		},
	})
}

// Events lists published events.
func (h *UIHandlers) Events(w http.ResponseWriter, r *http.Request) {
	h.Page(w, r, PageSpec{
		Meta: PageMeta{Title: "BESF - Events", PageTitle: "Events", CurrentPage: PageEvents},
		Fetch: func(ctx context.Context, data map[string]any) error {
			events, err := h.Registrations.ListEvents(ctx)
			if err != nil {
				return err
			}
			data["Events"] = events
			return nil
		},
	})
}

// NotFound renders the 404 page for browsers and a JSON error for API callers.
func (h *UIHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	if !IsBrowserRequest(r) {
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: errNotFound})
		return
	}
	h.Page(w, r, PageSpec{
		Meta:   PageMeta{Title: "BESF - Page not found", PageTitle: "Page not found", CurrentPage: PageNotFound},
		Status: http.StatusNotFound,
	})
}

// Loading renders the neutral placeholder shown while a client's session is resolving.
// It is the route guard's Wait outcome for browsers.
func (h *UIHandlers) Loading(w http.ResponseWriter, r *http.Request) {
	data := basePageData(r, PageMeta{Title: "BESF - Loading", PageTitle: "Loading", CurrentPage: PageLoading})
	data["Loading"] = true
	if IsHTMX(r) {
		if err := h.T.RenderContent(w, PageLoading, loadingStatus(r), data); err != nil {
			h.logAndRenderTemplateError(w, r, err, "loading render")
		}
		return
	}
	if err := h.T.RenderFull(w, loadingStatus(r), data); err != nil {
		h.logAndRenderTemplateError(w, r, err, "loading render")
	}
}
