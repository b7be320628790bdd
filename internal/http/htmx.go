package httpx

import (
	"encoding/json"
	"net/http"
	"strings"
)

// IsHTMX reports whether the request was initiated by htmx (Hx-Request: true).
func IsHTMX(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Hx-Request"), "true")
}

// IsBoosted reports whether the request was initiated by hx-boost (Hx-Boosted: true).
func IsBoosted(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Hx-Boosted"), "true")
}

// WantsPartial returns true when the handler should return only the main fragment.
// Boosted navigations swap the whole body and still get the full layout.
func WantsPartial(r *http.Request) bool {
	return IsHTMX(r) && !IsBoosted(r)
}

// SetHXRedirect instructs htmx to redirect the browser to the given URL.
func SetHXRedirect(w http.ResponseWriter, url string) { w.Header().Set("Hx-Redirect", url) }

// SetHXRefresh forces a full page refresh.
func SetHXRefresh(w http.ResponseWriter) { w.Header().Set("Hx-Refresh", "true") }

// SetHXTrigger triggers a client-side event after swap with optional payload.
// It sets the Hx-Trigger response header as a JSON object: {"<event>": <payload>}.
// If payload is nil, the value true is used for the event.
func SetHXTrigger(w http.ResponseWriter, event string, payload any) {
	var value any = true
	if payload != nil {
		value = payload
	}
	b, err := json.Marshal(map[string]any{event: value})
	if err != nil {
		w.Header().Set("Hx-Trigger", "{\""+event+"\":true}")
		return
	}
	w.Header().Set("Hx-Trigger", string(b))
}

// HTMXResponse provides a fluent API for building HTMX responses.
type HTMXResponse struct {
	w http.ResponseWriter
}

// HTMX creates a new HTMXResponse for fluent response building.
func HTMX(w http.ResponseWriter) *HTMXResponse {
	return &HTMXResponse{w: w}
}

// Redirect sets Hx-Redirect and writes 204 No Content. Return right after calling it.
func (h *HTMXResponse) Redirect(url string) {
	SetHXRedirect(h.w, url)
	h.w.WriteHeader(http.StatusNoContent)
}

// Trigger triggers a client-side event after swap. This method is chainable.
func (h *HTMXResponse) Trigger(event string, payload any) *HTMXResponse {
	SetHXTrigger(h.w, event, payload)
	return h
}

// Refresh sets Hx-Refresh and writes 204 No Content.
func (h *HTMXResponse) Refresh() {
	SetHXRefresh(h.w)
	h.w.WriteHeader(http.StatusNoContent)
}

// SetHXTriggers sets several client-side events in one Hx-Trigger header.
func SetHXTriggers(w http.ResponseWriter, events map[string]any) {
	if len(events) == 0 {
		return
	}
	b, err := json.Marshal(events)
	if err != nil {
		return
	}
	w.Header().Set("Hx-Trigger", string(b))
}
