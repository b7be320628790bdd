package httpx

import (
	"log/slog"
	"net/http"

	domainauth "github.com/besf/portal/internal/domain/auth"
	"github.com/besf/portal/internal/validation"
)

// APIHandlers serves the JSON API under /api/. Member and admin routes are mounted
// behind the route guard; handlers read the session from the request context.
type APIHandlers struct {
	Auth          AuthServiceInterface
	Profiles      ProfilesService
	Registrations RegistrationsService
	Gamers        GamersService
	Admin         AdminServiceInterface
	TrustProxy    bool
	Logger        *slog.Logger
}

func (h *APIHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// ListGames returns the active games.
// GET /api/games.
func (h *APIHandlers) ListGames(w http.ResponseWriter, r *http.Request) {
	games, err := h.Registrations.ListGames(r.Context())
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, games)
}

// ListEvents returns the published events.
// GET /api/events.
func (h *APIHandlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.Registrations.ListEvents(r.Context())
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, events)
}

// GetProfile returns the caller's profile.
// GET /api/profile.
func (h *APIHandlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	p, err := h.Profiles.Get(r.Context(), sess.UserID)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

// UpdateProfile validates and stores the caller's profile fields.
// PUT /api/profile.
func (h *APIHandlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	var in validation.ProfileUpdate
	if !DecodeJSON(w, r, &in) {
		return
	}
	p, err := h.Profiles.Update(r.Context(), sess.UserID, in)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	if err := h.Auth.NotifyUserUpdated(r.Context(), ClientIDFromContext(r.Context())); err != nil {
		h.logger().WarnContext(r.Context(), "notify user updated failed", "error", err)
	}
	refreshGate(r)
	WriteJSON(w, http.StatusOK, p)
}

// Activity returns the caller's latest activity entries.
// GET /api/me/activity.
func (h *APIHandlers) Activity(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	logs, err := h.Profiles.RecentActivity(r.Context(), sess.UserID)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, logs)
}

// MyGames returns the caller's game registrations.
// GET /api/me/games.
func (h *APIHandlers) MyGames(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	games, err := h.Registrations.MyGames(r.Context(), sess.UserID)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, games)
}

// RegisterGame registers the caller for a game.
// POST /api/me/games/{gameID}.
func (h *APIHandlers) RegisterGame(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	var in validation.GameRegistration
	if !DecodeJSON(w, r, &in) {
		return
	}
	ug, err := h.Registrations.RegisterGame(r.Context(), sess.UserID, r.PathValue("gameID"), in)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, ug)
}

// UpdateGame edits the caller's registration for a game.
// PUT /api/me/games/{gameID}.
func (h *APIHandlers) UpdateGame(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	var in validation.GameRegistration
	if !DecodeJSON(w, r, &in) {
		return
	}
	ug, err := h.Registrations.UpdateGame(r.Context(), sess.UserID, r.PathValue("gameID"), in)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, ug)
}

// LeaveGame deactivates the caller's registration for a game.
// DELETE /api/me/games/{gameID}.
func (h *APIHandlers) LeaveGame(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	if err := h.Registrations.LeaveGame(r.Context(), sess.UserID, r.PathValue("gameID")); err != nil {
		WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MyEvents returns the caller's event registrations.
// GET /api/me/events.
func (h *APIHandlers) MyEvents(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	events, err := h.Registrations.MyEvents(r.Context(), sess.UserID)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, events)
}

// RegisterEvent registers the caller for an event.
// POST /api/me/events/{eventID}.
func (h *APIHandlers) RegisterEvent(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	var in validation.EventRegistration
	if !DecodeJSON(w, r, &in) {
		return
	}
	ue, err := h.Registrations.RegisterEvent(r.Context(), sess.UserID, r.PathValue("eventID"), in)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, ue)
}

// UpdateEvent edits the caller's event registration.
// PUT /api/me/events/{eventID}.
func (h *APIHandlers) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	var in validation.EventRegistration
	if !DecodeJSON(w, r, &in) {
		return
	}
	ue, err := h.Registrations.UpdateEvent(r.Context(), sess.UserID, r.PathValue("eventID"), in)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, ue)
}

// CancelEvent cancels the caller's event registration.
// DELETE /api/me/events/{eventID}.
func (h *APIHandlers) CancelEvent(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	if err := h.Registrations.CancelEvent(r.Context(), sess.UserID, r.PathValue("eventID")); err != nil {
		WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RegisterGamer adds an entry to the public national gamer register.
// POST /api/gamers.
func (h *APIHandlers) RegisterGamer(w http.ResponseWriter, r *http.Request) {
	var in validation.GamerRegistration
	if !DecodeJSON(w, r, &in) {
		return
	}
	g, err := h.Gamers.Register(r.Context(), clientIP(r, h.TrustProxy), in)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, g)
}

// Dashboard returns the admin headline counts.
// GET /api/admin/dashboard.
func (h *APIHandlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	counts, err := h.Admin.Dashboard(r.Context())
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, counts)
}

// ListUsers returns a page of member profiles.
// GET /api/admin/users?limit=&offset=.
func (h *APIHandlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r, 50, 200)
	users, err := h.Admin.ListUsers(r.Context(), limit, offset)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, users)
}

type setRoleRequest struct {
	Role domainauth.Role `json:"role"`
}

// SetRole promotes or demotes a member.
// POST /api/admin/users/{userID}/role.
func (h *APIHandlers) SetRole(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	var req setRoleRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	p, err := h.Admin.SetRole(r.Context(), sess.UserID, r.PathValue("userID"), req.Role)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}
