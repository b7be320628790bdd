package httpx

import (
	"context"
	"net/http"
	"strings"

	domainauth "github.com/besf/portal/internal/domain/auth"
	"github.com/besf/portal/internal/domain/model"
	"github.com/besf/portal/internal/validation"
)

// notices are the fixed success banners a redirect can ask for via ?notice=.
//
//nolint:gochecknoglobals // static read-only lookup
var notices = map[string]string{
	"profile_saved":    "Profile updated successfully.",
	"game_registered":  "You are registered for the game.",
	"game_updated":     "Game registration updated.",
	"game_left":        "You have left the game.",
	"event_registered": "You are registered for the event.",
	"event_updated":    "Event registration updated.",
	"event_cancelled":  "Your event registration was cancelled.",
	"gamer_registered": "Thank you! Your registration has been received.",
	"role_updated":     "Role updated.",
}

func noticeFor(r *http.Request) string {
	return notices[r.URL.Query().Get("notice")]
}

// requireSession returns the signed-in session. Member routes sit behind the route guard,
// so a miss means the session ended mid-request; the client is sent to sign in.
func requireSession(w http.ResponseWriter, r *http.Request) (*domainauth.Session, bool) {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		writeSignIn(w, r)
		return nil, false
	}
	return sess, true
}

// refreshGate re-derives the client's Gate after a write that changes identity data.
func refreshGate(r *http.Request) {
	if g, ok := GateFromContext(r.Context()); ok {
		g.RefreshSession(r.Context())
	}
}

func profileForm(r *http.Request) validation.ProfileUpdate {
	return validation.ProfileUpdate{
		Username:  r.PostFormValue("username"),
		FirstName: r.PostFormValue("first_name"),
		LastName:  r.PostFormValue("last_name"),
	}
}

func gameForm(r *http.Request) validation.GameRegistration {
	return validation.GameRegistration{
		GamerTag:   r.PostFormValue("gamer_tag"),
		SkillLevel: r.PostFormValue("skill_level"),
	}
}

func eventForm(r *http.Request) validation.EventRegistration {
	return validation.EventRegistration{
		TeamName: r.PostFormValue("team_name"),
		Notes:    r.PostFormValue("notes"),
	}
}

// mergeErrors fills dst with src entries that dst does not have yet.
func mergeErrors(dst, src map[string]string) map[string]string {
	if dst == nil {
		dst = map[string]string{}
	}
	for k, v := range src {
		if _, ok := dst[k]; !ok {
			dst[k] = v
		}
	}
	return dst
}

var profileMeta = PageMeta{Title: "BESF - My Profile", PageTitle: "My Profile", CurrentPage: PageProfile}

// Profile shows the member's profile form and recent activity.
func (h *UIHandlers) Profile(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	h.Page(w, r, PageSpec{
		Meta: profileMeta,
		Fetch: func(ctx context.Context, data map[string]any) error {
			data["SuccessMessage"] = noticeFor(r)
			return h.loadProfile(ctx, sess.UserID, data, nil)
		},
	})
}

func (h *UIHandlers) loadProfile(ctx context.Context, userID string, data map[string]any, form *validation.ProfileUpdate) error {
	p, err := h.Profiles.Get(ctx, userID)
	if err != nil {
		return err
	}
	data["Profile"] = p
	if form == nil {
		form = &validation.ProfileUpdate{
			Username:  deref(p.Username),
			FirstName: deref(p.FirstName),
			LastName:  deref(p.LastName),
		}
	}
	data["Form"] = form

	activity, err := h.Profiles.RecentActivity(ctx, userID)
	if err != nil {
		return err
	}
	data["Activity"] = activity
	return nil
}

// UpdateProfile handles the profile form. On success the backend is told the user
// changed and this client's Gate is re-derived so the header shows the new name.
func (h *UIHandlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	in := profileForm(r)
	if _, err := h.Profiles.Update(r.Context(), sess.UserID, in); err != nil {
		fieldErrs, msg, status := h.formFailure(r, err)
		fieldErrs = mergeErrors(fieldErrs, validation.CollectErrors(in.Checks()...))
		b := NewTemplateData(r, profileMeta).WithError(msg).WithFieldErrors(fieldErrs)
		data := b.Build()
		if loadErr := h.loadProfile(r.Context(), sess.UserID, data, &in); loadErr != nil {
			h.logger().ErrorContext(r.Context(), "reload profile failed", "error", loadErr)
		}
		h.render(w, r, status, data)
		return
	}

	if err := h.Auth.NotifyUserUpdated(r.Context(), ClientIDFromContext(r.Context())); err != nil {
		h.logger().WarnContext(r.Context(), "notify user updated failed", "error", err)
	}
	refreshGate(r)
	redirectAfterPost(w, r, "/profile?notice=profile_saved")
}

var registerGamesMeta = PageMeta{
	Title:       "BESF - Register for Games",
	PageTitle:   "Register for Games",
	CurrentPage: PageRegisterGames,
}

// RegisterGames lists active games with the member's current registrations.
func (h *UIHandlers) RegisterGames(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	h.Page(w, r, PageSpec{
		Meta: registerGamesMeta,
		Fetch: func(ctx context.Context, data map[string]any) error {
			data["SuccessMessage"] = noticeFor(r)
			return h.loadGames(ctx, sess.UserID, data)
		},
	})
}

// gameRow is one game with the member's registration, if any.
type gameRow struct {
	Game         *model.Game
	Registration *model.UserGame
}

func (h *UIHandlers) loadGames(ctx context.Context, userID string, data map[string]any) error {
	games, err := h.Registrations.ListGames(ctx)
	if err != nil {
		return err
	}
	mine, err := h.Registrations.MyGames(ctx, userID)
	if err != nil {
		return err
	}
	byGame := make(map[string]*model.UserGame, len(mine))
	for _, ug := range mine {
		if ug.IsActive {
			byGame[ug.GameID] = ug
		}
	}
	rows := make([]gameRow, 0, len(games))
	for _, g := range games {
		rows = append(rows, gameRow{Game: g, Registration: byGame[g.ID]})
	}
	data["Rows"] = rows
	data["SkillLevels"] = validation.SkillLevels
	setDefault(data, "FormGameID", "")
	setDefault(data, "Form", validation.GameRegistration{})
	return nil
}

// SubmitGame registers for or updates a game, depending on the form's action.
func (h *UIHandlers) SubmitGame(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	gameID := r.PathValue("gameID")
	in := gameForm(r)

	var err error
	notice := "game_registered"
	if strings.EqualFold(r.PostFormValue("action"), "update") {
		notice = "game_updated"
		_, err = h.Registrations.UpdateGame(r.Context(), sess.UserID, gameID, in)
	} else {
		_, err = h.Registrations.RegisterGame(r.Context(), sess.UserID, gameID, in)
	}
	if err != nil {
		h.renderGamesFailure(w, r, sess.UserID, gameID, in, err)
		return
	}
	redirectAfterPost(w, r, "/register-games?notice="+notice)
}

func (h *UIHandlers) renderGamesFailure(
	w http.ResponseWriter,
	r *http.Request,
	userID, gameID string,
	in validation.GameRegistration,
	err error,
) {
	fieldErrs, msg, status := h.formFailure(r, err)
	if status == http.StatusUnprocessableEntity {
		fieldErrs = mergeErrors(fieldErrs, validation.CollectErrors(in.Checks()...))
	}
	data := NewTemplateData(r, registerGamesMeta).
		WithError(msg).
		WithFieldErrors(fieldErrs).
		With("FormGameID", gameID).
		With("Form", in).
		Build()
	if loadErr := h.loadGames(r.Context(), userID, data); loadErr != nil {
		h.logger().ErrorContext(r.Context(), "reload games failed", "error", loadErr)
	}
	h.render(w, r, status, data)
}

// LeaveGame deactivates the member's registration for a game.
func (h *UIHandlers) LeaveGame(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	gameID := r.PathValue("gameID")
	if err := h.Registrations.LeaveGame(r.Context(), sess.UserID, gameID); err != nil {
		h.renderGamesFailure(w, r, sess.UserID, gameID, validation.GameRegistration{}, err)
		return
	}
	redirectAfterPost(w, r, "/register-games?notice=game_left")
}

var myEventsMeta = PageMeta{Title: "BESF - My Events", PageTitle: "My Events", CurrentPage: PageMyEvents}

// eventRow is one published event with the member's registration, if any.
type eventRow struct {
	Event        *model.Event
	Registration *model.UserEvent
}

// MyEvents lists published events and the member's registrations.
func (h *UIHandlers) MyEvents(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	h.Page(w, r, PageSpec{
		Meta: myEventsMeta,
		Fetch: func(ctx context.Context, data map[string]any) error {
			data["SuccessMessage"] = noticeFor(r)
			return h.loadEvents(ctx, sess.UserID, data)
		},
	})
}

func (h *UIHandlers) loadEvents(ctx context.Context, userID string, data map[string]any) error {
	events, err := h.Registrations.ListEvents(ctx)
	if err != nil {
		return err
	}
	mine, err := h.Registrations.MyEvents(ctx, userID)
	if err != nil {
		return err
	}
	byEvent := make(map[string]*model.UserEvent, len(mine))
	for _, ue := range mine {
		byEvent[ue.EventID] = ue
	}
	rows := make([]eventRow, 0, len(events))
	for _, e := range events {
		rows = append(rows, eventRow{Event: e, Registration: byEvent[e.ID]})
	}
	data["Rows"] = rows
	setDefault(data, "FormEventID", "")
	setDefault(data, "Form", validation.EventRegistration{})
	return nil
}

// SubmitEvent registers for an event.
func (h *UIHandlers) SubmitEvent(w http.ResponseWriter, r *http.Request) {
	h.eventWrite(w, r, "event_registered", func(ctx context.Context, userID, eventID string) error {
		_, err := h.Registrations.RegisterEvent(ctx, userID, eventID, eventForm(r))
		return err
	})
}

// UpdateEvent edits an active event registration.
func (h *UIHandlers) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	h.eventWrite(w, r, "event_updated", func(ctx context.Context, userID, eventID string) error {
		_, err := h.Registrations.UpdateEvent(ctx, userID, eventID, eventForm(r))
		return err
	})
}

// CancelEvent cancels the member's event registration.
func (h *UIHandlers) CancelEvent(w http.ResponseWriter, r *http.Request) {
	h.eventWrite(w, r, "event_cancelled", func(ctx context.Context, userID, eventID string) error {
		return h.Registrations.CancelEvent(ctx, userID, eventID)
	})
}

func (h *UIHandlers) eventWrite(
	w http.ResponseWriter,
	r *http.Request,
	notice string,
	write func(ctx context.Context, userID, eventID string) error,
) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	eventID := r.PathValue("eventID")
	if err := write(r.Context(), sess.UserID, eventID); err != nil {
		in := eventForm(r)
		fieldErrs, msg, status := h.formFailure(r, err)
		if status == http.StatusUnprocessableEntity {
			fieldErrs = mergeErrors(fieldErrs, validation.CollectErrors(in.Checks()...))
		}
		data := NewTemplateData(r, myEventsMeta).
			WithError(msg).
			WithFieldErrors(fieldErrs).
			With("FormEventID", eventID).
			With("Form", in).
			Build()
		if loadErr := h.loadEvents(r.Context(), sess.UserID, data); loadErr != nil {
			h.logger().ErrorContext(r.Context(), "reload events failed", "error", loadErr)
		}
		h.render(w, r, status, data)
		return
	}
	redirectAfterPost(w, r, "/my-events?notice="+notice)
}

// setDefault stores value under key unless a failed submission already put one there.
func setDefault(data map[string]any, key string, value any) {
	if _, ok := data[key]; !ok {
		data[key] = value
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
