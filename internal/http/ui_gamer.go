package httpx

import (
	"context"
	"net/http"

	"github.com/besf/portal/internal/validation"
)

var gamerRegisterMeta = PageMeta{
	Title:       "BESF - Gamer Registration",
	PageTitle:   "National Gamer Registration",
	CurrentPage: PageGamerRegister,
}

// gamerForm reads the public register form. Each ticked game_id carries its in-game ID
// in a gamer_id_<game id> field.
func gamerForm(r *http.Request) validation.GamerRegistration {
	_ = r.ParseForm()
	in := validation.GamerRegistration{
		Name:         r.PostForm.Get("name"),
		Surname:      r.PostForm.Get("surname"),
		OmangNumber:  r.PostForm.Get("omang_number"),
		ConsentGiven: r.PostForm.Get("consent_given") != "",
	}
	for _, id := range r.PostForm["game_id"] {
		in.Games = append(in.Games, validation.GamerGame{GameID: id, GamerID: r.PostForm.Get("gamer_id_" + id)})
	}
	return in
}

// GamerRegister shows the public national register form. It does not need a session.
func (h *UIHandlers) GamerRegister(w http.ResponseWriter, r *http.Request) {
	h.Page(w, r, PageSpec{
		Meta: gamerRegisterMeta,
		Fetch: func(ctx context.Context, data map[string]any) error {
			data["SuccessMessage"] = noticeFor(r)
			data["Form"] = validation.GamerRegistration{}
			data["Selected"] = map[string]string{}
			return h.loadRegisterGames(ctx, data)
		},
	})
}

func (h *UIHandlers) loadRegisterGames(ctx context.Context, data map[string]any) error {
	games, err := h.Registrations.ListGames(ctx)
	if err != nil {
		return err
	}
	data["Games"] = games
	return nil
}

// SubmitGamerRegister accepts a public register entry, rate limited per client IP.
func (h *UIHandlers) SubmitGamerRegister(w http.ResponseWriter, r *http.Request) {
	in := gamerForm(r)
	if _, err := h.Gamers.Register(r.Context(), clientIP(r, h.TrustProxy), in); err != nil {
		fieldErrs, msg, status := h.formFailure(r, err)
		selected := make(map[string]string, len(in.Games))
		for _, g := range in.Games {
			selected[g.GameID] = g.GamerID
		}
		// The Omang number is never echoed back into the form.
		in.OmangNumber = ""
		data := NewTemplateData(r, gamerRegisterMeta).
			WithError(msg).
			WithFieldErrors(fieldErrs).
			With("Form", in).
			With("Selected", selected).
			Build()
		if loadErr := h.loadRegisterGames(r.Context(), data); loadErr != nil {
			h.logger().ErrorContext(r.Context(), "reload register games failed", "error", loadErr)
		}
		h.render(w, r, status, data)
		return
	}
	redirectAfterPost(w, r, "/register?notice=gamer_registered")
}
