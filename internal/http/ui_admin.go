package httpx

import (
	"context"
	"net/http"

	domainauth "github.com/besf/portal/internal/domain/auth"
	"github.com/besf/portal/internal/domain/model"
	"github.com/besf/portal/internal/http/ui/viewmodel"
)

var adminMeta = PageMeta{Title: "BESF - Admin", PageTitle: "Admin Dashboard", CurrentPage: PageAdmin}

// AdminDashboard shows the headline counts and a page of members with their roles.
func (h *UIHandlers) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	data := basePageData(r, adminMeta)
	data["SuccessMessage"] = noticeFor(r)
	if err := h.loadAdmin(r, data); err != nil {
		h.logger().ErrorContext(r.Context(), "admin dashboard fetch failed", "error", err)
		markPageError(data)
	}
	h.render(w, r, http.StatusOK, data)
}

func (h *UIHandlers) loadAdmin(r *http.Request, data map[string]any) error {
	counts, err := h.Admin.Dashboard(r.Context())
	if err != nil {
		return err
	}
	data["Counts"] = counts

	page, pageSize := getPageParams(r.URL.Query())
	users, res, err := paginate(r.Context(), pageOpts{Page: page, PageSize: pageSize},
		func(ctx context.Context, limit, offset int) ([]*model.Profile, error) {
			return h.Admin.ListUsers(ctx, limit, offset)
		})
	if err != nil {
		return err
	}
	data["Users"] = users

	p := viewmodel.Pagination{
		Page:       page,
		PageSize:   pageSize,
		HasPrev:    res.HasPrev,
		HasNext:    res.HasNext,
		StartIndex: res.StartIndex,
		EndIndex:   res.EndIndex,
		TotalCount: counts.Profiles,
	}
	if p.HasPrev {
		p.PrevURL = buildPageURL("/admin", r.URL.Query(), pageOpts{Page: page - 1, PageSize: pageSize})
	}
	if p.HasNext {
		p.NextURL = buildPageURL("/admin", r.URL.Query(), pageOpts{Page: page + 1, PageSize: pageSize})
	}
	data["Pagination"] = p
	if sess, ok := SessionFromContext(r.Context()); ok {
		data["ActorID"] = sess.UserID
	}
	return nil
}

// SetUserRole promotes or demotes a member from the dashboard's role form.
func (h *UIHandlers) SetUserRole(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	role := domainauth.Role(r.PostFormValue("role"))
	if _, err := h.Admin.SetRole(r.Context(), sess.UserID, r.PathValue("userID"), role); err != nil {
		fieldErrs, msg, status := h.formFailure(r, err)
		if m := fieldErrs["role"]; m != "" {
			msg = m
		}
		data := NewTemplateData(r, adminMeta).WithError(msg).Build()
		if loadErr := h.loadAdmin(r, data); loadErr != nil {
			h.logger().ErrorContext(r.Context(), "reload admin dashboard failed", "error", loadErr)
		}
		h.render(w, r, status, data)
		return
	}
	redirectAfterPost(w, r, "/admin?notice=role_updated")
}
