package dashboard

import (
	"errors"
	"net/http"

	"github.com/louisbranch/smsportal/internal/services/portal/module"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/apiclient"
	apperrors "github.com/louisbranch/smsportal/internal/services/portal/platform/errors"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/httpx"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/i18n"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/pagerender"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/webctx"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/weberror"
	"github.com/louisbranch/smsportal/internal/services/portal/templates"
)

type handlers struct {
	service service
	deps    module.Dependencies
}

func newHandlers(s service, deps module.Dependencies) handlers {
	return handlers{service: s, deps: deps}
}

func (h handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap := webctx.Snapshot(r)
	if !snap.Authenticated() {
		weberror.WriteSignedOut(w, r, h.deps)
		return
	}
	loc := pagerender.Localizer(r)
	overview, err := h.service.load(webctx.BackendContext(r), snap.Role())
	if apperrors.IsUnauthorized(err) {
		weberror.WriteSignedOut(w, r, h.deps)
		return
	}

	view := templates.DashboardView{
		Name:            snap.User.DisplayName(),
		Role:            string(snap.Role()),
		ShowDepartments: overview.ShowDepartments,
		ShowUsers:       overview.ShowUsers,
		Departments:     departmentRows(overview.Departments),
		Users:           userRows(overview.Users),
	}
	if err != nil {
		if h.deps.Logger != nil {
			h.deps.Logger.Printf("dashboard load failed user_id=%d request_id=%s err=%v", snap.User.ID, httpx.RequestIDFrom(r), err)
		}
		view.Error = bannerMessage(loc, err)
	} else {
		for _, s := range summarize(overview) {
			view.Stats = append(view.Stats, templates.Stat{LabelKey: s.key, Value: s.value})
		}
	}

	if err := pagerender.WritePage(w, r, h.deps, pagerender.Page{
		Title:    loc.Sprintf("dashboard.title"),
		Fragment: templates.DashboardPage(view, loc),
	}); err != nil {
		weberror.WriteModuleError(w, r, err, h.deps)
	}
}

func (h handlers) handleNotFound(w http.ResponseWriter, r *http.Request) {
	weberror.WriteAppError(w, r, http.StatusNotFound, h.deps)
}

// bannerMessage prefers the backend's own message over generic copy.
func bannerMessage(loc i18n.Localizer, err error) string {
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if key := apperrors.LocalizationKey(err); key != "" {
		return loc.Sprintf(key)
	}
	return loc.Sprintf("dashboard.load_failed")
}

func departmentRows(departments []apiclient.Department) []templates.DepartmentRow {
	rows := make([]templates.DepartmentRow, 0, len(departments))
	for _, d := range departments {
		rows = append(rows, templates.DepartmentRow{
			Code:     d.DepartmentCode,
			Name:     d.DepartmentName,
			HODName:  d.HODName,
			HODEmail: d.HODEmail,
		})
	}
	return rows
}

func userRows(users []apiclient.User) []templates.UserRow {
	rows := make([]templates.UserRow, 0, len(users))
	for _, u := range users {
		rows = append(rows, templates.UserRow{
			ID:         u.ID,
			Name:       u.FullName,
			Email:      u.Email,
			Role:       string(u.UserType),
			Department: u.DepartmentName,
			Active:     u.IsActive,
		})
	}
	return rows
}
