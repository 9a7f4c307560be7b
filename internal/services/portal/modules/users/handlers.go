package users

import (
	"net/http"

	"github.com/louisbranch/smsportal/internal/services/portal/module"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/flash"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/httpx"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/pagerender"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/webctx"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/weberror"
	"github.com/louisbranch/smsportal/internal/services/portal/routepath"
	"github.com/louisbranch/smsportal/internal/services/portal/templates"
)

const (
	activatedKey    = "admin.users.activated"
	noneSelectedKey = "admin.users.none_selected"
)

type handlers struct {
	service service
	deps    module.Dependencies
}

func (h handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.list(webctx.BackendContext(r))
	if err != nil {
		weberror.WriteModuleError(w, r, err, h.deps)
		return
	}
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
	loc := pagerender.Localizer(r)
	if err := pagerender.WritePage(w, r, h.deps, pagerender.Page{
		Title:    loc.Sprintf("admin.users.title"),
		Fragment: templates.UsersPage(templates.UsersView{Rows: rows}, loc),
	}); err != nil {
		weberror.WriteModuleError(w, r, err, h.deps)
	}
}

func (h handlers) handleActivate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	ids, err := parseUserIDs(r.PostForm["user_id"])
	if err != nil {
		weberror.WriteModuleError(w, r, err, h.deps)
		return
	}
	if len(ids) == 0 {
		flash.Write(w, r, flash.Warning(noneSelectedKey), h.deps.SchemePolicy)
		httpx.WriteRedirect(w, r, routepath.Users)
		return
	}
	if err := h.service.activate(webctx.BackendContext(r), ids); err != nil {
		weberror.WriteModuleError(w, r, err, h.deps)
		return
	}
	if h.deps.Logger != nil {
		h.deps.Logger.Printf("users activated count=%d request_id=%s", len(ids), httpx.RequestIDFrom(r))
	}
	flash.Write(w, r, flash.Success(activatedKey), h.deps.SchemePolicy)
	httpx.WriteRedirect(w, r, routepath.Users)
}

func (h handlers) handleNotFound(w http.ResponseWriter, r *http.Request) {
	weberror.WriteAppError(w, r, http.StatusNotFound, h.deps)
}
