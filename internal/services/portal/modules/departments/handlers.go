package departments

import (
	"net/http"

	"github.com/louisbranch/smsportal/internal/services/portal/module"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/pagerender"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/webctx"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/weberror"
	"github.com/louisbranch/smsportal/internal/services/portal/templates"
)

type handlers struct {
	gateway Gateway
	deps    module.Dependencies
}

func (h handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	departments, err := h.gateway.Departments(webctx.BackendContext(r))
	if err != nil {
		weberror.WriteModuleError(w, r, err, h.deps)
		return
	}
	rows := make([]templates.DepartmentRow, 0, len(departments))
	for _, d := range departments {
		rows = append(rows, templates.DepartmentRow{
			Code:     d.DepartmentCode,
			Name:     d.DepartmentName,
			HODName:  d.HODName,
			HODEmail: d.HODEmail,
		})
	}
	loc := pagerender.Localizer(r)
	if err := pagerender.WritePage(w, r, h.deps, pagerender.Page{
		Title:    loc.Sprintf("admin.departments.title"),
		Fragment: templates.DepartmentsPage(templates.DepartmentsView{Rows: rows}, loc),
	}); err != nil {
		weberror.WriteModuleError(w, r, err, h.deps)
	}
}

func (h handlers) handleNotFound(w http.ResponseWriter, r *http.Request) {
	weberror.WriteAppError(w, r, http.StatusNotFound, h.deps)
}
