package templates

import (
	"context"

	"github.com/a-h/templ"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/i18n"
)

// Stat is one summary card.
type Stat struct {
	LabelKey string
	Value    int
}

// DashboardView is the dashboard page state.
type DashboardView struct {
	Name            string
	Role            string
	Error           string
	Stats           []Stat
	ShowDepartments bool
	Departments     []DepartmentRow
	ShowUsers       bool
	Users           []UserRow
}

// DashboardPage renders the role-dependent dashboard.
func DashboardPage(view DashboardView, loc i18n.Localizer) templ.Component {
	return component(func(_ context.Context, h *html) {
		h.raw(`<section class="dashboard">`)
		h.element("h1", "", loc.Sprintf("dashboard.welcome", view.Name))
		h.element("p", "role", loc.Sprintf("dashboard.role", view.Role))
		if view.Error != "" {
			h.raw(`<div class="banner" role="alert">`)
			h.text(view.Error)
			h.raw("</div>")
		}
		if len(view.Stats) > 0 {
			h.raw(`<div class="stats">`)
			for _, stat := range view.Stats {
				h.raw(`<div class="card stat"><strong>`)
				h.number(stat.Value)
				h.raw("</strong>")
				h.text(loc.Sprintf(stat.LabelKey))
				h.raw("</div>")
			}
			h.raw("</div>")
		}
		if view.ShowDepartments {
			h.raw(`<div class="card">`)
			h.element("h2", "", loc.Sprintf("dashboard.departments"))
			departmentTable(h, view.Departments, loc)
			h.raw("</div>")
		}
		if view.ShowUsers {
			h.raw(`<div class="card">`)
			h.element("h2", "", loc.Sprintf("dashboard.users"))
			userTable(h, view.Users, false, loc)
			h.raw("</div>")
		}
		h.raw("</section>")
	})
}
