package templates

import (
	"context"
	"strconv"

	"github.com/a-h/templ"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/i18n"
	"github.com/louisbranch/smsportal/internal/services/portal/routepath"
)

// DepartmentRow is one department line.
type DepartmentRow struct {
	Code     string
	Name     string
	HODName  string
	HODEmail string
}

// UserRow is one user line.
type UserRow struct {
	ID         int64
	Name       string
	Email      string
	Role       string
	Department string
	Active     bool
}

// DepartmentsView is the admin department list.
type DepartmentsView struct {
	Error string
	Rows  []DepartmentRow
}

// UsersView is the admin user list.
type UsersView struct {
	Error string
	Rows  []UserRow
}

// DepartmentsPage renders the department list.
func DepartmentsPage(view DepartmentsView, loc i18n.Localizer) templ.Component {
	return component(func(_ context.Context, h *html) {
		h.raw(`<section class="card departments">`)
		h.element("h1", "", loc.Sprintf("admin.departments.title"))
		if view.Error != "" {
			h.element("div", "banner", view.Error)
		}
		departmentTable(h, view.Rows, loc)
		h.raw("</section>")
	})
}

// UsersPage renders the user list with batch activation of inactive users.
func UsersPage(view UsersView, loc i18n.Localizer) templ.Component {
	return component(func(_ context.Context, h *html) {
		h.raw(`<section class="card users">`)
		h.element("h1", "", loc.Sprintf("admin.users.title"))
		if view.Error != "" {
			h.element("div", "banner", view.Error)
		}
		h.raw(`<form method="post"`)
		h.attr("action", routepath.UsersActivate)
		h.raw(">")
		userTable(h, view.Rows, true, loc)
		h.raw(`<button type="submit">`)
		h.text(loc.Sprintf("admin.users.activate"))
		h.raw("</button></form></section>")
	})
}

func departmentTable(h *html, rows []DepartmentRow, loc i18n.Localizer) {
	if len(rows) == 0 {
		h.element("p", "empty", loc.Sprintf("dashboard.empty"))
		return
	}
	h.raw("<table><thead><tr>")
	for _, key := range []string{"admin.departments.code", "admin.departments.name", "admin.departments.hod", "admin.departments.hod_email"} {
		h.element("th", "", loc.Sprintf(key))
	}
	h.raw("</tr></thead><tbody>")
	for _, row := range rows {
		h.raw("<tr>")
		h.element("td", "", row.Code)
		h.element("td", "", row.Name)
		h.element("td", "", row.HODName)
		h.element("td", "", row.HODEmail)
		h.raw("</tr>")
	}
	h.raw("</tbody></table>")
}

func userTable(h *html, rows []UserRow, selectable bool, loc i18n.Localizer) {
	if len(rows) == 0 {
		h.element("p", "empty", loc.Sprintf("dashboard.empty"))
		return
	}
	h.raw("<table><thead><tr>")
	if selectable {
		h.raw("<th></th>")
	}
	for _, key := range []string{"admin.users.name", "admin.users.email", "admin.users.role", "admin.users.department", "admin.users.status"} {
		h.element("th", "", loc.Sprintf(key))
	}
	h.raw("</tr></thead><tbody>")
	for _, row := range rows {
		h.raw("<tr>")
		if selectable {
			h.raw("<td>")
			if !row.Active {
				h.raw(`<input type="checkbox" name="user_id"`)
				h.attr("value", strconv.FormatInt(row.ID, 10))
				h.raw(">")
			}
			h.raw("</td>")
		}
		h.element("td", "", row.Name)
		h.element("td", "", row.Email)
		h.element("td", "", row.Role)
		h.element("td", "", row.Department)
		if row.Active {
			h.element("td", "status-active", loc.Sprintf("admin.users.active"))
		} else {
			h.element("td", "status-inactive", loc.Sprintf("admin.users.inactive"))
		}
		h.raw("</tr>")
	}
	h.raw("</tbody></table>")
}
