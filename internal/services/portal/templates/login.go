package templates

import (
	"context"
	"net/url"

	"github.com/a-h/templ"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/i18n"
	"github.com/louisbranch/smsportal/internal/services/portal/routepath"
)

// DemoAccount is a prefilled sign-in shortcut.
type DemoAccount struct {
	Label string
	Email string
}

// LoginView is the sign-in form state.
type LoginView struct {
	Email         string
	Error         string
	EmailError    string
	PasswordError string
	Demo          []DemoAccount
	DemoPassword  string
}

// LoginPage renders the sign-in form.
func LoginPage(view LoginView, loc i18n.Localizer) templ.Component {
	return component(func(_ context.Context, h *html) {
		h.raw(`<section class="card login">`)
		h.element("h1", "", loc.Sprintf("auth.login.title"))
		h.element("p", "subtitle", loc.Sprintf("auth.login.subtitle"))
		if view.Error != "" {
			h.element("div", "banner", view.Error)
		}

		h.raw(`<form method="post" novalidate`)
		h.attr("action", routepath.Login)
		h.raw(">")
		field(h, "email", "email", loc.Sprintf("auth.login.email"), view.Email, view.EmailError)
		field(h, "password", "password", loc.Sprintf("auth.login.password"), "", view.PasswordError)
		h.raw(`<button type="submit">`)
		h.text(loc.Sprintf("auth.login.submit"))
		h.raw("</button></form>")

		if len(view.Demo) > 0 {
			h.raw(`<aside class="demo">`)
			h.element("h2", "", loc.Sprintf("auth.login.demo"))
			h.raw("<ul>")
			for _, account := range view.Demo {
				h.raw("<li>")
				link(h, routepath.Login+"?email="+url.QueryEscape(account.Email), account.Label)
				h.raw(" ")
				h.element("code", "", account.Email+" / "+view.DemoPassword)
				h.raw("</li>")
			}
			h.raw("</ul></aside>")
		}
		h.raw("</section>")
	})
}

func field(h *html, name, inputType, label, value, fieldErr string) {
	h.raw("<p><label")
	h.attr("for", name)
	h.raw(">")
	h.text(label)
	h.raw("</label><input")
	h.attr("id", name)
	h.attr("name", name)
	h.attr("type", inputType)
	if value != "" {
		h.attr("value", value)
	}
	if fieldErr != "" {
		h.raw(` aria-invalid="true"`)
	}
	h.raw(">")
	if fieldErr != "" {
		h.element("span", "field-error", fieldErr)
	}
	h.raw("</p>")
}
