package templates

import (
	"context"
	"net/http"

	"github.com/a-h/templ"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/i18n"
	"github.com/louisbranch/smsportal/internal/services/portal/routepath"
)

// LoadingState is shown while the browser's session resolves.
func LoadingState(loc i18n.Localizer) templ.Component {
	return component(func(_ context.Context, h *html) {
		h.raw(`<section class="card state-loading" role="status" aria-busy="true"><p>`)
		h.text(loc.Sprintf("shell.loading"))
		h.raw("</p></section>")
	})
}

// DeniedView describes an access-denied page.
type DeniedView struct {
	Unauthenticated bool
	RequiredRole    string
}

// AccessDenied is shown in place of a protected page.
func AccessDenied(view DeniedView, loc i18n.Localizer) templ.Component {
	return component(func(_ context.Context, h *html) {
		h.raw(`<section class="card state-denied">`)
		h.element("h1", "", loc.Sprintf("auth.denied.title"))
		if view.Unauthenticated {
			h.element("p", "", loc.Sprintf("auth.denied.unauthenticated"))
		} else {
			h.element("p", "", loc.Sprintf("auth.denied.forbidden"))
		}
		if view.RequiredRole != "" {
			h.element("p", "required-role", loc.Sprintf("auth.denied.required_role", view.RequiredRole))
		}
		if view.Unauthenticated {
			h.raw("<p>")
			link(h, routepath.Login, loc.Sprintf("auth.denied.sign_in"))
			h.raw("</p>")
		}
		h.raw("</section>")
	})
}

// NotFoundState is shown for unknown paths.
func NotFoundState(loc i18n.Localizer) templ.Component {
	return component(func(_ context.Context, h *html) {
		h.raw(`<section class="card state-not-found">`)
		h.element("h1", "", loc.Sprintf("shell.not_found.title"))
		h.element("p", "", loc.Sprintf("shell.not_found.message"))
		h.raw("<p>")
		link(h, routepath.Root, loc.Sprintf("shell.not_found.home"))
		h.raw("</p></section>")
	})
}

// ErrorState is shown for server-side failures.
func ErrorState(status int, message string, loc i18n.Localizer) templ.Component {
	return component(func(_ context.Context, h *html) {
		if message == "" {
			message = loc.Sprintf("shell.error.internal")
		}
		h.raw(`<section class="card state-error">`)
		h.element("h1", "", loc.Sprintf("shell.error.title"))
		h.element("p", "", message)
		h.element("p", "status", http.StatusText(status))
		h.raw("</section>")
	})
}
