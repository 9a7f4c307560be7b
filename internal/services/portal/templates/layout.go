package templates

import (
	"context"
	"strconv"

	"github.com/a-h/templ"
	"github.com/louisbranch/smsportal/internal/services/portal/module"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/i18n"
	"github.com/louisbranch/smsportal/internal/services/portal/routepath"
)

// Notice is a resolved flash message.
type Notice struct {
	Kind string
	Text string
}

// LayoutData is the page chrome around a fragment.
type LayoutData struct {
	Title  string
	Lang   string
	Path   string
	Viewer module.Viewer
	Notice *Notice
	// RefreshSeconds makes the browser reload the page, used while the
	// session is still resolving.
	RefreshSeconds int
	Languages      []string
}

const stylesheet = `
body{font-family:system-ui,sans-serif;margin:0;background:#f5f6f8;color:#1d2330}
header{display:flex;align-items:center;gap:1.5rem;padding:.75rem 1.5rem;background:#1f3a5f;color:#fff}
header a,header button{color:#fff}
header nav{display:flex;gap:1rem;flex:1}
header form{display:inline}
main{max-width:64rem;margin:2rem auto;padding:0 1rem}
.card{background:#fff;border-radius:.5rem;padding:1.5rem;box-shadow:0 1px 2px rgba(0,0,0,.08)}
.stats{display:grid;grid-template-columns:repeat(auto-fit,minmax(10rem,1fr));gap:1rem;margin:1.5rem 0}
.stat strong{display:block;font-size:2rem}
.notice,.banner{padding:.75rem 1rem;border-radius:.375rem;margin:1rem auto;max-width:62rem}
.notice-info,.notice-success{background:#e6f4ea}
.notice-warning,.notice-error,.banner{background:#fdecea;color:#8a1c12}
.field-error{color:#8a1c12;font-size:.875rem}
table{width:100%;border-collapse:collapse}
th,td{text-align:left;padding:.5rem;border-bottom:1px solid #e3e6ea}
.langs{font-size:.875rem}
`

// Layout wraps the children of ctx in the portal chrome.
func Layout(data LayoutData, loc i18n.Localizer) templ.Component {
	return component(func(ctx context.Context, h *html) {
		appName := loc.Sprintf("shell.app_name")
		h.raw("<!DOCTYPE html><html")
		h.attr("lang", data.Lang)
		h.raw(`><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">`)
		if data.RefreshSeconds > 0 {
			h.raw(`<meta http-equiv="refresh"`)
			h.attr("content", strconv.Itoa(data.RefreshSeconds))
			h.raw(">")
		}
		h.raw("<title>")
		if data.Title != "" {
			h.text(data.Title + " | ")
		}
		h.text(appName)
		h.raw("</title><style>", stylesheet, "</style></head><body>")

		h.raw("<header>")
		h.element("strong", "brand", appName)
		h.raw("<nav>")
		if data.Viewer.SignedIn {
			link(h, routepath.Dashboard, loc.Sprintf("shell.nav.dashboard"))
			if data.Viewer.IsAdmin() {
				link(h, routepath.Departments, loc.Sprintf("shell.nav.departments"))
				link(h, routepath.Users, loc.Sprintf("shell.nav.users"))
			}
		}
		h.raw("</nav>")
		languageLinks(h, data)
		if data.Viewer.SignedIn {
			h.element("span", "viewer", data.Viewer.DisplayName+" ("+string(data.Viewer.Role)+")")
			h.raw(`<form method="post"`)
			h.attr("action", routepath.Logout)
			h.raw(`><button type="submit">`)
			h.text(loc.Sprintf("shell.logout"))
			h.raw("</button></form>")
		}
		h.raw("</header>")

		if data.Notice != nil && data.Notice.Text != "" {
			h.raw(`<div role="status"`)
			h.attr("class", "notice notice-"+data.Notice.Kind)
			h.raw(">")
			h.text(data.Notice.Text)
			h.raw("</div>")
		}

		h.raw("<main>")
		h.component(ctx, templ.GetChildren(ctx))
		h.raw("</main></body></html>")
	})
}

func link(h *html, href, label string) {
	h.raw("<a")
	h.attr("href", href)
	h.raw(">")
	h.text(label)
	h.raw("</a>")
}

func languageLinks(h *html, data LayoutData) {
	if len(data.Languages) < 2 {
		return
	}
	path := data.Path
	if path == "" {
		path = routepath.Root
	}
	h.raw(`<span class="langs">`)
	for i, lang := range data.Languages {
		if i > 0 {
			h.raw(" · ")
		}
		if lang == data.Lang {
			h.element("strong", "", lang)
			continue
		}
		link(h, routepath.WithLanguage(path, lang), lang)
	}
	h.raw("</span>")
}
