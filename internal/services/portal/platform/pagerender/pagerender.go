// Package pagerender writes module pages inside the shared layout.
package pagerender

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/louisbranch/smsportal/internal/services/portal/module"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/flash"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/httpx"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/i18n"
	"github.com/louisbranch/smsportal/internal/services/portal/templates"
)

// Page describes one full-page response.
type Page struct {
	Title          string
	StatusCode     int
	RefreshSeconds int
	Fragment       templ.Component
}

// Localizer returns the printer for r without touching the response. Use it
// to build fragments before WritePage.
func Localizer(r *http.Request) i18n.Localizer {
	return i18n.Printer(i18n.ResolveTag(r))
}

// WritePage renders page inside the layout, consuming any pending flash
// notice.
func WritePage(w http.ResponseWriter, r *http.Request, deps module.Dependencies, page Page) error {
	if w == nil {
		return nil
	}
	status := page.StatusCode
	if status <= 0 {
		status = http.StatusOK
	}
	fragment := page.Fragment
	if fragment == nil {
		fragment = templ.NopComponent
	}

	loc, tag := i18n.ResolveLocalizer(w, r, deps.SchemePolicy)
	viewer := module.Viewer{}
	if deps.ResolveViewer != nil && r != nil {
		viewer = deps.ResolveViewer(r)
	}
	data := templates.LayoutData{
		Title:          page.Title,
		Lang:           tag.String(),
		Viewer:         viewer,
		RefreshSeconds: page.RefreshSeconds,
		Languages:      languages(),
	}
	if r != nil {
		data.Path = r.URL.Path
	}
	// A refreshing page would consume the notice before the user sees it.
	if page.RefreshSeconds == 0 {
		if notice, ok := flash.ReadAndClear(w, r, deps.SchemePolicy); ok {
			data.Notice = &templates.Notice{Kind: string(notice.Kind), Text: loc.Sprintf(notice.Key)}
		}
	}

	ctx := templ.WithChildren(httpx.RequestContext(r), fragment)
	return httpx.WriteComponent(ctx, w, status, templates.Layout(data, loc))
}

func languages() []string {
	tags := i18n.Supported()
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		out = append(out, tag.String())
	}
	return out
}
