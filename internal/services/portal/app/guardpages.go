package app

import (
	"net/http"

	"github.com/louisbranch/smsportal/internal/services/portal/module"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/guard"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/pagerender"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/session"
	"github.com/louisbranch/smsportal/internal/services/portal/templates"
)

// loadingRefreshSeconds is how soon the loading page asks the browser to
// retry.
const loadingRefreshSeconds = 1

// guardPages renders guard outcomes inside the shared layout.
type guardPages struct {
	deps module.Dependencies
}

func (p guardPages) Loading(w http.ResponseWriter, r *http.Request) {
	loc := pagerender.Localizer(r)
	if err := pagerender.WritePage(w, r, p.deps, pagerender.Page{
		Title:          loc.Sprintf("shell.loading"),
		RefreshSeconds: loadingRefreshSeconds,
		Fragment:       templates.LoadingState(loc),
	}); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (p guardPages) Denied(w http.ResponseWriter, r *http.Request, decision guard.Decision) {
	loc := pagerender.Localizer(r)
	view := templates.DeniedView{
		Unauthenticated: decision.Reason == guard.ReasonUnauthenticated,
		RequiredRole:    string(decision.RequiredRole),
	}
	if err := pagerender.WritePage(w, r, p.deps, pagerender.Page{
		Title:      loc.Sprintf("auth.denied.title"),
		StatusCode: decision.HTTPStatus(),
		Fragment:   templates.AccessDenied(view, loc),
	}); err != nil {
		http.Error(w, http.StatusText(decision.HTTPStatus()), decision.HTTPStatus())
	}
}

// sessionSource waits up to the configured budget for the request's session.
func sessionSource(deps module.Dependencies) guard.Source {
	return func(r *http.Request) session.Snapshot {
		_, snap, err := deps.Session(r)
		if err != nil {
			return session.Snapshot{State: session.StateUnauthenticated}
		}
		return snap
	}
}
