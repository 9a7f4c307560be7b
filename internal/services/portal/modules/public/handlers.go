package public

import (
	"errors"
	"net/http"
	"strings"

	"github.com/louisbranch/smsportal/internal/services/portal/module"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/flash"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/httpx"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/pagerender"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/session"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/weberror"
	"github.com/louisbranch/smsportal/internal/services/portal/routepath"
	"github.com/louisbranch/smsportal/internal/services/portal/templates"
)

const signedOutKey = "shell.flash.signed_out"

type handlers struct {
	deps module.Dependencies
}

func newHandlers(deps module.Dependencies) handlers {
	return handlers{deps: deps}
}

func (h handlers) handleRoot(w http.ResponseWriter, r *http.Request) {
	_, snap, err := h.deps.Session(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	switch {
	case snap.Loading():
		h.writeLoading(w, r)
	case snap.Authenticated():
		httpx.WriteRedirect(w, r, routepath.Dashboard)
	default:
		httpx.WriteRedirect(w, r, routepath.Login)
	}
}

func (h handlers) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	_, snap, err := h.deps.Session(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if snap.Loading() {
		h.writeLoading(w, r)
		return
	}
	if snap.Authenticated() {
		httpx.WriteRedirect(w, r, routepath.Dashboard)
		return
	}
	h.writeLogin(w, r, http.StatusOK, templates.LoginView{Email: strings.TrimSpace(r.URL.Query().Get("email"))})
}

func (h handlers) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	store, snap, err := h.deps.Session(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if snap.Authenticated() {
		// Signing in as someone else goes through logout first.
		httpx.WriteRedirect(w, r, routepath.Dashboard)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.writeLogin(w, r, http.StatusBadRequest, templates.LoginView{Error: pagerender.Localizer(r).Sprintf("auth.login.failed")})
		return
	}
	input := loginInput{
		Email:    strings.TrimSpace(r.PostForm.Get("email")),
		Password: r.PostForm.Get("password"),
	}
	loc := pagerender.Localizer(r)
	if errs := validateLogin(input); !errs.empty() {
		view := templates.LoginView{Email: input.Email}
		if errs.Email != "" {
			view.EmailError = loc.Sprintf(errs.Email)
		}
		if errs.Password != "" {
			view.PasswordError = loc.Sprintf(errs.Password)
		}
		h.writeLogin(w, r, http.StatusBadRequest, view)
		return
	}

	profile, err := store.Login(r.Context(), input.Email, input.Password)
	switch {
	case err == nil:
		h.logf("login succeeded user_id=%d role=%s request_id=%s", profile.ID, profile.UserType, httpx.RequestIDFrom(r))
		httpx.WriteRedirect(w, r, routepath.Dashboard)
	case errors.Is(err, session.ErrAuth):
		message := err.Error()
		if message == "" {
			message = loc.Sprintf("auth.login.failed")
		}
		h.writeLogin(w, r, http.StatusUnauthorized, templates.LoginView{Email: input.Email, Error: message})
	case errors.Is(err, session.ErrSuperseded):
		httpx.WriteRedirect(w, r, routepath.Login)
	default:
		h.logf("login failed request_id=%s err=%v", httpx.RequestIDFrom(r), err)
		weberror.WriteAppError(w, r, http.StatusInternalServerError, h.deps)
	}
}

func (h handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	store, err := h.deps.ResolveSession(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := store.Logout(r.Context()); err != nil {
		h.logf("logout persistence failed request_id=%s err=%v", httpx.RequestIDFrom(r), err)
	}
	flash.Write(w, r, flash.Info(signedOutKey), h.deps.SchemePolicy)
	httpx.WriteRedirect(w, r, routepath.Login)
}

func (h handlers) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h handlers) handleNotFound(w http.ResponseWriter, r *http.Request) {
	weberror.WriteAppError(w, r, http.StatusNotFound, h.deps)
}

func (h handlers) writeLoading(w http.ResponseWriter, r *http.Request) {
	loc := pagerender.Localizer(r)
	if err := pagerender.WritePage(w, r, h.deps, pagerender.Page{
		Title:          loc.Sprintf("shell.loading"),
		RefreshSeconds: 1,
		Fragment:       templates.LoadingState(loc),
	}); err != nil {
		h.writeError(w, r, err)
	}
}

func (h handlers) writeLogin(w http.ResponseWriter, r *http.Request, status int, view templates.LoginView) {
	loc := pagerender.Localizer(r)
	view.Demo = demoAccounts
	view.DemoPassword = DemoPassword
	if err := pagerender.WritePage(w, r, h.deps, pagerender.Page{
		Title:      loc.Sprintf("auth.login.title"),
		StatusCode: status,
		Fragment:   templates.LoginPage(view, loc),
	}); err != nil {
		h.writeError(w, r, err)
	}
}

func (h handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	weberror.WriteModuleError(w, r, err, h.deps)
}

func (h handlers) logf(format string, args ...any) {
	if h.deps.Logger == nil {
		return
	}
	h.deps.Logger.Printf(format, args...)
}
