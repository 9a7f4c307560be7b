package public

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/louisbranch/smsportal/internal/services/portal/platform/flash"
	"github.com/louisbranch/smsportal/internal/services/portal/routepath"
	"github.com/louisbranch/smsportal/internal/services/portal/storage"
	"github.com/louisbranch/smsportal/internal/testkit/portaltest"
)

func mountPublic(t *testing.T, env *portaltest.Env) http.Handler {
	t.Helper()
	mount, err := New().Mount(env.Deps)
	if err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	if mount.Prefix != routepath.Root {
		t.Fatalf("prefix = %q, want %q", mount.Prefix, routepath.Root)
	}
	return mount.Handler
}

func TestRootRedirectsBySessionState(t *testing.T) {
	t.Parallel()

	env := portaltest.New(t)
	h := mountPublic(t, env)

	rec := env.Serve(h, portaltest.Get("/"))
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusFound)
	}
	if got := rec.Header().Get("Location"); got != routepath.Login {
		t.Fatalf("location = %q, want %q", got, routepath.Login)
	}

	env.SignIn(t, "admin@gmail.com")
	rec = env.Serve(h, portaltest.Get("/"))
	if got := rec.Header().Get("Location"); got != routepath.Dashboard {
		t.Fatalf("location = %q, want %q", got, routepath.Dashboard)
	}
}

func TestLoginPageRendersFormWithDemoAccounts(t *testing.T) {
	t.Parallel()

	env := portaltest.New(t)
	rec := env.Serve(mountPublic(t, env), portaltest.Get("/login?email=hod.cse@gmail.com"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	for _, want := range []string{`action="/login"`, `value="hod.cse@gmail.com"`, "faculty.cse%40gmail.com", DemoPassword} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q: %s", want, body)
		}
	}
}

func TestLoginPageRedirectsAuthenticatedUser(t *testing.T) {
	t.Parallel()

	env := portaltest.New(t)
	env.SignIn(t, "faculty.cse@gmail.com")
	rec := env.Serve(mountPublic(t, env), portaltest.Get("/login"))
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusFound)
	}
	if got := rec.Header().Get("Location"); got != routepath.Dashboard {
		t.Fatalf("location = %q, want %q", got, routepath.Dashboard)
	}
}

func TestLoginSubmitValidatesBeforeCallingBackend(t *testing.T) {
	t.Parallel()

	env := portaltest.New(t)
	form := url.Values{"email": {"not-an-email"}, "password": {""}}
	rec := env.Serve(mountPublic(t, env), portaltest.PostForm("/login", form))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	body := rec.Body.String()
	for _, want := range []string{"Please enter a valid email address", "Password is required"} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q", want)
		}
	}
	if got := env.Backend.CallCount("POST /auth/login"); got != 0 {
		t.Fatalf("login calls = %d, want 0", got)
	}
}

func TestLoginSubmitSuccessRedirectsToDashboard(t *testing.T) {
	t.Parallel()

	env := portaltest.New(t)
	form := url.Values{"email": {"admin@gmail.com"}, "password": {DemoPassword}}
	rec := env.Serve(mountPublic(t, env), portaltest.PostForm("/login", form))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if got := rec.Header().Get("Location"); got != routepath.Dashboard {
		t.Fatalf("location = %q, want %q", got, routepath.Dashboard)
	}
	if !env.Store.Snapshot().Authenticated() {
		t.Fatal("expected authenticated session")
	}
	if _, ok, _ := env.Tokens.LoadToken(context.Background(), storage.TokenKey("browser-1")); !ok {
		t.Fatal("expected persisted token")
	}
}

func TestLoginSubmitShowsBackendMessage(t *testing.T) {
	t.Parallel()

	env := portaltest.New(t)
	form := url.Values{"email": {"admin@gmail.com"}, "password": {"wrong"}}
	rec := env.Serve(mountPublic(t, env), portaltest.PostForm("/login", form))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Invalid credentials") {
		t.Fatalf("body missing backend message: %s", body)
	}
	if !strings.Contains(body, `value="admin@gmail.com"`) {
		t.Fatalf("body should keep the submitted email")
	}
	if env.Store.Snapshot().Authenticated() {
		t.Fatal("session should stay signed out")
	}
}

func TestLoginSubmitWhileSignedInKeepsSession(t *testing.T) {
	t.Parallel()

	env := portaltest.New(t)
	env.SignIn(t, "admin@gmail.com")
	token := env.Store.Snapshot().Token
	calls := env.Backend.CallCount("POST /auth/login")

	form := url.Values{"email": {"bad@x.com"}, "password": {"wrong"}}
	rec := env.Serve(mountPublic(t, env), portaltest.PostForm("/login", form))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if got := rec.Header().Get("Location"); got != routepath.Dashboard {
		t.Fatalf("location = %q, want %q", got, routepath.Dashboard)
	}
	if got := env.Backend.CallCount("POST /auth/login"); got != calls {
		t.Fatalf("login calls = %d, want %d", got, calls)
	}
	snap := env.Store.Snapshot()
	if !snap.Authenticated() || snap.Token != token {
		t.Fatalf("snapshot = %+v, want the original session", snap)
	}
	persisted, ok, _ := env.Tokens.LoadToken(context.Background(), storage.TokenKey("browser-1"))
	if !ok || persisted != token {
		t.Fatalf("persisted token = %q, %v, want the original token", persisted, ok)
	}
}

func TestLogoutClearsSessionAndFlashes(t *testing.T) {
	t.Parallel()

	env := portaltest.New(t)
	env.SignIn(t, "admin@gmail.com")
	rec := env.Serve(mountPublic(t, env), portaltest.PostForm("/logout", nil))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if got := rec.Header().Get("Location"); got != routepath.Login {
		t.Fatalf("location = %q, want %q", got, routepath.Login)
	}
	if env.Store.Snapshot().Authenticated() {
		t.Fatal("expected signed out session")
	}
	if _, ok, _ := env.Tokens.LoadToken(context.Background(), storage.TokenKey("browser-1")); ok {
		t.Fatal("token should be removed")
	}
	found := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == flash.CookieName && c.Value != "" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected flash cookie")
	}
}

func TestHealthAndNotFound(t *testing.T) {
	t.Parallel()

	env := portaltest.New(t)
	h := mountPublic(t, env)

	rec := env.Serve(h, portaltest.Get(routepath.Health))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("health = %d %q, want 200 ok", rec.Code, rec.Body.String())
	}

	rec = env.Serve(h, portaltest.Get("/missing/page"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if !strings.Contains(rec.Body.String(), "Page not found") {
		t.Fatalf("body missing not-found copy")
	}

	req := portaltest.Get("/login")
	req.Method = http.MethodPut
	rec = env.Serve(h, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("PUT /login status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestValidEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want bool
	}{
		{"admin@gmail.com", true},
		{"hod.cse@college.edu.in", true},
		{"", false},
		{"admin", false},
		{"admin@localhost", false},
		{"Admin <admin@gmail.com>", false},
		{"admin@gmail.", false},
	}
	for _, tc := range tests {
		if got := validEmail(tc.raw); got != tc.want {
			t.Fatalf("validEmail(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}
