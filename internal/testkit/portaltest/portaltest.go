// Package portaltest builds module dependencies backed by a real session store
// and an in-process SMS backend.
package portaltest

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/louisbranch/smsportal/internal/services/portal/module"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/apiclient"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/session"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/webctx"
	"github.com/louisbranch/smsportal/internal/services/portal/storage"
	"github.com/louisbranch/smsportal/internal/services/portal/storage/memory"
	"github.com/louisbranch/smsportal/internal/testkit/smsfake"
)

// Origin is the host test requests are addressed to.
const Origin = "http://portal.test"

// Env is one browser's view of the portal.
type Env struct {
	Backend *smsfake.Backend
	Client  *apiclient.Client
	Tokens  *memory.Store
	Store   *session.Store
	Deps    module.Dependencies
	Logs    *Buffer
}

// New returns an Env whose store is initialized and signed out.
func New(t *testing.T) *Env {
	t.Helper()
	backend := smsfake.New(t)
	client, err := apiclient.New(backend.URL())
	if err != nil {
		t.Fatalf("apiclient.New() error = %v", err)
	}
	logs := &Buffer{}
	logger := log.New(logs, "", 0)
	tokens := memory.New()
	store, err := session.NewStore(storage.TokenKey("browser-1"), client, tokens, logger)
	if err != nil {
		t.Fatalf("session.NewStore() error = %v", err)
	}
	if err := store.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	env := &Env{
		Backend: backend,
		Client:  client,
		Tokens:  tokens,
		Store:   store,
		Logs:    logs,
	}
	env.Deps = module.Dependencies{
		API: client,
		ResolveSession: func(*http.Request) (*session.Store, error) {
			return store, nil
		},
		ResolveViewer: func(r *http.Request) module.Viewer {
			return module.ViewerFromSnapshot(webctx.Snapshot(r))
		},
		AwaitBudget: time.Second,
		Logger:      logger,
	}
	return env
}

// SignIn logs the store in as the seeded account with email.
func (e *Env) SignIn(t *testing.T, email string) {
	t.Helper()
	if _, err := e.Store.Login(context.Background(), email, smsfake.DemoPassword); err != nil {
		t.Fatalf("Login(%q) error = %v", email, err)
	}
}

// Serve runs req through h with the store attached, as the portal server does.
func (e *Env) Serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req = req.WithContext(webctx.WithStore(req.Context(), e.Store))
	h.ServeHTTP(rec, req)
	return rec
}

// Get builds a GET request for target.
func Get(target string) *http.Request {
	return httptest.NewRequest(http.MethodGet, Origin+target, nil)
}

// PostForm builds a same-origin form POST for target.
func PostForm(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, Origin+target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Origin", Origin)
	return req
}

// Buffer is a log sink safe for concurrent writers.
type Buffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
