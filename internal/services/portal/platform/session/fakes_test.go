package session

import (
	"bytes"
	"context"
	"errors"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/louisbranch/smsportal/internal/services/portal/platform/apiclient"
	"github.com/louisbranch/smsportal/internal/services/portal/storage"
	"github.com/louisbranch/smsportal/internal/services/portal/storage/memory"
	"github.com/louisbranch/smsportal/internal/testkit/smsfake"
)

type harness struct {
	backend *smsfake.Backend
	client  *apiclient.Client
	tokens  *memory.Store
	logs    *syncBuffer
	logger  *log.Logger
}

func newHarness(t *testing.T) harness {
	t.Helper()
	backend := smsfake.New(t)
	client, err := apiclient.New(backend.URL())
	if err != nil {
		t.Fatalf("apiclient.New() error = %v", err)
	}
	logs := &syncBuffer{}
	return harness{
		backend: backend,
		client:  client,
		tokens:  memory.New(),
		logs:    logs,
		logger:  log.New(logs, "", 0),
	}
}

func (h harness) newStore(t *testing.T, key string) *Store {
	t.Helper()
	s, err := NewStore(key, h.client, h.tokens, h.logger)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return s
}

func (h harness) newManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(ManagerConfig{
		Backend: h.client,
		Signals: h.client,
		Tokens:  h.tokens,
		Logger:  h.logger,
	})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	t.Cleanup(m.Close)
	return m
}

func (h harness) persisted(t *testing.T, key string) (string, bool) {
	t.Helper()
	token, ok, err := h.tokens.LoadToken(context.Background(), key)
	if err != nil {
		t.Fatalf("LoadToken() error = %v", err)
	}
	return token, ok
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// failingTokens rejects writes, for persistence failure paths.
type failingTokens struct {
	*memory.Store
}

func (failingTokens) SaveToken(context.Context, string, string, time.Time) error {
	return errors.New("disk full")
}

// expiredTokens rejects writes as if every token had already expired.
type expiredTokens struct {
	*memory.Store
}

func (expiredTokens) SaveToken(context.Context, string, string, time.Time) error {
	return storage.ErrTokenExpired
}
