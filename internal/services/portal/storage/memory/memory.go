// Package memory keeps portal tokens in process memory. Tokens do not survive
// a restart; use it for tests and single-shot local runs.
package memory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/louisbranch/smsportal/internal/services/portal/storage"
)

type entry struct {
	token     string
	expiresAt time.Time
}

// Store is an in-memory storage.TokenStore.
type Store struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]entry
	closed  bool
}

// New returns an empty store.
func New() *Store {
	return &Store{now: time.Now, entries: map[string]entry{}}
}

func (s *Store) LoadToken(_ context.Context, key string) (string, bool, error) {
	key, err := storage.ValidateKey(key)
	if err != nil {
		return "", false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", false, storage.ErrClosed
	}
	e, ok := s.entries[key]
	if !ok {
		return "", false, nil
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		return "", false, nil
	}
	return e.token, true, nil
}

func (s *Store) SaveToken(_ context.Context, key string, token string, expiresAt time.Time) error {
	key, err := storage.ValidateKey(key)
	if err != nil {
		return err
	}
	if strings.TrimSpace(token) == "" {
		return errors.New("token is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrClosed
	}
	if !expiresAt.IsZero() && !s.now().Before(expiresAt) {
		return storage.ErrTokenExpired
	}
	s.entries[key] = entry{token: token, expiresAt: expiresAt}
	return nil
}

func (s *Store) DeleteToken(_ context.Context, key string) error {
	key, err := storage.ValidateKey(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrClosed
	}
	delete(s.entries, key)
	return nil
}

// Close drops every token.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.entries = nil
	return nil
}

// PurgeExpiredTokens drops tokens that expired at or before now.
func (s *Store) PurgeExpiredTokens(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, storage.ErrClosed
	}
	var purged int64
	for key, e := range s.entries {
		if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
			delete(s.entries, key)
			purged++
		}
	}
	return purged, nil
}

// Len reports how many tokens are held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

var (
	_ storage.TokenStore         = (*Store)(nil)
	_ storage.ExpiredTokenPurger = (*Store)(nil)
)
