package session

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/louisbranch/smsportal/internal/services/portal/identity"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/apiclient"
	"github.com/louisbranch/smsportal/internal/services/portal/storage"
)

// Backend is the subset of the SMS API a Store drives.
type Backend interface {
	Login(ctx context.Context, email, password string) (apiclient.LoginResult, error)
	CurrentUser(ctx context.Context) (identity.Profile, error)
}

// Store owns the auth state of one browser. All mutation goes through
// Initialize, Login, Logout, and the unauthorized signal; readers take
// Snapshots.
//
// Every mutation bumps the generation when it starts and applies its result
// only if the generation is unchanged when the backend answers, so a slow
// response can never overwrite a newer logout or login.
type Store struct {
	key     string
	backend Backend
	tokens  storage.TokenStore
	logger  *log.Logger
	now     func() time.Time

	initOnce sync.Once
	initDone chan struct{}

	mu         sync.Mutex
	state      State
	token      string
	user       *identity.Profile
	generation uint64
	lastSeen   time.Time
}

// NewStore builds an uninitialized store persisting its token under key.
func NewStore(key string, backend Backend, tokens storage.TokenStore, logger *log.Logger) (*Store, error) {
	key, err := storage.ValidateKey(key)
	if err != nil {
		return nil, err
	}
	if backend == nil {
		return nil, fmt.Errorf("session backend is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token store is required")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Store{
		key:      key,
		backend:  backend,
		tokens:   tokens,
		logger:   logger,
		now:      time.Now,
		initDone: make(chan struct{}),
		lastSeen: time.Now(),
	}, nil
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{State: s.state, Token: s.token, Generation: s.generation}
	if s.user != nil {
		user := *s.user
		snap.User = &user
	}
	return snap
}

// Ready is closed once Initialize has finished.
func (s *Store) Ready() <-chan struct{} {
	return s.initDone
}

// Await waits up to budget for initialization and returns the resulting
// snapshot. If the budget or ctx runs out first the snapshot is still Loading.
func (s *Store) Await(ctx context.Context, budget time.Duration) Snapshot {
	if budget > 0 {
		timer := time.NewTimer(budget)
		defer timer.Stop()
		select {
		case <-s.initDone:
		case <-timer.C:
		case <-ctx.Done():
		}
	}
	return s.Snapshot()
}

// Initialize resolves the persisted token into an authenticated user. It runs
// at most once per Store; later calls wait for the first to finish.
//
// No token, a locally expired token, or any failure validating it leaves the
// Store Unauthenticated, and a rejected token is removed from persistence.
func (s *Store) Initialize(ctx context.Context) error {
	ran := false
	s.initOnce.Do(func() {
		ran = true
		defer close(s.initDone)
		s.initialize(ctx)
	})
	if ran {
		return nil
	}
	select {
	case <-s.initDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) initialize(ctx context.Context) {
	s.mu.Lock()
	if s.state != StateUninitialized {
		// A login or logout already decided the state.
		s.mu.Unlock()
		return
	}
	s.state = StateLoading
	gen := s.generation
	s.mu.Unlock()

	token, ok, err := s.tokens.LoadToken(ctx, s.key)
	if err != nil {
		s.logger.Printf("session token load failed key=%s err=%v", s.key, err)
	}
	if err != nil || !ok {
		s.settle(gen, StateUnauthenticated, "", nil)
		return
	}

	if tokenExpired(token, s.now()) {
		s.discardToken(ctx, gen, "expired")
		return
	}

	profile, err := s.backend.CurrentUser(apiclient.WithToken(ctx, token))
	if err != nil {
		s.logger.Printf("session token validation failed key=%s err=%v", s.key, err)
		s.discardToken(ctx, gen, "rejected")
		return
	}
	s.settle(gen, StateAuthenticated, token, &profile)
}

// settle applies an initialization result if nothing newer has happened.
func (s *Store) settle(gen uint64, state State, token string, user *identity.Profile) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return false
	}
	s.state = state
	s.token = token
	s.user = user
	return true
}

func (s *Store) discardToken(ctx context.Context, gen uint64, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return
	}
	s.state = StateUnauthenticated
	s.token = ""
	s.user = nil
	if err := s.tokens.DeleteToken(ctx, s.key); err != nil {
		s.logger.Printf("session token delete failed key=%s reason=%s err=%v", s.key, reason, err)
	}
}

// Login authenticates with the backend, confirms the profile, and only then
// persists the token. Any previously persisted token is removed first, so on
// failure the Store is Unauthenticated and no token is persisted.
func (s *Store) Login(ctx context.Context, email, password string) (identity.Profile, error) {
	email = strings.TrimSpace(email)

	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.state = StateLoading
	s.token = ""
	s.user = nil
	if err := s.tokens.DeleteToken(ctx, s.key); err != nil {
		s.logger.Printf("session token delete failed key=%s reason=login err=%v", s.key, err)
	}
	s.mu.Unlock()

	result, err := s.backend.Login(ctx, email, password)
	if err != nil {
		return identity.Profile{}, s.failLogin(gen, err)
	}
	profile, err := s.backend.CurrentUser(apiclient.WithToken(ctx, result.Token))
	if err != nil {
		return identity.Profile{}, s.failLogin(gen, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return identity.Profile{}, ErrSuperseded
	}
	// Persist under the lock so a concurrent logout cannot interleave.
	expiresAt, _ := tokenExpiry(result.Token)
	if err := s.tokens.SaveToken(ctx, s.key, result.Token, expiresAt); err != nil {
		// Includes storage.ErrTokenExpired.
		s.state = StateUnauthenticated
		return identity.Profile{}, fmt.Errorf("persist session token: %w", err)
	}
	s.state = StateAuthenticated
	s.token = result.Token
	s.user = &profile
	s.lastSeen = s.now()
	return profile, nil
}

func (s *Store) failLogin(gen uint64, err error) error {
	s.mu.Lock()
	if s.generation == gen {
		s.state = StateUnauthenticated
	}
	s.mu.Unlock()
	return &AuthError{Message: apiclient.Message(err), Err: err}
}

// Logout clears the in-memory and persisted token. It is idempotent and never
// fails because of the current state; the returned error only reports a
// persistence failure after memory was already cleared.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
	if err := s.tokens.DeleteToken(ctx, s.key); err != nil {
		return fmt.Errorf("delete session token: %w", err)
	}
	return nil
}

func (s *Store) clearLocked() {
	s.generation++
	s.state = StateUnauthenticated
	s.token = ""
	s.user = nil
}

// handleUnauthorized clears the session if token is the one it holds.
func (s *Store) handleUnauthorized(ctx context.Context, token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token == "" || s.token != token {
		return false
	}
	s.clearLocked()
	if err := s.tokens.DeleteToken(ctx, s.key); err != nil {
		s.logger.Printf("session token delete failed key=%s reason=unauthorized err=%v", s.key, err)
	}
	return true
}

// inSync reports whether the persisted token still matches the one held in
// memory. Another portal sharing the token store may have replaced or removed
// it. A store with a resolution or login in flight is treated as in sync.
func (s *Store) inSync(ctx context.Context) bool {
	s.mu.Lock()
	if s.state == StateLoading || s.state == StateUninitialized {
		s.mu.Unlock()
		return true
	}
	gen := s.generation
	s.mu.Unlock()

	persisted, ok, err := s.tokens.LoadToken(ctx, s.key)
	if err != nil {
		s.logger.Printf("session token load failed key=%s err=%v", s.key, err)
		return true
	}
	if !ok {
		persisted = ""
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return true
	}
	return persisted == s.token
}

// holds reports whether the store currently authenticates with token.
func (s *Store) holds(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return token != "" && s.token == token
}

func (s *Store) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// idleSince reports whether the store has been unused since cutoff and has no
// resolution in flight.
func (s *Store) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != StateLoading && s.lastSeen.Before(cutoff)
}
