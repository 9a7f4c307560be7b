package session

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/louisbranch/smsportal/internal/services/portal/platform/apiclient"
	"github.com/louisbranch/smsportal/internal/services/portal/storage"
)

const (
	defaultIdleTTL     = 30 * time.Minute
	defaultInitTimeout = 10 * time.Second
)

// UnauthorizedSource publishes backend 401 responses.
type UnauthorizedSource interface {
	Subscribe(func(apiclient.UnauthorizedEvent)) (unsubscribe func())
}

// ManagerConfig wires a Manager.
type ManagerConfig struct {
	Backend Backend
	// Signals is usually the same *apiclient.Client as Backend.
	Signals UnauthorizedSource
	Tokens  storage.TokenStore
	// IdleTTL evicts in-memory stores unused for this long. Their persisted
	// tokens stay, so the browser resumes on its next request.
	IdleTTL time.Duration
	// InitTimeout bounds background initialization.
	InitTimeout time.Duration
	Logger      *log.Logger
}

// Manager owns one Store per browser and routes 401 signals to the store
// holding the rejected token.
type Manager struct {
	backend     Backend
	tokens      storage.TokenStore
	idleTTL     time.Duration
	initTimeout time.Duration
	logger      *log.Logger
	now         func() time.Time
	unsubscribe func()

	mu     sync.Mutex
	stores map[string]*Store
}

// NewManager validates cfg and subscribes to unauthorized signals.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if cfg.Backend == nil {
		return nil, errors.New("session backend is required")
	}
	if cfg.Tokens == nil {
		return nil, errors.New("token store is required")
	}
	m := &Manager{
		backend:     cfg.Backend,
		tokens:      cfg.Tokens,
		idleTTL:     cfg.IdleTTL,
		initTimeout: cfg.InitTimeout,
		logger:      cfg.Logger,
		now:         time.Now,
		stores:      map[string]*Store{},
		unsubscribe: func() {},
	}
	if m.idleTTL <= 0 {
		m.idleTTL = defaultIdleTTL
	}
	if m.initTimeout <= 0 {
		m.initTimeout = defaultInitTimeout
	}
	if m.logger == nil {
		m.logger = log.Default()
	}
	if cfg.Signals != nil {
		m.unsubscribe = cfg.Signals.Subscribe(m.handleUnauthorized)
	}
	return m, nil
}

// Store returns the store for browserID, creating an uninitialized one if
// needed.
func (m *Manager) Store(browserID string) (*Store, error) {
	browserID = strings.TrimSpace(browserID)
	if browserID == "" {
		return nil, errors.New("browser id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.stores[browserID]; ok {
		s.touch(m.now())
		return s, nil
	}
	s, err := NewStore(storage.TokenKey(browserID), m.backend, m.tokens, m.logger)
	if err != nil {
		return nil, err
	}
	s.now = m.now
	s.lastSeen = m.now()
	m.stores[browserID] = s
	return s, nil
}

// Resolve returns the store for browserID and starts its initialization in
// the background. The initialization outlives ctx's cancellation but keeps
// its values, so a closed browser tab does not leave the store half-resolved.
//
// A resolved store whose token no longer matches the persisted one is
// replaced by a fresh store that resolves from persistence again.
func (m *Manager) Resolve(ctx context.Context, browserID string) (*Store, error) {
	s, err := m.Store(browserID)
	if err != nil {
		return nil, err
	}
	select {
	case <-s.Ready():
		if s.inSync(ctx) {
			return s, nil
		}
		m.logger.Printf("session reset reason=token_changed key=%s", s.key)
		m.evict(browserID, s)
		if s, err = m.Store(browserID); err != nil {
			return nil, err
		}
	default:
	}
	initCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.initTimeout)
	go func() {
		defer cancel()
		if err := s.Initialize(initCtx); err != nil {
			m.logger.Printf("session initialize failed key=%s err=%v", s.key, err)
		}
	}()
	return s, nil
}

// evict drops s if it is still the store registered for browserID.
func (m *Manager) evict(browserID string, s *Store) {
	browserID = strings.TrimSpace(browserID)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stores[browserID] == s {
		delete(m.stores, browserID)
	}
}

// Len reports how many browser stores are held in memory.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stores)
}

func (m *Manager) handleUnauthorized(event apiclient.UnauthorizedEvent) {
	if event.Token == "" {
		return
	}
	m.mu.Lock()
	holders := make([]*Store, 0, 1)
	for _, s := range m.stores {
		if s.holds(event.Token) {
			holders = append(holders, s)
		}
	}
	m.mu.Unlock()

	for _, s := range holders {
		if s.handleUnauthorized(context.Background(), event.Token) {
			m.logger.Printf("session cleared reason=unauthorized key=%s method=%s path=%s", s.key, event.Method, event.Path)
		}
	}
}

// Sweep evicts idle stores and purges expired persisted tokens. It returns
// the number of evicted stores.
func (m *Manager) Sweep(ctx context.Context) int {
	now := m.now()
	cutoff := now.Add(-m.idleTTL)

	m.mu.Lock()
	evicted := 0
	for id, s := range m.stores {
		if s.idleSince(cutoff) {
			delete(m.stores, id)
			evicted++
		}
	}
	m.mu.Unlock()

	if purger, ok := m.tokens.(storage.ExpiredTokenPurger); ok {
		purged, err := purger.PurgeExpiredTokens(ctx, now)
		if err != nil {
			m.logger.Printf("session token purge failed err=%v", err)
		} else if purged > 0 {
			m.logger.Printf("session tokens purged count=%d", purged)
		}
	}
	return evicted
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if evicted := m.Sweep(ctx); evicted > 0 {
				m.logger.Printf("session sweep evicted=%d", evicted)
			}
		}
	}
}

// Close stops listening for unauthorized signals.
func (m *Manager) Close() {
	if m == nil {
		return
	}
	m.unsubscribe()
}
