// Package portal hosts the browser-facing SMS portal.
package portal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/louisbranch/smsportal/internal/platform/timeouts"
	portalapp "github.com/louisbranch/smsportal/internal/services/portal/app"
	module "github.com/louisbranch/smsportal/internal/services/portal/module"
	"github.com/louisbranch/smsportal/internal/services/portal/modules"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/apiclient"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/httpx"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/observability"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/requestmeta"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/session"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/sessioncookie"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/webctx"
	"github.com/louisbranch/smsportal/internal/services/portal/routepath"
)

// defaultAwaitBudget is how long a request waits for its session before the
// loading page is shown.
const defaultAwaitBudget = 2 * time.Second

// Config defines startup inputs for the portal service.
type Config struct {
	HTTPAddr     string
	API          *apiclient.Client
	Sessions     *session.Manager
	SchemePolicy requestmeta.SchemePolicy
	// AwaitBudget defaults to two seconds.
	AwaitBudget time.Duration
	// SweepInterval defaults to timeouts.SessionSweep.
	SweepInterval time.Duration
	Logger        *log.Logger
}

// Server hosts the portal HTTP surface and lifecycle.
type Server struct {
	httpAddr      string
	httpServer    *http.Server
	sessions      *session.Manager
	sweepInterval time.Duration
}

// NewHandler builds the root handler from the default module registry.
func NewHandler(cfg Config) (http.Handler, error) {
	if cfg.Sessions == nil {
		return nil, errors.New("session manager is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	awaitBudget := cfg.AwaitBudget
	if awaitBudget <= 0 {
		awaitBudget = defaultAwaitBudget
	}
	deps := module.Dependencies{
		API:            cfg.API,
		ResolveSession: resolveSession,
		ResolveViewer:  resolveViewer,
		SchemePolicy:   cfg.SchemePolicy,
		AwaitBudget:    awaitBudget,
		Logger:         logger,
	}
	h, err := portalapp.Composer{}.Compose(portalapp.ComposeInput{
		Dependencies:     deps,
		PublicModules:    modules.DefaultPublicModules(),
		ProtectedModules: modules.DefaultProtectedModules(deps),
	})
	if err != nil {
		return nil, err
	}
	return httpx.Chain(h,
		httpx.RecoverPanic(logger),
		httpx.RequestID(),
		observability.RequestLogger(logger),
		withBrowserSession(cfg.Sessions, cfg.SchemePolicy),
	), nil
}

// withBrowserSession attaches the requesting browser's store, minting the
// browser id cookie on first visit. Health checks skip it.
func withBrowserSession(sessions *session.Manager, policy requestmeta.SchemePolicy) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.NotFoundHandler()
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r == nil || r.URL.Path == routepath.Health {
				next.ServeHTTP(w, r)
				return
			}
			browserID := sessioncookie.Ensure(w, r, policy)
			store, err := sessions.Resolve(r.Context(), browserID)
			if err != nil {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			next.ServeHTTP(w, r.WithContext(webctx.WithStore(r.Context(), store)))
		})
	}
}

func resolveSession(r *http.Request) (*session.Store, error) {
	if r == nil {
		return nil, errors.New("request is required")
	}
	store, ok := webctx.Store(r.Context())
	if !ok {
		return nil, errors.New("browser session is not attached")
	}
	return store, nil
}

func resolveViewer(r *http.Request) module.Viewer {
	return module.ViewerFromSnapshot(webctx.Snapshot(r))
}

// NewServer validates config and constructs a portal server.
func NewServer(_ context.Context, cfg Config) (*Server, error) {
	httpAddr := strings.TrimSpace(cfg.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	handler, err := NewHandler(cfg)
	if err != nil {
		return nil, fmt.Errorf("compose portal handler: %w", err)
	}
	sweepInterval := cfg.SweepInterval
	if sweepInterval <= 0 {
		sweepInterval = timeouts.SessionSweep
	}
	return &Server{
		httpAddr: httpAddr,
		httpServer: &http.Server{
			Addr:              httpAddr,
			Handler:           handler,
			ReadHeaderTimeout: timeouts.ReadHeader,
		},
		sessions:      cfg.Sessions,
		sweepInterval: sweepInterval,
	}, nil
}

// ListenAndServe serves HTTP traffic and sweeps idle sessions until context
// cancellation or server stop.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("portal server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go s.sessions.Run(sweepCtx, s.sweepInterval)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown portal http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve portal http: %w", err)
	}
}

// Close closes open server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.sessions != nil {
		s.sessions.Close()
	}
	if s.httpServer != nil {
		_ = s.httpServer.Close()
	}
}
