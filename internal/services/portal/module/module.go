// Package module defines the feature contract used by portal composition.
package module

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/louisbranch/smsportal/internal/services/portal/identity"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/apiclient"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/requestmeta"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/session"
)

// Viewer is the signed-in user as shown in the page chrome.
type Viewer struct {
	SignedIn    bool
	DisplayName string
	Email       string
	Role        identity.Role
}

// IsAdmin reports whether admin navigation is shown.
func (v Viewer) IsAdmin() bool { return v.SignedIn && v.Role == identity.RoleAdmin }

// ViewerFromSnapshot builds the chrome viewer for snap.
func ViewerFromSnapshot(snap session.Snapshot) Viewer {
	if !snap.Authenticated() {
		return Viewer{}
	}
	return Viewer{
		SignedIn:    true,
		DisplayName: snap.User.DisplayName(),
		Email:       snap.User.Email,
		Role:        snap.User.UserType,
	}
}

// ResolveViewer resolves chrome viewer state for a request.
type ResolveViewer func(*http.Request) Viewer

// ResolveSession returns the session store of the requesting browser.
type ResolveSession func(*http.Request) (*session.Store, error)

// Dependencies are shared by every module.
type Dependencies struct {
	// API is the SMS backend client; modules wrap it in their gateways.
	API            *apiclient.Client
	ResolveSession ResolveSession
	ResolveViewer  ResolveViewer
	SchemePolicy   requestmeta.SchemePolicy
	// AwaitBudget is how long a request waits for its session to resolve
	// before the loading page is shown instead.
	AwaitBudget time.Duration
	Logger      *log.Logger
}

// Session returns the requesting browser's store and its snapshot after
// waiting up to AwaitBudget for initialization.
func (d Dependencies) Session(r *http.Request) (*session.Store, session.Snapshot, error) {
	if d.ResolveSession == nil || r == nil {
		return nil, session.Snapshot{}, errors.New("session resolver is not configured")
	}
	store, err := d.ResolveSession(r)
	if err != nil {
		return nil, session.Snapshot{}, err
	}
	return store, store.Await(r.Context(), d.AwaitBudget), nil
}

// Mount describes a module route mount. Prefix is owned exactly and as a
// subtree; RequiredRole only applies to protected modules.
type Mount struct {
	Prefix       string
	RequiredRole identity.Role
	Handler      http.Handler
}

// Module declares the contract required by portal composition.
type Module interface {
	ID() string
	Mount(Dependencies) (Mount, error)
}
