// Package guard gates protected pages on the requesting browser's session.
package guard

import (
	"context"
	"net/http"

	"github.com/louisbranch/smsportal/internal/services/portal/identity"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/session"
)

// Outcome is what a protected route should render.
type Outcome int

const (
	// OutcomeLoading means the session is still resolving.
	OutcomeLoading Outcome = iota
	// OutcomeDenied means the access-denied page is shown instead.
	OutcomeDenied
	// OutcomeAllow means the protected content is rendered.
	OutcomeAllow
)

func (o Outcome) String() string {
	switch o {
	case OutcomeLoading:
		return "loading"
	case OutcomeDenied:
		return "denied"
	case OutcomeAllow:
		return "allow"
	default:
		return "unknown"
	}
}

// Reason explains a denial.
type Reason string

const (
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonForbidden       Reason = "forbidden"
)

// Decision is the result of evaluating one snapshot against one route.
type Decision struct {
	Outcome      Outcome
	Reason       Reason
	RequiredRole identity.Role
}

// Decide evaluates snap against required. An empty required role admits any
// authenticated user.
func Decide(snap session.Snapshot, required identity.Role) Decision {
	decision := Decision{RequiredRole: required}
	switch {
	case snap.Loading():
		decision.Outcome = OutcomeLoading
	case !snap.Authenticated():
		decision.Outcome = OutcomeDenied
		decision.Reason = ReasonUnauthenticated
	case !snap.User.HasRole(required):
		decision.Outcome = OutcomeDenied
		decision.Reason = ReasonForbidden
	default:
		decision.Outcome = OutcomeAllow
	}
	return decision
}

// HTTPStatus returns the response status for the page rendered for d.
func (d Decision) HTTPStatus() int {
	if d.Outcome != OutcomeDenied {
		return http.StatusOK
	}
	if d.Reason == ReasonForbidden {
		return http.StatusForbidden
	}
	return http.StatusUnauthorized
}

// Source returns the session snapshot for a request.
type Source func(*http.Request) session.Snapshot

// Renderer writes the pages shown in place of protected content.
type Renderer interface {
	Loading(w http.ResponseWriter, r *http.Request)
	Denied(w http.ResponseWriter, r *http.Request, decision Decision)
}

// Require evaluates Decide on every request and only calls next on
// OutcomeAllow. The admitted snapshot is available to next through Allowed.
func Require(source Source, required identity.Role, renderer Renderer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.NotFoundHandler()
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snap := session.Snapshot{State: session.StateUnauthenticated}
			if source != nil {
				snap = source(r)
			}
			decision := Decide(snap, required)
			switch decision.Outcome {
			case OutcomeAllow:
				next.ServeHTTP(w, r.WithContext(withAllowed(r.Context(), snap)))
			case OutcomeLoading:
				if renderer == nil {
					w.WriteHeader(http.StatusAccepted)
					return
				}
				renderer.Loading(w, r)
			default:
				if renderer == nil {
					http.Error(w, http.StatusText(decision.HTTPStatus()), decision.HTTPStatus())
					return
				}
				renderer.Denied(w, r, decision)
			}
		})
	}
}

type allowedKey struct{}

func withAllowed(ctx context.Context, snap session.Snapshot) context.Context {
	return context.WithValue(ctx, allowedKey{}, snap)
}

// Allowed returns the snapshot Require admitted for this request.
func Allowed(ctx context.Context) (session.Snapshot, bool) {
	if ctx == nil {
		return session.Snapshot{}, false
	}
	snap, ok := ctx.Value(allowedKey{}).(session.Snapshot)
	return snap, ok
}
