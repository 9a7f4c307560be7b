// Package webctx carries the requesting browser's session through a request.
package webctx

import (
	"context"
	"net/http"

	"github.com/louisbranch/smsportal/internal/services/portal/platform/apiclient"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/guard"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/session"
)

type storeKey struct{}

// WithStore returns ctx carrying store.
func WithStore(ctx context.Context, store *session.Store) context.Context {
	return context.WithValue(ctx, storeKey{}, store)
}

// Store returns the session store attached to ctx.
func Store(ctx context.Context) (*session.Store, bool) {
	if ctx == nil {
		return nil, false
	}
	store, ok := ctx.Value(storeKey{}).(*session.Store)
	return store, ok && store != nil
}

// Snapshot returns the snapshot admitted by the route guard, falling back to
// the current state of the request's store.
func Snapshot(r *http.Request) session.Snapshot {
	if r == nil {
		return session.Snapshot{}
	}
	if snap, ok := guard.Allowed(r.Context()); ok {
		return snap
	}
	if store, ok := Store(r.Context()); ok {
		return store.Snapshot()
	}
	return session.Snapshot{}
}

// BackendContext returns r's context carrying the session token for backend
// calls.
func BackendContext(r *http.Request) context.Context {
	if r == nil {
		return context.Background()
	}
	snap := Snapshot(r)
	if snap.Token == "" {
		return r.Context()
	}
	return apiclient.WithToken(r.Context(), snap.Token)
}
