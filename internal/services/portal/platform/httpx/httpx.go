// Package httpx provides the portal's HTTP middleware and response helpers.
package httpx

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/a-h/templ"
	"github.com/google/uuid"
)

// RequestIDHeader carries the correlation id.
const RequestIDHeader = "X-Request-ID"

// Middleware wraps an HTTP handler.
type Middleware func(http.Handler) http.Handler

// Chain applies middleware in declaration order; the first one runs outermost.
func Chain(handler http.Handler, middleware ...Middleware) http.Handler {
	if handler == nil {
		handler = http.NotFoundHandler()
	}
	for i := len(middleware) - 1; i >= 0; i-- {
		if middleware[i] != nil {
			handler = middleware[i](handler)
		}
	}
	return handler
}

// RequestID reuses an incoming X-Request-ID or assigns one, and echoes it.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
			if id == "" {
				id = "portal-" + uuid.NewString()
				r.Header.Set(RequestIDHeader, id)
			}
			w.Header().Set(RequestIDHeader, id)
			next.ServeHTTP(w, r)
		})
	}
}

// RecoverPanic turns a handler panic into a 500 and logs it with its stack.
func RecoverPanic(logger *log.Logger) Middleware {
	if logger == nil {
		logger = log.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				recovered := recover()
				if recovered == nil {
					return
				}
				if recovered == http.ErrAbortHandler {
					panic(recovered)
				}
				logger.Printf("panic recovered method=%s path=%s request_id=%s panic=%v stack=%s",
					r.Method, r.URL.Path, requestID(r), recovered, strings.TrimSpace(string(debug.Stack())))
				w.WriteHeader(http.StatusInternalServerError)
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RequestIDFrom returns the correlation id of r, or "-".
func RequestIDFrom(r *http.Request) string {
	return requestID(r)
}

func requestID(r *http.Request) string {
	if r == nil {
		return "-"
	}
	if id := strings.TrimSpace(r.Header.Get(RequestIDHeader)); id != "" {
		return id
	}
	return "-"
}

// MethodNotAllowed writes a 405 with an Allow header.
func MethodNotAllowed(allow ...string) http.HandlerFunc {
	header := strings.Join(allow, ", ")
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Allow", header)
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// WriteComponent renders component fully before writing status and body, so
// a render failure can still become a clean error response.
func WriteComponent(ctx context.Context, w http.ResponseWriter, status int, component templ.Component) error {
	if w == nil {
		return fmt.Errorf("response writer is required")
	}
	if component == nil {
		return fmt.Errorf("component is required")
	}
	var body bytes.Buffer
	if ctx == nil {
		ctx = context.Background()
	}
	if err := component.Render(ctx, &body); err != nil {
		return fmt.Errorf("render component: %w", err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, err := body.WriteTo(w)
	return err
}

// WriteRedirect sends the browser to location. Form posts use 303 so the
// follow-up request is a GET.
func WriteRedirect(w http.ResponseWriter, r *http.Request, location string) {
	if w == nil {
		return
	}
	status := http.StatusFound
	if r != nil && r.Method != http.MethodGet && r.Method != http.MethodHead {
		status = http.StatusSeeOther
	}
	w.Header().Set("Location", location)
	w.WriteHeader(status)
}

// RequestContext returns r's context, or Background for a nil request.
func RequestContext(r *http.Request) context.Context {
	if r == nil {
		return context.Background()
	}
	return r.Context()
}
