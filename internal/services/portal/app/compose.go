// Package app composes portal modules into the root HTTP handler.
package app

import (
	"fmt"
	"net/http"
	"strings"

	module "github.com/louisbranch/smsportal/internal/services/portal/module"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/guard"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/requestmeta"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/sessioncookie"
	"github.com/louisbranch/smsportal/internal/services/portal/routepath"
)

// ComposeInput carries module groups and shared composition contracts.
type ComposeInput struct {
	Dependencies     module.Dependencies
	PublicModules    []module.Module
	ProtectedModules []module.Module
	// Renderer draws guard outcomes; nil uses the shared layout pages.
	Renderer guard.Renderer
}

// Composer wires root mux mounts and route-group guard behavior.
type Composer struct{}

// Compose builds a root HTTP handler from module groups.
func (Composer) Compose(input ComposeInput) (http.Handler, error) {
	root := http.NewServeMux()
	renderer := input.Renderer
	if renderer == nil {
		renderer = guardPages{deps: input.Dependencies}
	}
	source := sessionSource(input.Dependencies)
	sameOrigin := requireCookieSessionSameOrigin(input.Dependencies.SchemePolicy)
	seen := make(map[string]string)

	for _, feature := range input.PublicModules {
		if feature == nil {
			return nil, fmt.Errorf("public module is nil")
		}
		mount, prefix, err := resolveMount(feature, input.Dependencies)
		if err != nil {
			return nil, err
		}
		if err := mountModule(root, feature, mount, prefix, seen, sameOrigin); err != nil {
			return nil, err
		}
	}

	for _, feature := range input.ProtectedModules {
		if feature == nil {
			return nil, fmt.Errorf("protected module is nil")
		}
		mount, prefix, err := resolveMount(feature, input.Dependencies)
		if err != nil {
			return nil, err
		}
		if prefix == routepath.Root {
			return nil, fmt.Errorf("module %q cannot guard the root prefix", feature.ID())
		}
		if mount.RequiredRole != "" && !mount.RequiredRole.Valid() {
			return nil, fmt.Errorf("module %q requires unknown role %q", feature.ID(), mount.RequiredRole)
		}
		guardWrap := guard.Require(source, mount.RequiredRole, renderer)
		wrap := func(next http.Handler) http.Handler {
			return sameOrigin(guardWrap(next))
		}
		if err := mountModule(root, feature, mount, prefix, seen, wrap); err != nil {
			return nil, err
		}
	}

	return root, nil
}

// mountModule registers handler for prefix exactly and for its subtree.
func mountModule(
	root *http.ServeMux,
	feature module.Module,
	mount module.Mount,
	prefix string,
	seen map[string]string,
	wrap func(http.Handler) http.Handler,
) error {
	if previous, ok := seen[prefix]; ok {
		return fmt.Errorf("module %q duplicates prefix %q owned by module %q", feature.ID(), prefix, previous)
	}
	seen[prefix] = feature.ID()

	handler := mount.Handler
	if wrap != nil {
		handler = wrap(handler)
	}
	root.Handle(prefix, handler)
	if prefix != routepath.Root {
		root.Handle(prefix+"/", handler)
	}
	return nil
}

func resolveMount(feature module.Module, deps module.Dependencies) (module.Mount, string, error) {
	mount, err := feature.Mount(deps)
	if err != nil {
		return module.Mount{}, "", fmt.Errorf("mount module %q: %w", feature.ID(), err)
	}
	prefix := normalizePrefix(mount.Prefix)
	if prefix == "" {
		return module.Mount{}, "", fmt.Errorf("mount module %q: prefix is required", feature.ID())
	}
	if mount.Handler == nil {
		return module.Mount{}, "", fmt.Errorf("mount module %q: handler is required", feature.ID())
	}
	return mount, prefix, nil
}

// normalizePrefix returns prefix with a leading slash and no trailing slash,
// except for the root itself.
func normalizePrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return ""
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	if trimmed := strings.TrimRight(prefix, "/"); trimmed != "" {
		return trimmed
	}
	return routepath.Root
}

func requireCookieSessionSameOrigin(policy requestmeta.SchemePolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.NotFoundHandler()
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isMutationMethod(r) || !hasSessionCookie(r) {
				next.ServeHTTP(w, r)
				return
			}
			if !policy.SameOrigin(r) {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isMutationMethod(r *http.Request) bool {
	if r == nil {
		return false
	}
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

func hasSessionCookie(r *http.Request) bool {
	_, ok := sessioncookie.Read(r)
	return ok
}
