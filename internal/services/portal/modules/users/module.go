package users

import (
	"net/http"

	"github.com/louisbranch/smsportal/internal/services/portal/identity"
	"github.com/louisbranch/smsportal/internal/services/portal/module"
	"github.com/louisbranch/smsportal/internal/services/portal/routepath"
)

// Module lists users and activates pending accounts for administrators.
type Module struct {
	gateway Gateway
}

// New returns a users module backed by the portal API client.
func New() Module { return Module{} }

// NewWithGateway returns a users module with an explicit gateway.
func NewWithGateway(gateway Gateway) Module { return Module{gateway: gateway} }

// ID returns a stable module identifier.
func (Module) ID() string { return "users" }

// Mount wires the ADMIN-only user routes.
func (m Module) Mount(deps module.Dependencies) (module.Mount, error) {
	gateway := m.gateway
	if gateway == nil {
		gateway = gatewayFor(deps)
	}
	mux := http.NewServeMux()
	registerRoutes(mux, handlers{service: service{gateway: gateway}, deps: deps})
	return module.Mount{Prefix: routepath.Users, RequiredRole: identity.RoleAdmin, Handler: mux}, nil
}
