package dashboard

import (
	"net/http"

	"github.com/louisbranch/smsportal/internal/services/portal/module"
	"github.com/louisbranch/smsportal/internal/services/portal/routepath"
)

// Module provides the role-dependent dashboard.
type Module struct {
	gateway Gateway
}

// New returns a dashboard module backed by the portal API client.
func New() Module {
	return Module{}
}

// NewWithGateway returns a dashboard module with an explicit gateway.
func NewWithGateway(gateway Gateway) Module {
	return Module{gateway: gateway}
}

// ID returns a stable module identifier.
func (Module) ID() string { return "dashboard" }

// Mount wires dashboard routes. Any signed-in role may view the dashboard.
func (m Module) Mount(deps module.Dependencies) (module.Mount, error) {
	gateway := m.gateway
	if gateway == nil {
		gateway = gatewayFor(deps)
	}
	mux := http.NewServeMux()
	registerRoutes(mux, newHandlers(newService(gateway), deps))
	return module.Mount{Prefix: routepath.Dashboard, Handler: mux}, nil
}
