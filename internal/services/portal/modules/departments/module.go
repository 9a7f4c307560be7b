package departments

import (
	"context"
	"net/http"

	"github.com/louisbranch/smsportal/internal/services/portal/identity"
	"github.com/louisbranch/smsportal/internal/services/portal/module"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/apiclient"
	apperrors "github.com/louisbranch/smsportal/internal/services/portal/platform/errors"
	"github.com/louisbranch/smsportal/internal/services/portal/routepath"
)

// Gateway lists departments.
type Gateway interface {
	Departments(context.Context) ([]apiclient.Department, error)
}

// Module lists departments for administrators.
type Module struct {
	gateway Gateway
}

// New returns a departments module backed by the portal API client.
func New() Module { return Module{} }

// NewWithGateway returns a departments module with an explicit gateway.
func NewWithGateway(gateway Gateway) Module { return Module{gateway: gateway} }

// ID returns a stable module identifier.
func (Module) ID() string { return "departments" }

// Mount wires the ADMIN-only department routes.
func (m Module) Mount(deps module.Dependencies) (module.Mount, error) {
	gateway := m.gateway
	if gateway == nil {
		if deps.API != nil {
			gateway = deps.API
		} else {
			gateway = unavailableGateway{}
		}
	}
	h := handlers{gateway: gateway, deps: deps}
	mux := http.NewServeMux()
	mux.HandleFunc(http.MethodGet+" "+routepath.Departments, h.handleIndex)
	mux.HandleFunc(http.MethodGet+" "+routepath.Departments+"/{rest...}", h.handleNotFound)
	return module.Mount{Prefix: routepath.Departments, RequiredRole: identity.RoleAdmin, Handler: mux}, nil
}

type unavailableGateway struct{}

func (unavailableGateway) Departments(context.Context) ([]apiclient.Department, error) {
	return nil, apperrors.EK(apperrors.KindUnavailable, "shell.error.unavailable", "departments backend is not configured")
}
