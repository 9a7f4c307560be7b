package dashboard

import (
	"context"

	"github.com/louisbranch/smsportal/internal/services/portal/module"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/apiclient"
	apperrors "github.com/louisbranch/smsportal/internal/services/portal/platform/errors"
)

// Gateway loads dashboard data from the SMS backend.
type Gateway interface {
	Departments(context.Context) ([]apiclient.Department, error)
	Users(context.Context) ([]apiclient.User, error)
}

func gatewayFor(deps module.Dependencies) Gateway {
	if deps.API == nil {
		return unavailableGateway{}
	}
	return deps.API
}

type unavailableGateway struct{}

func (unavailableGateway) Departments(context.Context) ([]apiclient.Department, error) {
	return nil, apperrors.EK(apperrors.KindUnavailable, "shell.error.unavailable", "dashboard backend is not configured")
}

func (unavailableGateway) Users(context.Context) ([]apiclient.User, error) {
	return nil, apperrors.EK(apperrors.KindUnavailable, "shell.error.unavailable", "dashboard backend is not configured")
}
