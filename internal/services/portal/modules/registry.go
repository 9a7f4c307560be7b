package modules

import (
	module "github.com/louisbranch/smsportal/internal/services/portal/module"
	"github.com/louisbranch/smsportal/internal/services/portal/modules/dashboard"
	"github.com/louisbranch/smsportal/internal/services/portal/modules/departments"
	"github.com/louisbranch/smsportal/internal/services/portal/modules/public"
	"github.com/louisbranch/smsportal/internal/services/portal/modules/users"
)

// DefaultPublicModules returns the modules served without a guard.
func DefaultPublicModules() []Module {
	return []Module{
		public.New(),
	}
}

// DefaultProtectedModules returns the guarded modules. Each declares its
// required role in its mount.
func DefaultProtectedModules(_ module.Dependencies) []Module {
	return []Module{
		dashboard.New(),
		departments.New(),
		users.New(),
	}
}
