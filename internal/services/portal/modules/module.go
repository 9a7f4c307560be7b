package modules

import module "github.com/louisbranch/smsportal/internal/services/portal/module"

// Module aliases the portal module contract for registry callers.
type Module = module.Module
