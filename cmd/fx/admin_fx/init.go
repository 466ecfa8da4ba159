package admin_fx

import (
	"go.uber.org/fx"

	"foodinsight/internal/services"
)

var Module = fx.Provide(services.NewAdminService)
