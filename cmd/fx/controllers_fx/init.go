package controllers_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"foodinsight/internal/api/controllers"
	"foodinsight/internal/config"
	"foodinsight/pkg/metrics"
	"foodinsight/pkg/middleware"
)

var Module = fx.Options(
	fx.Provide(controllers.NewAccountController),
	fx.Provide(controllers.NewCaptchaController),
	fx.Provide(controllers.NewDashboardController),
	fx.Provide(controllers.NewAdminController),
	fx.Provide(controllers.NewHealthController),
	fx.Provide(provideRateLimiter))

func provideRateLimiter(cfg *config.Config, m *metrics.Metrics, logger *zap.Logger) *middleware.RateLimiter {
	return middleware.NewRateLimiter(cfg.Limits.RequestsPerSecond, cfg.Limits.Burst, m, logger)
}
