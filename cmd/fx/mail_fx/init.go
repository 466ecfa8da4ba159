package mail_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"foodinsight/internal/config"
	"foodinsight/internal/services"
	"foodinsight/pkg/metrics"
)

var Module = fx.Provide(provideMailService)

func provideMailService(cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) services.IMailService {
	mailService := services.NewMailService(cfg, logger, m)
	logger.Info("mail delivery configured", zap.String("provider", mailService.Provider()))
	return mailService
}
