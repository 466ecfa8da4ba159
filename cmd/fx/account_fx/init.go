package account_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"foodinsight/internal/config"
	"foodinsight/internal/repositories"
	"foodinsight/internal/services"
	"foodinsight/pkg/metrics"
)

var Module = fx.Provide(
	provideAccountRepo,
	provideVerificationCodeRepo,
	provideResetTokenRepo,
	provideAccountService,
	provideRegistrationService,
	providePasswordResetService)

func provideAccountRepo(db *gorm.DB) repositories.AccountRepository {
	return repositories.NewAccountRepository(db)
}

func provideVerificationCodeRepo(db *gorm.DB) repositories.VerificationCodeRepository {
	return repositories.NewVerificationCodeRepository(db)
}

func provideResetTokenRepo(db *gorm.DB) repositories.ResetTokenRepository {
	return repositories.NewResetTokenRepository(db)
}

func provideAccountService(cfg *config.Config, accountRepo repositories.AccountRepository, logger *zap.Logger) services.AccountServiceInterface {
	return services.NewAccountService(cfg, accountRepo, logger)
}

func provideRegistrationService(
	cfg *config.Config,
	accountRepo repositories.AccountRepository,
	codeRepo repositories.VerificationCodeRepository,
	mailService services.IMailService,
	m *metrics.Metrics,
	logger *zap.Logger,
) services.IRegistrationService {
	return services.NewRegistrationService(cfg, accountRepo, codeRepo, mailService, m, logger)
}

func providePasswordResetService(
	cfg *config.Config,
	accountRepo repositories.AccountRepository,
	tokenRepo repositories.ResetTokenRepository,
	mailService services.IMailService,
	logger *zap.Logger,
) services.IPasswordResetService {
	return services.NewPasswordResetService(cfg, accountRepo, tokenRepo, mailService, logger)
}
