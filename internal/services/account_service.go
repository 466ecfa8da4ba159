package services

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"go.uber.org/zap"

	"foodinsight/internal/config"
	"foodinsight/internal/models/db_models"
	"foodinsight/internal/models/request_models"
	"foodinsight/internal/models/response_models"
	"foodinsight/internal/repositories"
	"foodinsight/pkg/utils"
)

type AccountServiceInterface interface {
	Login(request request_models.LoginRequest, ctx context.Context) (*response_models.LoginOutcome, error)
	FindById(ctx context.Context, id string) (*db_models.Account, error)
}

type AccountService struct {
	accountRepo repositories.AccountRepository
	admin       config.AdminConfig
	logger      *zap.Logger
}

func NewAccountService(cfg *config.Config, accountRepo repositories.AccountRepository, logger *zap.Logger) AccountServiceInterface {
	return &AccountService{
		accountRepo: accountRepo,
		admin:       cfg.Admin,
		logger:      logger,
	}
}

// Login authenticates either the privileged identity or a stored account. The privileged
// identity is matched case-insensitively and never reaches the account table.
func (a *AccountService) Login(request request_models.LoginRequest, ctx context.Context) (*response_models.LoginOutcome, error) {
	email := strings.TrimSpace(request.Email)
	password := strings.TrimSpace(request.Password)

	if strings.EqualFold(email, a.admin.Username) {
		if a.admin.Password == "" ||
			subtle.ConstantTimeCompare([]byte(password), []byte(a.admin.Password)) != 1 {
			a.logger.Warn("privileged login rejected")
			return nil, utils.ErrInvalidAdminPassword
		}
		return &response_models.LoginOutcome{Admin: true, AdminUsername: a.admin.Username}, nil
	}

	startTime := time.Now()

	account, err := a.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, dbError(err)
	}
	if account == nil {
		return nil, utils.ErrInvalidCredentials
	}

	if err := utils.ComparePasswords(account.PasswordHash, password); err != nil {
		return nil, utils.ErrInvalidCredentials
	}
	a.logger.Debug("password verified", zap.Duration("took", time.Since(startTime)))

	if !account.Verified {
		return nil, utils.ErrAccountNotVerified
	}
	return &response_models.LoginOutcome{Account: account}, nil
}

func (a *AccountService) FindById(ctx context.Context, id string) (*db_models.Account, error) {
	account, err := a.accountRepo.FindById(ctx, id)
	if err != nil {
		return nil, dbError(err)
	}
	if account == nil {
		return nil, utils.ErrAccountNotFound
	}
	return account, nil
}
