package services

import (
	"context"
	"errors"
	"fmt"
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

const (
	ResetTokenLength   = 32
	ResetTokenLifetime = time.Hour
	MinPasswordLength  = 6
)

type IPasswordResetService interface {
	// RequestReset issues a token only when an account exists; callers show the same message
	// either way.
	RequestReset(ctx context.Context, email string) (*response_models.ResetRequestOutcome, error)
	ValidateToken(ctx context.Context, token string) (*db_models.PasswordResetToken, error)
	ResetPassword(ctx context.Context, token string, request request_models.ResetPasswordRequest) error
}

type PasswordResetService struct {
	accountRepo repositories.AccountRepository
	tokenRepo   repositories.ResetTokenRepository
	mail        IMailService
	cfg         *config.Config
	logger      *zap.Logger
	now         func() time.Time
}

func NewPasswordResetService(
	cfg *config.Config,
	accountRepo repositories.AccountRepository,
	tokenRepo repositories.ResetTokenRepository,
	mail IMailService,
	logger *zap.Logger,
) IPasswordResetService {
	return &PasswordResetService{
		accountRepo: accountRepo,
		tokenRepo:   tokenRepo,
		mail:        mail,
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *PasswordResetService) RequestReset(ctx context.Context, email string) (*response_models.ResetRequestOutcome, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, utils.ErrMissingFields
	}

	account, err := s.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, dbError(err)
	}
	if account == nil {
		s.logger.Info("password reset requested for unknown email")
		return &response_models.ResetRequestOutcome{}, nil
	}

	token, err := utils.GenerateSecureToken(ResetTokenLength)
	if err != nil {
		return nil, fmt.Errorf("generate reset token: %w", err)
	}
	row := &db_models.PasswordResetToken{
		Email:     account.Email,
		Token:     token,
		ExpiresAt: utils.ExpiresAt(s.now(), ResetTokenLifetime),
	}
	if err := s.tokenRepo.ReplaceForEmail(ctx, row); err != nil {
		return nil, dbError(err)
	}

	link := s.cfg.ResetLink(token)
	return &response_models.ResetRequestOutcome{
		Link:     link,
		Delivery: s.mail.SendPasswordReset(ctx, account.Email, link),
	}, nil
}

func (s *PasswordResetService) ValidateToken(ctx context.Context, token string) (*db_models.PasswordResetToken, error) {
	row, err := s.tokenRepo.FindByToken(ctx, token)
	if err != nil {
		return nil, dbError(err)
	}
	if row == nil || row.Used {
		return nil, utils.ErrInvalidResetToken
	}
	if row.IsExpired(s.now()) {
		if err := s.tokenRepo.Delete(ctx, row.ID); err != nil {
			return nil, dbError(err)
		}
		return nil, utils.ErrResetTokenExpired
	}
	return row, nil
}

func (s *PasswordResetService) ResetPassword(ctx context.Context, token string, request request_models.ResetPasswordRequest) error {
	row, err := s.ValidateToken(ctx, token)
	if err != nil {
		return err
	}

	password := strings.TrimSpace(request.Password)
	if len(password) < MinPasswordLength {
		return utils.ErrPasswordTooShort
	}
	if password != strings.TrimSpace(request.ConfirmPassword) {
		return utils.ErrPasswordMismatch
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	err = s.tokenRepo.ConsumeAndUpdatePassword(ctx, row.ID, row.Email, hash)
	switch {
	case errors.Is(err, repositories.ErrStaleRecord):
		return utils.ErrInvalidResetToken
	case errors.Is(err, repositories.ErrAccountMissing):
		return utils.ErrAccountNotFound
	case err != nil:
		return dbError(err)
	}
	s.logger.Info("password reset", zap.String("email", row.Email))
	return nil
}
