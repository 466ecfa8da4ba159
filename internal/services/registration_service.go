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
	"foodinsight/pkg/metrics"
	"foodinsight/pkg/utils"
)

const (
	OtpLength   = 6
	OtpLifetime = 10 * time.Minute
)

// IRegistrationService drives the OTP sign-up state machine. Each method checks its
// precondition and performs one side effect; the pending profile lives in the caller's session.
type IRegistrationService interface {
	State(ctx context.Context, email string) (response_models.RegistrationState, error)
	Register(ctx context.Context, request request_models.SignUpRequest) (*response_models.RegistrationOutcome, error)
	VerifyOtp(ctx context.Context, request request_models.VerifyOtpRequest, pending *request_models.PendingRegistration) (*db_models.Account, error)
	ResendOtp(ctx context.Context, email string, pending *request_models.PendingRegistration) (response_models.DeliveryResult, error)
}

type RegistrationService struct {
	accountRepo   repositories.AccountRepository
	codeRepo      repositories.VerificationCodeRepository
	mail          IMailService
	metrics       *metrics.Metrics
	logger        *zap.Logger
	adminUsername string
	now           func() time.Time
}

func NewRegistrationService(
	cfg *config.Config,
	accountRepo repositories.AccountRepository,
	codeRepo repositories.VerificationCodeRepository,
	mail IMailService,
	m *metrics.Metrics,
	logger *zap.Logger,
) IRegistrationService {
	return &RegistrationService{
		accountRepo:   accountRepo,
		codeRepo:      codeRepo,
		mail:          mail,
		metrics:       m,
		logger:        logger,
		adminUsername: cfg.Admin.Username,
		now:           time.Now,
	}
}

func dbError(err error) error {
	return fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
}

func (s *RegistrationService) State(ctx context.Context, email string) (response_models.RegistrationState, error) {
	account, err := s.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		return response_models.RegistrationPending, dbError(err)
	}
	if account != nil && account.Verified {
		return response_models.RegistrationVerified, nil
	}
	code, err := s.codeRepo.FindLatestUnused(ctx, email)
	if err != nil {
		return response_models.RegistrationPending, dbError(err)
	}
	if code != nil && !code.IsExpired(s.now()) {
		return response_models.RegistrationAwaitingOtp, nil
	}
	return response_models.RegistrationPending, nil
}

func (s *RegistrationService) Register(ctx context.Context, request request_models.SignUpRequest) (*response_models.RegistrationOutcome, error) {
	request.Normalize()
	if !request.Complete() {
		return nil, utils.ErrMissingFields
	}
	if strings.EqualFold(request.Email, s.adminUsername) {
		return nil, utils.ErrReservedIdentity
	}

	existing, err := s.accountRepo.FindByEmail(ctx, request.Email)
	if err != nil {
		return nil, dbError(err)
	}
	if existing != nil {
		return nil, utils.ErrEmailAlreadyExists
	}

	outstanding, err := s.codeRepo.FindLatestUnused(ctx, request.Email)
	if err != nil {
		return nil, dbError(err)
	}
	if outstanding != nil {
		if !outstanding.IsExpired(s.now()) {
			return &response_models.RegistrationOutcome{AlreadyIssued: true}, nil
		}
		if err := s.codeRepo.Delete(ctx, outstanding.ID); err != nil {
			return nil, dbError(err)
		}
	}

	hash, err := utils.HashPassword(request.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	pending := &request_models.PendingRegistration{
		Email:        request.Email,
		Number:       request.Number,
		Name:         request.Name,
		Gender:       request.Gender,
		PasswordHash: hash,
	}

	delivery, err := s.issueCode(ctx, request.Email)
	if err != nil {
		return nil, err
	}
	return &response_models.RegistrationOutcome{Pending: pending, Delivery: delivery}, nil
}

func (s *RegistrationService) VerifyOtp(ctx context.Context, request request_models.VerifyOtpRequest, pending *request_models.PendingRegistration) (*db_models.Account, error) {
	email := strings.TrimSpace(request.Email)
	otp := strings.TrimSpace(request.Otp)
	if email == "" {
		return nil, utils.ErrVerificationEmailMissing
	}
	if len(otp) != OtpLength {
		return nil, utils.ErrInvalidOtpFormat
	}

	code, err := s.codeRepo.FindUnusedByEmailAndCode(ctx, email, otp)
	if err != nil {
		return nil, dbError(err)
	}
	if code == nil {
		return nil, utils.ErrInvalidOtp
	}
	if code.IsExpired(s.now()) {
		if err := s.codeRepo.Delete(ctx, code.ID); err != nil {
			return nil, dbError(err)
		}
		return nil, utils.ErrOtpExpired
	}

	existing, err := s.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, dbError(err)
	}
	if existing != nil {
		if existing.Verified {
			return nil, utils.ErrAlreadyVerified
		}
		// accounts created before verification existed are confirmed in place
		if err := s.codeRepo.ConsumeAndVerifyAccount(ctx, code.ID, existing.ID); err != nil {
			return nil, s.consumeError(err)
		}
		existing.Verified = true
		return existing, nil
	}

	if pending == nil || !strings.EqualFold(pending.Email, email) {
		return nil, utils.ErrRegistrationSessionExpired
	}

	account := &db_models.Account{
		Email:        pending.Email,
		Number:       pending.Number,
		Name:         pending.Name,
		Gender:       pending.Gender,
		PasswordHash: pending.PasswordHash,
		Verified:     true,
	}
	if err := s.codeRepo.ConsumeAndCreateAccount(ctx, code.ID, account); err != nil {
		return nil, s.consumeError(err)
	}
	s.logger.Info("account created", zap.String("email", account.Email), zap.String("account_id", account.ID.String()))
	return account, nil
}

func (s *RegistrationService) ResendOtp(ctx context.Context, email string, pending *request_models.PendingRegistration) (response_models.DeliveryResult, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return response_models.DeliveryResult{}, utils.ErrVerificationEmailMissing
	}

	account, err := s.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		return response_models.DeliveryResult{}, dbError(err)
	}
	if account != nil && account.Verified {
		return response_models.DeliveryResult{}, utils.ErrAlreadyVerified
	}

	if account == nil && (pending == nil || !strings.EqualFold(pending.Email, email)) {
		outstanding, err := s.codeRepo.FindLatestUnused(ctx, email)
		if err != nil {
			return response_models.DeliveryResult{}, dbError(err)
		}
		if outstanding == nil || outstanding.IsExpired(s.now()) {
			return response_models.DeliveryResult{}, utils.ErrNoPendingRegistration
		}
	}

	return s.issueCode(ctx, email)
}

// issueCode replaces every code for email with a fresh one and mails it. A failed delivery is
// not an error: the code is logged by the mail service instead.
func (s *RegistrationService) issueCode(ctx context.Context, email string) (response_models.DeliveryResult, error) {
	otp, err := utils.GenerateOtpCode(OtpLength)
	if err != nil {
		return response_models.DeliveryResult{}, fmt.Errorf("generate otp: %w", err)
	}
	code := &db_models.EmailVerificationCode{
		Email:     email,
		Code:      otp,
		ExpiresAt: utils.ExpiresAt(s.now(), OtpLifetime),
	}
	if err := s.codeRepo.ReplaceForEmail(ctx, code); err != nil {
		return response_models.DeliveryResult{}, dbError(err)
	}
	s.metrics.CodeIssued()

	return s.mail.SendVerificationCode(ctx, email, otp), nil
}

func (s *RegistrationService) consumeError(err error) error {
	if errors.Is(err, repositories.ErrStaleRecord) {
		return utils.ErrInvalidOtp
	}
	return dbError(err)
}
