package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"foodinsight/internal/config"
	"foodinsight/internal/models/db_models"
	"foodinsight/internal/models/response_models"
	"foodinsight/internal/repositories"
	"foodinsight/internal/storage"
	"foodinsight/pkg/utils"
)

const pendingCodesOnDashboard = 10

type IAdminService interface {
	ListAccounts(ctx context.Context, query string) (*response_models.AccountListing, error)
	// DeleteAccount returns the removed account so the caller can name it in the flash.
	DeleteAccount(ctx context.Context, id string) (*db_models.Account, error)
}

type AdminService struct {
	accountRepo     repositories.AccountRepository
	observationRepo repositories.ObservationRepository
	codeRepo        repositories.VerificationCodeRepository
	storage         storage.Storage
	adminUsername   string
	logger          *zap.Logger
}

func NewAdminService(
	cfg *config.Config,
	accountRepo repositories.AccountRepository,
	observationRepo repositories.ObservationRepository,
	codeRepo repositories.VerificationCodeRepository,
	store storage.Storage,
	logger *zap.Logger,
) IAdminService {
	return &AdminService{
		accountRepo:     accountRepo,
		observationRepo: observationRepo,
		codeRepo:        codeRepo,
		storage:         store,
		adminUsername:   cfg.Admin.Username,
		logger:          logger,
	}
}

func (s *AdminService) ListAccounts(ctx context.Context, query string) (*response_models.AccountListing, error) {
	query = strings.TrimSpace(query)
	accounts, err := s.accountRepo.List(ctx, query)
	if err != nil {
		return nil, dbError(err)
	}
	total, verified, err := s.accountRepo.CountByVerified(ctx)
	if err != nil {
		return nil, dbError(err)
	}
	codes, err := s.codeRepo.ListUnused(ctx, pendingCodesOnDashboard)
	if err != nil {
		return nil, dbError(err)
	}
	return &response_models.AccountListing{
		Accounts:     accounts,
		Query:        query,
		Total:        total,
		Verified:     verified,
		Unverified:   total - verified,
		PendingCodes: codes,
	}, nil
}

func (s *AdminService) DeleteAccount(ctx context.Context, id string) (*db_models.Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, utils.ErrAccountNotFound
	}
	account, err := s.accountRepo.FindById(ctx, id)
	if err != nil {
		return nil, dbError(err)
	}
	if account == nil {
		return nil, utils.ErrAccountNotFound
	}
	if s.isProtected(account) {
		s.logger.Warn("attempted deletion of protected account", zap.String("email", account.Email))
		return nil, utils.ErrProtectedAccount
	}

	images, err := s.observationRepo.ImageNamesByAccount(ctx, account.ID)
	if err != nil {
		return nil, dbError(err)
	}
	if err := s.accountRepo.DeleteCascade(ctx, account); err != nil {
		return nil, dbError(err)
	}

	for _, name := range images {
		if name == "" {
			continue
		}
		if err := s.storage.Delete(ctx, name); err != nil {
			s.logger.Warn("remove upload of deleted account", zap.String("file", name), zap.Error(err))
		}
	}
	s.logger.Info("account deleted", zap.String("email", account.Email), zap.Int("images", len(images)))
	return account, nil
}

func (s *AdminService) isProtected(account *db_models.Account) bool {
	if s.adminUsername == "" {
		return false
	}
	if strings.EqualFold(account.Email, s.adminUsername) || strings.EqualFold(account.Name, s.adminUsername) {
		return true
	}
	// NOTE: any email that merely contains the privileged identifier is protected too. With the
	// default identifier this also blocks addresses like "administrator@...".
	return strings.Contains(strings.ToUpper(account.Email), strings.ToUpper(s.adminUsername))
}
