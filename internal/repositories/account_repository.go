package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"foodinsight/internal/infra"
	"foodinsight/internal/models/db_models"
)

// ErrStaleRecord means a row changed between read and conditional write, e.g. a code consumed
// by a concurrent request.
var ErrStaleRecord = errors.New("record changed concurrently")

type AccountRepository interface {
	FindById(ctx context.Context, id string) (*db_models.Account, error)
	FindByEmail(ctx context.Context, email string) (*db_models.Account, error)
	// List returns accounts newest first; query filters email or name case-insensitively.
	List(ctx context.Context, query string) ([]db_models.Account, error)
	CountByVerified(ctx context.Context) (total, verified int64, err error)
	// DeleteCascade removes the account with its observations and every code/token for its email.
	DeleteCascade(ctx context.Context, account *db_models.Account) error
}

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{
		db: db,
	}
}

func (a *accountRepository) FindByEmail(ctx context.Context, email string) (*db_models.Account, error) {
	var account db_models.Account
	err := a.db.WithContext(ctx).First(&account, "email = ?", email).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find account by email: %w", err)
	}

	return &account, nil
}

func (a *accountRepository) FindById(ctx context.Context, id string) (*db_models.Account, error) {
	var account db_models.Account
	err := a.db.WithContext(ctx).First(&account, "id = ?", id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find account by id: %w", err)
	}

	return &account, nil
}

func (a *accountRepository) List(ctx context.Context, query string) ([]db_models.Account, error) {
	var accounts []db_models.Account
	q := a.db.WithContext(ctx).Order("created_at DESC")
	if query = strings.TrimSpace(query); query != "" {
		like := "%" + escapeLike(query) + "%"
		q = q.Where("email ILIKE ? OR name ILIKE ?", like, like)
	}
	if err := q.Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

func (a *accountRepository) CountByVerified(ctx context.Context) (int64, int64, error) {
	var total, verified int64
	if err := a.db.WithContext(ctx).Model(&db_models.Account{}).Count(&total).Error; err != nil {
		return 0, 0, fmt.Errorf("count accounts: %w", err)
	}
	if err := a.db.WithContext(ctx).Model(&db_models.Account{}).Where("verified = ?", true).Count(&verified).Error; err != nil {
		return 0, 0, fmt.Errorf("count verified accounts: %w", err)
	}
	return total, verified, nil
}

func (a *accountRepository) DeleteCascade(ctx context.Context, account *db_models.Account) error {
	return infra.RunInTransaction(ctx, a.db, func(tx *gorm.DB) error {
		if err := tx.Where("account_id = ?", account.ID).Delete(&db_models.Observation{}).Error; err != nil {
			return fmt.Errorf("delete observations: %w", err)
		}
		if err := tx.Where("email = ?", account.Email).Delete(&db_models.EmailVerificationCode{}).Error; err != nil {
			return fmt.Errorf("delete verification codes: %w", err)
		}
		if err := tx.Where("email = ?", account.Email).Delete(&db_models.PasswordResetToken{}).Error; err != nil {
			return fmt.Errorf("delete reset tokens: %w", err)
		}
		if err := tx.Delete(&db_models.Account{}, "id = ?", account.ID).Error; err != nil {
			return fmt.Errorf("delete account: %w", err)
		}
		return nil
	})
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
