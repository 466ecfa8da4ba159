package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"foodinsight/internal/infra"
	"foodinsight/internal/models/db_models"
)

type VerificationCodeRepository interface {
	// FindLatestUnused returns the newest unused code for email, expired or not.
	FindLatestUnused(ctx context.Context, email string) (*db_models.EmailVerificationCode, error)
	FindUnusedByEmailAndCode(ctx context.Context, email, code string) (*db_models.EmailVerificationCode, error)
	// ReplaceForEmail deletes every code for the email and inserts code, in one transaction.
	ReplaceForEmail(ctx context.Context, code *db_models.EmailVerificationCode) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByEmail(ctx context.Context, email string) error
	// ConsumeAndCreateAccount marks the code used and inserts account atomically.
	ConsumeAndCreateAccount(ctx context.Context, codeID uuid.UUID, account *db_models.Account) error
	// ConsumeAndVerifyAccount marks the code used and flips the account's verified flag atomically.
	ConsumeAndVerifyAccount(ctx context.Context, codeID uuid.UUID, accountID uuid.UUID) error
	ListUnused(ctx context.Context, limit int) ([]db_models.EmailVerificationCode, error)
}

type verificationCodeRepository struct {
	db *gorm.DB
}

func NewVerificationCodeRepository(db *gorm.DB) VerificationCodeRepository {
	return &verificationCodeRepository{db: db}
}

func (r *verificationCodeRepository) FindLatestUnused(ctx context.Context, email string) (*db_models.EmailVerificationCode, error) {
	var code db_models.EmailVerificationCode
	err := r.db.WithContext(ctx).
		Where("email = ? AND used = ?", email, false).
		Order("created_at DESC").
		First(&code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find verification code: %w", err)
	}
	return &code, nil
}

func (r *verificationCodeRepository) FindUnusedByEmailAndCode(ctx context.Context, email, code string) (*db_models.EmailVerificationCode, error) {
	var row db_models.EmailVerificationCode
	err := r.db.WithContext(ctx).
		Where("email = ? AND code = ? AND used = ?", email, code, false).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find verification code: %w", err)
	}
	return &row, nil
}

func (r *verificationCodeRepository) ReplaceForEmail(ctx context.Context, code *db_models.EmailVerificationCode) error {
	return infra.RunInTransaction(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", code.Email).Delete(&db_models.EmailVerificationCode{}).Error; err != nil {
			return fmt.Errorf("delete previous codes: %w", err)
		}
		if err := tx.Create(code).Error; err != nil {
			return fmt.Errorf("insert verification code: %w", err)
		}
		return nil
	})
}

func (r *verificationCodeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&db_models.EmailVerificationCode{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("delete verification code: %w", err)
	}
	return nil
}

func (r *verificationCodeRepository) DeleteByEmail(ctx context.Context, email string) error {
	if err := r.db.WithContext(ctx).Where("email = ?", email).Delete(&db_models.EmailVerificationCode{}).Error; err != nil {
		return fmt.Errorf("delete verification codes: %w", err)
	}
	return nil
}

func (r *verificationCodeRepository) ConsumeAndCreateAccount(ctx context.Context, codeID uuid.UUID, account *db_models.Account) error {
	return infra.RunInTransaction(ctx, r.db, func(tx *gorm.DB) error {
		if err := markCodeUsed(tx, codeID); err != nil {
			return err
		}
		if err := tx.Create(account).Error; err != nil {
			return fmt.Errorf("create account: %w", err)
		}
		return nil
	})
}

func (r *verificationCodeRepository) ConsumeAndVerifyAccount(ctx context.Context, codeID uuid.UUID, accountID uuid.UUID) error {
	return infra.RunInTransaction(ctx, r.db, func(tx *gorm.DB) error {
		if err := markCodeUsed(tx, codeID); err != nil {
			return err
		}
		res := tx.Model(&db_models.Account{}).Where("id = ?", accountID).Update("verified", true)
		if res.Error != nil {
			return fmt.Errorf("verify account: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrStaleRecord
		}
		return nil
	})
}

func (r *verificationCodeRepository) ListUnused(ctx context.Context, limit int) ([]db_models.EmailVerificationCode, error) {
	var codes []db_models.EmailVerificationCode
	err := r.db.WithContext(ctx).
		Where("used = ?", false).
		Order("created_at DESC").
		Limit(limit).
		Find(&codes).Error
	if err != nil {
		return nil, fmt.Errorf("list verification codes: %w", err)
	}
	return codes, nil
}

// markCodeUsed only flips an unused code, so two concurrent confirmations cannot both succeed.
func markCodeUsed(tx *gorm.DB, codeID uuid.UUID) error {
	res := tx.Model(&db_models.EmailVerificationCode{}).
		Where("id = ? AND used = ?", codeID, false).
		Update("used", true)
	if res.Error != nil {
		return fmt.Errorf("mark code used: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStaleRecord
	}
	return nil
}
