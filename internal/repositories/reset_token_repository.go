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

type ResetTokenRepository interface {
	FindByToken(ctx context.Context, token string) (*db_models.PasswordResetToken, error)
	ReplaceForEmail(ctx context.Context, token *db_models.PasswordResetToken) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ConsumeAndUpdatePassword marks the token used and stores the new hash atomically.
	ConsumeAndUpdatePassword(ctx context.Context, tokenID uuid.UUID, email, passwordHash string) error
}

type resetTokenRepository struct {
	db *gorm.DB
}

func NewResetTokenRepository(db *gorm.DB) ResetTokenRepository {
	return &resetTokenRepository{db: db}
}

func (r *resetTokenRepository) FindByToken(ctx context.Context, token string) (*db_models.PasswordResetToken, error) {
	var row db_models.PasswordResetToken
	err := r.db.WithContext(ctx).First(&row, "token = ?", token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find reset token: %w", err)
	}
	return &row, nil
}

func (r *resetTokenRepository) ReplaceForEmail(ctx context.Context, token *db_models.PasswordResetToken) error {
	return infra.RunInTransaction(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", token.Email).Delete(&db_models.PasswordResetToken{}).Error; err != nil {
			return fmt.Errorf("delete previous tokens: %w", err)
		}
		if err := tx.Create(token).Error; err != nil {
			return fmt.Errorf("insert reset token: %w", err)
		}
		return nil
	})
}

func (r *resetTokenRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&db_models.PasswordResetToken{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("delete reset token: %w", err)
	}
	return nil
}

func (r *resetTokenRepository) ConsumeAndUpdatePassword(ctx context.Context, tokenID uuid.UUID, email, passwordHash string) error {
	return infra.RunInTransaction(ctx, r.db, func(tx *gorm.DB) error {
		res := tx.Model(&db_models.PasswordResetToken{}).
			Where("id = ? AND used = ?", tokenID, false).
			Update("used", true)
		if res.Error != nil {
			return fmt.Errorf("mark token used: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrStaleRecord
		}

		res = tx.Model(&db_models.Account{}).Where("email = ?", email).Update("password_hash", passwordHash)
		if res.Error != nil {
			return fmt.Errorf("update password: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrAccountMissing
		}
		return nil
	})
}

// ErrAccountMissing is returned when a token outlives the account it was issued for.
var ErrAccountMissing = errors.New("account missing")
