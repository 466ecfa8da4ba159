package db_models

import "time"

// EmailVerificationCode is the one-time code proving control of an email before the account exists.
type EmailVerificationCode struct {
	BaseModel
	Email     string `gorm:"size:150;index;not null"`
	Code      string `gorm:"size:6;not null"`
	ExpiresAt int64  `gorm:"not null"`
	Used      bool   `gorm:"not null;default:false"`
}

func (v *EmailVerificationCode) IsExpired(now time.Time) bool {
	return now.Unix() > v.ExpiresAt
}

// PasswordResetToken authorizes a single password change for Email.
type PasswordResetToken struct {
	BaseModel
	Email     string `gorm:"size:150;index;not null"`
	Token     string `gorm:"size:100;uniqueIndex;not null"`
	ExpiresAt int64  `gorm:"not null"`
	Used      bool   `gorm:"not null;default:false"`
}

func (p *PasswordResetToken) IsExpired(now time.Time) bool {
	return now.Unix() > p.ExpiresAt
}
