package utils

import "errors"

var (
	ErrDatabaseError = errors.New("database error")
	ErrStorageError  = errors.New("storage error")

	ErrMissingFields    = errors.New("missing required fields")
	ErrInvalidCaptcha   = errors.New("invalid captcha")
	ErrReservedIdentity = errors.New("reserved identity")

	ErrEmailAlreadyExists         = errors.New("email already registered")
	ErrInvalidOtpFormat           = errors.New("otp must be 6 characters")
	ErrInvalidOtp                 = errors.New("invalid otp")
	ErrOtpExpired                 = errors.New("otp expired")
	ErrRegistrationSessionExpired = errors.New("registration session expired")
	ErrNoPendingRegistration      = errors.New("no pending registration")
	ErrVerificationEmailMissing   = errors.New("no email to verify")
	ErrAlreadyVerified            = errors.New("email already verified")

	ErrAccountNotFound      = errors.New("account not found")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrInvalidAdminPassword = errors.New("invalid admin password")
	ErrAccountNotVerified   = errors.New("account not verified")
	ErrLoginRequired        = errors.New("login required")
	ErrAccessDenied         = errors.New("admin privileges required")

	ErrInvalidResetToken = errors.New("invalid reset token")
	ErrResetTokenExpired = errors.New("reset token expired")
	ErrPasswordTooShort  = errors.New("password too short")
	ErrPasswordMismatch  = errors.New("passwords do not match")

	ErrInvalidImageType = errors.New("invalid image type")
	ErrInvalidMetrics   = errors.New("invalid body metrics")

	ErrProtectedAccount = errors.New("account is protected")
)
