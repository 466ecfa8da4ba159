package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"foodinsight/pkg/session"
)

const MsgInternalError = "An internal server error occurred. Please try again later."

var flashMessages = []struct {
	err error
	msg string
}{
	{ErrMissingFields, "Please fill in all required fields."},
	{ErrInvalidCaptcha, "Invalid CAPTCHA code. Please try again."},
	{ErrReservedIdentity, "This username is reserved. Please use a different email address."},
	{ErrEmailAlreadyExists, "Email already registered."},
	{ErrInvalidOtpFormat, "Please enter a valid 6-digit OTP code."},
	{ErrInvalidOtp, "Invalid OTP code. Please try again."},
	{ErrOtpExpired, "OTP code has expired. Please request a new one."},
	{ErrRegistrationSessionExpired, "Registration session expired. Please register again."},
	{ErrNoPendingRegistration, "No pending registration found. Please register again."},
	{ErrVerificationEmailMissing, "Please register first or enter your email address."},
	{ErrAlreadyVerified, "This email is already verified. You can login."},
	{ErrAccountNotFound, "User not found."},
	{ErrInvalidCredentials, "Invalid email or password."},
	{ErrInvalidAdminPassword, "Invalid admin password."},
	{ErrAccountNotVerified, "Please verify your email before logging in. Check your inbox for the OTP or request a new one."},
	{ErrLoginRequired, "Please log in first."},
	{ErrAccessDenied, "Access denied. Admin privileges required."},
	{ErrInvalidResetToken, "Invalid or expired reset token."},
	{ErrResetTokenExpired, "Reset token has expired. Please request a new one."},
	{ErrPasswordTooShort, "Password must be at least 6 characters long."},
	{ErrPasswordMismatch, "Passwords do not match."},
	{ErrInvalidImageType, "Please upload a valid image file (png, jpg, jpeg)."},
	{ErrInvalidMetrics, "Please enter a whole number for age and numbers for height and weight."},
	{ErrProtectedAccount, "ERROR: This account is protected and cannot be deleted!"},
}

// FlashMessage maps a service error to the text shown to the user.
func FlashMessage(err error) string {
	for _, m := range flashMessages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return MsgInternalError
}

// IsUserError reports whether err is one of the sentinels a user can fix by resubmitting.
func IsUserError(err error) bool {
	if errors.Is(err, ErrDatabaseError) || errors.Is(err, ErrStorageError) {
		return false
	}
	for _, m := range flashMessages {
		if errors.Is(err, m.err) {
			return true
		}
	}
	return false
}

// HandleServiceError flashes the mapped message and redirects. Unknown errors are logged.
func HandleServiceError(c *gin.Context, logger *zap.Logger, err error, location string) {
	if !IsUserError(err) {
		logger.Error("request failed",
			zap.String("trace_id", c.GetString("trace_id")),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	session.Default(c).AddFlash(FlashMessage(err))
	Redirect(c, location)
}

// Redirect persists the session before the 302 so the next request sees its flashes.
func Redirect(c *gin.Context, location string) {
	_ = session.Default(c).Save(c.Request.Context())
	c.Redirect(http.StatusFound, location)
}

// RenderPage renders an HTML template with the flashes, login state and trace id every page
// needs, then persists the session.
func RenderPage(c *gin.Context, code int, name string, data gin.H) {
	sess := session.Default(c)
	if data == nil {
		data = gin.H{}
	}
	data["Flashes"] = sess.Flashes()
	data["LoggedIn"] = sess.LoggedIn()
	data["IsAdmin"] = sess.IsAdmin()
	data["UserName"] = sess.UserName()
	data["TraceID"] = c.GetString("trace_id")
	_ = sess.Save(c.Request.Context())
	c.HTML(code, name, data)
}
