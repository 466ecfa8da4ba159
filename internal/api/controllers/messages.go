package controllers

// Flash texts for successful steps; error texts live with the sentinels in pkg/utils.
const (
	msgOtpAlreadySent      = "An OTP has already been sent to this email. Please check your email or wait for it to expire."
	msgOtpSent             = "Please check your email for the OTP code to complete registration. If you don't see it, check your spam folder."
	msgOtpSendFailed       = "OTP code sent! However, email sending failed. Please check your email configuration or contact support."
	msgOtpResent           = "Verification OTP sent! Please check your email. If you don't see it, check your spam folder."
	msgOtpResendFailed     = "OTP sending failed. Please check your email configuration or contact support."
	msgEmailVerified       = "Email verified successfully! Your account has been created. You can now login."
	msgAdminLoggedIn       = "Admin login successful!"
	msgLoggedOut           = "Logged out successfully."
	msgAdminLoggedOut      = "Admin logged out successfully."
	msgResetLinkSent       = "If an account with that email exists, a password reset link has been sent."
	msgResetLinkInline     = "Password reset link has been generated. Please use this link to reset your password: "
	msgPasswordReset       = "Password reset successful! You can now login with your new password."
	msgAccountDeleted      = "User %s has been deleted successfully."
	msgAccountDeleteFailed = "Error deleting user. Please try again."
)
