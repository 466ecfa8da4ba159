package controllers

import (
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"foodinsight/internal/config"
	"foodinsight/internal/models/request_models"
	"foodinsight/internal/models/response_models"
	"foodinsight/internal/services"
	"foodinsight/pkg/session"
	"foodinsight/pkg/utils"
)

type AccountController struct {
	registration services.IRegistrationService
	accounts     services.AccountServiceInterface
	resets       services.IPasswordResetService
	captcha      services.ICaptchaService
	inlineLink   bool
	logger       *zap.Logger
}

func NewAccountController(
	cfg *config.Config,
	registration services.IRegistrationService,
	accounts services.AccountServiceInterface,
	resets services.IPasswordResetService,
	captcha services.ICaptchaService,
	logger *zap.Logger,
) *AccountController {
	return &AccountController{
		registration: registration,
		accounts:     accounts,
		resets:       resets,
		captcha:      captcha,
		inlineLink:   cfg.ResetLinkInline,
		logger:       logger,
	}
}

// Home GET /
func (a *AccountController) Home(c *gin.Context) {
	sess := session.Default(c)
	switch {
	case sess.LoggedIn():
		utils.Redirect(c, "/dashboard")
	case sess.IsAdmin():
		utils.Redirect(c, "/admin/dashboard")
	default:
		utils.RenderPage(c, http.StatusOK, "index.html", gin.H{"Title": "Welcome"})
	}
}

// RegisterPage GET /register
func (a *AccountController) RegisterPage(c *gin.Context) {
	a.renderRegister(c, http.StatusOK, request_models.SignUpRequest{}, "")
}

// Register POST /register
func (a *AccountController) Register(c *gin.Context) {
	var req request_models.SignUpRequest
	_ = c.ShouldBind(&req)
	req.Normalize()
	sess := session.Default(c)

	ok, next, err := a.captcha.Verify(sess, services.CaptchaRegister, req.Captcha)
	if err != nil {
		a.fail(c, err, "/register")
		return
	}
	if !ok {
		sess.AddFlash(utils.FlashMessage(utils.ErrInvalidCaptcha))
		a.renderRegister(c, http.StatusOK, req, next.DataURI())
		return
	}

	outcome, err := a.registration.Register(c.Request.Context(), req)
	if err != nil {
		if !utils.IsUserError(err) {
			a.logger.Error("registration failed", zap.String("email", req.Email), zap.Error(err))
		}
		sess.AddFlash(utils.FlashMessage(err))
		a.renderRegister(c, http.StatusOK, req, next.DataURI())
		return
	}

	sess.SetVerificationEmail(req.Email)
	if outcome.AlreadyIssued {
		sess.AddFlash(msgOtpAlreadySent)
		utils.Redirect(c, "/verify_otp")
		return
	}

	sess.SetPending(outcome.Pending)
	if outcome.Delivery.Sent {
		sess.AddFlash(msgOtpSent)
	} else {
		sess.AddFlash(msgOtpSendFailed)
	}
	utils.Redirect(c, "/verify_otp")
}

func (a *AccountController) renderRegister(c *gin.Context, code int, form request_models.SignUpRequest, captchaURI string) {
	if captchaURI == "" {
		ch, err := a.captcha.Issue(session.Default(c), services.CaptchaRegister)
		if err != nil {
			a.fail(c, err, "/login")
			return
		}
		captchaURI = ch.DataURI()
	}
	form.Password = ""
	form.Captcha = ""
	utils.RenderPage(c, code, "register.html", gin.H{
		"Title":   "Register",
		"Form":    form,
		"Captcha": template.URL(captchaURI),
	})
}

// VerifyOtpPage GET /verify_otp
func (a *AccountController) VerifyOtpPage(c *gin.Context) {
	sess := session.Default(c)
	email := sess.VerificationEmail()
	if email == "" {
		utils.HandleServiceError(c, a.logger, utils.ErrVerificationEmailMissing, "/register")
		return
	}

	switch a.registrationState(c, email) {
	case response_models.RegistrationVerified:
		sess.ClearRegistration()
		utils.HandleServiceError(c, a.logger, utils.ErrAlreadyVerified, "/login")
	case response_models.RegistrationPending:
		utils.HandleServiceError(c, a.logger, utils.ErrOtpExpired, "/resend_otp")
	default:
		a.renderVerify(c, email)
	}
}

// registrationState falls back to AwaitingOtp when the lookup fails so the page still renders.
func (a *AccountController) registrationState(c *gin.Context, email string) response_models.RegistrationState {
	state, err := a.registration.State(c.Request.Context(), email)
	if err != nil {
		a.logger.Error("load registration state", zap.String("email", email), zap.Error(err))
		return response_models.RegistrationAwaitingOtp
	}
	return state
}

// VerifyOtp POST /verify_otp
func (a *AccountController) VerifyOtp(c *gin.Context) {
	var req request_models.VerifyOtpRequest
	_ = c.ShouldBind(&req)
	sess := session.Default(c)
	if strings.TrimSpace(req.Email) == "" {
		req.Email = sess.VerificationEmail()
	}

	_, err := a.registration.VerifyOtp(c.Request.Context(), req, sess.Pending())
	switch {
	case err == nil:
		sess.ClearRegistration()
		sess.AddFlash(msgEmailVerified)
		utils.Redirect(c, "/login")
	case errors.Is(err, utils.ErrVerificationEmailMissing), errors.Is(err, utils.ErrRegistrationSessionExpired):
		sess.ClearRegistration()
		utils.HandleServiceError(c, a.logger, err, "/register")
	case errors.Is(err, utils.ErrAlreadyVerified):
		sess.ClearRegistration()
		utils.HandleServiceError(c, a.logger, err, "/login")
	case errors.Is(err, utils.ErrOtpExpired):
		sess.SetPending(nil)
		sess.AddFlash(utils.FlashMessage(err))
		a.renderVerify(c, req.Email)
	case utils.IsUserError(err):
		sess.AddFlash(utils.FlashMessage(err))
		a.renderVerify(c, req.Email)
	default:
		a.fail(c, err, "/verify_otp")
	}
}

func (a *AccountController) renderVerify(c *gin.Context, email string) {
	utils.RenderPage(c, http.StatusOK, "verify_otp.html", gin.H{"Title": "Verify email", "Email": email})
}

// ResendOtpPage GET /resend_otp
func (a *AccountController) ResendOtpPage(c *gin.Context) {
	sess := session.Default(c)
	email := sess.VerificationEmail()
	if email != "" && a.registrationState(c, email) == response_models.RegistrationVerified {
		sess.ClearRegistration()
		utils.HandleServiceError(c, a.logger, utils.ErrAlreadyVerified, "/login")
		return
	}
	utils.RenderPage(c, http.StatusOK, "resend_otp.html", gin.H{
		"Title": "Resend code",
		"Email": email,
	})
}

// ResendOtp POST /resend_otp
func (a *AccountController) ResendOtp(c *gin.Context) {
	var req request_models.ResendOtpRequest
	_ = c.ShouldBind(&req)
	sess := session.Default(c)
	email := strings.TrimSpace(req.Email)
	if email == "" {
		email = sess.VerificationEmail()
	}

	delivery, err := a.registration.ResendOtp(c.Request.Context(), email, sess.Pending())
	if err != nil {
		if errors.Is(err, utils.ErrAlreadyVerified) {
			utils.HandleServiceError(c, a.logger, err, "/login")
			return
		}
		utils.HandleServiceError(c, a.logger, err, "/resend_otp")
		return
	}

	sess.SetVerificationEmail(email)
	if delivery.Sent {
		sess.AddFlash(msgOtpResent)
	} else {
		sess.AddFlash(msgOtpResendFailed)
	}
	utils.Redirect(c, "/verify_otp")
}

// LoginPage GET /login
func (a *AccountController) LoginPage(c *gin.Context) {
	utils.RenderPage(c, http.StatusOK, "login.html", gin.H{"Title": "Login"})
}

// Login POST /login
func (a *AccountController) Login(c *gin.Context) {
	var req request_models.LoginRequest
	_ = c.ShouldBind(&req)
	sess := session.Default(c)

	outcome, err := a.accounts.Login(req, c.Request.Context())
	if err != nil {
		if errors.Is(err, utils.ErrAccountNotVerified) {
			sess.SetVerificationEmail(strings.TrimSpace(req.Email))
			utils.HandleServiceError(c, a.logger, err, "/resend_otp")
			return
		}
		utils.HandleServiceError(c, a.logger, err, "/login")
		return
	}

	if outcome.Admin {
		sess.LogInAdmin(outcome.AdminUsername)
		sess.AddFlash(msgAdminLoggedIn)
		utils.Redirect(c, "/admin/dashboard")
		return
	}
	sess.LogIn(outcome.Account)
	utils.Redirect(c, "/dashboard")
}

// Logout GET /logout
func (a *AccountController) Logout(c *gin.Context) {
	sess := session.Default(c)
	sess.Clear()
	sess.AddFlash(msgLoggedOut)
	utils.Redirect(c, "/login")
}

// ForgotPasswordPage GET /forgot_password
func (a *AccountController) ForgotPasswordPage(c *gin.Context) {
	a.renderForgot(c, "", "")
}

// ForgotPassword POST /forgot_password
func (a *AccountController) ForgotPassword(c *gin.Context) {
	var req request_models.RequestForgotPassword
	_ = c.ShouldBind(&req)
	sess := session.Default(c)

	ok, next, err := a.captcha.Verify(sess, services.CaptchaForgotPassword, req.Captcha)
	if err != nil {
		a.fail(c, err, "/login")
		return
	}
	if !ok {
		sess.AddFlash(utils.FlashMessage(utils.ErrInvalidCaptcha))
		a.renderForgot(c, req.Email, next.DataURI())
		return
	}

	outcome, err := a.resets.RequestReset(c.Request.Context(), req.Email)
	if err != nil {
		if utils.IsUserError(err) {
			sess.AddFlash(utils.FlashMessage(err))
			a.renderForgot(c, req.Email, next.DataURI())
			return
		}
		a.fail(c, err, "/forgot_password")
		return
	}

	if outcome.Link != "" && a.inlineLink {
		sess.AddFlash(msgResetLinkInline + outcome.Link)
	} else {
		sess.AddFlash(msgResetLinkSent)
	}
	utils.Redirect(c, "/login")
}

func (a *AccountController) renderForgot(c *gin.Context, email, captchaURI string) {
	if captchaURI == "" {
		ch, err := a.captcha.Issue(session.Default(c), services.CaptchaForgotPassword)
		if err != nil {
			a.fail(c, err, "/login")
			return
		}
		captchaURI = ch.DataURI()
	}
	utils.RenderPage(c, http.StatusOK, "forgot_password.html", gin.H{
		"Title":   "Forgot password",
		"Email":   email,
		"Captcha": template.URL(captchaURI),
	})
}

// ResetPasswordPage GET /reset_password/:token
func (a *AccountController) ResetPasswordPage(c *gin.Context) {
	token := c.Param("token")
	if _, err := a.resets.ValidateToken(c.Request.Context(), token); err != nil {
		utils.HandleServiceError(c, a.logger, err, "/forgot_password")
		return
	}
	a.renderReset(c, token)
}

// ResetPassword POST /reset_password/:token
func (a *AccountController) ResetPassword(c *gin.Context) {
	token := c.Param("token")
	var req request_models.ResetPasswordRequest
	_ = c.ShouldBind(&req)
	sess := session.Default(c)

	err := a.resets.ResetPassword(c.Request.Context(), token, req)
	switch {
	case err == nil:
		sess.AddFlash(msgPasswordReset)
		utils.Redirect(c, "/login")
	case errors.Is(err, utils.ErrPasswordTooShort), errors.Is(err, utils.ErrPasswordMismatch):
		sess.AddFlash(utils.FlashMessage(err))
		a.renderReset(c, token)
	case errors.Is(err, utils.ErrAccountNotFound):
		utils.HandleServiceError(c, a.logger, err, "/login")
	default:
		utils.HandleServiceError(c, a.logger, err, "/forgot_password")
	}
}

func (a *AccountController) renderReset(c *gin.Context, token string) {
	utils.RenderPage(c, http.StatusOK, "reset_password.html", gin.H{"Title": "Reset password", "Token": token})
}

// fail logs an unexpected error and sends the user somewhere safe with the generic message.
func (a *AccountController) fail(c *gin.Context, err error, location string) {
	utils.HandleServiceError(c, a.logger, err, location)
}
