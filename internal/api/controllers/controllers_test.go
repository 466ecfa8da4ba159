package controllers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"foodinsight/internal/config"
	"foodinsight/internal/models/db_models"
	"foodinsight/internal/models/request_models"
	"foodinsight/internal/models/response_models"
	"foodinsight/internal/services"
	"foodinsight/internal/web"
	"foodinsight/pkg/captcha"
	"foodinsight/pkg/middleware"
	"foodinsight/pkg/session"
	"foodinsight/pkg/utils"
)

const fixedCaptcha = "ABCDE"

type fakeCaptcha struct{}

func (fakeCaptcha) Issue(slots services.CaptchaSlots, purpose string) (captcha.Challenge, error) {
	slots.SetCaptchaCode(purpose, fixedCaptcha)
	return captcha.Challenge{Code: fixedCaptcha, PNG: []byte("\x89PNG")}, nil
}

func (f fakeCaptcha) Verify(slots services.CaptchaSlots, purpose, input string) (bool, captcha.Challenge, error) {
	ok := slots.CaptchaCode(purpose) != "" && strings.EqualFold(strings.TrimSpace(input), slots.CaptchaCode(purpose))
	next, err := f.Issue(slots, purpose)
	return ok, next, err
}

type fakeRegistration struct {
	registerOut *response_models.RegistrationOutcome
	registerErr error
	verifyErr   error
	resendOut   response_models.DeliveryResult
	resendErr   error

	state    response_models.RegistrationState
	stateErr error

	lastPending *request_models.PendingRegistration
}

func (f *fakeRegistration) State(context.Context, string) (response_models.RegistrationState, error) {
	return f.state, f.stateErr
}

func (f *fakeRegistration) Register(_ context.Context, req request_models.SignUpRequest) (*response_models.RegistrationOutcome, error) {
	return f.registerOut, f.registerErr
}

func (f *fakeRegistration) VerifyOtp(_ context.Context, req request_models.VerifyOtpRequest, pending *request_models.PendingRegistration) (*db_models.Account, error) {
	f.lastPending = pending
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return &db_models.Account{Email: req.Email, Verified: true}, nil
}

func (f *fakeRegistration) ResendOtp(_ context.Context, _ string, pending *request_models.PendingRegistration) (response_models.DeliveryResult, error) {
	f.lastPending = pending
	return f.resendOut, f.resendErr
}

type fakeAccounts struct {
	outcome *response_models.LoginOutcome
	err     error
}

func (f *fakeAccounts) Login(request_models.LoginRequest, context.Context) (*response_models.LoginOutcome, error) {
	return f.outcome, f.err
}

func (f *fakeAccounts) FindById(context.Context, string) (*db_models.Account, error) {
	return nil, utils.ErrAccountNotFound
}

type fakeResets struct {
	outcome     *response_models.ResetRequestOutcome
	validateErr error
	resetErr    error
	requested   []string
}

func (f *fakeResets) RequestReset(_ context.Context, email string) (*response_models.ResetRequestOutcome, error) {
	f.requested = append(f.requested, email)
	return f.outcome, nil
}

func (f *fakeResets) ValidateToken(context.Context, string) (*db_models.PasswordResetToken, error) {
	return &db_models.PasswordResetToken{}, f.validateErr
}

func (f *fakeResets) ResetPassword(context.Context, string, request_models.ResetPasswordRequest) error {
	return f.resetErr
}

type fakeObservations struct {
	submitted []request_models.SubmitObservation
	err       error
}

func (f *fakeObservations) Submit(_ context.Context, req request_models.SubmitObservation) (*response_models.ObservationOutcome, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.submitted = append(f.submitted, req)
	return &response_models.ObservationOutcome{
		Observation: &db_models.Observation{Age: req.Age, Height: req.Height, Weight: req.Weight},
		BMI:         utils.CalculateBMI(req.Weight, req.Height),
		ImagePath:   "/uploads/x.png",
		Analysis: response_models.AnalysisResult{
			FoodName:  "Apple",
			Nutrition: "<ul><li>52 kcal</li><li><script>x</script></li></ul>",
		},
	}, nil
}

func (f *fakeObservations) History(context.Context, uuid.UUID, int) ([]db_models.Observation, error) {
	return nil, nil
}

type fakeAdmin struct {
	deleteErr error
	deleted   []string
}

func (f *fakeAdmin) ListAccounts(_ context.Context, q string) (*response_models.AccountListing, error) {
	return &response_models.AccountListing{
		Query:    q,
		Accounts: []db_models.Account{{Email: "jo@example.com", Name: "Jo"}},
		Total:    1,
	}, nil
}

func (f *fakeAdmin) DeleteAccount(_ context.Context, id string) (*db_models.Account, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return &db_models.Account{Email: "jo@example.com"}, nil
}

type fakeMail struct{}

func (fakeMail) SendVerificationCode(context.Context, string, string) response_models.DeliveryResult {
	return response_models.Delivered()
}
func (fakeMail) SendPasswordReset(context.Context, string, string) response_models.DeliveryResult {
	return response_models.Delivered()
}
func (fakeMail) Diagnose(context.Context) []response_models.MailCheck {
	return []response_models.MailCheck{{Name: "API Key Check", Passed: true, Message: "RESEND_API_KEY is set"}}
}
func (fakeMail) Provider() string { return "resend" }

type fakeStorage struct{ dir string }

func (s fakeStorage) Save(context.Context, string, io.Reader) (string, error) { return "", nil }
func (s fakeStorage) Path(name string) (string, error) {
	if name != "x.png" {
		return "", io.EOF
	}
	return filepath.Join(s.dir, "x.png"), nil
}
func (s fakeStorage) Delete(context.Context, string) error { return nil }

type testApp struct {
	engine       *gin.Engine
	registration *fakeRegistration
	accounts     *fakeAccounts
	resets       *fakeResets
	observations *fakeObservations
	admin        *fakeAdmin
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	app := &testApp{
		registration: &fakeRegistration{state: response_models.RegistrationAwaitingOtp},
		accounts:     &fakeAccounts{},
		resets:       &fakeResets{outcome: &response_models.ResetRequestOutcome{}},
		observations: &fakeObservations{},
		admin:        &fakeAdmin{},
	}
	cfg := &config.Config{ResetLinkInline: true, Upload: config.UploadConfig{MaxBytes: 1 << 20}}
	logger := zap.NewNop()

	tmpl, err := web.Templates()
	require.NoError(t, err)
	mgr := session.NewManager(session.NewMemoryStore(), []byte("controller-test"), time.Hour, false, logger)

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(middleware.TraceIDMiddleware(), mgr.Middleware(), middleware.Recovery(logger))

	accountCtl := NewAccountController(cfg, app.registration, app.accounts, app.resets, fakeCaptcha{}, logger)
	captchaCtl := NewCaptchaController(fakeCaptcha{}, logger)
	uploads := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(uploads, "x.png"), []byte("img"), 0o644))
	dashboardCtl := NewDashboardController(cfg, app.observations, fakeStorage{dir: uploads}, logger)
	adminCtl := NewAdminController(app.admin, fakeMail{}, logger)

	r.GET("/", accountCtl.Home)
	r.GET("/register", accountCtl.RegisterPage)
	r.POST("/register", accountCtl.Register)
	r.GET("/verify_otp", accountCtl.VerifyOtpPage)
	r.POST("/verify_otp", accountCtl.VerifyOtp)
	r.GET("/resend_otp", accountCtl.ResendOtpPage)
	r.POST("/resend_otp", accountCtl.ResendOtp)
	r.GET("/login", accountCtl.LoginPage)
	r.POST("/login", accountCtl.Login)
	r.GET("/logout", accountCtl.Logout)
	r.GET("/forgot_password", accountCtl.ForgotPasswordPage)
	r.POST("/forgot_password", accountCtl.ForgotPassword)
	r.GET("/reset_password/:token", accountCtl.ResetPasswordPage)
	r.POST("/reset_password/:token", accountCtl.ResetPassword)
	r.GET("/captcha", captchaCtl.ForgotPassword)
	r.GET("/captcha/register", captchaCtl.Register)
	r.GET("/uploads/:filename", dashboardCtl.Upload)

	user := r.Group("/", middleware.RequireLogin())
	user.GET("/dashboard", dashboardCtl.Show)
	user.POST("/dashboard", dashboardCtl.Submit)

	admin := r.Group("/admin", middleware.RequireAdmin())
	admin.GET("/dashboard", adminCtl.Dashboard)
	admin.POST("/delete_user/:id", adminCtl.DeleteUser)
	admin.GET("/test_email", adminCtl.TestEmail)
	r.GET("/admin/logout", adminCtl.Logout)

	app.engine = r
	return app
}

// client replays the session cookie like a browser would.
type client struct {
	t      *testing.T
	app    *testApp
	cookie *http.Cookie
}

func (a *testApp) client(t *testing.T) *client { return &client{t: t, app: a} }

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	w := httptest.NewRecorder()
	c.app.engine.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		if ck.Name == session.CookieName {
			c.cookie = ck
		}
	}
	return w
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (c *client) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

// follow fetches the redirect target and returns its body, where the flashes are rendered.
func (c *client) follow(w *httptest.ResponseRecorder) string {
	c.t.Helper()
	require.Equal(c.t, http.StatusFound, w.Code, w.Body.String())
	return c.get(w.Header().Get("Location")).Body.String()
}

// loginAsUser establishes a regular session through the login form.
func (c *client) loginAsUser() {
	c.app.accounts.outcome = &response_models.LoginOutcome{Account: &db_models.Account{
		BaseModel: db_models.BaseModel{ID: uuid.New()}, Name: "Jo", Gender: "female",
	}}
	w := c.post("/login", url.Values{"email": {"jo@example.com"}, "password": {"secret1"}})
	require.Equal(c.t, "/dashboard", w.Header().Get("Location"))
}

func (c *client) loginAsAdmin() {
	c.app.accounts.outcome = &response_models.LoginOutcome{Admin: true, AdminUsername: "ADMIN"}
	w := c.post("/login", url.Values{"email": {"admin"}, "password": {"s3cret"}})
	require.Equal(c.t, "/admin/dashboard", w.Header().Get("Location"))
}
