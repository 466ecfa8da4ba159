package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"foodinsight/cmd/fx/account_fx"
	"foodinsight/cmd/fx/admin_fx"
	"foodinsight/cmd/fx/analysis_fx"
	"foodinsight/cmd/fx/captcha_fx"
	"foodinsight/cmd/fx/config_fx"
	"foodinsight/cmd/fx/controllers_fx"
	"foodinsight/cmd/fx/db_fx"
	"foodinsight/cmd/fx/logger_fx"
	"foodinsight/cmd/fx/mail_fx"
	"foodinsight/cmd/fx/metrics_fx"
	"foodinsight/cmd/fx/observation_fx"
	"foodinsight/cmd/fx/session_fx"
	"foodinsight/internal/api/controllers"
	"foodinsight/internal/config"
	"foodinsight/internal/web"
	"foodinsight/pkg/metrics"
	"foodinsight/pkg/middleware"
	"foodinsight/pkg/session"
)

func main() {
	app := fx.New(appOptions(), logger_fx.WithLogger)
	app.Run()
}

func appOptions() fx.Option {
	return fx.Options(
		config_fx.Module,
		logger_fx.Module,
		metrics_fx.Module,
		db_fx.Module,
		session_fx.Module,
		mail_fx.Module,
		captcha_fx.Module,
		analysis_fx.Module,
		observation_fx.Module,
		account_fx.Module,
		admin_fx.Module,
		controllers_fx.Module,

		fx.Invoke(StartServer),
		fx.Provide(ProvideRouter),
	)
}

func StartServer(lc fx.Lifecycle, cfg *config.Config, engine *gin.Engine, logger *zap.Logger) {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			go func() {
				logger.Info("starting HTTP server", zap.String("addr", srv.Addr))
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Fatal("HTTP server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping HTTP server")
			return srv.Shutdown(ctx)
		},
	})
}

type RouterParams struct {
	fx.In

	Config      *config.Config
	Logger      *zap.Logger
	Metrics     *metrics.Metrics
	Sessions    *session.Manager
	RateLimiter *middleware.RateLimiter

	Account   *controllers.AccountController
	Captcha   *controllers.CaptchaController
	Dashboard *controllers.DashboardController
	Admin     *controllers.AdminController
	Health    *controllers.HealthController
}

func ProvideRouter(p RouterParams) (*gin.Engine, error) {
	if !p.Config.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	tmpl, err := web.Templates()
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.MaxMultipartMemory = 8 << 20
	r.Use(middleware.TraceIDMiddleware())
	r.Use(middleware.RequestLogger(p.Logger))
	r.Use(p.Metrics.Middleware())
	r.Use(p.Sessions.Middleware())
	r.Use(middleware.Recovery(p.Logger))

	RegisterRoutes(r, p)

	return r, nil
}

func RegisterRoutes(r *gin.Engine, p RouterParams) {
	limited := p.RateLimiter.Handler()

	r.GET("/", p.Account.Home)
	r.GET("/register", p.Account.RegisterPage)
	r.POST("/register", limited, p.Account.Register)
	r.GET("/verify_otp", p.Account.VerifyOtpPage)
	r.POST("/verify_otp", limited, p.Account.VerifyOtp)
	r.GET("/resend_otp", p.Account.ResendOtpPage)
	r.POST("/resend_otp", limited, p.Account.ResendOtp)
	r.GET("/login", p.Account.LoginPage)
	r.POST("/login", limited, p.Account.Login)
	r.GET("/logout", p.Account.Logout)
	r.GET("/forgot_password", p.Account.ForgotPasswordPage)
	r.POST("/forgot_password", limited, p.Account.ForgotPassword)
	r.GET("/reset_password/:token", p.Account.ResetPasswordPage)
	r.POST("/reset_password/:token", limited, p.Account.ResetPassword)

	r.GET("/captcha", p.Captcha.ForgotPassword)
	r.GET("/captcha/register", p.Captcha.Register)

	r.GET("/uploads/:filename", p.Dashboard.Upload)
	user := r.Group("/", middleware.RequireLogin())
	user.GET("/dashboard", p.Dashboard.Show)
	user.POST("/dashboard", p.Dashboard.Submit)

	r.GET("/admin/logout", p.Admin.Logout)
	admin := r.Group("/admin", middleware.RequireAdmin())
	admin.GET("/dashboard", p.Admin.Dashboard)
	admin.POST("/delete_user/:id", p.Admin.DeleteUser)
	admin.GET("/test_email", p.Admin.TestEmail)

	r.GET("/healthz", p.Health.Check)
	r.GET("/metrics", gin.WrapH(p.Metrics.Handler()))
}
