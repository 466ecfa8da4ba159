package services

import (
	"bytes"
	"context"
	"html/template"
	texttemplate "text/template"
	"time"

	"go.uber.org/zap"

	"foodinsight/internal/config"
	"foodinsight/internal/models/response_models"
	"foodinsight/pkg/metrics"
)

type IMailService interface {
	SendVerificationCode(ctx context.Context, to, code string) response_models.DeliveryResult
	SendPasswordReset(ctx context.Context, to, link string) response_models.DeliveryResult
	// Diagnose runs the provider's self checks for the admin test page.
	Diagnose(ctx context.Context) []response_models.MailCheck
	Provider() string
}

type outgoingMail struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// mailTransport is one delivery channel (Resend API, SMTP or log-only).
type mailTransport interface {
	Name() string
	Deliver(ctx context.Context, m outgoingMail) response_models.DeliveryResult
	Diagnose(ctx context.Context) []response_models.MailCheck
}

type mailService struct {
	transport mailTransport
	appName   string
	timeout   time.Duration
	htmlTpl   *template.Template
	textTpl   *texttemplate.Template
	logger    *zap.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewMailService(cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) IMailService {
	var transport mailTransport
	switch cfg.ResolvedMailProvider() {
	case config.MailProviderResend:
		transport = newResendTransport(cfg.Mail)
	case config.MailProviderSMTP:
		transport = newSMTPTransport(cfg.Mail, cfg.AppName)
	default:
		transport = logTransport{}
	}
	logger.Info("mail provider selected", zap.String("provider", transport.Name()))
	return newMailService(transport, cfg.AppName, cfg.Mail.Timeout, logger, m)
}

func newMailService(t mailTransport, appName string, timeout time.Duration, logger *zap.Logger, m *metrics.Metrics) *mailService {
	return &mailService{
		transport: t,
		appName:   appName,
		timeout:   timeout,
		htmlTpl:   template.Must(template.New("mailHTML").Parse(baseHTMLTemplate)),
		textTpl:   texttemplate.Must(texttemplate.New("mailText").Parse(plainTextTemplate)),
		logger:    logger,
		metrics:   m,
		now:       time.Now,
	}
}

func (s *mailService) Provider() string { return s.transport.Name() }

func (s *mailService) SendVerificationCode(ctx context.Context, to, code string) response_models.DeliveryResult {
	res := s.send(ctx, "verification", to, "Verify Your Email - "+s.appName, EmailData{
		Title: "Verify your email",
		Intro: "Thank you for registering with " + s.appName + "! Enter this code on the verification page to verify your email address.",
		Code:  code,
		Outro: "This code will expire in 10 minutes. If you did not create this account, please ignore this email.",
	})
	if !res.Sent {
		// the operator can still hand the code over manually
		s.logger.Warn("verification email not delivered",
			zap.String("email", to),
			zap.String("otp", code),
			zap.String("failure", string(res.Failure)),
			zap.String("detail", res.Detail))
	}
	return res
}

func (s *mailService) SendPasswordReset(ctx context.Context, to, link string) response_models.DeliveryResult {
	res := s.send(ctx, "password_reset", to, "Reset your password - "+s.appName, EmailData{
		Title:     "Reset your password",
		Intro:     "We received a request to reset your password. Click the button below to continue. If you didn't request this, you can safely ignore this email.",
		ButtonURL: link,
		ButtonTxt: "Reset Password",
		Outro:     "This link expires in 1 hour.",
	})
	if !res.Sent {
		s.logger.Warn("password reset email not delivered",
			zap.String("email", to),
			zap.String("reset_link", link),
			zap.String("failure", string(res.Failure)),
			zap.String("detail", res.Detail))
	}
	return res
}

func (s *mailService) Diagnose(ctx context.Context) []response_models.MailCheck {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.transport.Diagnose(ctx)
}

func (s *mailService) send(ctx context.Context, kind, to, subject string, data EmailData) response_models.DeliveryResult {
	data.AppName = s.appName
	data.Year = s.now().Year()

	html, text, err := s.renderEmail(data)
	if err != nil {
		s.metrics.MailDelivery(kind, "render_error")
		return response_models.DeliveryFailed(response_models.DeliveryTransport, "render email: "+err.Error())
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res := s.transport.Deliver(ctx, outgoingMail{To: to, Subject: subject, HTML: html, Text: text})
	outcome := "sent"
	if !res.Sent {
		outcome = string(res.Failure)
	} else {
		s.logger.Info("email sent", zap.String("kind", kind), zap.String("email", to), zap.String("provider", s.transport.Name()))
	}
	s.metrics.MailDelivery(kind, outcome)
	return res
}

type EmailData struct {
	Title     string
	Intro     string
	Code      string
	ButtonURL string
	ButtonTxt string
	Outro     string
	AppName   string
	Year      int
}

func (s *mailService) renderEmail(data EmailData) (html string, text string, err error) {
	var hb, tb bytes.Buffer

	if err = s.htmlTpl.Execute(&hb, data); err != nil {
		return "", "", err
	}
	if err = s.textTpl.Execute(&tb, data); err != nil {
		return "", "", err
	}
	return hb.String(), tb.String(), nil
}

const baseHTMLTemplate = `<!doctype html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width,initial-scale=1">
  <title>{{.Title}}</title>
  <style>
    body { margin: 0; padding: 0; background: #f1f5f9; color: #0f172a; font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; }
    .wrapper { width: 100%; padding: 40px 16px; box-sizing: border-box; }
    .container { width: 100%; max-width: 600px; margin: 0 auto; background: #ffffff; border-radius: 16px; overflow: hidden; box-shadow: 0 10px 30px rgba(15, 23, 42, 0.08); }
    .header { padding: 28px 32px 20px; border-bottom: 1px solid #e2e8f0; }
    .brand { font-weight: 700; letter-spacing: 0.5px; font-size: 22px; color: #16a34a; text-transform: uppercase; }
    .hero { padding: 32px; }
    h1 { margin: 0 0 16px; font-size: 26px; }
    p { margin: 0 0 20px; line-height: 1.7; color: #475569; }
    .code { display: inline-block; padding: 14px 28px; font-size: 30px; letter-spacing: 8px; font-weight: 700; background: #f0fdf4; border: 1px dashed #16a34a; border-radius: 12px; color: #166534; }
    .btn { display: inline-block; padding: 16px 32px; background: #16a34a; color: #ffffff !important; text-decoration: none; border-radius: 12px; font-weight: 600; }
    .muted { color: #64748b; font-size: 14px; }
    .link-text { color: #2563eb; word-break: break-all; }
    .footer { padding: 24px 32px; color: #94a3b8; font-size: 13px; text-align: center; }
  </style>
</head>
<body>
  <div class="wrapper">
    <div class="container">
      <div class="header">
        <div class="brand">{{.AppName}}</div>
      </div>
      <div class="hero">
        <h1>{{.Title}}</h1>
        <p>{{.Intro}}</p>
        {{if .Code}}
          <p><span class="code">{{.Code}}</span></p>
        {{end}}
        {{if .ButtonURL}}
          <p><a class="btn" href="{{.ButtonURL}}">{{.ButtonTxt}}</a></p>
          <p class="muted">If the button doesn't work, copy and paste this link into your browser:</p>
          <a href="{{.ButtonURL}}" class="link-text">{{.ButtonURL}}</a>
        {{end}}
        {{if .Outro}}<p class="muted">{{.Outro}}</p>{{end}}
      </div>
      <div class="footer">
        &copy; {{.Year}} {{.AppName}}. All rights reserved.
      </div>
    </div>
  </div>
</body>
</html>`

const plainTextTemplate = `Hello,

{{.Intro}}
{{if .Code}}
Your email verification code is: {{.Code}}
{{end}}{{if .ButtonURL}}
Open this link:
{{.ButtonURL}}
{{end}}
{{.Outro}}

Best regards,
{{.AppName}} Team
`
