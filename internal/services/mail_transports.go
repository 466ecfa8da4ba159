package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/gomail.v2"

	"foodinsight/internal/config"
	"foodinsight/internal/models/response_models"
)

// resendProbeRecipient is Resend's sink address; probes sent there are accepted but never delivered.
const resendProbeRecipient = "delivered@resend.dev"

type resendTransport struct {
	apiKey   string
	from     string
	endpoint string
	testMode bool
	client   *http.Client
}

func newResendTransport(cfg config.MailConfig) *resendTransport {
	return &resendTransport{
		apiKey:   cfg.ResendAPIKey,
		from:     cfg.ResendFromEmail,
		endpoint: strings.TrimRight(cfg.ResendAPIURL, "/") + "/emails",
		testMode: cfg.TestMode,
		client:   &http.Client{},
	}
}

func (t *resendTransport) Name() string { return config.MailProviderResend }

func (t *resendTransport) Deliver(ctx context.Context, m outgoingMail) response_models.DeliveryResult {
	if t.apiKey == "" {
		return response_models.DeliveryFailed(response_models.DeliveryNotConfigured, "RESEND_API_KEY not set")
	}
	to := m.To
	if t.testMode {
		// unverified Resend accounts may only mail their own sender address
		to = t.from
	}

	status, body, err := t.post(ctx, map[string]any{
		"from":    t.from,
		"to":      []string{to},
		"subject": m.Subject,
		"html":    m.HTML,
		"text":    m.Text,
	})
	if err != nil {
		return transportFailure(ctx, err)
	}
	if status >= 200 && status < 300 {
		return response_models.Delivered()
	}
	return response_models.DeliveryFailed(response_models.DeliveryRejected, resendErrorMessage(status, body))
}

func (t *resendTransport) Diagnose(ctx context.Context) []response_models.MailCheck {
	checks := []response_models.MailCheck{{Name: "Provider", Passed: true, Message: "Resend API, sender " + t.from}}
	if t.apiKey == "" {
		return append(checks, response_models.MailCheck{Name: "API Key Check", Message: "RESEND_API_KEY not set in environment variables"})
	}
	checks = append(checks, response_models.MailCheck{Name: "API Key Check", Passed: true, Message: "RESEND_API_KEY is set"})

	status, body, err := t.post(ctx, map[string]any{
		"from":    t.from,
		"to":      []string{resendProbeRecipient},
		"subject": "Test",
		"text":    "Test",
	})
	switch {
	case err != nil:
		res := transportFailure(ctx, err)
		return append(checks, response_models.MailCheck{Name: "Resend API Connection", Message: "Connection failed: " + res.Detail})
	case status == 200 || status == 201 || status == 400 || status == 422:
		// 400/422 still prove the API is reachable and the key was accepted
		checks = append(checks, response_models.MailCheck{Name: "Resend API Connection", Passed: true,
			Message: fmt.Sprintf("Successfully connected to Resend API (Status: %d)", status)})
	default:
		return append(checks, response_models.MailCheck{Name: "Resend API Connection",
			Message: fmt.Sprintf("API returned status %d: %s", status, resendErrorMessage(status, body))})
	}

	if len(t.apiKey) < 20 {
		checks = append(checks, response_models.MailCheck{Name: "API Key Format", Warning: true,
			Message: "API key seems too short. Make sure you copied the full key."})
	} else {
		checks = append(checks, response_models.MailCheck{Name: "API Key Format", Passed: true, Message: "API key format looks valid"})
	}
	return append(checks, response_models.MailCheck{Name: "All Tests", Passed: true,
		Message: "Resend API configuration looks good! Email sending should work."})
}

func (t *resendTransport) post(ctx context.Context, payload map[string]any) (int, []byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(raw))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}

func resendErrorMessage(status int, body []byte) string {
	msg := gjson.GetBytes(body, "message").String()
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d", status)
	}
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "not a valid sender"):
		msg += " (verify the sender address in the Resend dashboard)"
	case strings.Contains(lower, "not authorized"):
		msg += " (the recipient domain is not verified; set TEST_MODE or verify the domain)"
	}
	return msg
}

func transportFailure(ctx context.Context, err error) response_models.DeliveryResult {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return response_models.DeliveryFailed(response_models.DeliveryTimeout, err.Error())
	}
	return response_models.DeliveryFailed(response_models.DeliveryTransport, err.Error())
}

type smtpTransport struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
}

func newSMTPTransport(cfg config.MailConfig, appName string) *smtpTransport {
	d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	d.SSL = cfg.SMTPUseSSL
	from := cfg.SMTPFrom
	if from == "" {
		from = cfg.SMTPUsername
	}
	return &smtpTransport{dialer: d, from: from, fromName: appName}
}

func (t *smtpTransport) Name() string { return config.MailProviderSMTP }

func (t *smtpTransport) Deliver(ctx context.Context, m outgoingMail) response_models.DeliveryResult {
	if t.dialer.Host == "" || t.from == "" {
		return response_models.DeliveryFailed(response_models.DeliveryNotConfigured, "SMTP_HOST or SMTP_FROM not set")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", msg.FormatAddress(t.from, t.fromName))
	msg.SetHeader("To", m.To)
	msg.SetHeader("Subject", m.Subject)
	msg.SetBody("text/plain", m.Text)
	msg.AddAlternative("text/html", m.HTML)

	// gomail has no context support; the send keeps running after a timeout but the request
	// does not wait for it.
	done := make(chan error, 1)
	go func() { done <- t.dialer.DialAndSend(msg) }()

	select {
	case err := <-done:
		if err != nil {
			return response_models.DeliveryFailed(response_models.DeliveryTransport, err.Error())
		}
		return response_models.Delivered()
	case <-ctx.Done():
		return response_models.DeliveryFailed(response_models.DeliveryTimeout, ctx.Err().Error())
	}
}

func (t *smtpTransport) Diagnose(ctx context.Context) []response_models.MailCheck {
	checks := []response_models.MailCheck{{Name: "Provider", Passed: true,
		Message: fmt.Sprintf("SMTP %s:%d (SSL: %t)", t.dialer.Host, t.dialer.Port, t.dialer.SSL)}}
	if t.dialer.Host == "" {
		return append(checks, response_models.MailCheck{Name: "SMTP Host Check", Message: "SMTP_HOST not set in environment variables"})
	}
	if t.dialer.Username == "" || t.dialer.Password == "" {
		checks = append(checks, response_models.MailCheck{Name: "Credentials Check", Warning: true,
			Message: "SMTP_USERNAME or SMTP_PASSWORD is empty; most servers require authentication"})
	} else {
		checks = append(checks, response_models.MailCheck{Name: "Credentials Check", Passed: true, Message: "SMTP credentials are set"})
	}

	done := make(chan error, 1)
	go func() {
		closer, err := t.dialer.Dial()
		if err == nil {
			err = closer.Close()
		}
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			return append(checks, response_models.MailCheck{Name: "SMTP Connection", Message: "Connection failed: " + err.Error()})
		}
	case <-ctx.Done():
		return append(checks, response_models.MailCheck{Name: "SMTP Connection", Message: "Connection timeout - SMTP server took too long to respond"})
	}
	checks = append(checks, response_models.MailCheck{Name: "SMTP Connection", Passed: true, Message: "Connected and authenticated"})
	return append(checks, response_models.MailCheck{Name: "All Tests", Passed: true,
		Message: "SMTP configuration looks good! Email sending should work."})
}

// logTransport is used when no provider is configured; codes and links end up in the log.
type logTransport struct{}

func (logTransport) Name() string { return config.MailProviderLog }

func (logTransport) Deliver(context.Context, outgoingMail) response_models.DeliveryResult {
	return response_models.DeliveryFailed(response_models.DeliveryNotConfigured, "no mail provider configured")
}

func (logTransport) Diagnose(context.Context) []response_models.MailCheck {
	return []response_models.MailCheck{{
		Name:    "Provider",
		Warning: true,
		Message: "No mail provider configured. Set RESEND_API_KEY or SMTP_HOST; codes and reset links are only written to the server log.",
	}}
}
