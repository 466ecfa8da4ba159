package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ADMIN_PASSWORD", "s3cret")

	cfg, err := Load("does-not-exist.env")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "ADMIN", cfg.Admin.Username)
	assert.Equal(t, "s3cret", cfg.Admin.Password)
	assert.Equal(t, "uploads", cfg.Upload.Dir)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 10*time.Second, cfg.Mail.Timeout)
	assert.Equal(t, AnalysisProviderGemini, cfg.Analysis.Provider)
	assert.True(t, cfg.ResetLinkInline)
}

func TestLoadRejectsUnknownProviders(t *testing.T) {
	t.Setenv("ANALYSIS_PROVIDER", "llama")

	_, err := Load("does-not-exist.env")
	assert.ErrorContains(t, err, "ANALYSIS_PROVIDER")
}

func TestResolvedMailProvider(t *testing.T) {
	cfg := &Config{Mail: MailConfig{Provider: MailProviderAuto}}
	assert.Equal(t, MailProviderLog, cfg.ResolvedMailProvider())

	cfg.Mail.SMTPHost = "smtp.example.com"
	assert.Equal(t, MailProviderSMTP, cfg.ResolvedMailProvider())

	cfg.Mail.ResendAPIKey = "re_123"
	assert.Equal(t, MailProviderResend, cfg.ResolvedMailProvider())

	cfg.Mail.Provider = "SMTP"
	assert.Equal(t, MailProviderSMTP, cfg.ResolvedMailProvider())
}

func TestResetLink(t *testing.T) {
	cfg := &Config{BaseURL: "https://food.example.com/"}
	assert.Equal(t, "https://food.example.com/reset_password/abc", cfg.ResetLink("abc"))
}
