package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_NAME", "founder-connect")
	t.Setenv("APP_ENV", "test")
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("JWT_ACCESS_SECRET", "access")
	t.Setenv("JWT_REFRESH_SECRET", "refresh")
}

func TestLoad_MissingRequired(t *testing.T) {
	for _, key := range []string{"APP_NAME", "APP_ENV", "HTTP_PORT", "JWT_ACCESS_SECRET", "JWT_REFRESH_SECRET"} {
		t.Setenv(key, "")
	}

	_, err := Load("")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errMissingRequiredEnv))
	assert.Contains(t, err.Error(), "APP_NAME")
	assert.Contains(t, err.Error(), "JWT_REFRESH_SECRET")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.HTTPPort)
	assert.Equal(t, DefaultOTPTTL, cfg.OTP.TTL)
	assert.Equal(t, DefaultOTPMaxAttempts, cfg.OTP.MaxAttempts)
	assert.Equal(t, DefaultGenerationTimeout, cfg.AI.Timeout)
	assert.Equal(t, "localhost", cfg.Redis.Host)
	assert.Equal(t, "founderconnect.events", cfg.RabbitMQ.Exchange)
	assert.Equal(t, "migrations", cfg.App.MigrationsDir)
}

func TestLoad_EnvOverridesDurations(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("OTP_TTL", "5m")
	t.Setenv("AI_PROVIDER", " Gemini ")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.OTP.TTL)
	assert.Equal(t, "gemini", cfg.AI.Provider)
}

func TestLoad_FileValues(t *testing.T) {
	setRequiredEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "founderconnect.yaml")
	body := "outreach:\n  workers: 8\n  script: /opt/outreach/outreach.py\nsmtp:\n  host: smtp.example.com\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Outreach.Workers)
	assert.Equal(t, "/opt/outreach/outreach.py", cfg.Outreach.Script)
	assert.Equal(t, "smtp.example.com", cfg.SMTP.Host)
}
