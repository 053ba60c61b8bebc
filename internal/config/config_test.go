package config

import (
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "SMTP_HOST", "SMTP_PORT", "SMTP_TIMEOUT", "NOTIFY_SENDER_EMAIL"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Port)
	}
	if cfg.SMTPHost != "smtp.gmail.com" {
		t.Errorf("Expected default SMTP host smtp.gmail.com, got %s", cfg.SMTPHost)
	}
	if cfg.SMTPPort != 587 {
		t.Errorf("Expected default SMTP port 587, got %d", cfg.SMTPPort)
	}
	if cfg.SMTPTimeout != 10 {
		t.Errorf("Expected default SMTP timeout 10, got %d", cfg.SMTPTimeout)
	}
	if cfg.SenderEmail != "" {
		t.Errorf("Expected empty sender email by default, got %s", cfg.SenderEmail)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("NOTIFY_SENDER_EMAIL", "alerts@example.com")
	t.Setenv("MODEL_PATH", "/models/damage.pb")

	cfg := Load()

	if cfg.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Port)
	}
	if cfg.SenderEmail != "alerts@example.com" {
		t.Errorf("Expected sender override, got %s", cfg.SenderEmail)
	}
	if cfg.ModelPath != "/models/damage.pb" {
		t.Errorf("Expected model path override, got %s", cfg.ModelPath)
	}
}

func TestGetEnvAsInt_InvalidValue(t *testing.T) {
	t.Setenv("SMTP_PORT", "not-a-number")

	cfg := Load()

	if cfg.SMTPPort != 587 {
		t.Errorf("Expected fallback to default 587, got %d", cfg.SMTPPort)
	}
}
