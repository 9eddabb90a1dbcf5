package config

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/leadline_test")
	t.Setenv("CLAIM_TOKEN_SECRET", "test-secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.DefaultClaimTimeout != 120*time.Second {
		t.Errorf("DefaultClaimTimeout = %s, want 2m", cfg.DefaultClaimTimeout)
	}
	if cfg.SweepInterval != 60*time.Second {
		t.Errorf("SweepInterval = %s, want 60s", cfg.SweepInterval)
	}
	if cfg.IsSMSEnabled() || cfg.IsVoiceEnabled() || cfg.IsEmailEnabled() || cfg.IsMinIOEnabled() {
		t.Error("providers must be disabled without credentials")
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("CLAIM_TOKEN_SECRET", "test-secret")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing DATABASE_URL")
	}
}

func TestLoadRequiresClaimTokenSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/leadline_test")
	t.Setenv("CLAIM_TOKEN_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing CLAIM_TOKEN_SECRET")
	}
}

func TestLoadRejectsNonPositiveClaimTimeout(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DEFAULT_CLAIM_TIMEOUT", "garbage")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid DEFAULT_CLAIM_TIMEOUT")
	}
}

func TestLoadRejectsWildcardCORSWithCredentials(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CORS_ORIGINS", "*")
	t.Setenv("CORS_ALLOW_CREDENTIALS", "true")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for wildcard origins with credentials")
	}
}

func TestLoadWildcardWithoutCredentials(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CORS_ORIGINS", "*")
	t.Setenv("CORS_ALLOW_CREDENTIALS", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.CORSAllowAll {
		t.Error("wildcard origin must enable allow-all")
	}
}

func TestProviderTogglesFollowCredentials(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TWILIO_ACCOUNT_SID", "AC123")
	t.Setenv("TWILIO_AUTH_TOKEN", "token")
	t.Setenv("RETELL_API_KEY", "key")
	t.Setenv("RETELL_AGENT_ID", "agent_1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.IsSMSEnabled() {
		t.Error("sms should be enabled with sid+token")
	}
	if !cfg.IsVoiceEnabled() {
		t.Error("voice should be enabled with key+agent")
	}
}
