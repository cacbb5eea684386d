package config

import (
	"testing"

	"github.com/AbrarShakhi/wall-e/internal/search"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.AlarmClearPolicy != search.ClearAll {
		t.Errorf("AlarmClearPolicy = %q, want %q", cfg.AlarmClearPolicy, search.ClearAll)
	}
	if !cfg.AutoEmailOnAlarm {
		t.Error("AutoEmailOnAlarm default should be true")
	}
	if cfg.TokenPath != "data/token.json" {
		t.Errorf("TokenPath = %q", cfg.TokenPath)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ALARM_CLEAR_POLICY", "fired")
	t.Setenv("AUTO_EMAIL_ON_ALARM", "false")
	t.Setenv("DATA_DIR", "/tmp/wall-e")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "9000" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.AlarmClearPolicy != search.ClearFired {
		t.Errorf("AlarmClearPolicy = %q", cfg.AlarmClearPolicy)
	}
	if cfg.AutoEmailOnAlarm {
		t.Error("AutoEmailOnAlarm not overridden")
	}
	if cfg.ProfilesPath() != "/tmp/wall-e/profiles.json" {
		t.Errorf("ProfilesPath() = %q", cfg.ProfilesPath())
	}
}

func TestLoadRejectsBadPolicy(t *testing.T) {
	t.Setenv("ALARM_CLEAR_POLICY", "sometimes")
	if _, err := Load(); err == nil {
		t.Fatal("expected an error for an unknown clear policy")
	}
}
