// Package config loads and validates environment variables at startup.
// Everything has a default; the app runs out of the box on a fresh
// machine.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/AbrarShakhi/wall-e/internal/search"
)

// Config holds all runtime configuration.
type Config struct {
	Port    string
	DataDir string

	// StudentEmailDomain is the required suffix for student emails.
	StudentEmailDomain string

	// AlarmClearPolicy decides which alarms a successful search
	// removes: "all" or "fired".
	AlarmClearPolicy search.ClearPolicy

	// AutoEmailOnAlarm sends the advisor email automatically when a
	// scheduled search finds seats.
	AutoEmailOnAlarm bool

	// Gmail OAuth material.
	CredentialsPath string
	TokenPath       string

	// Rate limit for mutating API endpoints.
	RequestsPerMinute int
	RateBurst         int
}

// Load reads environment variables and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{
		Port:               "8080",
		DataDir:            "./data",
		StudentEmailDomain: "@std.ewubd.edu",
		AlarmClearPolicy:   search.ClearAll,
		AutoEmailOnAlarm:   true,
		RequestsPerMinute:  60,
		RateBurst:          10,
	}

	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("STUDENT_EMAIL_DOMAIN"); v != "" {
		cfg.StudentEmailDomain = v
	}

	if v := os.Getenv("ALARM_CLEAR_POLICY"); v != "" {
		switch search.ClearPolicy(v) {
		case search.ClearAll, search.ClearFired:
			cfg.AlarmClearPolicy = search.ClearPolicy(v)
		default:
			return nil, fmt.Errorf("ALARM_CLEAR_POLICY must be %q or %q, got %q",
				search.ClearAll, search.ClearFired, v)
		}
	}

	if v := os.Getenv("AUTO_EMAIL_ON_ALARM"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("AUTO_EMAIL_ON_ALARM must be a boolean, got %q", v)
		}
		cfg.AutoEmailOnAlarm = b
	}

	if v := os.Getenv("REQUESTS_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("REQUESTS_PER_MINUTE must be a positive integer, got %q", v)
		}
		cfg.RequestsPerMinute = n
	}

	cfg.CredentialsPath = os.Getenv("GMAIL_CREDENTIALS")
	if cfg.CredentialsPath == "" {
		cfg.CredentialsPath = filepath.Join(cfg.DataDir, "credentials.json")
	}
	cfg.TokenPath = os.Getenv("GMAIL_TOKEN")
	if cfg.TokenPath == "" {
		cfg.TokenPath = filepath.Join(cfg.DataDir, "token.json")
	}

	return cfg, nil
}

// ProfilesPath is the profile store file under the data dir.
func (c *Config) ProfilesPath() string { return filepath.Join(c.DataDir, "profiles.json") }

// AlarmsPath is the alarm store file under the data dir.
func (c *Config) AlarmsPath() string { return filepath.Join(c.DataDir, "alarms.json") }

// TemplatesPath is the email template store file under the data dir.
func (c *Config) TemplatesPath() string { return filepath.Join(c.DataDir, "templates.json") }
