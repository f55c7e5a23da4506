package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Env:               "production",
		DatabaseURL:       "postgres://localhost/homevisit",
		DoctorAccessCode:  "doc",
		PatientAccessCode: "pat",
		SessionSecret:     "secret",
		VisitListCap:      50,
		VitalsListCap:     100,
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("Port = %q, want 8000", cfg.Port)
	}
	if cfg.Env != "development" || !cfg.IsDev() {
		t.Errorf("Env = %q, want development", cfg.Env)
	}
	if cfg.VisitListCap != 50 || cfg.VitalsListCap != 100 {
		t.Errorf("caps = %d/%d, want 50/100", cfg.VisitListCap, cfg.VitalsListCap)
	}
	if cfg.FollowUpCharge != "300" {
		t.Errorf("FollowUpCharge = %q, want 300", cfg.FollowUpCharge)
	}
	if cfg.ReminderSchedule != "0 8 * * *" {
		t.Errorf("ReminderSchedule = %q", cfg.ReminderSchedule)
	}
	if cfg.ComplianceNote == "" {
		t.Error("ComplianceNote default missing")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("PORT", "9001")
	t.Setenv("ENV", "production")
	t.Setenv("FOLLOWUP_CHARGE", "450")
	t.Setenv("RELAY_VITALS_URL", "https://hooks.example.com/vitals")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "9001" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.IsDev() {
		t.Error("ENV=production should not be dev")
	}
	if cfg.FollowUpCharge != "450" {
		t.Errorf("FollowUpCharge = %q", cfg.FollowUpCharge)
	}
	if cfg.RelayVitalsURL != "https://hooks.example.com/vitals" {
		t.Errorf("RelayVitalsURL = %q", cfg.RelayVitalsURL)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid production", func(c *Config) {}, ""},
		{"missing database url", func(c *Config) { c.DatabaseURL = "" }, "DATABASE_URL"},
		{"missing codes in production", func(c *Config) { c.DoctorAccessCode = "" }, "ACCESS_CODE"},
		{"missing secret in production", func(c *Config) { c.SessionSecret = "" }, "SESSION_SECRET"},
		{"identical codes", func(c *Config) { c.PatientAccessCode = c.DoctorAccessCode }, "must differ"},
		{"zero visit cap", func(c *Config) { c.VisitListCap = 0 }, "caps"},
		{"negative vitals cap", func(c *Config) { c.VitalsListCap = -1 }, "caps"},
		{"dev without codes", func(c *Config) {
			c.Env = "development"
			c.DoctorAccessCode = ""
			c.PatientAccessCode = ""
			c.SessionSecret = ""
		}, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %v, want containing %q", err, tc.wantErr)
			}
		})
	}
}
