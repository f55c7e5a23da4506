package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	Env         string `mapstructure:"ENV"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`

	// Shared access codes; the whole authentication surface by design.
	DoctorAccessCode  string `mapstructure:"DOCTOR_ACCESS_CODE"`
	PatientAccessCode string `mapstructure:"PATIENT_ACCESS_CODE"`
	SessionSecret     string `mapstructure:"SESSION_SECRET"`
	SessionTTLMinutes int    `mapstructure:"SESSION_TTL_MINUTES"`

	ClinicName     string `mapstructure:"CLINIC_NAME"`
	ConsultantName string `mapstructure:"CONSULTANT_NAME"`
	ComplianceNote string `mapstructure:"COMPLIANCE_NOTE"`

	FollowUpService string `mapstructure:"FOLLOWUP_SERVICE"`
	FollowUpCharge  string `mapstructure:"FOLLOWUP_CHARGE"`

	VisitListCap  int    `mapstructure:"VISIT_LIST_CAP"`
	VitalsListCap int    `mapstructure:"VITALS_LIST_CAP"`
	AttachmentDir string `mapstructure:"ATTACHMENT_DIR"`

	RelayLeadURL     string `mapstructure:"RELAY_LEAD_URL"`
	RelayVitalsURL   string `mapstructure:"RELAY_VITALS_URL"`
	RelayReportURL   string `mapstructure:"RELAY_REPORT_URL"`
	RelayWorkflowURL string `mapstructure:"RELAY_WORKFLOW_URL"`
	RelayReminderURL string `mapstructure:"RELAY_REMINDER_URL"`
	RelaySecret      string `mapstructure:"RELAY_SECRET"`

	ReminderSchedule string `mapstructure:"REMINDER_SCHEDULE"`

	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("SESSION_TTL_MINUTES", 720)
	v.SetDefault("CLINIC_NAME", "Home Visit Care")
	v.SetDefault("COMPLIANCE_NOTE",
		"This report is generated for the named patient only and is not valid for medico-legal purposes. "+
			"Consult your physician before acting on its contents.")
	v.SetDefault("FOLLOWUP_SERVICE", "Follow-up consultation")
	v.SetDefault("FOLLOWUP_CHARGE", "300")
	v.SetDefault("VISIT_LIST_CAP", 50)
	v.SetDefault("VITALS_LIST_CAP", 100)
	v.SetDefault("ATTACHMENT_DIR", "./data/attachments")
	v.SetDefault("REMINDER_SCHEDULE", "0 8 * * *")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range []string{
		"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
		"DOCTOR_ACCESS_CODE", "PATIENT_ACCESS_CODE", "SESSION_SECRET",
		"SESSION_TTL_MINUTES", "CLINIC_NAME", "CONSULTANT_NAME",
		"COMPLIANCE_NOTE", "FOLLOWUP_SERVICE", "FOLLOWUP_CHARGE",
		"VISIT_LIST_CAP", "VITALS_LIST_CAP", "ATTACHMENT_DIR",
		"RELAY_LEAD_URL", "RELAY_VITALS_URL", "RELAY_REPORT_URL",
		"RELAY_WORKFLOW_URL", "RELAY_REMINDER_URL", "RELAY_SECRET",
		"REMINDER_SCHEDULE", "CORS_ORIGINS",
	} {
		v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		if origins := v.GetString("CORS_ORIGINS"); origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks that the configuration is safe to run. Outside
// development the access codes and session secret must be set so the gate
// is real.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if !c.IsDev() {
		if c.DoctorAccessCode == "" || c.PatientAccessCode == "" {
			return fmt.Errorf("DOCTOR_ACCESS_CODE and PATIENT_ACCESS_CODE are required outside development")
		}
		if c.SessionSecret == "" {
			return fmt.Errorf("SESSION_SECRET is required outside development")
		}
	}
	if c.DoctorAccessCode != "" && c.DoctorAccessCode == c.PatientAccessCode {
		return fmt.Errorf("DOCTOR_ACCESS_CODE and PATIENT_ACCESS_CODE must differ")
	}
	if c.VisitListCap <= 0 || c.VitalsListCap <= 0 {
		return fmt.Errorf("list caps must be positive")
	}
	return nil
}
