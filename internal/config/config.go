package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

// Config stores runtime configuration loaded from environment variables.
// Every variable is prefixed with MYAGENDA_, e.g. MYAGENDA_PORT.
type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	DatabaseURL string `envconfig:"DATABASE_URL" default:""`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"agenda.db"`

	LocalTimezone string        `envconfig:"LOCAL_TIMEZONE" default:"UTC"`
	GraceWindow   time.Duration `envconfig:"GRACE_WINDOW" default:"5m"`
	TodayLimit    int           `envconfig:"TODAY_LIMIT" default:"4"`

	NotificationsEnabled bool   `envconfig:"NOTIFICATIONS_ENABLED" default:"false"`
	AlertCron            string `envconfig:"ALERT_CRON" default:"* * * * *"`
	DigestCron           string `envconfig:"DIGEST_CRON" default:"0 8 * * *"`

	TwilioAccountSID     string `envconfig:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken      string `envconfig:"TWILIO_AUTH_TOKEN"`
	TwilioWhatsAppNumber string `envconfig:"TWILIO_WHATSAPP_NUMBER"`
	OpenAIAPIKey         string `envconfig:"OPENAI_API_KEY"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	location *time.Location
}

// Load reads a .env file when present, then the environment.
func Load(log zerolog.Logger) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("MYAGENDA", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.resolve(log); err != nil {
		return nil, err
	}

	log.Info().
		Str("port", cfg.Port).
		Bool("postgres", cfg.DatabaseURL != "").
		Str("timezone", cfg.location.String()).
		Dur("grace_window", cfg.GraceWindow).
		Bool("notifications", cfg.NotificationsEnabled).
		Msg("Configuration loaded")
	return &cfg, nil
}

func (c *Config) resolve(log zerolog.Logger) error {
	loc, err := time.LoadLocation(c.LocalTimezone)
	if err != nil {
		log.Warn().Err(err).Str("timezone", c.LocalTimezone).Msg("Invalid LOCAL_TIMEZONE, defaulting to UTC")
		loc = time.UTC
	}
	c.location = loc

	if c.GraceWindow < 0 {
		return fmt.Errorf("GRACE_WINDOW must not be negative, got %s", c.GraceWindow)
	}
	if c.TodayLimit <= 0 {
		return fmt.Errorf("TODAY_LIMIT must be positive, got %d", c.TodayLimit)
	}
	return nil
}

// Location is the zone used for calendar day boundaries.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// NewForTesting returns a deterministic configuration backed by an in-memory database.
func NewForTesting() *Config {
	return &Config{
		Port:          "0",
		SQLitePath:    "file::memory:?cache=shared",
		LocalTimezone: "UTC",
		GraceWindow:   5 * time.Minute,
		TodayLimit:    4,
		AlertCron:     "* * * * *",
		DigestCron:    "0 8 * * *",
		LogLevel:      "disabled",
		location:      time.UTC,
	}
}
