package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/ahmethakanbesel/history-scraper/internal/scraper"
)

// Prefix is prepended to every environment variable, e.g. HISTORY_WORKERS.
const Prefix = "HISTORY"

type Config struct {
	Workers        int           `envconfig:"WORKERS" default:"5" validate:"gte=0"`
	From           time.Time     `envconfig:"FROM" default:"1980-12-12T14:30:00Z" validate:"required"`
	To             time.Time     `envconfig:"TO" default:"2024-07-31T17:58:23Z" validate:"required,gtefield=From"`
	Timeout        time.Duration `envconfig:"TIMEOUT" default:"0s" validate:"gte=0"`
	UserAgent      string        `envconfig:"USER_AGENT"`
	BaseURL        string        `envconfig:"BASE_URL" default:"https://finance.yahoo.com" validate:"required,url"`
	FailFast       bool          `envconfig:"FAIL_FAST" default:"false"`
	RequireRows    bool          `envconfig:"REQUIRE_ROWS" default:"false"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error DEBUG INFO WARN ERROR"`
	LogFormat      string        `envconfig:"LOG_FORMAT" default:"text" validate:"oneof=text json"`
	PushgatewayURL string        `envconfig:"PUSHGATEWAY_URL" validate:"omitempty,url"`
	MetricsJob     string        `envconfig:"METRICS_JOB" default:"history_scraper" validate:"required"`
}

// Load reads envFile (or .env when empty) into the environment, then builds
// the Config from HISTORY_* variables. A missing default .env is not an error.
func Load(envFile string) (Config, error) {
	var cfg Config

	if envFile == "" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("load .env: %w", err)
		}
	} else if err := godotenv.Load(envFile); err != nil {
		return cfg, fmt.Errorf("load %s: %w", envFile, err)
	}

	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to load config from env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks field constraints. Call it again after applying overrides.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// Range returns the configured history window.
func (c Config) Range() scraper.DateRange {
	return scraper.DateRange{From: c.From, To: c.To}
}

// ParseTime accepts a plain date (2006-01-02, taken as UTC midnight) or an
// RFC3339 timestamp.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: want YYYY-MM-DD or RFC3339", s)
	}
	return t, nil
}
