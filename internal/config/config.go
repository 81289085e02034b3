// Package config loads the runtime configuration of the forecast example.
//
// The loading sequence is:
//  1. Load a .env file via godotenv (non-fatal if absent).
//  2. Populate Config from the environment with envconfig.
//  3. Validate the struct with go-playground/validator.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ConfigErrorType classifies configuration failures
type ConfigErrorType string

const (
	ErrParsing    ConfigErrorType = "parsing"
	ErrValidation ConfigErrorType = "validation"
)

// ConfigError is returned by Load
type ConfigError struct {
	Type    ConfigErrorType
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Config holds the process configuration
type Config struct {
	AppEnv   string `envconfig:"APP_ENV" default:"dev" validate:"oneof=dev prod"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	DWD DWDConfig
}

// DWDConfig configures access to DWD open data
type DWDConfig struct {
	BaseURL           string        `envconfig:"DWD_BASE_URL" default:"https://opendata.dwd.de/weather/local_forecasts/mos" validate:"required,url"`
	StationCatalogURL string        `envconfig:"DWD_STATION_CATALOG_URL" default:"https://www.dwd.de/DE/leistungen/met_verfahren_mosmix/mosmix_stationskatalog.cfg?view=nasPublication&nn=16102" validate:"required,url"`
	HTTPTimeout       time.Duration `envconfig:"DWD_HTTP_TIMEOUT" default:"60s" validate:"gt=0"`
	MaxRetries        int           `envconfig:"DWD_MAX_RETRIES" default:"2" validate:"gte=0,lte=10"`
	UserAgent         string        `envconfig:"DWD_USER_AGENT" default:"mosmix-example" validate:"required"`
}

// Load reads and validates the configuration
func Load() (*Config, error) {
	// godotenv does not override variables already set in the environment
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrParsing,
			Message: "failed to process environment configuration",
			Err:     err,
		}
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrValidation,
			Message: "configuration validation failed",
			Err:     err,
		}
	}

	return &cfg, nil
}

// SlogLevel maps LogLevel to a slog level, defaulting to info
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsDev reports whether the process runs in development mode
func (c *Config) IsDev() bool {
	return c.AppEnv == "dev"
}
