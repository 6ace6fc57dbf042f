// Package config loads the client configuration from a JSON file and the environment.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Environment variables that override the config file.
const (
	EnvBaseURL         = "CVQ_BASE_URL"
	EnvDownloadBaseURL = "CVQ_DOWNLOAD_BASE_URL"
	EnvStorageDir      = "CVQ_STORAGE_DIR"
	EnvAddr            = "CVQ_ADDR"
	EnvLogLevel        = "CVQ_LOG_LEVEL"
	EnvTimeout         = "CVQ_TIMEOUT"
)

// Config holds the client configuration.
type Config struct {
	BaseURL         string   `json:"base_url" validate:"required,url"`
	DownloadBaseURL string   `json:"download_base_url" validate:"required,url"`
	StorageDir      string   `json:"storage_dir" validate:"required"`
	Addr            string   `json:"addr" validate:"required"`
	LogLevel        string   `json:"log_level" validate:"oneof=debug info warn error"`
	Timeout         Duration `json:"timeout" validate:"gt=0"`
}

// Duration is a time.Duration written as a string such as "90s" in JSON.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// DefaultConfig returns a new config with default values.
func DefaultConfig() Config {
	return Config{
		BaseURL:         "https://aicvchecker.software/api",
		DownloadBaseURL: "http://127.0.0.1:5000",
		StorageDir:      "./client-storage",
		Addr:            ":8080",
		LogLevel:        "info",
		Timeout:         Duration(5 * time.Minute),
	}
}

// Load reads path on top of the defaults, then applies environment overrides and validates the result.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, errors.Join(errors.New("failed to read config file"), err)
		default:
			if err := json.Unmarshal(data, &cfg); err != nil {
				return Config{}, errors.Join(errors.New("failed to parse config file"), err)
			}
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setFromEnv(&c.BaseURL, EnvBaseURL)
	setFromEnv(&c.DownloadBaseURL, EnvDownloadBaseURL)
	setFromEnv(&c.StorageDir, EnvStorageDir)
	setFromEnv(&c.Addr, EnvAddr)
	setFromEnv(&c.LogLevel, EnvLogLevel)
	if v := os.Getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		c.Timeout = Duration(d)
	}
	return nil
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks that the configuration has valid values.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, len(verrs))
			for i, fe := range verrs {
				fields[i] = fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag())
			}
			return fmt.Errorf("invalid config: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// SlogLevel converts LogLevel to a slog.Level.
func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
