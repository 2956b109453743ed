package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds process-level settings. Business flags (auto-approve limits and
// the like) live in the settings table instead.
type Config struct {
	Port            string `yaml:"port"`
	DBPath          string `yaml:"db_path"`
	BaseURL         string `yaml:"base_url"`
	LogLevel        string `yaml:"log_level"`
	LogFormat       string `yaml:"log_format"`
	PostmarkToken   string `yaml:"postmark_token"`
	FromEmail       string `yaml:"from_email"`
	SyncConcurrency int    `yaml:"sync_concurrency"`
	SessionTTL      string `yaml:"session_ttl"`
}

var (
	ErrPortEmpty      = errors.New("port is empty")
	ErrDBPathEmpty    = errors.New("db_path is empty")
	ErrBadConcurrency = errors.New("sync_concurrency must be positive")
)

func Default() *Config {
	return &Config{
		Port:            "8080",
		DBPath:          "greenpoints.db",
		LogLevel:        "info",
		LogFormat:       "text",
		SyncConcurrency: 4,
		SessionTTL:      "720h",
	}
}

// Load reads defaults, then the YAML file at path (if present), then
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()

	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:" + cfg.Port
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("GREENPOINTS_PORT"); v != "" {
		c.Port = v
	}
	if v := os.Getenv("GREENPOINTS_DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("GREENPOINTS_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("GREENPOINTS_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("GREENPOINTS_LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("GREENPOINTS_POSTMARK_TOKEN"); v != "" {
		c.PostmarkToken = v
	}
	if v := os.Getenv("GREENPOINTS_FROM_EMAIL"); v != "" {
		c.FromEmail = v
	}
	if v := os.Getenv("GREENPOINTS_SYNC_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.SyncConcurrency = n
		}
	}
	if v := os.Getenv("GREENPOINTS_SESSION_TTL"); v != "" {
		c.SessionTTL = v
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, ErrPortEmpty)
	}
	if c.DBPath == "" {
		errs = append(errs, ErrDBPathEmpty)
	}
	if c.SyncConcurrency <= 0 {
		errs = append(errs, ErrBadConcurrency)
	}
	if _, err := time.ParseDuration(c.SessionTTL); err != nil {
		errs = append(errs, fmt.Errorf("session_ttl: %w", err))
	}
	return errors.Join(errs...)
}

// SessionDuration returns the parsed session TTL. Validate guarantees it parses.
func (c *Config) SessionDuration() time.Duration {
	d, err := time.ParseDuration(c.SessionTTL)
	if err != nil {
		return 30 * 24 * time.Hour
	}
	return d
}
