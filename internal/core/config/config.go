// Package config handles configuration loading and validation for wardwatch.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Poll     PollConfig     `yaml:"poll"`
	TUI      TUIConfig      `yaml:"tui"`
	Inbox    InboxConfig    `yaml:"inbox"`
	Database DatabaseConfig `yaml:"database"`
	Serve    ServeConfig    `yaml:"serve"`
	DataDir  string         `yaml:"-"` // set by caller, not from config file
}

// ServerConfig describes the upstream notification server the client talks to.
type ServerConfig struct {
	BaseURL    string `yaml:"base_url"`
	CSRFCookie string `yaml:"csrf_cookie"` // cookie name carrying the CSRF token
	CSRFToken  string `yaml:"csrf_token"`  // pre-seeded token value, optional
	Timeout    string `yaml:"timeout"`
}

// PollConfig controls the notification poll loop.
type PollConfig struct {
	Interval     string `yaml:"interval"`      // time between feed polls
	InitialDelay string `yaml:"initial_delay"` // delay before the first poll
}

// TUIConfig holds TUI-related configuration.
type TUIConfig struct {
	Theme string `yaml:"theme"`
}

// InboxConfig tunes the local notification mirror.
type InboxConfig struct {
	RetentionDays int `yaml:"retention_days"` // read items older than this are pruned
}

// DatabaseConfig holds local SQLite tuning options.
type DatabaseConfig struct {
	MaxOpenConns int `yaml:"max_open_conns"`
	MaxIdleConns int `yaml:"max_idle_conns"`
	BusyTimeout  int `yaml:"busy_timeout"` // milliseconds
}

// ServeConfig configures the self-hosted notification server.
type ServeConfig struct {
	Listen         string     `yaml:"listen"`
	QuietHours     QuietHours `yaml:"quiet_hours"`
	RetentionDays  int        `yaml:"retention_days"`   // acked items older than this are pruned
	PublishPerMin  int        `yaml:"publish_per_min"`  // rate limit for the publish endpoint
	CSRFCookie     string     `yaml:"csrf_cookie"`
	InsecureNoCSRF bool       `yaml:"insecure_no_csrf"` // disable CSRF checks, tests only
}

// QuietHours defers notification visibility inside a daily window.
// Both values are "HH:MM" in the server's local time; leaving either
// empty disables the feature. Windows may wrap midnight (22:00-07:00).
type QuietHours struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// Enabled reports whether a quiet-hours window is configured.
func (q QuietHours) Enabled() bool {
	return q.Start != "" && q.End != ""
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			CSRFCookie: "csrftoken",
			Timeout:    "10s",
		},
		Poll: PollConfig{
			Interval:     "30s",
			InitialDelay: "1500ms",
		},
		TUI: TUIConfig{
			Theme: "tokyo-night",
		},
		Inbox: InboxConfig{
			RetentionDays: 30,
		},
		Database: DatabaseConfig{
			MaxOpenConns: 10,
			MaxIdleConns: 5,
			BusyTimeout:  5000,
		},
		Serve: ServeConfig{
			Listen:        "127.0.0.1:8740",
			RetentionDays: 7,
			PublishPerMin: 60,
			CSRFCookie:    "csrftoken",
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Server.CSRFCookie == "" {
		c.Server.CSRFCookie = defaults.Server.CSRFCookie
	}
	if c.Server.Timeout == "" {
		c.Server.Timeout = defaults.Server.Timeout
	}
	if c.Poll.Interval == "" {
		c.Poll.Interval = defaults.Poll.Interval
	}
	if c.Poll.InitialDelay == "" {
		c.Poll.InitialDelay = defaults.Poll.InitialDelay
	}
	if c.TUI.Theme == "" {
		c.TUI.Theme = defaults.TUI.Theme
	}
	if c.Inbox.RetentionDays == 0 {
		c.Inbox.RetentionDays = defaults.Inbox.RetentionDays
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = defaults.Database.MaxOpenConns
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = defaults.Database.MaxIdleConns
	}
	if c.Database.BusyTimeout == 0 {
		c.Database.BusyTimeout = defaults.Database.BusyTimeout
	}
	if c.Serve.Listen == "" {
		c.Serve.Listen = defaults.Serve.Listen
	}
	if c.Serve.RetentionDays == 0 {
		c.Serve.RetentionDays = defaults.Serve.RetentionDays
	}
	if c.Serve.PublishPerMin == 0 {
		c.Serve.PublishPerMin = defaults.Serve.PublishPerMin
	}
	if c.Serve.CSRFCookie == "" {
		c.Serve.CSRFCookie = defaults.Serve.CSRFCookie
	}
}

// PollInterval returns the parsed poll interval.
func (c *Config) PollInterval() time.Duration {
	return durationOr(c.Poll.Interval, 30*time.Second)
}

// PollInitialDelay returns the parsed delay before the first poll.
func (c *Config) PollInitialDelay() time.Duration {
	return durationOr(c.Poll.InitialDelay, 1500*time.Millisecond)
}

// ServerTimeout returns the parsed HTTP request timeout.
func (c *Config) ServerTimeout() time.Duration {
	return durationOr(c.Server.Timeout, 10*time.Second)
}

// durationOr parses a duration string, falling back to def. Validate
// rejects unparseable values up front, so the fallback only covers
// configs that bypassed Load.
func durationOr(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
