package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Run("missing file returns defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), "/tmp/data")
		require.NoError(t, err)
		assert.Equal(t, "/tmp/data", cfg.DataDir)
		assert.Equal(t, 30*time.Second, cfg.PollInterval())
		assert.Equal(t, 1500*time.Millisecond, cfg.PollInitialDelay())
		assert.Equal(t, "csrftoken", cfg.Server.CSRFCookie)
		assert.Equal(t, "tokyo-night", cfg.TUI.Theme)
		assert.Equal(t, 30, cfg.Inbox.RetentionDays)
	})

	t.Run("empty path returns defaults", func(t *testing.T) {
		cfg, err := Load("", "/tmp/data")
		require.NoError(t, err)
		assert.Equal(t, 10*time.Second, cfg.ServerTimeout())
	})
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  base_url: https://rounds.example.org
  csrf_token: abc123
poll:
  interval: 10s
  initial_delay: 500ms
serve:
  listen: 0.0.0.0:9000
  quiet_hours:
    start: "22:00"
    end: "07:00"
`)

	cfg, err := Load(path, "/tmp/data")
	require.NoError(t, err)
	assert.Equal(t, "https://rounds.example.org", cfg.Server.BaseURL)
	assert.Equal(t, "abc123", cfg.Server.CSRFToken)
	assert.Equal(t, 10*time.Second, cfg.PollInterval())
	assert.Equal(t, 500*time.Millisecond, cfg.PollInitialDelay())
	assert.Equal(t, "0.0.0.0:9000", cfg.Serve.Listen)
	assert.True(t, cfg.Serve.QuietHours.Enabled())

	// unset sections still pick up defaults
	assert.Equal(t, 10, cfg.Database.MaxOpenConns)
	assert.Equal(t, 7, cfg.Serve.RetentionDays)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"bad base url scheme", func(c *Config) { c.Server.BaseURL = "ftp://x.org" }, true},
		{"base url missing host", func(c *Config) { c.Server.BaseURL = "http://" }, true},
		{"bad poll interval", func(c *Config) { c.Poll.Interval = "soon" }, true},
		{"negative timeout", func(c *Config) { c.Server.Timeout = "-5s" }, true},
		{"quiet hours start only", func(c *Config) { c.Serve.QuietHours = QuietHours{Start: "22:00"} }, true},
		{"quiet hours bad clock", func(c *Config) { c.Serve.QuietHours = QuietHours{Start: "22:00", End: "25:99"} }, true},
		{"quiet hours wrap is valid", func(c *Config) { c.Serve.QuietHours = QuietHours{Start: "22:00", End: "07:00"} }, false},
		{"negative retention", func(c *Config) { c.Serve.RetentionDays = -1 }, true},
		{"negative inbox retention", func(c *Config) { c.Inbox.RetentionDays = -1 }, true},
		{"unknown theme", func(c *Config) { c.TUI.Theme = "solarized" }, true},
		{"gruvbox theme is valid", func(c *Config) { c.TUI.Theme = "gruvbox" }, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := writeConfig(t, "poll:\n  interval: nonsense\n")
	_, err := Load(path, "/tmp/data")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}
