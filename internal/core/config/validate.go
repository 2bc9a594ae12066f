package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/hay-kot/criterio"

	"github.com/wardwatch/wardwatch/internal/core/styles"
)

// Validate performs structural validation of the configuration.
func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("server.base_url", c.Server.BaseURL, validBaseURL),
		criterio.Run("server.timeout", c.Server.Timeout, validDuration),
		criterio.Run("poll.interval", c.Poll.Interval, validDuration),
		criterio.Run("poll.initial_delay", c.Poll.InitialDelay, validDuration),
		criterio.Run("tui.theme", c.TUI.Theme, validTheme),
		c.validateInbox(),
		c.validateDatabase(),
		c.validateServe(),
	)
}

func (c *Config) validateInbox() error {
	var errs criterio.FieldErrorsBuilder
	if c.Inbox.RetentionDays < 0 {
		errs = errs.Append("inbox.retention_days", fmt.Errorf("must be >= 0"))
	}
	return errs.ToError()
}

func (c *Config) validateDatabase() error {
	var errs criterio.FieldErrorsBuilder
	if c.Database.MaxOpenConns < 0 {
		errs = errs.Append("database.max_open_conns", fmt.Errorf("must be >= 0"))
	}
	if c.Database.MaxIdleConns < 0 {
		errs = errs.Append("database.max_idle_conns", fmt.Errorf("must be >= 0"))
	}
	if c.Database.BusyTimeout < 0 {
		errs = errs.Append("database.busy_timeout", fmt.Errorf("must be >= 0"))
	}
	return errs.ToError()
}

func (c *Config) validateServe() error {
	var errs criterio.FieldErrorsBuilder
	if c.Serve.RetentionDays < 0 {
		errs = errs.Append("serve.retention_days", fmt.Errorf("must be >= 0"))
	}
	if c.Serve.PublishPerMin < 0 {
		errs = errs.Append("serve.publish_per_min", fmt.Errorf("must be >= 0"))
	}

	q := c.Serve.QuietHours
	if q.Start != "" || q.End != "" {
		if !q.Enabled() {
			errs = errs.Append("serve.quiet_hours", fmt.Errorf("start and end must both be set"))
		} else {
			if err := validClock(q.Start); err != nil {
				errs = errs.Append("serve.quiet_hours.start", err)
			}
			if err := validClock(q.End); err != nil {
				errs = errs.Append("serve.quiet_hours.end", err)
			}
		}
	}
	return errs.ToError()
}

// validBaseURL accepts an empty URL (serve-only setups) or an absolute
// http(s) URL.
func validBaseURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL is missing a host")
	}
	return nil
}

func validDuration(raw string) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	if d <= 0 {
		return fmt.Errorf("duration must be positive, got %q", raw)
	}
	return nil
}

func validTheme(name string) error {
	if name == "" {
		return nil
	}
	if _, ok := styles.GetPalette(name); !ok {
		return fmt.Errorf("unknown theme %q, valid themes: %v", name, styles.ThemeNames())
	}
	return nil
}

func validClock(raw string) error {
	if _, err := time.Parse("15:04", raw); err != nil {
		return fmt.Errorf("expected HH:MM, got %q", raw)
	}
	return nil
}
