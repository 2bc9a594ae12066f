package commands

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/wardwatch/wardwatch/internal/app"
)

// Flags holds global flag destinations shared by all commands.
type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	DataDir    string
}

// ErrNoServer is returned by commands that need a configured server.
var ErrNoServer = errors.New("no server configured: set server.base_url in the config file")

// RequireClient returns the API client or ErrNoServer.
func RequireClient(a *app.App) error {
	if a.Client == nil {
		return ErrNoServer
	}
	return nil
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "wardwatch", "config.yaml")
}

// DefaultDataDir returns the default data directory using XDG_DATA_HOME.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "wardwatch")
}
