package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/wardwatch/wardwatch/internal/app"
	"github.com/wardwatch/wardwatch/internal/client"
	"github.com/wardwatch/wardwatch/internal/commands"
	"github.com/wardwatch/wardwatch/internal/core/config"
	"github.com/wardwatch/wardwatch/internal/core/styles"
	"github.com/wardwatch/wardwatch/internal/data/db"
	"github.com/wardwatch/wardwatch/internal/data/stores"
	"github.com/wardwatch/wardwatch/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, build() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	// When installed via `go install module@version`, ldflags aren't set
	// so version remains "dev". Fall back to runtime/debug.BuildInfo which
	// Go populates automatically with the module version and VCS metadata.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	var (
		logCloser func()
		wwApp     = &app.App{}
		database  *db.DB
		maintStop context.CancelFunc
	)

	flags := &commands.Flags{}

	root := &cli.Command{
		Name:      "wardwatch",
		Usage:     "Terminal notification watcher for a patient-management server",
		UsageText: "wardwatch [global options] command [command options]",
		Description: `Wardwatch polls a patient-management server's notification feed and
renders toasts, a blocking modal for critical notifications, and an
unread badge in the terminal.

Run 'wardwatch' with no arguments to open the watcher TUI.
Run 'wardwatch serve' to self-host the notification server.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("WARDWATCH_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/wardwatch.log)",
				Sources:     cli.EnvVars("WARDWATCH_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("WARDWATCH_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("WARDWATCH_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			// Always log to a file; the TUI owns the terminal.
			logFile := flags.LogFile
			if logFile == "" {
				logFile = filepath.Join(flags.DataDir, "wardwatch.log")
			}

			logger, closer, err := logutils.New(flags.LogLevel, logFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}

			// Apply configured theme (validation ensures the name is valid)
			palette, _ := styles.GetPalette(cfg.TUI.Theme)
			styles.SetTheme(palette)

			dbOpts := db.OpenOptions{
				MaxOpenConns: cfg.Database.MaxOpenConns,
				MaxIdleConns: cfg.Database.MaxIdleConns,
				BusyTimeout:  cfg.Database.BusyTimeout,
			}
			database, err = db.Open(cfg.DataDir, dbOpts)
			if err != nil {
				return ctx, fmt.Errorf("open database: %w", err)
			}

			kvStore := stores.NewKVStore(database)
			inboxStore := stores.NewInboxStore(database)

			// Background housekeeping: expired KV entries and read inbox
			// items past the retention window.
			maintCtx, cancel := context.WithCancel(context.Background())
			maintStop = cancel
			go stores.RunMaintenance(maintCtx, kvStore, inboxStore, 5*time.Minute, cfg.Inbox.RetentionDays)

			var apiClient *client.Client
			if cfg.Server.BaseURL != "" {
				apiClient, err = client.New(cfg.Server, cfg.ServerTimeout())
				if err != nil {
					return ctx, fmt.Errorf("create api client: %w", err)
				}
			}

			*wwApp = *app.New(cfg, database, kvStore, inboxStore, apiClient)
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if maintStop != nil {
				maintStop()
			}
			if database != nil {
				if err := database.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close database")
					return err
				}
			}
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	watchCmd := commands.NewWatchCmd(flags, wwApp)

	root = watchCmd.Register(root)
	root = commands.NewLsCmd(flags, wwApp).Register(root)
	root = commands.NewAckCmd(flags, wwApp).Register(root)
	root = commands.NewStatusCmd(flags, wwApp).Register(root)
	root = commands.NewSendCmd(flags, wwApp).Register(root)
	root = commands.NewServeCmd(flags, wwApp).Register(root)
	root = commands.NewConfigCmd(flags, wwApp).Register(root)

	// The watcher TUI is the default action when no subcommand is given.
	root.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() > 0 {
			return fmt.Errorf("unknown command %q. Run 'wardwatch --help' for usage", c.Args().First())
		}
		return watchCmd.Run(ctx, c)
	}

	exitCode := 0
	if runErr := root.Run(ctx, os.Args); runErr != nil {
		fmt.Println()
		fmt.Println(runErr.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
