package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/wardwatch/wardwatch/internal/app"
)

// ConfigCmd holds configuration management subcommands.
type ConfigCmd struct {
	flags *Flags
	app   *app.App
}

// NewConfigCmd creates a new config command.
func NewConfigCmd(flags *Flags, app *app.App) *ConfigCmd {
	return &ConfigCmd{flags: flags, app: app}
}

// Register adds the config command to the application.
func (cmd *ConfigCmd) Register(root *cli.Command) *cli.Command {
	root.Commands = append(root.Commands, &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Commands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "Validate the configuration file",
				UsageText: "wardwatch config validate",
				Action:    cmd.runValidate,
			},
		},
	})
	return root
}

func (cmd *ConfigCmd) runValidate(_ context.Context, _ *cli.Command) error {
	// Load already rejects invalid configs in the Before hook, so a
	// loaded config re-validating is the success path.
	if err := cmd.app.Config.Validate(); err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}
	fmt.Printf("configuration valid (%s)\n", cmd.flags.ConfigPath)
	return nil
}
