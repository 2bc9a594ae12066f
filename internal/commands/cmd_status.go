package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/wardwatch/wardwatch/internal/app"
	"github.com/wardwatch/wardwatch/pkg/iojson"
)

// StatusCmd prints the server-side unread count.
type StatusCmd struct {
	flags *Flags
	app   *app.App

	// flags
	jsonOutput bool
}

// NewStatusCmd creates a new status command.
func NewStatusCmd(flags *Flags, app *app.App) *StatusCmd {
	return &StatusCmd{flags: flags, app: app}
}

// Register adds the status command to the application.
func (cmd *StatusCmd) Register(root *cli.Command) *cli.Command {
	root.Commands = append(root.Commands, &cli.Command{
		Name:      "status",
		Usage:     "Show the unread notification count",
		UsageText: "wardwatch status [--json]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
	})
	return root
}

func (cmd *StatusCmd) run(ctx context.Context, _ *cli.Command) error {
	if err := RequireClient(cmd.app); err != nil {
		return err
	}

	status, err := cmd.app.Client.Status(ctx)
	if err != nil {
		return fmt.Errorf("fetch status: %w", err)
	}

	if cmd.jsonOutput {
		return iojson.Write(status)
	}

	fmt.Printf("%d unread\n", status.UnreadCount)
	return nil
}
