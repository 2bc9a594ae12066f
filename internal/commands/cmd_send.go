package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wardwatch/wardwatch/internal/app"
	"github.com/wardwatch/wardwatch/internal/client"
)

// SendCmd publishes a notification to the server.
type SendCmd struct {
	flags *Flags
	app   *app.App

	// flags
	level string
	kind  string
}

// NewSendCmd creates a new send command.
func NewSendCmd(flags *Flags, app *app.App) *SendCmd {
	return &SendCmd{flags: flags, app: app}
}

// Register adds the send command to the application.
func (cmd *SendCmd) Register(root *cli.Command) *cli.Command {
	root.Commands = append(root.Commands, &cli.Command{
		Name:      "send",
		Usage:     "Publish a notification",
		UsageText: "wardwatch send [--level info|warning|critical] <message>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "level",
				Aliases:     []string{"l"},
				Usage:       "severity level (info, warning, critical)",
				Value:       "info",
				Destination: &cmd.level,
			},
			&cli.StringFlag{
				Name:        "kind",
				Usage:       "notification kind tag",
				Destination: &cmd.kind,
			},
		},
		Action: cmd.run,
	})
	return root
}

func (cmd *SendCmd) run(ctx context.Context, c *cli.Command) error {
	message := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if message == "" {
		return fmt.Errorf("a message is required")
	}
	if err := RequireClient(cmd.app); err != nil {
		return err
	}

	id, err := cmd.app.Client.Publish(ctx, client.PublishRequest{
		Level:   cmd.level,
		Kind:    cmd.kind,
		Message: message,
	})
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	fmt.Printf("published notification %d\n", id)
	return nil
}
