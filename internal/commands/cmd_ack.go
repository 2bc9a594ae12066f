package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/wardwatch/wardwatch/internal/app"
)

// AckCmd acknowledges notifications by id.
type AckCmd struct {
	flags *Flags
	app   *app.App

	// flags
	markRead bool
}

// NewAckCmd creates a new ack command.
func NewAckCmd(flags *Flags, app *app.App) *AckCmd {
	return &AckCmd{flags: flags, app: app}
}

// Register adds the ack command to the application.
func (cmd *AckCmd) Register(root *cli.Command) *cli.Command {
	root.Commands = append(root.Commands, &cli.Command{
		Name:        "ack",
		Usage:       "Acknowledge notifications on the server",
		UsageText:   "wardwatch ack [--read] <id>...",
		Description: `Acknowledged notifications disappear from every client's feed.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "read",
				Usage:       "also mark the notification read locally",
				Destination: &cmd.markRead,
			},
		},
		Action: cmd.run,
	})
	return root
}

func (cmd *AckCmd) run(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() == 0 {
		return fmt.Errorf("at least one notification id is required")
	}
	if err := RequireClient(cmd.app); err != nil {
		return err
	}

	for _, arg := range c.Args().Slice() {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("invalid notification id %q", arg)
		}

		if err := cmd.app.Client.Ack(ctx, id); err != nil {
			return fmt.Errorf("ack %d: %w", id, err)
		}
		if cmd.markRead {
			if err := cmd.app.Inbox.MarkRead(ctx, id); err != nil {
				return fmt.Errorf("mark read %d: %w", id, err)
			}
		}
		fmt.Printf("acknowledged %d\n", id)
	}
	return nil
}
