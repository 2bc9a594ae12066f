package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/wardwatch/wardwatch/internal/app"
	"github.com/wardwatch/wardwatch/internal/core/inbox"
	"github.com/wardwatch/wardwatch/pkg/iojson"
)

// LsCmd lists the local notification inbox.
type LsCmd struct {
	flags *Flags
	app   *app.App

	// flags
	jsonOutput bool
	unreadOnly bool
}

// NewLsCmd creates a new ls command.
func NewLsCmd(flags *Flags, app *app.App) *LsCmd {
	return &LsCmd{flags: flags, app: app}
}

// Register adds the ls command to the application.
func (cmd *LsCmd) Register(root *cli.Command) *cli.Command {
	root.Commands = append(root.Commands, &cli.Command{
		Name:      "ls",
		Usage:     "List received notifications",
		UsageText: "wardwatch ls [--unread] [--json]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON",
				Destination: &cmd.jsonOutput,
			},
			&cli.BoolFlag{
				Name:        "unread",
				Aliases:     []string{"u"},
				Usage:       "only show unread notifications",
				Destination: &cmd.unreadOnly,
			},
		},
		Action: cmd.run,
	})
	return root
}

type lsRow struct {
	ID         int64     `json:"id"`
	Level      string    `json:"level"`
	Message    string    `json:"message"`
	ReceivedAt time.Time `json:"received_at"`
	Read       bool      `json:"read"`
}

func (cmd *LsCmd) run(ctx context.Context, _ *cli.Command) error {
	filter := inbox.FilterAll
	if cmd.unreadOnly {
		filter = inbox.FilterUnread
	}

	items, err := cmd.app.Inbox.List(ctx, filter)
	if err != nil {
		return fmt.Errorf("list inbox: %w", err)
	}

	if cmd.jsonOutput {
		rows := make([]lsRow, 0, len(items))
		for _, item := range items {
			rows = append(rows, lsRow{
				ID:         item.ID,
				Level:      string(item.Level),
				Message:    item.Message,
				ReceivedAt: item.ReceivedAt,
				Read:       item.Read(),
			})
		}
		return iojson.Write(rows)
	}

	if len(items) == 0 {
		fmt.Fprintln(os.Stderr, "No notifications")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLEVEL\tRECEIVED\tREAD\tMESSAGE")
	for _, item := range items {
		read := ""
		if item.Read() {
			read = "✓"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			item.ID,
			item.Level,
			item.ReceivedAt.Format("Jan 02 15:04"),
			read,
			item.Message,
		)
	}
	return w.Flush()
}
