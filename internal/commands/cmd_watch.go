package commands

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/wardwatch/wardwatch/internal/app"
	"github.com/wardwatch/wardwatch/internal/poll"
	"github.com/wardwatch/wardwatch/internal/tui"
)

// WatchCmd opens the notification TUI backed by the poll loop.
type WatchCmd struct {
	flags *Flags
	app   *app.App
}

// NewWatchCmd creates a new watch command.
func NewWatchCmd(flags *Flags, app *app.App) *WatchCmd {
	return &WatchCmd{flags: flags, app: app}
}

// Register adds the watch command to the application.
func (cmd *WatchCmd) Register(root *cli.Command) *cli.Command {
	root.Commands = append(root.Commands, &cli.Command{
		Name:      "watch",
		Usage:     "Open the notification watcher TUI",
		UsageText: "wardwatch watch",
		Description: `Polls the configured server for notifications and renders them as
toasts, a blocking modal for critical items, and an unread badge.
This is also the default action when no subcommand is given.`,
		Action: cmd.Run,
	})
	return root
}

// Run starts the poller and the TUI. Exported so the root command can
// use it as the default action.
func (cmd *WatchCmd) Run(ctx context.Context, _ *cli.Command) error {
	if err := RequireClient(cmd.app); err != nil {
		return err
	}

	events := tui.NewEvents()
	poller := poll.New(cmd.app.Client, cmd.app.KV, events, poll.Options{
		Interval:     cmd.app.Config.PollInterval(),
		InitialDelay: cmd.app.Config.PollInitialDelay(),
	})
	poller.AddBadge(events)

	pollCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := poller.Run(pollCtx); err != nil && pollCtx.Err() == nil {
			log.Error().Err(err).Msg("poll loop exited")
		}
	}()

	model := tui.New(events, poller, cmd.app.Client, cmd.app.Inbox)
	program := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithReportFocus(),
	)

	_, err := program.Run()
	return err
}
