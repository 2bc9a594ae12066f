package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/wardwatch/wardwatch/internal/app"
	"github.com/wardwatch/wardwatch/internal/server"
)

// ServeCmd runs the self-hosted notification server.
type ServeCmd struct {
	flags *Flags
	app   *app.App

	// flags
	listen string
}

// NewServeCmd creates a new serve command.
func NewServeCmd(flags *Flags, app *app.App) *ServeCmd {
	return &ServeCmd{flags: flags, app: app}
}

// Register adds the serve command to the application.
func (cmd *ServeCmd) Register(root *cli.Command) *cli.Command {
	root.Commands = append(root.Commands, &cli.Command{
		Name:      "serve",
		Usage:     "Run the notification server",
		UsageText: "wardwatch serve [--listen addr]",
		Description: `Serves the feed, status, ack, and publish endpoints the watch TUI
polls. Point clients at it with server.base_url.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "listen",
				Usage:       "listen address (overrides serve.listen)",
				Destination: &cmd.listen,
			},
		},
		Action: cmd.run,
	})
	return root
}

func (cmd *ServeCmd) run(ctx context.Context, _ *cli.Command) error {
	cfg := cmd.app.Config.Serve
	if cmd.listen != "" {
		cfg.Listen = cmd.listen
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, server.NewStore(cmd.app.DB))
	return srv.Run(ctx)
}
