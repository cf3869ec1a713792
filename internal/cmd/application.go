package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"safespace/internal/cmd/flags"
	"safespace/internal/config"
	"safespace/pkg/clicfg"
	"safespace/pkg/spaceapi"
)

const VERSION = "0.1.0"

const shutdownTimeout = 10 * time.Second

var cmd = &cli.Command{
	Name:    "safespace",
	Usage:   "SafeSpace is an anonymous-friendly community feed in your terminal",
	Version: VERSION,
	Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
		if err := initLogger(c.String(flags.LogLevel.Name)); err != nil {
			return ctx, err
		}
		return ctx, nil
	},
	Flags: flags.Global,
	Commands: []*cli.Command{
		feedCmd,
		showCmd,
		postCmd,
		likeCmd,
		bookmarkCmd,
		commentCmd,
		editCmd,
		deleteCmd,
		notificationsCmd,
		openNotificationCmd,
		watchCmd,
		loginCmd,
		registerCmd,
		logoutCmd,
		whoamiCmd,
		avatarCmd,
	},
}

func Run() {
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, errorMessage(err))
		os.Exit(1)
	}
}

func errorMessage(err error) string {
	var apiErr *spaceapi.Error
	if errors.As(err, &apiErr) {
		return spaceapi.UserMessage(apiErr)
	}
	return err.Error()
}

// run parses the configuration, wires the components, runs action until it
// returns or a signal arrives, then shuts everything down.
func run(ctx context.Context, c *cli.Command, action func(ctx context.Context, a *app) error) error {
	cfg := config.Config{}
	if err := clicfg.ParseFlags(c, &cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, slog.Default(), &cfg)
	if err != nil {
		return err
	}
	defer a.shutdown(ctx)

	return action(ctx, a)
}
