package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/andrebq/lockbox/cmd/lockbox/accounts"
	"github.com/andrebq/lockbox/cmd/lockbox/audit"
	"github.com/andrebq/lockbox/cmd/lockbox/license"
	"github.com/andrebq/lockbox/cmd/lockbox/machine"
	"github.com/andrebq/lockbox/cmd/lockbox/serve"
	"github.com/andrebq/lockbox/internal/logutil"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "lockbox",
		Usage: "Account management, machine-bound licensing and online verification",
		Commands: []*cli.Command{
			serve.Cmd(),
			accounts.Cmd(),
			license.Cmd(),
			audit.Cmd(),
			machine.Cmd(),
		},
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	logger := logutil.NewRootLogger(os.Getenv("LOCKBOX_DEBUG") != "")
	err := app.RunContext(logutil.WithLogger(ctx, logger), os.Args)
	if err != nil {
		logger.Error().Err(err).Msg("Application failed")
		os.Exit(1)
	}
}
