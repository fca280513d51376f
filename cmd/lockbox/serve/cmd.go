package serve

import (
	"os"
	"time"

	"github.com/andrebq/lockbox/accounts"
	"github.com/andrebq/lockbox/accounts/api"
	"github.com/andrebq/lockbox/authcrypt"
	"github.com/andrebq/lockbox/envelope"
	"github.com/andrebq/lockbox/internal/audit"
	"github.com/andrebq/lockbox/internal/cmdflags"
	"github.com/andrebq/lockbox/internal/httpserver"
	"github.com/andrebq/lockbox/internal/throttle"
	"github.com/urfave/cli/v2"
)

func Cmd() *cli.Command {
	bindAddr := "localhost:8899"
	accountsFile := "accounts.dat"
	auditDB := ""
	keyEnvVar := ""
	maxFailures := 5
	failureWindow := time.Minute * 10
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the online verification service in front of an account store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "bind",
				Usage:       "Address to bind the verification API",
				Value:       bindAddr,
				Destination: &bindAddr,
			},
			cmdflags.AccountsFile(&accountsFile),
			cmdflags.KeyEnvVar(&keyEnvVar),
			&cli.StringFlag{
				Name:        "audit-db",
				Usage:       "Path to the sqlite audit trail (empty disables auditing)",
				Value:       auditDB,
				Destination: &auditDB,
			},
			&cli.IntFlag{
				Name:        "max-failures",
				Usage:       "Failed verifications per username before throttling kicks in (0 disables)",
				Value:       maxFailures,
				Destination: &maxFailures,
			},
			&cli.DurationFlag{
				Name:        "failure-window",
				Usage:       "How long failed verification counters are remembered",
				Value:       failureWindow,
				Destination: &failureWindow,
			},
		},
		Action: func(ctx *cli.Context) error {
			key, err := authcrypt.KeyFromEnv(keyEnvVar, os.Getenv, os.Setenv)
			if err != nil {
				return err
			}
			codec := envelope.NewCodec(key)
			store := accounts.Open(accountsFile, codec)
			var opts api.Options
			if auditDB != "" {
				trail, err := audit.Open(ctx.Context, auditDB)
				if err != nil {
					return err
				}
				defer trail.Close()
				opts.Audit = trail
			}
			if maxFailures > 0 {
				lim, err := throttle.New(maxFailures, failureWindow)
				if err != nil {
					return err
				}
				opts.Throttle = lim
			}
			handler := api.AsHandler(ctx.Context, store, codec, opts)
			return httpserver.Serve(ctx.Context, bindAddr, handler)
		},
	}
}
