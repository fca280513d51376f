package audit

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/andrebq/lockbox/internal/audit"
	"github.com/urfave/cli/v2"
)

func Cmd() *cli.Command {
	auditDB := "audit.db"
	entries := 50
	return &cli.Command{
		Name:  "audit",
		Usage: "Inspect the verification audit trail",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "audit-db",
				Usage:       "Path to the sqlite audit trail",
				Value:       auditDB,
				Destination: &auditDB,
			},
			&cli.IntFlag{
				Name:        "entries",
				Aliases:     []string{"n"},
				Usage:       "How many entries to print, newest first",
				Value:       entries,
				Destination: &entries,
			},
		},
		Action: func(ctx *cli.Context) error {
			trail, err := audit.Open(ctx.Context, auditDB)
			if err != nil {
				return err
			}
			defer trail.Close()
			tail, err := trail.Tail(ctx.Context, entries)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "WHEN\tKIND\tUSERNAME\tOK\tDETAIL")
			for _, e := range tail {
				fmt.Fprintf(tw, "%v\t%v\t%v\t%v\t%v\n", e.When, e.Kind, e.Username, e.OK, e.Detail)
			}
			return tw.Flush()
		},
	}
}
