package machine

import (
	"fmt"

	"github.com/andrebq/lockbox/internal/machineid"
	"github.com/urfave/cli/v2"
)

func Cmd() *cli.Command {
	return &cli.Command{
		Name:  "machine-id",
		Usage: "Print the fingerprint licenses issued for this host will carry",
		Action: func(ctx *cli.Context) error {
			fmt.Println(machineid.ID())
			return nil
		},
	}
}
