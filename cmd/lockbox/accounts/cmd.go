package accounts

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/andrebq/lockbox/accounts"
	"github.com/andrebq/lockbox/authcrypt"
	"github.com/andrebq/lockbox/envelope"
	"github.com/andrebq/lockbox/internal/cmdflags"
	"github.com/urfave/cli/v2"
)

func Cmd() *cli.Command {
	var store *accounts.Store
	accountsFile := "accounts.dat"
	keyEnvVar := ""
	return &cli.Command{
		Name:  "accounts",
		Usage: "Manage the server-side account store",
		Flags: []cli.Flag{
			cmdflags.AccountsFile(&accountsFile),
			cmdflags.KeyEnvVar(&keyEnvVar),
		},
		Before: func(ctx *cli.Context) error {
			key, err := authcrypt.KeyFromEnv(keyEnvVar, os.Getenv, os.Setenv)
			if err != nil {
				return err
			}
			store = accounts.Open(accountsFile, envelope.NewCodec(key))
			return nil
		},
		Subcommands: []*cli.Command{
			addCmd(&store),
			rmCmd(&store),
			toggleCmd(&store),
			lsCmd(&store),
			snapshotCmd(&store),
		},
	}
}

func usernameFlag(out *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "username",
		Aliases:     []string{"u", "user"},
		Usage:       "Name of the account",
		Destination: out,
		Required:    true,
	}
}

// passwordFromStdin reads one line so passwords never show up in shell
// history or process listings.
func passwordFromStdin() (string, error) {
	sc := bufio.NewScanner(os.Stdin)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", err
		}
		return "", errors.New("missing password from stdin")
	}
	password := strings.TrimSpace(sc.Text())
	if len(password) == 0 {
		return "", errors.New("missing password from stdin")
	}
	return password, nil
}

func addCmd(store **accounts.Store) *cli.Command {
	var username string
	return &cli.Command{
		Name:  "add",
		Usage: "Add a new account (password is read from stdin)",
		Flags: []cli.Flag{usernameFlag(&username)},
		Action: func(ctx *cli.Context) error {
			password, err := passwordFromStdin()
			if err != nil {
				return err
			}
			return (*store).Add(username, password)
		},
	}
}

func rmCmd(store **accounts.Store) *cli.Command {
	var username string
	return &cli.Command{
		Name:  "rm",
		Usage: "Remove an account",
		Flags: []cli.Flag{usernameFlag(&username)},
		Action: func(ctx *cli.Context) error {
			return (*store).Delete(username)
		},
	}
}

func toggleCmd(store **accounts.Store) *cli.Command {
	var username string
	return &cli.Command{
		Name:  "toggle",
		Usage: "Enable or disable an account",
		Flags: []cli.Flag{usernameFlag(&username)},
		Action: func(ctx *cli.Context) error {
			enabled, err := (*store).Toggle(username)
			if err != nil {
				return err
			}
			if enabled {
				fmt.Printf("account %v is now enabled\n", username)
			} else {
				fmt.Printf("account %v is now disabled\n", username)
			}
			return nil
		},
	}
}

func lsCmd(store **accounts.Store) *cli.Command {
	return &cli.Command{
		Name:  "ls",
		Usage: "List accounts without any credential material",
		Action: func(ctx *cli.Context) error {
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "USERNAME\tCREATED\tENABLED")
			for _, info := range (*store).List() {
				fmt.Fprintf(tw, "%v\t%v\t%v\n", info.Username, info.Created, info.Enabled)
			}
			return tw.Flush()
		},
	}
}

func snapshotCmd(store **accounts.Store) *cli.Command {
	return &cli.Command{
		Name:  "snapshot",
		Usage: "Export the store as an envelope string for out-of-band license bootstrap",
		Action: func(ctx *cli.Context) error {
			content, err := (*store).Snapshot()
			if err != nil {
				return err
			}
			fmt.Println(content)
			return nil
		},
	}
}
