package license

import (
	"fmt"
	"io/ioutil"
	"os"
	"strings"

	"github.com/andrebq/lockbox/accounts"
	"github.com/andrebq/lockbox/authcrypt"
	"github.com/andrebq/lockbox/envelope"
	"github.com/andrebq/lockbox/internal/cmdflags"
	"github.com/andrebq/lockbox/internal/machineid"
	"github.com/andrebq/lockbox/license"
	"github.com/urfave/cli/v2"
)

func Cmd() *cli.Command {
	var codec *envelope.Codec
	keyEnvVar := ""
	return &cli.Command{
		Name:  "license",
		Usage: "Issue, install and verify offline licenses",
		Flags: []cli.Flag{
			cmdflags.KeyEnvVar(&keyEnvVar),
		},
		Before: func(ctx *cli.Context) error {
			key, err := authcrypt.KeyFromEnv(keyEnvVar, os.Getenv, os.Setenv)
			if err != nil {
				return err
			}
			codec = envelope.NewCodec(key)
			return nil
		},
		Subcommands: []*cli.Command{
			issueCmd(&codec),
			installCmd(&codec),
			verifyCmd(&codec),
			showCmd(&codec),
		},
	}
}

func credentialFlags(username, password *string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "username",
			Aliases:     []string{"u", "user"},
			Usage:       "Name of the account",
			Destination: username,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "password",
			Aliases:     []string{"p"},
			Usage:       "Password (prefer piping via stdin with --password -)",
			Destination: password,
			Required:    true,
		},
	}
}

func resolvePassword(password string) (string, error) {
	if password != "-" {
		return password, nil
	}
	buf, err := ioutil.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("unable to read password from stdin, cause %w", err)
	}
	return strings.TrimSpace(string(buf)), nil
}

func issueCmd(codec **envelope.Codec) *cli.Command {
	var username, password, machineID string
	accountsFile := "accounts.dat"
	return &cli.Command{
		Name:  "issue",
		Usage: "Verify credentials against the account store and print a license envelope",
		Flags: append(credentialFlags(&username, &password),
			cmdflags.AccountsFile(&accountsFile),
			&cli.StringFlag{
				Name:        "machine-id",
				Usage:       "Machine fingerprint to embed (defaults to this host)",
				Destination: &machineID,
			},
		),
		Action: func(ctx *cli.Context) error {
			password, err := resolvePassword(password)
			if err != nil {
				return err
			}
			if machineID == "" {
				machineID = machineid.ID()
			}
			store := accounts.Open(accountsFile, *codec)
			content, err := store.GenerateLicense(username, password, machineID)
			if err != nil {
				return err
			}
			fmt.Println(content)
			return nil
		},
	}
}

func installCmd(codec **envelope.Codec) *cli.Command {
	licenseFile := "license.dat"
	var fromFile string
	return &cli.Command{
		Name:  "install",
		Usage: "Write a license envelope into the license file, backing up any previous one",
		Flags: []cli.Flag{
			cmdflags.LicenseFile(&licenseFile),
			&cli.StringFlag{
				Name:        "from",
				Usage:       "File holding the license envelope (- for stdin)",
				Value:       "-",
				Destination: &fromFile,
			},
		},
		Action: func(ctx *cli.Context) error {
			var buf []byte
			var err error
			if fromFile == "-" {
				buf, err = ioutil.ReadAll(os.Stdin)
			} else {
				buf, err = ioutil.ReadFile(fromFile)
			}
			if err != nil {
				return fmt.Errorf("unable to read license envelope, cause %w", err)
			}
			holder := license.Open(licenseFile, *codec)
			if err := holder.Save(strings.TrimSpace(string(buf)), true); err != nil {
				return err
			}
			if !holder.Load() {
				return fmt.Errorf("installed file is not a valid license envelope")
			}
			fmt.Printf("license for %v installed\n", holder.Username())
			return nil
		},
	}
}

func verifyCmd(codec **envelope.Codec) *cli.Command {
	var username, password string
	licenseFile := "license.dat"
	return &cli.Command{
		Name:  "verify",
		Usage: "Check credentials against the local license file, no network involved",
		Flags: append(credentialFlags(&username, &password),
			cmdflags.LicenseFile(&licenseFile),
		),
		Action: func(ctx *cli.Context) error {
			password, err := resolvePassword(password)
			if err != nil {
				return err
			}
			holder := license.Open(licenseFile, *codec)
			if err := holder.VerifyOffline(username, password); err != nil {
				return err
			}
			fmt.Println("verification successful")
			return nil
		},
	}
}

func showCmd(codec **envelope.Codec) *cli.Command {
	licenseFile := "license.dat"
	return &cli.Command{
		Name:  "show",
		Usage: "Print the current license metadata",
		Flags: []cli.Flag{
			cmdflags.LicenseFile(&licenseFile),
		},
		Action: func(ctx *cli.Context) error {
			holder := license.Open(licenseFile, *codec)
			lic := holder.Current()
			if lic == nil {
				return license.ErrNotLicensed
			}
			fmt.Printf("username:   %v\n", lic.Username)
			fmt.Printf("issued:     %v\n", lic.Issued)
			fmt.Printf("machine id: %v (this host: %v)\n", lic.MachineID, machineid.ID())
			return nil
		},
	}
}
