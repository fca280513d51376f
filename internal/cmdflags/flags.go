package cmdflags

import (
	"github.com/andrebq/lockbox/authcrypt"
	"github.com/urfave/cli/v2"
)

func AccountsFile(out *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "accounts-file",
		Aliases:     []string{"a"},
		Usage:       "Path to the account store file",
		Destination: out,
		Value:       *out,
	}
}

func LicenseFile(out *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "license-file",
		Aliases:     []string{"l"},
		Usage:       "Path to the license file",
		Destination: out,
		Value:       *out,
	}
}

func KeyEnvVar(out *string) cli.Flag {
	if len(*out) == 0 {
		*out = authcrypt.KeyEnvVar
	}
	return &cli.StringFlag{
		Name:        "key-envvar-name",
		Usage:       "Name of the environment variable that holds the signing key override. The key itself should not be passed as an argument",
		Value:       *out,
		Destination: out,
	}
}
