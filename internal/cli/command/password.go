package command

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/yedis-go/internal/core/service"
)

// HashPasswordCommand returns the hash-password command.
func HashPasswordCommand() *cli.Command {
	return &cli.Command{
		Name:      "hash-password",
		Usage:     "Hash a password for the server's security.requirepass setting",
		ArgsUsage: "PASSWORD|-",
		Description: "Pass - to read the password from the first line of standard input,\n" +
			"which keeps it out of the shell history.",
		Action: hashPasswordAction,
	}
}

func hashPasswordAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("hash-password: expected exactly one argument", 2)
	}

	password := c.Args().First()
	if password == "-" {
		line, err := bufio.NewReader(c.App.Reader).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if password == "" {
		return cli.Exit("hash-password: empty password", 2)
	}

	hash, err := service.HashPassword(password)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, hash)
	return nil
}
