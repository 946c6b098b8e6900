package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/yedis-go/internal/cli/repl"
)

func interactive(c *cli.Context) error {
	if c.NArg() > 0 {
		return cli.Exit(fmt.Sprintf("unknown command %q, use \"exec\" to run a server command", c.Args().First()), 2)
	}

	client, err := dial(c)
	if err != nil {
		return err
	}
	defer client.Close()

	history := repl.NewHistory(repl.DefaultHistoryPath())
	if err := history.Load(); err != nil {
		fmt.Fprintf(c.App.ErrWriter, "warning: load history: %v\n", err)
	}
	defer func() {
		if err := history.Save(); err != nil {
			fmt.Fprintf(c.App.ErrWriter, "warning: save history: %v\n", err)
		}
	}()

	prompt := fmt.Sprintf("%s> ", client.RemoteAddr())
	return repl.New(client, c.App.Reader, c.App.Writer, repl.WithHistory(history), repl.WithPrompt(prompt)).Run()
}
