package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/yedis-go/internal/cli/output"
	"github.com/yndnr/yedis-go/pkg/resp"
)

// ExecCommand returns the exec command.
func ExecCommand() *cli.Command {
	return &cli.Command{
		Name:      "exec",
		Aliases:   []string{"x"},
		Usage:     "Run one command on the server and print the reply",
		ArgsUsage: "COMMAND [ARG...]",
		Action:    execAction,
	}
}

func execAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("exec: missing command", 2)
	}

	client, err := dial(c)
	if err != nil {
		return err
	}
	defer client.Close()

	args := make([][]byte, c.NArg())
	for i, a := range c.Args().Slice() {
		args[i] = []byte(a)
	}
	reply, err := client.Do(args...)
	if err != nil {
		return err
	}

	if f := formatter(c); isTable(f) {
		fmt.Fprintln(c.App.Writer, reply.String())
	} else if err := f.Format(c.App.Writer, replyValue(reply)); err != nil {
		return err
	}

	if reply.Kind == resp.KindError {
		return cli.Exit("", 1)
	}
	return nil
}

func isTable(f output.Formatter) bool {
	_, ok := f.(*output.TableFormatter)
	return ok
}

// replyValue converts a reply into plain values for structured output.
func replyValue(r resp.Reply) any {
	switch r.Kind {
	case resp.KindSimpleString:
		return string(r.Str)
	case resp.KindError:
		return map[string]string{"error": string(r.Str)}
	case resp.KindInteger:
		return r.Int
	case resp.KindBulk:
		if r.Null {
			return nil
		}
		return string(r.Str)
	case resp.KindArray:
		if r.Null {
			return nil
		}
		out := make([]any, len(r.Array))
		for i, el := range r.Array {
			out[i] = replyValue(el)
		}
		return out
	default:
		return nil
	}
}
