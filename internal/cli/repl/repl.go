package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/yndnr/yedis-go/pkg/resp"
)

// DefaultPrompt is printed before each line.
const DefaultPrompt = "yedis> "

// Doer sends one command and returns its reply.
type Doer interface {
	Do(args ...[]byte) (resp.Reply, error)
}

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	client    Doer
	input     io.Reader
	output    io.Writer
	prompt    string
	completer *Completer
	history   *History
}

// Option configures a REPL.
type Option func(*REPL)

// WithHistory records entered lines in h.
func WithHistory(h *History) Option {
	return func(r *REPL) {
		r.history = h
	}
}

// WithPrompt overrides DefaultPrompt.
func WithPrompt(prompt string) Option {
	return func(r *REPL) {
		r.prompt = prompt
	}
}

// New creates a REPL that reads from in and writes to out.
func New(client Doer, in io.Reader, out io.Writer, opts ...Option) *REPL {
	r := &REPL{
		client:    client,
		input:     in,
		output:    out,
		prompt:    DefaultPrompt,
		completer: NewCompleter(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run reads lines until EOF, exit or quit. Command errors are printed and
// the loop continues; only connection errors end it.
func (r *REPL) Run() error {
	reader := bufio.NewReader(r.input)

	for {
		fmt.Fprint(r.output, r.prompt)

		line, err := reader.ReadString('\n')
		if err == io.EOF && line == "" {
			fmt.Fprintln(r.output)
			return nil
		}
		if err != nil && err != io.EOF {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if r.history != nil {
			r.history.Add(line)
		}

		switch strings.ToLower(line) {
		case "exit", "quit":
			return nil
		}

		if err := r.execute(line); err != nil {
			return err
		}
	}
}

func (r *REPL) execute(line string) error {
	args, err := resp.SplitArgs([]byte(line))
	if err != nil {
		fmt.Fprintln(r.output, "Invalid argument(s)")
		return nil
	}

	if strings.EqualFold(string(args[0]), "help") {
		prefix := ""
		if len(args) > 1 {
			prefix = strings.ToLower(string(args[1]))
		}
		r.help(prefix)
		return nil
	}

	reply, err := r.client.Do(args...)
	if err != nil {
		return fmt.Errorf("connection lost: %w", err)
	}
	fmt.Fprintln(r.output, reply.String())
	return nil
}

func (r *REPL) help(prefix string) {
	matches := r.completer.Complete(prefix)
	if len(matches) == 0 {
		fmt.Fprintf(r.output, "no command matches %q\n", prefix)
		return
	}
	for _, name := range matches {
		fmt.Fprintln(r.output, strings.ToUpper(name))
	}
}
