package repl

import (
	"slices"
	"strings"

	"github.com/yndnr/yedis-go/internal/core/translate"
)

// connection-level commands answered by the server itself, plus the REPL's
// own commands.
var extraCommands = []string{"auth", "command", "echo", "ping", "quit", "exit", "help"}

// Completer provides command completion for the REPL.
type Completer struct {
	commands []string
}

// NewCompleter creates a Completer over every supported command.
func NewCompleter() *Completer {
	cmds := make([]string, 0, 64)
	for _, c := range translate.Commands() {
		cmds = append(cmds, c.Name)
	}
	for _, name := range extraCommands {
		if !slices.Contains(cmds, name) {
			cmds = append(cmds, name)
		}
	}
	slices.Sort(cmds)
	return &Completer{commands: cmds}
}

// Complete returns the lowercase command names starting with prefix,
// ignoring case.
func (c *Completer) Complete(prefix string) []string {
	prefix = strings.ToLower(prefix)
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}
