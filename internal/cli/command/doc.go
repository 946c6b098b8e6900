// Package command defines the yedis-cli commands on top of urfave/cli/v2.
//
// Without a subcommand the CLI opens an interactive session. Subcommands
// run a single command (exec), show how a command is translated without a
// server (explain), load-test a server (bench), hash a password for the
// server configuration (hash-password) and query the admin HTTP server
// (system).
package command
