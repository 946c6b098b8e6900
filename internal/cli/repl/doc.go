// Package repl implements the interactive mode of yedis-cli.
//
// Lines are split with redis-cli quoting rules, sent to the server and the
// reply printed the way redis-cli prints it. "help [prefix]" lists the
// known commands, "exit" and "quit" leave.
package repl
