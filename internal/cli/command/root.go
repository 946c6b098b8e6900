package command

import (
	"context"
	"fmt"
	"net"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/yedis-go/internal/cli/config"
	"github.com/yndnr/yedis-go/internal/cli/connection"
	"github.com/yndnr/yedis-go/internal/cli/output"
	"github.com/yndnr/yedis-go/internal/infra/buildinfo"
	"github.com/yndnr/yedis-go/internal/infra/tlsroots"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "yedis-cli",
		Usage:   "Command-line client for yedis",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			ExecCommand(),
			ExplainCommand(),
			BenchCommand(),
			HashPasswordCommand(),
			SystemCommand(),
		},
		Before: applyConfig,
		Action: interactive,
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "server address (host:port)",
			EnvVars: []string{"YEDIS_SERVER"},
			Value:   "127.0.0.1:6379",
		},
		&cli.StringFlag{
			Name:    "password",
			Aliases: []string{"a"},
			Usage:   "password sent with AUTH after connecting",
			EnvVars: []string{"YEDIS_PASSWORD"},
		},
		&cli.BoolFlag{
			Name:  "tls",
			Usage: "connect over TLS",
		},
		&cli.StringFlag{
			Name:  "tls-ca",
			Usage: "PEM file of CA certificates to trust (implies --tls)",
		},
		&cli.StringFlag{
			Name:  "server-name",
			Usage: "TLS server name (default: host of --server)",
		},
		&cli.StringFlag{
			Name:    "admin",
			Usage:   "admin HTTP server address, used by the system commands",
			EnvVars: []string{"YEDIS_ADMIN"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format: table, json, yaml",
			Value:   "table",
		},
		&cli.StringFlag{
			Name:  "config",
			Usage: "CLI configuration file",
			Value: config.DefaultConfigPath(),
		},
	}
}

// applyConfig fills flags that were not given on the command line or in
// the environment from the active profile of the CLI configuration.
func applyConfig(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	profile := cfg.Active()

	defaults := map[string]string{
		"server":      profile.Server,
		"password":    profile.Password,
		"tls-ca":      profile.TLSCA,
		"server-name": profile.ServerName,
		"admin":       profile.Admin,
		"output":      cfg.DefaultOutput,
	}
	if profile.TLS {
		defaults["tls"] = "true"
	}
	for name, value := range defaults {
		if value == "" || c.IsSet(name) {
			continue
		}
		if err := c.Set(name, value); err != nil {
			return fmt.Errorf("apply %s from %s: %w", name, c.String("config"), err)
		}
	}

	if _, err := output.ParseFormat(c.String("output")); err != nil {
		return cli.Exit(err.Error(), 2)
	}
	return nil
}

// dialOptions builds connection options from the global flags.
func dialOptions(c *cli.Context) (connection.Options, error) {
	opts := connection.Options{
		Addr:     c.String("server"),
		Password: c.String("password"),
	}
	if !c.Bool("tls") && c.String("tls-ca") == "" {
		return opts, nil
	}

	serverName := c.String("server-name")
	if serverName == "" {
		host, _, err := net.SplitHostPort(opts.Addr)
		if err != nil {
			return opts, fmt.Errorf("invalid server address %q: %w", opts.Addr, err)
		}
		serverName = host
	}

	roots := tlsroots.NewPool(true)
	if path := c.String("tls-ca"); path != "" {
		pool, err := tlsroots.LoadPool(path)
		if err != nil {
			return opts, err
		}
		roots = pool
	}
	opts.TLSConfig = roots.ClientTLSConfig(serverName)
	return opts, nil
}

func dial(c *cli.Context) (*connection.Client, error) {
	opts, err := dialOptions(c)
	if err != nil {
		return nil, err
	}
	return connection.Dial(contextOf(c), opts)
}

func formatter(c *cli.Context) output.Formatter {
	format, _ := output.ParseFormat(c.String("output"))
	return output.NewFormatter(format)
}

func contextOf(c *cli.Context) context.Context {
	if c.Context != nil {
		return c.Context
	}
	return context.Background()
}
