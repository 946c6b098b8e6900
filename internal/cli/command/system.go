package command

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/yedis-go/internal/cli/connection"
)

// SystemCommand returns the system subcommand group.
func SystemCommand() *cli.Command {
	return &cli.Command{
		Name:    "system",
		Aliases: []string{"sys"},
		Usage:   "Query the admin HTTP server",
		Subcommands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show a status summary",
				Action: systemStatus,
			},
			{
				Name:   "health",
				Usage:  "Check server health",
				Action: systemHealth,
			},
			{
				Name:   "gc",
				Usage:  "Run storage garbage collection",
				Action: systemGC,
			},
		},
	}
}

// StatusSummary mirrors GET /admin/v1/status/summary.
type StatusSummary struct {
	Status        string    `json:"status" yaml:"status"`
	Version       string    `json:"version" yaml:"version"`
	UptimeSeconds int64     `json:"uptime_seconds" yaml:"uptime_seconds"`
	Connections   int       `json:"connections" yaml:"connections"`
	Keys          uint64    `json:"keys" yaml:"keys"`
	SizeBytes     uint64    `json:"size_bytes" yaml:"size_bytes"`
	LastGCAt      time.Time `json:"last_gc_at,omitzero" yaml:"last_gc_at,omitempty"`
}

// GCResult mirrors POST /admin/v1/gc/trigger.
type GCResult struct {
	ReclaimedBytes uint64    `json:"reclaimed_bytes" yaml:"reclaimed_bytes"`
	TriggeredAt    time.Time `json:"triggered_at" yaml:"triggered_at"`
}

func adminClient(c *cli.Context) (*connection.AdminClient, error) {
	addr := c.String("admin")
	if addr == "" {
		return nil, cli.Exit("admin address not set (use --admin or YEDIS_ADMIN)", 2)
	}
	return connection.NewAdminClient(addr), nil
}

func systemStatus(c *cli.Context) error {
	client, err := adminClient(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(contextOf(c), 30*time.Second)
	defer cancel()

	var result StatusSummary
	if err := client.Get(ctx, "/admin/v1/status/summary", &result); err != nil {
		return err
	}
	return formatter(c).Format(c.App.Writer, &result)
}

func systemHealth(c *cli.Context) error {
	client, err := adminClient(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(contextOf(c), 10*time.Second)
	defer cancel()

	var result struct {
		Status string `json:"status" yaml:"status"`
		Time   string `json:"time" yaml:"time"`
	}
	if err := client.Get(ctx, "/health", &result); err != nil {
		return cli.Exit(fmt.Sprintf("health check failed: %v", err), 1)
	}

	if f := formatter(c); !isTable(f) {
		return f.Format(c.App.Writer, result)
	}
	if result.Status != "healthy" {
		fmt.Fprintf(c.App.Writer, "Server is unhealthy: %s\n", result.Status)
		return cli.Exit("", 1)
	}
	fmt.Fprintf(c.App.Writer, "Server is healthy\n  Target: %s\n", client.BaseURL())
	return nil
}

func systemGC(c *cli.Context) error {
	client, err := adminClient(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(contextOf(c), 60*time.Second)
	defer cancel()

	var result GCResult
	if err := client.Post(ctx, "/admin/v1/gc/trigger", &result); err != nil {
		return err
	}
	return formatter(c).Format(c.App.Writer, &result)
}
