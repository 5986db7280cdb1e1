// Command kernelctl is an operator CLI for local smoke-testing of the
// kernel: list servers/tools, call a tool, run a bundle, and tail today's
// audit log. It wires a kernel to an echo invoker — it is not a production
// transport.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/ryemyster/shaleyeah-toolkernel/audit"
	"github.com/ryemyster/shaleyeah-toolkernel/auth"
	"github.com/ryemyster/shaleyeah-toolkernel/kernel"
	"github.com/ryemyster/shaleyeah-toolkernel/registry"
	"github.com/ryemyster/shaleyeah-toolkernel/sessionmgr"
	"github.com/ryemyster/shaleyeah-toolkernel/sessionmgr/inmem"
	"github.com/ryemyster/shaleyeah-toolkernel/toolapi"
)

func main() {
	cmd := &cli.Command{
		Name:  "kernelctl",
		Usage: "Operator CLI for the tool orchestration kernel",
		Commands: []*cli.Command{
			serversCommand(),
			toolsCommand(),
			callCommand(),
			bundleCommand(),
			auditTailCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newKernel() (*kernel.Kernel, error) {
	k, err := kernel.New(kernel.Options{
		Sessions: sessionmgr.New(inmem.New()),
	})
	if err != nil {
		return nil, err
	}
	k.SetExecutorFn(echoInvoker)
	return k, nil
}

// echoInvoker is a no-op invoker for local smoke-testing: it never reaches
// a real domain worker, just echoes the call back as a successful payload.
func echoInvoker(_ context.Context, server string, args map[string]any) (toolapi.ToolResponse, error) {
	return toolapi.ToolResponse{
		Success:    true,
		Confidence: 75,
		Data: map[string]any{
			"server": server,
			"echo":   args,
		},
	}, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func serversCommand() *cli.Command {
	return &cli.Command{
		Name:  "servers",
		Usage: "List the registered domain-worker servers",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "domain", Usage: "Filter by domain"},
			&cli.StringFlag{Name: "capability", Usage: "Filter by capability substring"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			k, err := newKernel()
			if err != nil {
				return err
			}
			filter := &registry.ServerFilter{
				Domain:     c.String("domain"),
				Capability: c.String("capability"),
			}
			return printJSON(k.Registry.ListServers(filter))
		},
	}
}

func toolsCommand() *cli.Command {
	return &cli.Command{
		Name:  "tools",
		Usage: "Describe the tools exposed by a server, or every tool",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "server", Usage: "Server name to describe; omit for every tool"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			k, err := newKernel()
			if err != nil {
				return err
			}
			return printJSON(k.Registry.DescribeTools(c.String("server")))
		},
	}
}

func callCommand() *cli.Command {
	return &cli.Command{
		Name:      "call",
		Usage:     "Call a single tool through the kernel (auth + audit + execute)",
		ArgsUsage: "<tool-name>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "args", Usage: "JSON-encoded argument map"},
			&cli.StringFlag{Name: "role", Value: string(auth.RoleAnalyst), Usage: "Caller role: analyst, engineer, executive, admin"},
			&cli.StringFlag{Name: "detail", Value: "standard", Usage: "Detail level: summary, standard, full"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return fmt.Errorf("kernelctl call: expected exactly one tool name argument")
			}
			k, err := newKernel()
			if err != nil {
				return err
			}
			var args map[string]any
			if raw := c.String("args"); raw != "" {
				if err := json.Unmarshal([]byte(raw), &args); err != nil {
					return fmt.Errorf("kernelctl call: parse --args: %w", err)
				}
			}
			sess := k.CreateSession(auth.Identity{UserID: "kernelctl", Role: auth.Role(c.String("role"))}, sessionmgr.Preferences{})
			resp := k.CallTool(ctx, toolapi.ToolRequest{
				ToolName:    c.Args().First(),
				Args:        args,
				DetailLevel: parseDetailLevel(c.String("detail")),
			}, sess.ID())
			return printJSON(resp)
		},
	}
}

func bundleCommand() *cli.Command {
	return &cli.Command{
		Name:      "bundle",
		Usage:     "Run a named bundle through the kernel",
		ArgsUsage: "<bundle-name>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "args", Usage: "JSON-encoded argument map distributed to every step"},
			&cli.StringFlag{Name: "role", Value: string(auth.RoleExecutive), Usage: "Caller role: analyst, engineer, executive, admin"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return fmt.Errorf("kernelctl bundle: expected exactly one bundle name argument")
			}
			k, err := newKernel()
			if err != nil {
				return err
			}
			var args map[string]any
			if raw := c.String("args"); raw != "" {
				if err := json.Unmarshal([]byte(raw), &args); err != nil {
					return fmt.Errorf("kernelctl bundle: parse --args: %w", err)
				}
			}
			sess := k.CreateSession(auth.Identity{UserID: "kernelctl", Role: auth.Role(c.String("role"))}, sessionmgr.Preferences{})
			result, err := k.ExecuteBundle(ctx, c.Args().First(), args, sess.ID())
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
}

func auditTailCommand() *cli.Command {
	return &cli.Command{
		Name:  "audit-tail",
		Usage: "Print today's audit entries from a FileSink directory",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Required: true, Usage: "Audit log directory"},
			&cli.StringFlag{Name: "date", Usage: "UTC date (YYYY-MM-DD); defaults to today"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			k, err := kernel.New(kernel.Options{
				Sessions: sessionmgr.New(inmem.New()),
				Audit:    auditFromDir(c.String("dir")),
			})
			if err != nil {
				return err
			}
			entries, err := k.Audit.Entries(ctx, c.String("date"))
			if err != nil {
				return err
			}
			return printJSON(entries)
		},
	}
}

func parseDetailLevel(s string) registry.DetailLevel {
	return registry.DetailLevel(s)
}

func auditFromDir(dir string) *audit.Auditor {
	return audit.New(audit.NewFileSink(dir))
}
