package main

import (
	"fmt"

	"github.com/aretw0/parley/internal/cli"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts parley as an MCP Server exposing the ask and get_steps tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")
		if transport != "stdio" && transport != "sse" {
			return fmt.Errorf("unknown transport %q (use stdio or sse)", transport)
		}

		cfg, err := loadConfig(true)
		if err != nil {
			return err
		}
		// Logs go to stderr so they never corrupt JSON-RPC on stdout.
		logger, err := cli.NewLogger(cfg.Log, debugMode)
		if err != nil {
			return err
		}
		if port == 0 {
			port = cfg.Server.Port
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		logger.Info("Starting parley MCP server", "transport", transport)
		return cli.ServeMCP(ctx, cfg, logger, cli.MCPOptions{Transport: transport, Port: port})
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringP("transport", "t", "stdio", "Transport type (stdio, sse)")
	mcpCmd.Flags().IntP("port", "p", 0, "Port for SSE server (default server.port)")
}
