package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PapyGame/PapyrusWebBackend-sub011/internal/cli"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/adapters/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the engine as an MCP Server, so that AI agents can open sessions on models
and edit diagrams through tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		logger, err := loggerFor(cmd)
		if err != nil {
			return err
		}
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		engine, closeStore, err := cli.CreateEngine(engineOptions(cmd), logger)
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, closeStore()) }()

		kind := engine.Kind()
		srv := mcp.NewServer(engine, kind.Metamodel, kind.Description, mcp.WithLogger(logger))

		switch transport {
		case "stdio":
			logger.Info("Starting Papyrus MCP Server (Stdio)...")
			return srv.ServeStdio()
		case "sse":
			logger.Info("Starting Papyrus MCP Server (SSE)", "port", port)
			ctx := cli.NewSignalContext(cmd.Context())
			defer ctx.Cancel()
			if err := srv.ServeSSE(ctx, port); err != nil {
				return err
			}
			logger.Info("MCP Server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
	mcpCmd.Flags().String("redis", "", "Redis address for shared sessions (host:port)")
	mcpCmd.Flags().String("sqlite", "", "SQLite file for persistent sessions")
	mcpCmd.Flags().String("encryption-key", "", "Hex encoded AES-256 key encrypting stored sessions")
}
