package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/docentlabs/docent"
	"github.com/docentlabs/docent/pkg/adapters/mcp"
	"github.com/docentlabs/docent/pkg/adapters/snapshot"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the docent engine as an MCP Server.
This lets AI agents drive guided tours as tools: listing the catalog,
starting a tour, stepping through it, and reading the session state.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runMCP(cmd); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
	mcpCmd.Flags().String("snapshot", "", "UI snapshot file to resolve targets against (required)")
	_ = mcpCmd.MarkFlagRequired("snapshot")
}

func runMCP(cmd *cobra.Command) error {
	transport, _ := cmd.Flags().GetString("transport")
	port, _ := cmd.Flags().GetInt("port")

	// Logs go to stderr so they cannot corrupt JSON-RPC on stdout.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	log.SetOutput(os.Stderr)

	snapshotPath, _ := cmd.Flags().GetString("snapshot")
	surface, err := snapshot.Load(snapshotPath)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	source, err := newSource(cmd, logger)
	if err != nil {
		return err
	}
	store, closeStore, err := newStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	eng, err := docent.New(surface, "",
		docent.WithSource(source),
		docent.WithRecordStore(store),
		docent.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	srv := mcp.NewServer(eng.Manager(), eng.Catalog())

	switch transport {
	case "stdio":
		slog.Info("Starting Docent MCP Server (Stdio)...")
		if err := srv.ServeStdio(); err != nil {
			return fmt.Errorf("mcp server: %w", err)
		}
	case "sse":
		slog.Info("Starting Docent MCP Server (SSE)", "port", port)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := srv.ServeSSE(ctx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("mcp server: %w", err)
		}
		slog.Info("MCP Server stopped gracefully")
	default:
		return fmt.Errorf("unknown transport %q: supported: stdio, sse", transport)
	}
	return nil
}
