// Command mcp exposes the diary as Model Context Protocol tools over stdio
// or streamable HTTP (mcp.transport). Logs go to stderr so stdout stays
// reserved for the protocol.
//
// Exit codes: 0 = clean shutdown, 1 = error.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/heartmarshall/allergycare-backend/internal/app"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default: $CONFIG_PATH or ./config.yaml)")
	transport := flag.String("transport", "", "override mcp.transport: stdio or http")
	flag.Parse()

	if *transport != "" {
		os.Setenv("MCP_TRANSPORT", *transport) //nolint:errcheck
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunMCP(ctx, *configPath); err != nil {
		slog.Error("mcp server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
