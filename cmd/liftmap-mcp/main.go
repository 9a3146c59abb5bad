// Command liftmap-mcp serves the LiftMap MCP tools over stdio, answering from
// a running LiftMap server's REST API.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"

	lmcp "github.com/claude/liftmap/internal/mcp"
	"github.com/claude/liftmap/internal/trend"
	"github.com/claude/liftmap/internal/volume"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	baseURL := flag.String("url", "", "LiftMap server URL, e.g. http://liftmap.tailnet.ts.net (required)")
	mode := flag.String("mode", "group", "default heatmap mode: muscle, headless or group")
	trendMode := flag.String("trend-mode", "stable", "default trend mode: stable or reactive")
	flag.Parse()

	// stdout carries the protocol, so logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *baseURL == "" {
		fmt.Fprintf(os.Stderr, "Usage: liftmap-mcp -url http://host:port [-mode group] [-trend-mode stable]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	vm, err := volume.ParseMode(*mode)
	if err != nil {
		log.Error("invalid -mode", "error", err)
		os.Exit(1)
	}
	tm, err := trend.ParseMode(*trendMode)
	if err != nil {
		log.Error("invalid -trend-mode", "error", err)
		os.Exit(1)
	}
	ms := lmcp.New(lmcp.NewHTTPClient(*baseURL), Version, vm, tm, log)

	log.Info("LiftMap MCP starting", "version", Version, "url", *baseURL)
	if err := mcpserver.ServeStdio(ms); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
