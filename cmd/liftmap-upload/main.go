package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/claude/liftmap/internal/importer"
	"github.com/claude/liftmap/internal/importstate"
	"github.com/claude/liftmap/internal/upload"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "LiftMap server URL (e.g. https://liftmap.tail1234.ts.net)")
	exportPath := flag.String("path", "", "directory of Alpha Progression CSV exports")
	apiKey := flag.String("api-key", os.Getenv("LIFTMAP_AUTH_API_KEY"), "server API key (default $LIFTMAP_AUTH_API_KEY)")
	dryRun := flag.Bool("dry-run", false, "parse exports but don't send them to the server")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("liftmap-upload", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *exportPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: liftmap-upload -server <URL> -path <exports dir> [-api-key KEY] [-dry-run]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *serverURL == "" && !*dryRun {
		fmt.Fprintf(os.Stderr, "Error: -server is required (or use -dry-run)\n")
		os.Exit(1)
	}

	info, err := os.Stat(*exportPath)
	if err != nil || !info.IsDir() {
		log.Error("export directory not found", "path", *exportPath)
		os.Exit(1)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Error("failed to get home directory", "error", err)
		os.Exit(1)
	}
	ledger, err := importstate.Open(filepath.Join(homeDir, ".liftmap-upload"))
	if err != nil {
		log.Error("failed to open upload state", "error", err)
		os.Exit(1)
	}
	defer ledger.Close()

	if *dryRun {
		log.Info("dry run: exports will be parsed but not sent")
	}

	imp := importer.New(upload.NewClient(*serverURL, *apiKey), ledger, log, *dryRun)
	stats, err := imp.Import(context.Background(), *exportPath, 0)
	if err != nil {
		log.Error("upload failed", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("=== Upload Summary ===")
	fmt.Printf("  Files uploaded:   %d\n", stats.FilesProcessed)
	fmt.Printf("  Files skipped:    %d (already uploaded)\n", stats.FilesSkipped)
	fmt.Printf("  Files errored:    %d\n", stats.FilesErrored)
	fmt.Println()
	fmt.Printf("  Sessions:         %d\n", stats.SessionsReceived)
	fmt.Printf("  Sets sent:        %d\n", stats.SetsReceived)
	fmt.Printf("  Sets inserted:    %d\n", stats.SetsInserted)
	fmt.Printf("  Sets replaced:    %d\n", stats.SetsReplaced)
	for _, f := range stats.ErroredFiles {
		fmt.Printf("    - %s\n", f)
	}
	fmt.Println()
}
