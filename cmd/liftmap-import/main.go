package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/liftmap/internal/config"
	"github.com/claude/liftmap/internal/importer"
	"github.com/claude/liftmap/internal/importstate"
	"github.com/claude/liftmap/internal/ingest/alpha"
	"github.com/claude/liftmap/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	exportPath := flag.String("path", "", "directory of Alpha Progression CSV exports (required)")
	userID := flag.Int("user", 1, "user id to import the sets for")
	dryRun := flag.Bool("dry-run", false, "parse and count sets without writing to the database")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *exportPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: liftmap-import -config config.yaml -path /path/to/exports [-user 1] [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	info, err := os.Stat(*exportPath)
	if err != nil || !info.IsDir() {
		log.Error("export path does not exist or is not a directory", "path", *exportPath)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	dsn := cfg.Database.DSN()
	if err := storage.RunMigrations(dsn, "migrations"); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	ctx := context.Background()

	if *dryRun {
		log.Info("dry run: nothing will be written to the database")
	}

	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	ledger, err := importstate.Open(cfg.Import.StateDir)
	if err != nil {
		log.Error("failed to open import state", "dir", cfg.Import.StateDir, "error", err)
		os.Exit(1)
	}
	defer ledger.Close()

	imp := importer.New(alpha.NewProvider(db, nil, log), ledger, log, *dryRun)
	stats, err := imp.Import(ctx, *exportPath, *userID)
	if err != nil {
		log.Error("import failed", "error", err)
		if stats != nil {
			printStats(log, stats)
		}
		os.Exit(1)
	}

	printStats(log, stats)
	log.Info("import complete")
}

func printStats(log *slog.Logger, stats *importer.Stats) {
	log.Info("import stats",
		"files_processed", stats.FilesProcessed,
		"files_skipped", stats.FilesSkipped,
		"files_errored", stats.FilesErrored,
		"sessions_received", stats.SessionsReceived,
		"sets_received", stats.SetsReceived,
		"sets_inserted", stats.SetsInserted,
		"sets_replaced", stats.SetsReplaced,
		"undated_sets", stats.UndatedSets,
	)
	if len(stats.ErroredFiles) > 0 {
		log.Info("files with errors", "files", stats.ErroredFiles)
	}
}
