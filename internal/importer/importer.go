// Package importer bulk-imports a directory of Alpha Progression CSV exports,
// skipping files the import ledger has already seen.
package importer

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/claude/liftmap/internal/importstate"
	"github.com/claude/liftmap/internal/ingest"
	"github.com/claude/liftmap/internal/ingest/alpha"
)

// Ingester stores one CSV export. Implemented by *alpha.Provider.
type Ingester interface {
	Ingest(ctx context.Context, r io.Reader, userID int) (*ingest.Result, error)
}

// Ledger remembers imported files. Implemented by *importstate.Ledger.
type Ledger interface {
	IsImported(relPath string, size int64, hash string) (bool, error)
	MarkImported(relPath string, size int64, hash string, sets int) error
}

// Stats tracks import progress.
type Stats struct {
	FilesProcessed int
	FilesSkipped   int
	FilesErrored   int

	SessionsReceived int
	SetsReceived     int
	SetsInserted     int64
	SetsReplaced     int64
	UndatedSets      int

	ErroredFiles []string
}

// Importer walks a directory of exports and ingests each new file.
type Importer struct {
	ingester Ingester
	ledger   Ledger
	log      *slog.Logger
	dryRun   bool
	stats    Stats
}

// New creates a new Importer. ledger may be nil, in which case every file is
// imported on every run.
func New(ingester Ingester, ledger Ledger, log *slog.Logger, dryRun bool) *Importer {
	return &Importer{ingester: ingester, ledger: ledger, log: log, dryRun: dryRun}
}

// Import processes all .csv files under dir for userID. A file that fails to
// parse or store is counted and logged; the walk continues with the next one.
func (imp *Importer) Import(ctx context.Context, dir string, userID int) (*Stats, error) {
	files, err := findExports(dir)
	if err != nil {
		return &imp.stats, err
	}
	imp.log.Info("found exports", "dir", dir, "files", len(files))

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return &imp.stats, err
		}
		imp.importFile(ctx, dir, path, userID)
	}
	return &imp.stats, nil
}

func (imp *Importer) importFile(ctx context.Context, dir, path string, userID int) {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		rel = path
	}

	info, err := os.Stat(path)
	if err != nil {
		imp.fail(rel, "stat failed", err)
		return
	}
	hash, err := importstate.HashFile(path)
	if err != nil {
		imp.fail(rel, "hash failed", err)
		return
	}

	if imp.ledger != nil {
		done, err := imp.ledger.IsImported(rel, info.Size(), hash)
		if err != nil {
			imp.fail(rel, "ledger lookup failed", err)
			return
		}
		if done {
			imp.log.Debug("already imported", "file", rel)
			imp.stats.FilesSkipped++
			return
		}
	}

	f, err := os.Open(path)
	if err != nil {
		imp.fail(rel, "open failed", err)
		return
	}
	defer f.Close()

	if imp.dryRun {
		sessions, err := alpha.Parse(f)
		if err != nil {
			imp.fail(rel, "parse failed", err)
			return
		}
		sets := alpha.ToLoggedSets(sessions)
		imp.stats.FilesProcessed++
		imp.stats.SessionsReceived += len(sessions)
		imp.stats.SetsReceived += len(sets)
		imp.log.Info("dry run", "file", rel, "sessions", len(sessions), "sets", len(sets))
		return
	}

	res, err := imp.ingester.Ingest(ctx, f, userID)
	if err != nil {
		imp.fail(rel, "ingest failed", err)
		return
	}
	imp.stats.FilesProcessed++
	imp.stats.SessionsReceived += res.SessionsReceived
	imp.stats.SetsReceived += res.SetsReceived
	imp.stats.SetsInserted += res.SetsInserted
	imp.stats.SetsReplaced += res.SetsReplaced
	imp.stats.UndatedSets += res.UndatedSets

	if imp.ledger != nil {
		if err := imp.ledger.MarkImported(rel, info.Size(), hash, res.SetsReceived); err != nil {
			imp.log.Warn("recording import failed", "file", rel, "error", err)
		}
	}
}

func (imp *Importer) fail(rel, msg string, err error) {
	imp.log.Warn(msg, "file", rel, "error", err)
	imp.stats.FilesErrored++
	imp.stats.ErroredFiles = append(imp.stats.ErroredFiles, rel)
}

// findExports returns every .csv file under dir in lexical order.
func findExports(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(d.Name()), ".csv") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}
