package importer

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claude/liftmap/internal/importstate"
	"github.com/claude/liftmap/internal/ingest/alpha"
	"github.com/claude/liftmap/internal/models"
)

const pushCSV = `"Push · Day 1";"2026-02-17 5:04 h";"1:12 hr"
"1. Bench Press · Barbell · 6 reps";"WU1 · 22,5 kg · 10 reps"
#;KG;REPS;RIR
1;102,5;6;0
2;102,5;6;0
3;100;6;0
`

const legsCSV = `"Legs · Day 2";"2026-02-19 4:54 h";"1:02 hr"
"1. Hack Squats · Machine · 8 reps"
#;KG;REPS;RIR
1;115;8;1
2;115;10;1
`

const brokenCSV = `"1. Bench Press · Barbell · 6 reps"
#;KG;REPS;RIR
1;100;6;0
`

type memStore struct {
	rows map[uuid.UUID][]models.SetRow
}

func (m *memStore) DeleteSessions(_ context.Context, _ int, ids []uuid.UUID) (int64, error) {
	var n int64
	for _, id := range ids {
		n += int64(len(m.rows[id]))
		delete(m.rows, id)
	}
	return n, nil
}

func (m *memStore) InsertSets(_ context.Context, rows []models.SetRow) (int64, error) {
	for _, r := range rows {
		m.rows[r.SessionID] = append(m.rows[r.SessionID], r)
	}
	return int64(len(rows)), nil
}

func (m *memStore) count() int {
	n := 0
	for _, r := range m.rows {
		n += len(r)
	}
	return n
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func setup(t *testing.T) (string, *memStore, *alpha.Provider, *importstate.Ledger, *slog.Logger) {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "push.csv"), pushCSV)
	writeFile(t, filepath.Join(dir, "2026", "legs.CSV"), legsCSV)
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")
	writeFile(t, filepath.Join(dir, ".trash", "old.csv"), pushCSV)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := &memStore{rows: make(map[uuid.UUID][]models.SetRow)}
	ledger, err := importstate.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { ledger.Close() })
	return dir, store, alpha.NewProvider(store, nil, log), ledger, log
}

// TestImportSkipsAlreadyImported verifies a second run over the same directory
// skips every file recorded in the ledger.
func TestImportSkipsAlreadyImported(t *testing.T) {
	dir, store, provider, ledger, log := setup(t)

	stats, err := New(provider, ledger, log, false).Import(context.Background(), dir, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesProcessed)
	assert.Equal(t, 0, stats.FilesSkipped)
	assert.Equal(t, 2, stats.SessionsReceived)
	assert.Equal(t, 6, stats.SetsReceived, "warm-up sets count as received")
	assert.Equal(t, int64(6), stats.SetsInserted)
	assert.Equal(t, 6, store.count())

	stats, err = New(provider, ledger, log, false).Import(context.Background(), dir, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.FilesProcessed)
	assert.Equal(t, 2, stats.FilesSkipped)
	assert.Equal(t, 6, store.count())
}

// TestImportReimportsChangedFile verifies an edited export is ingested again and
// replaces its sessions.
func TestImportReimportsChangedFile(t *testing.T) {
	dir, store, provider, ledger, log := setup(t)

	_, err := New(provider, ledger, log, false).Import(context.Background(), dir, 1)
	require.NoError(t, err)

	writeFile(t, filepath.Join(dir, "push.csv"), pushCSV+"4;95;6;0\n")
	stats, err := New(provider, ledger, log, false).Import(context.Background(), dir, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesProcessed)
	assert.Equal(t, 1, stats.FilesSkipped)
	assert.Equal(t, int64(4), stats.SetsReplaced)
	assert.Equal(t, 7, store.count())
}

// TestImportContinuesPastBrokenFile verifies a malformed export is counted and the
// remaining files still import.
func TestImportContinuesPastBrokenFile(t *testing.T) {
	dir, store, provider, ledger, log := setup(t)
	writeFile(t, filepath.Join(dir, "broken.csv"), brokenCSV)

	stats, err := New(provider, ledger, log, false).Import(context.Background(), dir, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesErrored)
	assert.Equal(t, []string{"broken.csv"}, stats.ErroredFiles)
	assert.Equal(t, 2, stats.FilesProcessed)
	assert.Equal(t, 6, store.count())

	done, err := ledger.IsImported("broken.csv", int64(len(brokenCSV)), mustHash(t, filepath.Join(dir, "broken.csv")))
	require.NoError(t, err)
	assert.False(t, done)
}

// TestImportDryRunWritesNothing verifies dry runs count sets without touching the
// store or the ledger.
func TestImportDryRunWritesNothing(t *testing.T) {
	dir, store, provider, ledger, log := setup(t)

	stats, err := New(provider, ledger, log, true).Import(context.Background(), dir, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesProcessed)
	assert.Equal(t, 6, stats.SetsReceived)
	assert.Zero(t, stats.SetsInserted)
	assert.Zero(t, store.count())

	stats, err = New(provider, ledger, log, false).Import(context.Background(), dir, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesProcessed, "dry run must not mark files imported")
}

// TestImportMissingDir verifies a missing directory is an error.
func TestImportMissingDir(t *testing.T) {
	_, _, provider, ledger, log := setup(t)
	_, err := New(provider, ledger, log, false).Import(context.Background(), filepath.Join(t.TempDir(), "nope"), 1)
	assert.Error(t, err)
}

func mustHash(t *testing.T, path string) string {
	t.Helper()
	h, err := importstate.HashFile(path)
	require.NoError(t, err)
	return h
}
