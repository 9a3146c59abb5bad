// Package importstate records which export files have already been imported
// so repeated runs over the same directory only ingest new or changed files.
package importstate

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Ledger is a SQLite table of imported files keyed by relative path.
type Ledger struct {
	db *sql.DB
}

// Open opens (or creates) the ledger database at dir/import-state.db.
func Open(dir string) (*Ledger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "import-state.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS imported_files (
		path        TEXT PRIMARY KEY,
		size        INTEGER NOT NULL,
		hash        TEXT NOT NULL,
		sets        INTEGER NOT NULL DEFAULT 0,
		imported_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating state table: %w", err)
	}

	return &Ledger{db: db}, nil
}

// IsImported checks if a file has already been imported with the same size and hash.
func (l *Ledger) IsImported(relPath string, size int64, hash string) (bool, error) {
	var count int
	err := l.db.QueryRow(
		`SELECT COUNT(*) FROM imported_files WHERE path = ? AND size = ? AND hash = ?`,
		relPath, size, hash,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", relPath, err)
	}
	return count > 0, nil
}

// MarkImported records that a file was successfully imported.
func (l *Ledger) MarkImported(relPath string, size int64, hash string, sets int) error {
	_, err := l.db.Exec(
		`INSERT OR REPLACE INTO imported_files (path, size, hash, sets) VALUES (?, ?, ?, ?)`,
		relPath, size, hash, sets,
	)
	if err != nil {
		return fmt.Errorf("marking %s imported: %w", relPath, err)
	}
	return nil
}

// Close closes the ledger database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// HashFile computes the SHA-256 hash of a file.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
