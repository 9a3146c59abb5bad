package importstate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLedgerRoundTrip verifies a marked file is reported imported only for the
// same size and hash.
func TestLedgerRoundTrip(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(filepath.Join(dir, "state"))
	require.NoError(t, err)
	defer l.Close()

	ok, err := l.IsImported("export.csv", 10, "abc")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, l.MarkImported("export.csv", 10, "abc", 28))

	ok, err = l.IsImported("export.csv", 10, "abc")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.IsImported("export.csv", 10, "def")
	require.NoError(t, err)
	assert.False(t, ok, "changed content must be re-imported")
}

// TestLedgerPersists verifies entries survive reopening the database.
func TestLedgerPersists(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, l.MarkImported("a.csv", 1, "h", 0))
	require.NoError(t, l.Close())

	l, err = Open(dir)
	require.NoError(t, err)
	defer l.Close()
	ok, err := l.IsImported("a.csv", 1, "h")
	require.NoError(t, err)
	assert.True(t, ok)
}

// TestHashFile verifies the SHA-256 of a known file.
func TestHashFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	got, err := HashFile(path)
	require.NoError(t, err)
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", got)

	_, err = HashFile(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
