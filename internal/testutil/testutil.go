// Package testutil provides shared test helpers for setting up notes
// directories and archive databases.
package testutil

import (
	"os"
	"testing"

	"github.com/sfried/daybook/internal/history"
	"github.com/sfried/daybook/internal/storage"
)

// TestArchive creates a temporary SQLite archive that is automatically cleaned up.
func TestArchive(t *testing.T) *history.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "daybook-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := history.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestNotes creates a temporary notes directory with an FS provider.
func TestNotes(t *testing.T) (string, *storage.FS) {
	t.Helper()
	notesDir := t.TempDir()
	store, err := storage.NewFS(notesDir)
	if err != nil {
		t.Fatal(err)
	}
	return notesDir, store
}
