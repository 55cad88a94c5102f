// Package storage defines the notes file-system abstraction.
package storage

import "github.com/sfried/daybook/internal/models"

// Provider is the interface for notes file operations. All paths are
// relative to the notes root.
type Provider interface {
	// List returns metadata for every .md file under dir.
	List(dir string) ([]models.NoteInfo, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating parent
	// directories as needed.
	Write(path string, content []byte) error
	// Exists reports whether a regular file exists at path.
	Exists(path string) (bool, error)
}
