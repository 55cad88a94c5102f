package models

import "time"

// NoteInfo describes one markdown note on disk.
type NoteInfo struct {
	// Path is relative to the notes root.
	Path string
	// Checksum is the hex SHA-256 of the note content.
	Checksum string
	// UpdatedAt is the file modification time.
	UpdatedAt time.Time
}
