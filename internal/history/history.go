// Package history provides the SQLite-backed archive of daily review runs.
package history

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS review_days (
	date       TEXT PRIMARY KEY,
	rendered   TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS review_items (
	date     TEXT NOT NULL,
	bucket   TEXT NOT NULL,
	position INTEGER NOT NULL,
	number   INTEGER NOT NULL,
	title    TEXT NOT NULL DEFAULT '',
	url      TEXT NOT NULL,
	state    TEXT NOT NULL DEFAULT '',
	UNIQUE(date, bucket, url)
);

CREATE INDEX IF NOT EXISTS idx_review_items_date ON review_items(date);
`

// DB wraps a sql.DB with archive-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
