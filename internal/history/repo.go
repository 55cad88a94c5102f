package history

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sfried/daybook/internal/apperr"
	"github.com/sfried/daybook/internal/models"
)

// DayRecord is one archived review run.
type DayRecord struct {
	Date      string
	Rendered  string
	Items     map[string][]models.Reference
	UpdatedAt time.Time
}

// DaySummary lists an archived day without its items.
type DaySummary struct {
	Date      string
	UpdatedAt time.Time
}

// Archive defines the interface for review archive operations.
// Consumers should depend on this interface rather than the concrete
// *DB type to facilitate testing with mocks.
type Archive interface {
	RecordDay(date, rendered string, items map[string][]models.Reference) error
	Day(date string) (*DayRecord, error)
	Days(limit int) ([]DaySummary, error)
	Close() error
}

// Verify *DB satisfies Archive at compile time.
var _ Archive = (*DB)(nil)

// RecordDay replaces the archived run for date within a transaction:
// the day row is upserted and its items rewritten in bucket order.
func (db *DB) RecordDay(date, rendered string, items map[string][]models.Reference) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("history: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO review_days (date, rendered, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			rendered   = excluded.rendered,
			updated_at = excluded.updated_at
	`, date, rendered, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("history: upsert day: %w", err)
	}

	// Replace items: delete old then bulk insert.
	_, _ = tx.Exec(`DELETE FROM review_items WHERE date = ?`, date)
	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO review_items (date, bucket, position, number, title, url, state)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("history: prepare item insert: %w", err)
	}
	defer stmt.Close()
	for bucket, refs := range items {
		for pos, ref := range refs {
			if _, err := stmt.Exec(date, bucket, pos, ref.Number, ref.Title, ref.URL, ref.State); err != nil {
				return fmt.Errorf("history: insert item: %w", err)
			}
		}
	}

	return tx.Commit()
}

// Day returns the archived run for date, or apperr.ErrNotFound.
func (db *DB) Day(date string) (*DayRecord, error) {
	rec := DayRecord{Date: date}
	err := db.conn.QueryRow(
		`SELECT rendered, updated_at FROM review_days WHERE date = ?`, date,
	).Scan(&rec.Rendered, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("history: day %s: %w", date, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("history: day %s: %w", date, err)
	}

	rows, err := db.conn.Query(`
		SELECT bucket, number, title, url, state
		FROM review_items WHERE date = ?
		ORDER BY bucket, position
	`, date)
	if err != nil {
		return nil, fmt.Errorf("history: day items: %w", err)
	}
	defer rows.Close()

	rec.Items = make(map[string][]models.Reference)
	for rows.Next() {
		var bucket string
		var ref models.Reference
		if err := rows.Scan(&bucket, &ref.Number, &ref.Title, &ref.URL, &ref.State); err != nil {
			return nil, err
		}
		rec.Items[bucket] = append(rec.Items[bucket], ref)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Days lists archived days, newest first. limit <= 0 means no limit.
func (db *DB) Days(limit int) ([]DaySummary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.conn.Query(
		`SELECT date, updated_at FROM review_days ORDER BY date DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("history: days: %w", err)
	}
	defer rows.Close()

	var out []DaySummary
	for rows.Next() {
		var d DaySummary
		if err := rows.Scan(&d.Date, &d.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
