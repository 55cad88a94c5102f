// Package journalservice coordinates daily-note formatting, the review
// sync, and the activity archive.
package journalservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"regexp"
	"time"

	"github.com/sfried/daybook/internal/apperr"
	"github.com/sfried/daybook/internal/checksum"
	"github.com/sfried/daybook/internal/history"
	"github.com/sfried/daybook/internal/models"
	"github.com/sfried/daybook/internal/refs"
	"github.com/sfried/daybook/internal/review"
	"github.com/sfried/daybook/internal/storage"
)

// dailyDir is the notes-root-relative directory holding daily notes.
const dailyDir = "daily"

// dateRe is the lexical shape of a daily-note date.
var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidateDate checks that date is a real calendar day in YYYY-MM-DD
// form. The lexical check runs first so path-traversal input never
// reaches the calendar parse.
func ValidateDate(date string) error {
	if !dateRe.MatchString(date) {
		return fmt.Errorf("%w: %q is not YYYY-MM-DD", apperr.ErrInvalidDate, date)
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("%w: %q is not a calendar date", apperr.ErrInvalidDate, date)
	}
	return nil
}

// DailyNoteRel returns the notes-root-relative path of the daily note
// for date, after validating the date.
func DailyNoteRel(date string) (string, error) {
	if err := ValidateDate(date); err != nil {
		return "", err
	}
	return path.Join(dailyDir, date+".md"), nil
}

// ReviewResult reports one review sync run.
type ReviewResult struct {
	Date     string
	Rendered string
	// Created is true when the daily note did not exist before the run.
	Created bool
	Items   map[string][]models.Reference
}

// Service coordinates storage, the reference rewriter, the activity
// aggregator, and the archive.
type Service struct {
	store    storage.Provider
	rewriter *refs.Rewriter
	agg      *review.Aggregator
	archive  history.Archive
	logger   *slog.Logger
}

// NewService creates a new journal service. archive may be nil when no
// run history should be kept.
func NewService(store storage.Provider, rewriter *refs.Rewriter, agg *review.Aggregator, archive history.Archive, logger *slog.Logger) *Service {
	return &Service{store: store, rewriter: rewriter, agg: agg, archive: archive, logger: logger}
}

// ReadNote returns the raw content of the daily note for date.
func (s *Service) ReadNote(_ context.Context, date string) (string, error) {
	rel, err := DailyNoteRel(date)
	if err != nil {
		return "", err
	}
	data, err := s.store.Read(rel)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", apperr.ErrNotFound
		}
		return "", err
	}
	return string(data), nil
}

// FormatNote rewrites references in the daily note for date and writes
// the result back. The write is skipped when nothing changed and in dry
// runs. The returned bool reports whether the note was rewritten.
func (s *Service) FormatNote(ctx context.Context, date string, dryRun bool) (bool, error) {
	rel, err := DailyNoteRel(date)
	if err != nil {
		return false, err
	}
	data, err := s.store.Read(rel)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, apperr.ErrNotFound
		}
		return false, err
	}

	updated := s.rewriter.FormatAll(ctx, string(data), "", dryRun)
	if dryRun {
		return false, nil
	}
	if checksum.Sum([]byte(updated)) == checksum.Sum(data) {
		s.logger.Debug("note unchanged", slog.String("path", rel))
		return false, nil
	}
	if err := s.store.Write(rel, []byte(updated)); err != nil {
		return false, err
	}
	s.logger.Info("note formatted", slog.String("path", rel))
	return true, nil
}

// SyncReview fetches the day's tracker activity, splices the Daily
// Review section into the daily note (creating the note when missing),
// and archives the run.
func (s *Service) SyncReview(ctx context.Context, date string) (*ReviewResult, error) {
	rel, err := DailyNoteRel(date)
	if err != nil {
		return nil, err
	}

	exists, err := s.store.Exists(rel)
	if err != nil {
		return nil, err
	}
	content := ""
	if exists {
		data, err := s.store.Read(rel)
		if err != nil {
			return nil, err
		}
		content = string(data)
	} else {
		content = "# " + date + "\n"
	}

	items, err := s.agg.FetchAll(ctx, date)
	if err != nil {
		return nil, err
	}

	updated := review.UpdateSection(content, items)
	if !exists || checksum.Sum([]byte(updated)) != checksum.Sum([]byte(content)) {
		if err := s.store.Write(rel, []byte(updated)); err != nil {
			return nil, err
		}
	}

	rendered := review.Render(items)
	if s.archive != nil {
		if err := s.archive.RecordDay(date, rendered, items); err != nil {
			// The note write already succeeded; archiving is secondary.
			s.logger.Error("archive record failed",
				slog.String("date", date),
				slog.String("error", err.Error()))
		}
	}

	s.logger.Info("review synced",
		slog.String("date", date),
		slog.Bool("created", !exists))
	return &ReviewResult{
		Date:     date,
		Rendered: rendered,
		Created:  !exists,
		Items:    items,
	}, nil
}

// Review returns the archived run for date.
func (s *Service) Review(_ context.Context, date string) (*history.DayRecord, error) {
	if err := ValidateDate(date); err != nil {
		return nil, err
	}
	if s.archive == nil {
		return nil, apperr.ErrNotFound
	}
	return s.archive.Day(date)
}

// Reviews lists archived days, newest first. limit <= 0 means no limit.
func (s *Service) Reviews(_ context.Context, limit int) ([]history.DaySummary, error) {
	if s.archive == nil {
		return nil, nil
	}
	return s.archive.Days(limit)
}
