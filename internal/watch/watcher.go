// Package watch reacts to daily-note edits on disk.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sfried/daybook/internal/journalservice"
)

// Handler is called with a note's date after its file settled.
type Handler func(ctx context.Context, date string)

// Watcher observes the daily directory under the notes root and invokes
// a handler once per edited note after a debounce interval. Write bursts
// from editors (and the rewrite the handler itself performs) collapse
// into a single call; the handler is expected to be a no-op when the
// note is already in its rewritten form, which is what terminates the
// edit-rewrite cycle.
type Watcher struct {
	root     string
	debounce time.Duration
	logger   *slog.Logger
	handler  Handler

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// New creates a Watcher over the daily directory under notesRoot,
// creating the directory when missing.
func New(notesRoot string, debounce time.Duration, logger *slog.Logger, handler Handler) (*Watcher, error) {
	dir := filepath.Join(notesRoot, "daily")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Watcher{
		root:     dir,
		debounce: debounce,
		logger:   logger,
		handler:  handler,
		timers:   make(map[string]*time.Timer),
	}, nil
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := fsw.Add(w.root); err != nil {
		return err
	}
	w.logger.Info("watcher: started", slog.String("dir", w.root))

	for {
		select {
		case <-ctx.Done():
			w.stopTimers()
			w.logger.Info("watcher: stopped")
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			date, ok := noteDate(ev.Name)
			if !ok {
				continue
			}
			w.schedule(ctx, date)

		case watchErr, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// schedule arms (or re-arms) the debounce timer for one date.
func (w *Watcher) schedule(ctx context.Context, date string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.timers[date]; ok {
		timer.Reset(w.debounce)
		return
	}
	w.timers[date] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, date)
		w.mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		w.logger.Debug("watcher: note settled", slog.String("date", date))
		w.handler(ctx, date)
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for date, timer := range w.timers {
		timer.Stop()
		delete(w.timers, date)
	}
}

// noteDate extracts the date from a daily-note path. Temp files from
// atomic writes and anything that is not a dated .md file are ignored.
func noteDate(path string) (string, bool) {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".md") {
		return "", false
	}
	date := strings.TrimSuffix(name, ".md")
	if err := journalservice.ValidateDate(date); err != nil {
		return "", false
	}
	return date, true
}
