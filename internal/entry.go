// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/sfried/daybook/internal/api"
	"github.com/sfried/daybook/internal/gh"
	"github.com/sfried/daybook/internal/history"
	"github.com/sfried/daybook/internal/journalservice"
	"github.com/sfried/daybook/internal/refs"
	"github.com/sfried/daybook/internal/review"
	"github.com/sfried/daybook/internal/sse"
	"github.com/sfried/daybook/internal/storage"
	"github.com/sfried/daybook/internal/watch"
)

// watchDebounce is how long an edited note must stay quiet before its
// references are rewritten.
const watchDebounce = 2 * time.Second

// Run starts serve mode with the given options: the REST API, the SSE
// stream, and the notes watcher, all sharing one journal service.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("notes_dir", cfg.Notes.Dir),
		slog.String("history_path", cfg.History.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure notes directory exists.
	if err := os.MkdirAll(cfg.Notes.Dir, 0o755); err != nil {
		return fmt.Errorf("create notes dir: %w", err)
	}

	// Initialize storage.
	store, err := storage.NewFS(cfg.Notes.Dir)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	// Initialize SQLite archive.
	archive, err := history.Open(cfg.History.Path)
	if err != nil {
		return fmt.Errorf("init history: %w", err)
	}
	defer archive.Close()

	// Tracker access and the journal service.
	runner := gh.NewRunner(cfg.GitHub.Tool, logger)
	client := gh.NewClient(runner)
	rewriter := refs.NewRewriter(client, cfg.GitHub.DefaultRepo, logger, os.Stdout)
	agg := review.NewAggregator(client, cfg.GitHub.Orgs, cfg.GitHub.User)
	svc := journalservice.NewService(store, rewriter, agg, archive, logger)

	// SSE broker.
	broker := sse.NewBroker()
	defer broker.Close()

	// Build API router.
	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token,
		http.HandlerFunc(broker.ServeHTTP), broker.PublishReviewSynced)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	// Watcher: rewrite references in edited daily notes. FormatNote is a
	// no-op on already formatted text, which stops the rewrite from
	// re-triggering itself through the watcher.
	watcher, err := watch.New(store.Root(), watchDebounce, logger, func(wctx context.Context, date string) {
		changed, ferr := svc.FormatNote(wctx, date, false)
		if ferr != nil {
			logger.Warn("watcher format failed",
				slog.String("date", date),
				slog.String("error", ferr.Error()))
			return
		}
		if changed {
			broker.PublishNoteFormatted(date)
		}
	})
	if err != nil {
		return fmt.Errorf("init watcher: %w", err)
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start notes watcher.
	g.Go(func() error {
		return watcher.Run(gCtx)
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
