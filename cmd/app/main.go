package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/sfried/daybook/internal"
	"github.com/sfried/daybook/internal/gh"
	"github.com/sfried/daybook/internal/history"
	"github.com/sfried/daybook/internal/journalservice"
	"github.com/sfried/daybook/internal/mcpserver"
	"github.com/sfried/daybook/internal/refs"
	"github.com/sfried/daybook/internal/review"
	"github.com/sfried/daybook/internal/storage"
	pkgconfig "github.com/sfried/daybook/pkg/config"
)

// loadConfig seeds defaults and overlays the config file when present.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadIfPresent(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if repo := cmd.String("repo"); repo != "" {
		cfg.GitHub.DefaultRepo = repo
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newService wires a journal service for one-shot CLI commands. Text
// logs go to stderr so stdout stays clean for command output.
func newService(cfg *internal.Config) (*journalservice.Service, func(), error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))

	if err := os.MkdirAll(cfg.Notes.Dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create notes dir: %w", err)
	}
	store, err := storage.NewFS(cfg.Notes.Dir)
	if err != nil {
		return nil, nil, err
	}
	archive, err := history.Open(cfg.History.Path)
	if err != nil {
		return nil, nil, err
	}

	runner := gh.NewRunner(cfg.GitHub.Tool, logger)
	client := gh.NewClient(runner)
	rewriter := refs.NewRewriter(client, cfg.GitHub.DefaultRepo, logger, os.Stdout)
	agg := review.NewAggregator(client, cfg.GitHub.Orgs, cfg.GitHub.User)
	svc := journalservice.NewService(store, rewriter, agg, archive, logger)

	return svc, func() { _ = archive.Close() }, nil
}

func runReview(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, cleanup, err := newService(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	date := review.DateRange(cmd.String("date"), time.Now())
	res, err := svc.SyncReview(ctx, date)
	if err != nil {
		return err
	}
	fmt.Println(res.Rendered)
	return nil
}

func runFormat(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, cleanup, err := newService(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	date := review.DateRange(cmd.String("date"), time.Now())
	changed, err := svc.FormatNote(ctx, date, cmd.Bool("dry-run"))
	if err != nil {
		return err
	}
	if changed {
		fmt.Printf("formatted: %s\n", date)
	}
	return nil
}

func runPath(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	date := review.DateRange(cmd.String("date"), time.Now())
	rel, err := journalservice.DailyNoteRel(date)
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(filepath.Join(cfg.Notes.Dir, rel))
	if err != nil {
		return err
	}
	fmt.Println(abs)
	return nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runMCP(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, cleanup, err := newService(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	return mcpserver.New(svc).ServeStdio()
}

func main() {
	dateFlag := &cli.StringFlag{
		Name:    "date",
		Aliases: []string{"d"},
		Usage:   "Date (YYYY-MM-DD) or period keyword, defaults to today",
		Value:   "today",
	}

	cmd := &cli.Command{
		Name:  "daybook",
		Usage: "Daily journal automation: GitHub reference formatting and activity reviews for Markdown notes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "repo",
				Usage:   "Override the default owner/repo for reference lookups",
				Sources: cli.EnvVars("DAYBOOK_REPO"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "review",
				Usage:  "Fetch the day's GitHub activity and update the daily note",
				Flags:  []cli.Flag{dateFlag},
				Action: runReview,
			},
			{
				Name:  "format",
				Usage: "Rewrite GitHub references in the daily note",
				Flags: []cli.Flag{
					dateFlag,
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Report would-be changes without writing",
					},
				},
				Action: runFormat,
			},
			{
				Name:   "path",
				Usage:  "Print the absolute path of the daily note",
				Flags:  []cli.Flag{dateFlag},
				Action: runPath,
			},
			{
				Name:   "serve",
				Usage:  "Run the REST API, SSE stream, and notes watcher",
				Action: runServe,
			},
			{
				Name:   "mcp",
				Usage:  "Run the MCP server on stdin/stdout",
				Action: runMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
