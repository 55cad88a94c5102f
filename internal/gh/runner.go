// Package gh invokes the GitHub CLI and decodes its JSON output.
package gh

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/sfried/daybook/internal/apperr"
)

// DefaultTool is the expected name of the GitHub CLI binary.
const DefaultTool = "gh"

// allowedSubcommands is the closed set of gh subcommands this tool may
// invoke. Anything else is a caller bug and fails before any process runs.
var allowedSubcommands = map[string]struct{}{
	"issue": {},
	"pr":    {},
	"repo":  {},
	"auth":  {},
}

// Runner executes allow-listed gh commands. Execution and decode failures
// degrade to empty results with a diagnostic; they never propagate to
// callers. Only argument validation returns an error.
type Runner struct {
	tool   string
	logger *slog.Logger
}

// NewRunner creates a Runner for the given tool binary. An empty tool
// falls back to DefaultTool.
func NewRunner(tool string, logger *slog.Logger) *Runner {
	if tool == "" {
		tool = DefaultTool
	}
	return &Runner{tool: tool, logger: logger}
}

// validate rejects argument vectors that do not start with the expected
// tool name followed by an allow-listed subcommand.
func (r *Runner) validate(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: need at least tool and subcommand, got %v", apperr.ErrCommandNotAllowed, args)
	}
	if args[0] != r.tool {
		return fmt.Errorf("%w: unexpected tool %q", apperr.ErrCommandNotAllowed, args[0])
	}
	if _, ok := allowedSubcommands[args[1]]; !ok {
		return fmt.Errorf("%w: subcommand %q", apperr.ErrCommandNotAllowed, args[1])
	}
	return nil
}

// output runs the command and returns trimmed stdout. Non-zero exit is
// reported with the tool's stderr attached.
func (r *Runner) output(ctx context.Context, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", strings.Join(args[:2], " "), err, strings.TrimSpace(stderr.String()))
	}
	return bytes.TrimSpace(stdout.Bytes()), nil
}

// List runs a gh list-style command and decodes a JSON array into out.
// Empty output leaves out untouched (the empty collection). Execution or
// decode failures log a diagnostic and degrade the same way; the returned
// error is non-nil only for argument validation failures.
func (r *Runner) List(ctx context.Context, args []string, out any) error {
	if err := r.validate(args); err != nil {
		return err
	}
	raw, err := r.output(ctx, args)
	if err != nil {
		r.logger.Error("gh command failed",
			slog.String("args", strings.Join(args, " ")),
			slog.String("error", err.Error()))
		return nil
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		r.logger.Error("gh output is not valid JSON",
			slog.String("args", strings.Join(args, " ")),
			slog.String("error", err.Error()))
	}
	return nil
}

// Single runs a gh view-style command and decodes a JSON object into out.
// The boolean reports whether data was available; execution, decode, and
// empty-output cases all come back false without an error.
func (r *Runner) Single(ctx context.Context, args []string, out any) (bool, error) {
	if err := r.validate(args); err != nil {
		return false, err
	}
	raw, err := r.output(ctx, args)
	if err != nil {
		r.logger.Error("gh command failed",
			slog.String("args", strings.Join(args, " ")),
			slog.String("error", err.Error()))
		return false, nil
	}
	if len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		r.logger.Error("gh output is not valid JSON",
			slog.String("args", strings.Join(args, " ")),
			slog.String("error", err.Error()))
		return false, nil
	}
	return true, nil
}
