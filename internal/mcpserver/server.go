// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Daybook tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sfried/daybook/internal/journalservice"
)

// Server wraps the MCP server with Daybook tools.
type Server struct {
	mcp *server.MCPServer
	svc *journalservice.Service
}

// New creates a new MCP server with all Daybook tools registered.
func New(svc *journalservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Daybook",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("daily_review",
		mcp.WithDescription("Fetch the day's GitHub activity (created/closed issues, "+
			"created/merged PRs, worked-on issues) and update the Daily Review section "+
			"of the daily note. Creates the note when it does not exist yet."),
		mcp.WithString("date", mcp.Required(), mcp.Description("Date in YYYY-MM-DD form")),
	), s.dailyReview)

	s.mcp.AddTool(mcp.NewTool("format_refs",
		mcp.WithDescription("Rewrite GitHub references in the daily note: bare 'Issue #N' "+
			"and 'PR #N' tokens become markdown links with titles, and closed issues "+
			"gain a checkmark. The rewrite is idempotent. The rendered shape is described "+
			"by the daybook://review-format resource."),
		mcp.WithString("date", mcp.Required(), mcp.Description("Date in YYYY-MM-DD form")),
	), s.formatRefs)

	s.mcp.AddTool(mcp.NewTool("read_daily_note",
		mcp.WithDescription("Read the full content of the daily note for a date."),
		mcp.WithString("date", mcp.Required(), mcp.Description("Date in YYYY-MM-DD form")),
	), s.readDailyNote)

	s.mcp.AddTool(mcp.NewTool("get_review",
		mcp.WithDescription("Return the archived review run for a date as JSON "+
			"(rendered section plus per-bucket items)."),
		mcp.WithString("date", mcp.Required(), mcp.Description("Date in YYYY-MM-DD form")),
	), s.getReview)

	// Resource: rendered review/reference format.
	s.mcp.AddResource(
		mcp.NewResource("daybook://review-format", "Review Format",
			mcp.WithResourceDescription("The reference link shape and Daily Review section layout Daybook writes into notes."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readReviewFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) dailyReview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.SyncReview(ctx, date)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(res.Rendered), nil
}

func (s *Server) formatRefs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	changed, err := s.svc.FormatNote(ctx, date, false)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !changed {
		return mcp.NewToolResultText(fmt.Sprintf("no changes for %s", date)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("formatted: %s", date)), nil
}

func (s *Server) readDailyNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := s.svc.ReadNote(ctx, date)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", date)), nil
	}
	return mcp.NewToolResultText(content), nil
}

func (s *Server) getReview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, err := s.svc.Review(ctx, date)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(rec, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readReviewFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "daybook://review-format",
			MIMEType: "text/markdown",
			Text:     ReviewFormatContract,
		},
	}, nil
}
