// Package mcpserver exposes vault analysis over MCP (Model Context
// Protocol) via stdio transport, so LLM agents can query vault health.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wortmanb/obsidian-vault-maintenance/internal/analysis"
)

// Server wraps the MCP server with vault analysis tools.
type Server struct {
	mcp     *server.MCPServer
	scanner *analysis.Scanner
}

// New creates an MCP server with all analysis tools registered.
func New(scanner *analysis.Scanner) *Server {
	s := &Server{scanner: scanner}

	s.mcp = server.NewMCPServer(
		"vault-maintenance",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(mcp.NewTool("scan_vault",
		mcp.WithDescription("Run a full vault health scan and return the report as JSON: "+
			"summary statistics, broken links with repair suggestions, orphans, "+
			"tag and property analysis, duplicates, and organization suggestions."),
	), s.scanVault)

	s.mcp.AddTool(mcp.NewTool("get_broken_links",
		mcp.WithDescription("List broken internal links with ranked repair suggestions."),
	), s.getBrokenLinks)

	s.mcp.AddTool(mcp.NewTool("get_orphans",
		mcp.WithDescription("List notes with no incoming links, excluding system files."),
	), s.getOrphans)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all notes that link to the specified note."),
		mcp.WithString("note", mcp.Required(), mcp.Description("Note id (relative path without extension)")),
	), s.getBacklinks)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) scanVault(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rep, err := s.scanner.Scan(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(rep, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getBrokenLinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rep, err := s.scanner.Scan(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(rep.BrokenLinks) == 0 {
		return mcp.NewToolResultText("no broken links found"), nil
	}
	out, _ := json.MarshalIndent(rep.BrokenLinks, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getOrphans(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rep, err := s.scanner.Scan(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(rep.Orphans) == 0 {
		return mcp.NewToolResultText("no orphans found"), nil
	}
	out, _ := json.MarshalIndent(rep.Orphans, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	note, err := req.RequireString("note")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sources, err := s.scanner.Backlinks(ctx, note)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("backlinks for %s: %v", note, err)), nil
	}
	if len(sources) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	sort.Strings(sources)
	return mcp.NewToolResultText(strings.Join(sources, "\n")), nil
}
