package mcpserver

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wortmanb/obsidian-vault-maintenance/internal/analysis"
	"github.com/wortmanb/obsidian-vault-maintenance/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	dir, store := testutil.TestVault(t)
	testutil.WriteNote(t, dir, "index.md", "[[Target]] and [[Missing]]\n")
	testutil.WriteNote(t, dir, "Target.md", "# Target\n")

	opts := analysis.Options{
		Extensions:          []string{".md"},
		SystemFiles:         []string{"index"},
		LinkRepairThreshold: 0.6,
		SuggestionLimit:     5,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(analysis.NewScanner(store, opts, logger, nil))
}

func textContent(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty result content")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is not text: %#v", res.Content[0])
	}
	return tc.Text
}

func TestScanVault(t *testing.T) {
	srv := testServer(t)
	res, err := srv.scanVault(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("scan_vault: %v", err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", textContent(t, res))
	}
	out := textContent(t, res)
	if !strings.Contains(out, `"total_files": 2`) {
		t.Errorf("report missing summary:\n%s", out)
	}
}

func TestGetBrokenLinks(t *testing.T) {
	srv := testServer(t)
	res, err := srv.getBrokenLinks(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("get_broken_links: %v", err)
	}
	out := textContent(t, res)
	if !strings.Contains(out, "Missing") {
		t.Errorf("expected Missing in broken links:\n%s", out)
	}
}

func TestGetBacklinks(t *testing.T) {
	srv := testServer(t)
	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"note": "Target"}

	res, err := srv.getBacklinks(context.Background(), req)
	if err != nil {
		t.Fatalf("get_backlinks: %v", err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", textContent(t, res))
	}
	if got := textContent(t, res); got != "index" {
		t.Errorf("backlinks = %q, want index", got)
	}
}

func TestGetBacklinks_MissingArgument(t *testing.T) {
	srv := testServer(t)
	res, err := srv.getBacklinks(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !res.IsError {
		t.Error("missing note argument should produce a tool error")
	}
}
