package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/sveinbjornt/ensk.is/internal/dictservice"
	"github.com/sveinbjornt/ensk.is/internal/models"
	"github.com/sveinbjornt/ensk.is/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	entries := []models.DictionaryEntry{
		testutil.Entry("cat", "köttur"),
		testutil.Entry("catalog", "skrá"),
	}
	rd := testutil.TestStore(t, entries, map[string]string{"entry_count": "2"})
	svc, err := dictservice.New(rd, dictservice.Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { svc.Close() })

	return New(svc)
}

// callTool invokes a tool handler directly; mcp-go has no test helper
// for dispatching by name.
func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_word":
		result, err = srv.searchWord(ctx, req)
	case "lookup_word":
		result, err = srv.lookupWord(ctx, req)
	case "suggest_words":
		result, err = srv.suggestWords(ctx, req)
	case "dictionary_stats":
		result, err = srv.dictionaryStats(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestSearchWord(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "search_word", map[string]interface{}{"query": "cat"})
	text := resultText(r)
	if !strings.Contains(text, `"word": "cat"`) {
		t.Errorf("search result = %q", text)
	}
	if !strings.Contains(text, "catalog") {
		t.Errorf("substring hit missing from %q", text)
	}
}

func TestLookupWord(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "lookup_word", map[string]interface{}{"word": "cat"})
	if text := resultText(r); text != "cat n. köttur" {
		t.Errorf("lookup result = %q", text)
	}
}

func TestLookupWordMissing(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "lookup_word", map[string]interface{}{"word": "zebra"})
	if !r.IsError {
		t.Error("expected error for missing word")
	}
}

func TestSuggestWords(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "suggest_words", map[string]interface{}{"query": "cata"})
	if text := resultText(r); text != "catalog" {
		t.Errorf("suggestions = %q", text)
	}
}

func TestDictionaryStats(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "dictionary_stats", map[string]interface{}{})
	if text := resultText(r); !strings.Contains(text, `"entry_count": "2"`) {
		t.Errorf("stats = %q", text)
	}
}
