// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes dictionary tools for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sveinbjornt/ensk.is/internal/apperr"
	"github.com/sveinbjornt/ensk.is/internal/dictservice"
)

// Server wraps the MCP server with dictionary tools.
type Server struct {
	mcp *server.MCPServer
	svc *dictservice.Service
}

// New creates a new MCP server with all dictionary tools registered.
func New(svc *dictservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"ensk.is",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_word",
		mcp.WithDescription("Search the English-Icelandic dictionary. Matches headwords "+
			"by substring, exact matches ranked first."),
		mcp.WithString("query", mcp.Required(), mcp.Description("English search query")),
	), s.searchWord)

	s.mcp.AddTool(mcp.NewTool("lookup_word",
		mcp.WithDescription("Look up the Icelandic translation of an exact English word."),
		mcp.WithString("word", mcp.Required(), mcp.Description("English word to look up")),
	), s.lookupWord)

	s.mcp.AddTool(mcp.NewTool("suggest_words",
		mcp.WithDescription("Suggest dictionary headwords completing a partial English word."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Partial English word")),
	), s.suggestWords)

	s.mcp.AddTool(mcp.NewTool("dictionary_stats",
		mcp.WithDescription("Return metadata about the published dictionary edition."),
	), s.dictionaryStats)

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

func (s *Server) searchWord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page, err := s.svc.Search(ctx, query, 1)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(page, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) lookupWord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	word, err := req.RequireString("word")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	items, err := s.svc.Lookup(ctx, word)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", word)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(item.Word)
		b.WriteString(" ")
		b.WriteString(item.Definition)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) suggestWords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	words, err := s.svc.Suggest(ctx, query, 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(strings.Join(words, "\n")), nil
}

func (s *Server) dictionaryStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	meta, err := s.svc.Metadata(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(meta, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
