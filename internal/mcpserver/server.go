// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Tiwaz sync tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/tiwaz/internal/docservice"
	"github.com/starford/tiwaz/internal/storage"
)

// Server wraps the MCP server with Tiwaz tools.
type Server struct {
	mcp   *server.MCPServer
	svc   *docservice.Service
	store storage.Provider
}

// New creates a new MCP server with all Tiwaz tools registered.
func New(svc *docservice.Service, store storage.Provider) *Server {
	s := &Server{svc: svc, store: store}

	s.mcp = server.NewMCPServer(
		"Tiwaz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("read_document",
		mcp.WithDescription("Read the full content of a vault document, including its front-matter block."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document (e.g. folder/doc.md)")),
	), s.readDocument)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List all vault documents or documents in a specific folder."),
		mcp.WithString("folder", mcp.Description("Optional folder to list (empty for all)")),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("search_documents",
		mcp.WithDescription("Search tracked documents by path, title, or repository."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchDocuments)

	s.mcp.AddTool(mcp.NewTool("sync_status",
		mcp.WithDescription("Compare a linked document with its GitHub issue and report which side is newer. Never modifies anything."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document")),
	), s.syncStatus)

	s.mcp.AddTool(mcp.NewTool("push_document",
		mcp.WithDescription("Push a document's body to its linked GitHub issue. An unlinked document gets a fresh issue created, and the link is written into its front matter. Read the contract first via the get_front_matter_contract tool or the tiwaz://front-matter-format resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document")),
	), s.pushDocument)

	s.mcp.AddTool(mcp.NewTool("pull_document",
		mcp.WithDescription("Replace a document's body with its linked issue's body and rename the file to the issue title. Local edits are overwritten."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document")),
	), s.pullDocument)

	s.mcp.AddTool(mcp.NewTool("import_issue",
		mcp.WithDescription("Create a new vault document from an existing GitHub issue."),
		mcp.WithNumber("number", mcp.Required(), mcp.Description("Issue number to import")),
		mcp.WithString("dir", mcp.Description("Optional vault folder for the new document")),
		mcp.WithString("repo", mcp.Description("Optional repository override (owner/repo or bare repo name)")),
	), s.importIssue)

	s.mcp.AddTool(mcp.NewTool("get_front_matter_contract",
		mcp.WithDescription("Returns the canonical front-matter format contract. Call this before creating or editing documents to ensure correct structure."),
	), s.getFrontMatterContract)

	// Resource: front-matter format contract.
	s.mcp.AddResource(
		mcp.NewResource("tiwaz://front-matter-format", "Front-Matter Format Contract",
			mcp.WithResourceDescription("Canonical front-matter block format that links documents to GitHub issues."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFrontMatterResource,
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

func (s *Server) readDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.store.Read(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := ""
	if f, err := req.RequireString("folder"); err == nil {
		folder = f
	}

	infos, err := s.store.List(folder)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var paths []string
	for _, info := range infos {
		paths = append(paths, info.Path)
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) searchDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) syncStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	status, err := s.svc.FetchDocument(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(status, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) pushDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	outcome, err := s.svc.PushDocument(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(outcome, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) pullDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	outcome, err := s.svc.PullDocument(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(outcome, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) importIssue(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	number, err := req.RequireInt("number")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dir := req.GetString("dir", "")
	repo := req.GetString("repo", "")

	outcome, err := s.svc.ImportIssue(ctx, number, dir, repo)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(outcome, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getFrontMatterContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(FrontMatterFormatContract), nil
}

func (s *Server) readFrontMatterResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "tiwaz://front-matter-format",
			MIMEType: "text/markdown",
			Text:     FrontMatterFormatContract,
		},
	}, nil
}
