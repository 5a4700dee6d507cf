// Package mcpserver exposes the document gate as MCP tools.
package mcpserver

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/joseph-ayodele/docgate/constants"
	"github.com/joseph-ayodele/docgate/internal/pipeline"
	"github.com/joseph-ayodele/docgate/internal/roots"
)

const Version = "0.1.0"

// Tools holds the handlers. The policy is loaded from the store on every
// call, so a replaced root set applies to the next tool call.
type Tools struct {
	pipe   *pipeline.Pipeline
	store  *roots.Store
	logger *slog.Logger
}

func NewTools(pipe *pipeline.Pipeline, store *roots.Store, logger *slog.Logger) *Tools {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tools{pipe: pipe, store: store, logger: logger}
}

// NewServer registers every tool on a fresh MCP server.
func NewServer(t *Tools) *server.MCPServer {
	s := server.NewMCPServer(
		"docgate",
		Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	formatOpts := []mcp.PropertyOption{
		mcp.Description("Output format"),
		mcp.Enum(constants.FormatNames()...),
		mcp.DefaultString(string(constants.FormatMarkdown)),
	}

	s.AddTool(mcp.NewTool("list_roots",
		mcp.WithDescription("List the directories this server may read from or write to"),
	), t.listRoots)

	s.AddTool(mcp.NewTool("read_directory",
		mcp.WithDescription("List a directory inside the allowed roots"),
		mcp.WithString("path", mcp.Required(), mcp.Description("Directory to list")),
	), mcp.NewTypedToolHandler(t.readDirectory))

	s.AddTool(mcp.NewTool("find_documents",
		mcp.WithDescription("Find supported documents by glob pattern or partial file name"),
		mcp.WithString("pattern", mcp.Required(), mcp.Description("Glob such as '*.pdf' or part of a file name")),
		mcp.WithString("root_path", mcp.Description("Search only this root (must be one of list_roots)")),
	), mcp.NewTypedToolHandler(t.findDocuments))

	s.AddTool(mcp.NewTool("convert_document",
		mcp.WithDescription("Convert a PDF, image or text document to text, markdown or json"),
		mcp.WithString("input_path", mcp.Required(), mcp.Description("Document inside the allowed roots")),
		mcp.WithString("output_format", formatOpts...),
	), mcp.NewTypedToolHandler(t.convertDocument))

	s.AddTool(mcp.NewTool("save_conversion",
		mcp.WithDescription("Convert a document and save the result; both paths must be inside the allowed roots"),
		mcp.WithString("input_path", mcp.Required(), mcp.Description("Document inside the allowed roots")),
		mcp.WithString("output_path", mcp.Required(), mcp.Description("Destination file inside the allowed roots")),
		mcp.WithString("output_format", formatOpts...),
	), mcp.NewTypedToolHandler(t.saveConversion))

	return s
}

// ServeStdio runs the server on stdin/stdout until the client disconnects.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}
