package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/wikiwalk/internal/wiki"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Wiki is the read-only wiki surface the tools use. *wiki.Client
// implements it.
type Wiki interface {
	SearchNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]wiki.ArticleSummary, error)
	FetchSummary(ctx context.Context, title string) (*wiki.Summary, error)
}

// Defaults fill in optional tool arguments.
type Defaults struct {
	Radius float64
	Limit  int
	Zoom   int
}

// Server wraps an MCP server that exposes nearby article tools.
type Server struct {
	wiki     Wiki
	defaults Defaults
	mcp      *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(w Wiki, defaults Defaults) *Server {
	s := &Server{
		wiki:     w,
		defaults: defaults,
	}

	s.mcp = server.NewMCPServer(
		"wikiwalk",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(searchNearbyTool, s.handleSearchNearby)
	s.mcp.AddTool(getArticleSummaryTool, s.handleGetArticleSummary)
	s.mcp.AddTool(getOSMEditLinkTool, s.handleGetOSMEditLink)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
