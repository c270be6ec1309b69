package mcp

import (
	"context"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/toolpack-ai/toolpack/internal/actions"
	"github.com/toolpack-ai/toolpack/internal/validation"
)

// ServerDeps holds the dependencies for creating a Server.
type ServerDeps struct {
	Catalog   *actions.Catalog
	Validator *validation.InputValidator
	Logger    *slog.Logger
}

// Server exposes an action catalog as MCP tools over stdio. Each action
// is wrapped in an Adapter, so every tool call resolves to a text result
// and never to a protocol-level error.
type Server struct {
	catalog   *actions.Catalog
	validator *validation.InputValidator
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a Server with one MCP tool registered per catalog action.
func NewServer(deps ServerDeps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	s := &Server{
		catalog:   deps.Catalog,
		validator: deps.Validator,
		logger:    logger,
	}

	mcpSrv := server.NewMCPServer(
		"toolpack",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("Toolpack exposes third-party provider APIs (video generation, speech synthesis, browser automation, web search, GPU rental, blockchain queries, market data) as tools. Each tool returns human-readable text; errors come back as text starting with \"Error executing\"."),
	)

	mcpSrv.AddTools(s.tools()...)
	s.mcpServer = mcpSrv
	return s
}

// Serve starts the stdio transport and blocks until ctx is cancelled or stdin closes.
func (s *Server) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// MCPServer returns the underlying MCPServer for testing or custom transports.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}
