package mcp

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/toolpack-ai/toolpack/internal/actions"
	"github.com/toolpack-ai/toolpack/internal/logging"
)

// tools builds one ServerTool per catalog action. The action's JSON
// schema is passed through raw so the host sees exactly what the
// provider declared.
func (s *Server) tools() []server.ServerTool {
	all := s.catalog.All()
	out := make([]server.ServerTool, 0, len(all))
	for _, a := range all {
		adapter := actions.NewAdapter(a, s.validator, s.logger)
		tool := mcp.NewToolWithRawSchema(adapter.Name(), adapter.Description(), a.Schema())
		out = append(out, server.ServerTool{Tool: tool, Handler: s.handler(adapter)})
	}
	return out
}

// handler produces the tool handler for one adapted action. Failures are
// reported inside the text result; the handler itself never errors, so
// hosts that drop tool-call errors still surface what went wrong.
func (s *Server) handler(adapter *actions.Adapter) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx = logging.WithProvider(ctx, providerOf(adapter.Name()))
		return mcp.NewToolResultText(adapter.Invoke(ctx, req.GetArguments())), nil
	}
}

// providerOf extracts the provider segment of a namespaced action name
// like "exa.search".
func providerOf(name string) string {
	if i := strings.IndexByte(name, '.'); i > 0 {
		return name[:i]
	}
	return name
}
