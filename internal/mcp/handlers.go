package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rotisserie/eris"

	"github.com/varun-vembar-tcgls/chatterist-sirrus/internal/leadtools"
	"github.com/varun-vembar-tcgls/chatterist-sirrus/pkg/leadsapi"
)

// Option configures Handlers.
type Option func(*Handlers)

// WithObserver receives the outcome of every tool call.
func WithObserver(fn func(tool, outcome string)) Option {
	return func(h *Handlers) {
		h.observe = fn
	}
}

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	fetcher leadsapi.Client
	observe func(tool, outcome string)
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(fetcher leadsapi.Client, opts ...Option) *Handlers {
	h := &Handlers{fetcher: fetcher}
	for _, o := range opts {
		o(h)
	}
	return h
}

// scopeArgs are the scope overrides every tool accepts.
type scopeArgs struct {
	OrganisationID string `json:"organisation_id"`
	ProjectID      string `json:"project_id"`
}

// Handle returns the handler for the named lead query.
func (h *Handlers) Handle(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		over, err := decode[scopeArgs](req)
		if err != nil {
			return errorResult(err), nil
		}

		scope, _ := leadtools.ScopeFromContext(ctx)
		if over.OrganisationID != "" {
			scope.OrganisationID = over.OrganisationID
		}
		if over.ProjectID != "" {
			scope.ProjectID = over.ProjectID
		}

		var opts []leadtools.Option
		if h.observe != nil {
			opts = append(opts, leadtools.WithObserver(h.observe))
		}
		tool := findTool(leadtools.NewToolset(h.fetcher, scope, opts...), name)
		if tool == nil {
			return errorResult(eris.Errorf("unknown tool %q", name)), nil
		}

		args, err := toolArgs(req)
		if err != nil {
			return errorResult(err), nil
		}
		out, err := tool.Call(ctx, args)
		if err != nil {
			return errorResult(err), nil
		}
		return mcp.NewToolResultJSON(json.RawMessage(out))
	}
}

func findTool(ts *leadtools.Toolset, name string) *leadtools.Tool {
	for _, t := range ts.Tools() {
		if t.Name() == name {
			return t
		}
	}
	return nil
}

// toolArgs re-encodes the call arguments without the scope overrides.
func toolArgs(req mcp.CallToolRequest) (string, error) {
	args := map[string]any{}
	for k, v := range req.GetArguments() {
		if k == argOrganisationID || k == argProjectID {
			continue
		}
		args[k] = v
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "", eris.Wrap(err, "marshal args")
	}
	return string(b), nil
}

// errorResult reports a failed query as {"error": ...} with IsError set.
func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: leadtools.ErrorJSON(err)}},
		IsError: true,
	}
}
