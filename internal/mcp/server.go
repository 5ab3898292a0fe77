// Package mcp serves the lead queries as Model Context Protocol tools over
// stdio.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/varun-vembar-tcgls/chatterist-sirrus/internal/leadtools"
	"github.com/varun-vembar-tcgls/chatterist-sirrus/pkg/leadsapi"
)

const serverName = "sirrus-leads"

// Scope override arguments accepted by every tool.
const (
	argOrganisationID = "organisation_id"
	argProjectID      = "project_id"
)

// toolDef builds the MCP definition of a lead query. Every tool also takes
// optional organisation and project ids that override the default scope.
func toolDef(spec leadtools.Spec) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(spec.Description)}
	for _, p := range spec.Params {
		popts := []mcp.PropertyOption{mcp.Description(p.Description)}
		if p.Required {
			popts = append(popts, mcp.Required())
		}
		opts = append(opts, mcp.WithString(p.Name, popts...))
	}
	opts = append(opts,
		mcp.WithString(argOrganisationID, mcp.Description("Organisation id. Defaults to the server's organisation.")),
		mcp.WithString(argProjectID, mcp.Description("Project id. Defaults to the server's project.")),
	)
	return mcp.NewTool(spec.Name, opts...)
}

// NewServer creates an MCP server with the lead query tools registered.
func NewServer(fetcher leadsapi.Client, version string, opts ...Option) *server.MCPServer {
	s := server.NewMCPServer(
		serverName,
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(fetcher, opts...)
	for _, spec := range leadtools.Specs() {
		s.AddTool(toolDef(spec), h.Handle(spec.Name))
	}
	return s
}

// Run serves the tools on stdin/stdout until the input closes. defaults is
// the scope used when a call names no organisation or project.
func Run(fetcher leadsapi.Client, defaults leadtools.Scope, version string, opts ...Option) error {
	s := NewServer(fetcher, version, opts...)
	return server.ServeStdio(s, server.WithStdioContextFunc(func(ctx context.Context) context.Context {
		return leadtools.WithScope(ctx, defaults)
	}))
}
