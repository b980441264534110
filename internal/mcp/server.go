// Package mcp exposes circuit generation to AI agents over the Model
// Context Protocol.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/circuitchat/internal/api"
	"github.com/ziadkadry99/circuitchat/internal/history"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Deps are the optional history backends. Tools that need a missing one
// are not registered.
type Deps struct {
	Store *history.Store
	Index *history.Index
}

// Server wraps an MCP server that exposes circuit tools.
type Server struct {
	svc   api.Service
	store *history.Store
	index *history.Index
	mcp   *server.MCPServer
}

// NewServer creates a new MCP server backed by svc.
func NewServer(svc api.Service, deps Deps) *Server {
	s := &Server{
		svc:   svc,
		store: deps.Store,
		index: deps.Index,
	}

	s.mcp = server.NewMCPServer(
		"circuitchat",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(generateCircuitTool, s.handleGenerateCircuit)
	s.mcp.AddTool(analyzeCircuitTool, s.handleAnalyzeCircuit)
	s.mcp.AddTool(validateCircuitTool, s.handleValidateCircuit)
	s.mcp.AddTool(listDeviceTypesTool, s.handleListDeviceTypes)
	if s.store != nil {
		s.mcp.AddTool(getGenerationTool, s.handleGetGeneration)
	}
	if s.index != nil {
		s.mcp.AddTool(findSimilarPromptsTool, s.handleFindSimilarPrompts)
	}
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
