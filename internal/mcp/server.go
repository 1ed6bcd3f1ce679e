package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tsbridge/tsbridge/internal/astmetrics"
	"github.com/tsbridge/tsbridge/internal/config"
	"github.com/tsbridge/tsbridge/internal/difftest"
	"github.com/tsbridge/tsbridge/internal/knowledge"
	"github.com/tsbridge/tsbridge/internal/typemap"
	"github.com/tsbridge/tsbridge/pkg/version"
)

// ServerName is the implementation name reported during the MCP
// handshake.
const ServerName = "TSBridge"

// Server is the MCP server for TSBridge. It exposes the type analyzer,
// the knowledge base, the AST metrics analyzer, and the differential
// test runner as tools, resources, and prompts.
type Server struct {
	mcp      *mcp.Server
	store    *knowledge.Store
	analyzer *typemap.Analyzer
	metrics  *astmetrics.Analyzer
	diff     *difftest.Runner
	config   *config.Config
	logger   *slog.Logger
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

// NewServer creates an MCP server over the given collaborators. The
// store and analyzer are required; metrics and diff may be nil, in
// which case the corresponding tools report an internal error when
// called rather than being hidden, so clients see a stable tool list.
func NewServer(store *knowledge.Store, analyzer *typemap.Analyzer, metrics *astmetrics.Analyzer, diff *difftest.Runner, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if store == nil {
		return nil, errors.New("knowledge store is required")
	}
	if analyzer == nil {
		return nil, errors.New("type analyzer is required")
	}
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		store:    store,
		analyzer: analyzer,
		metrics:  metrics,
		diff:     diff,
		config:   cfg,
		logger:   logger,
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    ServerName,
			Version: version.Version,
		},
		nil, // capabilities are inferred from registered tools/resources
	)

	s.registerTools()
	s.registerResources()
	s.registerPrompts()

	return s, nil
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Info returns the server name and version.
func (s *Server) Info() (name, ver string) {
	return ServerName, version.Version
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	return []ToolInfo{
		{
			Name:        "analyze_type",
			Description: "Analyze a Python type expression and get its TypeScript mapping, migration complexity, conversion notes, runtime considerations, and a testing approach. The primary planning tool.",
		},
		{
			Name:        "lookup_library",
			Description: "Look up the TypeScript/npm ecosystem equivalents of a Python package, with migration effort and caveats.",
		},
		{
			Name:        "search_knowledge",
			Description: "Full-text search across idiom translations, package equivalences, and testing strategies. Use when you do not know the exact name to look up.",
		},
		{
			Name:        "analyze_code_structure",
			Description: "Parse Python source and report structural metrics: function/class counts, cyclomatic complexity, nesting depth, and dynamic features (eval, metaclasses, multiple inheritance) that complicate a port.",
		},
		{
			Name:        "run_differential_test",
			Description: "Run the same test cases through a Python function and its TypeScript port and report per-case matches and divergences.",
		},
		{
			Name:        "suggest_testing_strategy",
			Description: "Recommend testing strategies for migrating a value of a given Python type, based on its complexity classification.",
		},
	}
}

// Serve runs the server on the configured transport until ctx is
// cancelled. Only stdio is supported; stdout carries the protocol, so
// nothing else may write to it.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("starting MCP server",
		slog.String("transport", transport),
		slog.String("version", version.Version))

	switch transport {
	case "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("MCP server stopped with error", slog.String("error", err.Error()))
			return err
		}
		s.logger.Info("MCP server stopped")
		return nil
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}
