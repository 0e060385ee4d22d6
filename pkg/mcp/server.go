// Package mcp implements a Model Context Protocol server exposing pkglister
// scans as MCP tools over stdio transport.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/pkglister/pkg/distreg"
	"github.com/Sumatoshi-tech/pkglister/pkg/observability"
	"github.com/Sumatoshi-tech/pkglister/pkg/scanner"
	"github.com/Sumatoshi-tech/pkglister/pkg/stdlib"
	"github.com/Sumatoshi-tech/pkglister/pkg/version"
)

const (
	// serverName is the MCP server implementation name.
	serverName = "pkglister"

	// toolCount is the expected number of registered tools.
	toolCount = 2
)

// ServerDeps holds injectable dependencies for the MCP server.
// Zero-value fields use production defaults.
type ServerDeps struct {
	// Logger is an optional structured logger. Nil discards logs.
	Logger *slog.Logger

	// Tracer is an optional OTel tracer for per-tool-call spans. Nil disables tracing.
	Tracer trace.Tracer

	// Metrics is an optional scan metrics recorder.
	Metrics *observability.ScanMetrics

	// Registry is the installed distribution snapshot scans resolve against.
	// Nil resolves every third-party import as unresolved.
	Registry *distreg.Registry

	// PythonVersion selects the standard library table. Zero means stdlib.DefaultVersion.
	PythonVersion stdlib.Version

	// ScanOptions are the defaults for every scan; tool input may extend them.
	ScanOptions scanner.Options
}

// Server wraps the MCP SDK server with pkglister tool registrations.
type Server struct {
	inner *mcpsdk.Server
	deps  ServerDeps
	mu    sync.RWMutex
	tools []string
}

// NewServer creates a new MCP server with all pkglister tools registered.
func NewServer(deps ServerDeps) *Server {
	if deps.Logger == nil {
		deps.Logger = observability.DiscardLogger()
	}

	if deps.PythonVersion == (stdlib.Version{}) {
		deps.PythonVersion = stdlib.DefaultVersion
	}

	if deps.Registry == nil {
		deps.Registry = distreg.Empty()
	}

	inner := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    serverName,
			Version: version.Version,
		},
		&mcpsdk.ServerOptions{Logger: deps.Logger},
	)

	srv := &Server{
		inner: inner,
		deps:  deps,
		tools: make([]string, 0, toolCount),
	}

	srv.registerTools()

	return srv
}

// ListToolNames returns the sorted names of all registered tools.
func (s *Server) ListToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.tools))
	copy(names, s.tools)
	sort.Strings(names)

	return names
}

// Run starts the MCP server on stdio transport. It blocks until the context
// is canceled or the connection closes.
func (s *Server) Run(ctx context.Context) error {
	return s.RunWithTransport(ctx, &mcpsdk.StdioTransport{})
}

// RunWithTransport starts the MCP server on the given transport. It blocks
// until the context is canceled or the connection closes.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	err := s.inner.Run(ctx, transport)
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameScan,
		Description: scanToolDescription,
	}, withTracing(s.deps.Tracer, ToolNameScan, s.handleScan))
	s.trackTool(ToolNameScan)

	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameImports,
		Description: importsToolDescription,
	}, withTracing(s.deps.Tracer, ToolNameImports, handleImports))
	s.trackTool(ToolNameImports)
}

// mcpSpanPrefix is the prefix for MCP tool span names.
const mcpSpanPrefix = "mcp."

// traceIDMetaKey is the metadata key for trace_id in MCP tool responses.
const traceIDMetaKey = "trace_id"

// withTracing wraps an MCP tool handler to create an OTel span per invocation
// and include trace_id in the response content when sampled.
func withTracing[Input any](
	tracer trace.Tracer,
	toolName string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if tracer == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		ctx, span := tracer.Start(ctx, mcpSpanPrefix+toolName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("mcp.tool", toolName)),
		)
		defer span.End()

		result, output, err := handler(ctx, req, input)

		sc := span.SpanContext()
		if sc.IsSampled() && result != nil {
			traceContent := &mcpsdk.TextContent{Text: fmt.Sprintf("%s=%s", traceIDMetaKey, sc.TraceID().String())}
			result.Content = append(result.Content, traceContent)
		}

		return result, output, err
	}
}

func (s *Server) trackTool(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools = append(s.tools, name)
}

// Tool description constants.
const (
	scanToolDescription = "Scan a directory of Python sources and list the packages it imports, " +
		"classified as builtin, third-party or unresolved, with requirements.txt lines."

	importsToolDescription = "Extract the top-level module names imported by a Python source snippet."
)
