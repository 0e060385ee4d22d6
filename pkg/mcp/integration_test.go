package mcp_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/pkglister/pkg/distreg"
	"github.com/Sumatoshi-tech/pkglister/pkg/mcp"
)

// connect starts srv on an in-memory transport and returns a client session.
func connect(t *testing.T, srv *mcp.Server) *mcpsdk.ClientSession {
	t.Helper()

	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)

	serverDone := make(chan error, 1)

	go func() {
		serverDone <- srv.RunWithTransport(ctx, serverTransport)
	}()

	client := mcpsdk.NewClient(&mcpsdk.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = session.Close()

		cancel()
		<-serverDone
	})

	return session
}

func callTool(t *testing.T, session *mcpsdk.ClientSession, name string, args map[string]any) *mcpsdk.CallToolResult {
	t.Helper()

	result, err := session.CallTool(context.Background(), &mcpsdk.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	return result
}

func extractText(result *mcpsdk.CallToolResult) string {
	for _, content := range result.Content {
		if text, ok := content.(*mcpsdk.TextContent); ok {
			return text.Text
		}
	}

	return ""
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestMCPServer_InMemoryTransport_ToolsList(t *testing.T) {
	t.Parallel()

	session := connect(t, mcp.NewServer(mcp.ServerDeps{}))

	toolsResult, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	toolNames := make([]string, 0, len(toolsResult.Tools))
	for _, tool := range toolsResult.Tools {
		toolNames = append(toolNames, tool.Name)
		assert.NotNil(t, tool.InputSchema, "tool %s missing input schema", tool.Name)
	}

	assert.ElementsMatch(t, []string{mcp.ToolNameScan, mcp.ToolNameImports}, toolNames)
}

func TestMCPServer_InMemoryTransport_CallScan(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "app.py"), "import os\nimport numpy as np\nfrom yaml import safe_load\n")
	writeFile(t, filepath.Join(root, "pkg", "util.py"), "import mystery\n")

	registry := distreg.NewFromMap(
		map[string][]string{"numpy": {"numpy"}, "yaml": {"PyYAML"}},
		map[string]string{"numpy": "1.26.0", "PyYAML": "6.0.1"},
	)

	session := connect(t, mcp.NewServer(mcp.ServerDeps{Registry: registry}))

	result := callTool(t, session, mcp.ToolNameScan, map[string]any{
		"path":      root,
		"specifier": "==",
	})
	require.False(t, result.IsError, extractText(result))

	var decoded mcp.ScanResult
	require.NoError(t, json.Unmarshal([]byte(extractText(result)), &decoded))

	assert.Equal(t, []string{"numpy==1.26.0", "PyYAML==6.0.1"}, decoded.Requirements)
	assert.Equal(t, 2, decoded.Report.Summary.Files)
	assert.Equal(t, 1, decoded.Report.Summary.Builtin)
	assert.Equal(t, 1, decoded.Report.Summary.Unresolved)
	assert.Equal(t, "3.12", decoded.Report.PythonVersion)
}

func TestMCPServer_InMemoryTransport_CallImports(t *testing.T) {
	t.Parallel()

	session := connect(t, mcp.NewServer(mcp.ServerDeps{}))

	result := callTool(t, session, mcp.ToolNameImports, map[string]any{
		"code": "import sys, json\nfrom requests.adapters import HTTPAdapter\nfrom . import local\n",
	})
	require.False(t, result.IsError, extractText(result))

	var decoded mcp.ImportsResult
	require.NoError(t, json.Unmarshal([]byte(extractText(result)), &decoded))

	assert.Equal(t, []string{"json", "requests", "sys"}, decoded.Imports)
}
