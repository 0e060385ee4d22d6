package mcp

import (
	"encoding/json"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool name constants.
const (
	ToolNameScan    = "pkglister_scan"
	ToolNameImports = "pkglister_imports"
)

// MaxCodeInputBytes is the maximum allowed size for inline code input (1 MB).
const MaxCodeInputBytes = 1 << 20

// Sentinel errors for tool input validation.
var (
	// ErrEmptyPath indicates the path parameter is empty.
	ErrEmptyPath = errors.New("path parameter is required and must not be empty")
	// ErrPathNotAbsolute indicates the path is not absolute.
	ErrPathNotAbsolute = errors.New("path must be an absolute path")
	// ErrPathNotFound indicates the path does not exist.
	ErrPathNotFound = errors.New("path does not exist")
	// ErrEmptyCode indicates the code parameter is empty.
	ErrEmptyCode = errors.New("code parameter is required and must not be empty")
	// ErrCodeTooLarge indicates the code input exceeds the size limit.
	ErrCodeTooLarge = errors.New("code input exceeds maximum size")
)

// ScanInput is the input schema for the pkglister_scan tool.
type ScanInput struct {
	Path          string   `json:"path"                     jsonschema:"absolute path of the directory to scan"`
	Specifier     string   `json:"specifier,omitempty"      jsonschema:"version specifier for requirement lines (e.g. == or >=)"`
	Exclude       []string `json:"exclude,omitempty"        jsonschema:"doublestar globs of paths to skip"`
	KeepGoing     bool     `json:"keep_going,omitempty"     jsonschema:"skip unreadable or unparsable files instead of failing"`
	PythonVersion string   `json:"python_version,omitempty" jsonschema:"python version selecting the standard library table (e.g. 3.11)"`
	SitePackages  []string `json:"site_packages,omitempty"  jsonschema:"site-packages directories to resolve distributions from"`
}

// ImportsInput is the input schema for the pkglister_imports tool.
type ImportsInput struct {
	Code string `json:"code" jsonschema:"python source code"`
}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}
