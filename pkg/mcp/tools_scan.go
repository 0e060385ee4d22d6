package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/pkglister/pkg/distreg"
	"github.com/Sumatoshi-tech/pkglister/pkg/importmodel"
	"github.com/Sumatoshi-tech/pkglister/pkg/pyimports"
	"github.com/Sumatoshi-tech/pkglister/pkg/report"
	"github.com/Sumatoshi-tech/pkglister/pkg/resolver"
	"github.com/Sumatoshi-tech/pkglister/pkg/scanner"
	"github.com/Sumatoshi-tech/pkglister/pkg/stdlib"
)

// ScanResult is the structured output of the pkglister_scan tool.
type ScanResult struct {
	Report       report.Document `json:"report"`
	Requirements []string        `json:"requirements"`
}

// ImportsResult is the structured output of the pkglister_imports tool.
type ImportsResult struct {
	Imports []string `json:"imports"`
}

func (s *Server) handleScan(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input ScanInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validatePath(input.Path)
	if err != nil {
		return errorResult(err)
	}

	err = importmodel.ValidateSpecifier(input.Specifier)
	if err != nil {
		return errorResult(err)
	}

	pyVersion := s.deps.PythonVersion
	if input.PythonVersion != "" {
		pyVersion, err = stdlib.ParseVersion(input.PythonVersion)
		if err != nil {
			return errorResult(err)
		}
	}

	registry := s.deps.Registry
	if len(input.SitePackages) > 0 {
		registry, err = distreg.Load(input.SitePackages, s.deps.Logger)
		if err != nil {
			return errorResult(fmt.Errorf("load site-packages: %w", err))
		}
	}

	opts := s.deps.ScanOptions
	opts.Exclude = append(append([]string(nil), opts.Exclude...), input.Exclude...)
	opts.KeepGoing = opts.KeepGoing || input.KeepGoing

	sc := scanner.New(resolver.New(stdlib.ForVersion(pyVersion), registry), opts, scanner.Deps{
		Logger:  s.deps.Logger,
		Tracer:  s.deps.Tracer,
		Metrics: s.deps.Metrics,
	})

	project, err := sc.ScanDir(ctx, input.Path)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(ScanResult{
		Report:       report.NewDocument(project, pyVersion.String()),
		Requirements: project.FormattedRequirements(input.Specifier),
	})
}

func handleImports(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	input ImportsInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if input.Code == "" {
		return errorResult(ErrEmptyCode)
	}

	if len(input.Code) > MaxCodeInputBytes {
		return errorResult(fmt.Errorf("%w: %d bytes (max %d)", ErrCodeTooLarge, len(input.Code), MaxCodeInputBytes))
	}

	names, err := pyimports.Extract([]byte(input.Code))
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(ImportsResult{Imports: names})
}

func validatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}

	if !filepath.IsAbs(path) {
		return fmt.Errorf("%w: %s", ErrPathNotAbsolute, path)
	}

	_, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrPathNotFound, path)
	}

	return nil
}
