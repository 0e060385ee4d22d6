package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/pkglister/pkg/importmodel"
)

// Format selects how a project is rendered.
type Format string

// Supported formats.
const (
	FormatText         Format = "text"
	FormatJSON         Format = "json"
	FormatYAML         Format = "yaml"
	FormatRequirements Format = "requirements"
)

// ErrUnknownFormat is returned for unsupported format names.
var ErrUnknownFormat = errors.New("unknown output format")

// Formats lists every supported format name.
func Formats() []string {
	return []string{string(FormatText), string(FormatJSON), string(FormatYAML), string(FormatRequirements)}
}

// ParseFormat validates a format name. Matching is case-insensitive.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatText, FormatJSON, FormatYAML, FormatRequirements:
		return f, nil
	case "txt":
		return FormatRequirements, nil
	default:
		return "", fmt.Errorf("%w: %q (want one of %s)", ErrUnknownFormat, name, strings.Join(Formats(), ", "))
	}
}

// Options control rendering.
type Options struct {
	Format        Format
	Specifier     string
	PythonVersion string
	ShowBuiltins  bool
	ShowFiles     bool
	NoColor       bool
}

// Write renders project to w in the selected format.
func Write(w io.Writer, project *importmodel.Project, opts Options) error {
	switch opts.Format {
	case FormatText, "":
		return WriteText(w, project, opts)
	case FormatJSON:
		return WriteJSON(w, NewDocument(project, opts.PythonVersion))
	case FormatYAML:
		return WriteYAML(w, NewDocument(project, opts.PythonVersion))
	case FormatRequirements:
		return WriteRequirements(w, project, opts.Specifier)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, opts.Format)
	}
}

// WriteJSON encodes doc as indented JSON.
func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	err := enc.Encode(doc)
	if err != nil {
		return fmt.Errorf("encode json report: %w", err)
	}

	return nil
}

// WriteYAML encodes doc as YAML.
func WriteYAML(w io.Writer, doc Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2) //nolint:mnd // two-space indent.

	err := enc.Encode(doc)
	if err != nil {
		return fmt.Errorf("encode yaml report: %w", err)
	}

	err = enc.Close()
	if err != nil {
		return fmt.Errorf("close yaml encoder: %w", err)
	}

	return nil
}

// WriteRequirements writes one requirement per line, in package name order.
func WriteRequirements(w io.Writer, project *importmodel.Project, specifier string) error {
	for _, line := range project.FormattedRequirements(specifier) {
		_, err := fmt.Fprintln(w, line)
		if err != nil {
			return fmt.Errorf("write requirements: %w", err)
		}
	}

	return nil
}
