package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/pkglister/pkg/report"
)

// ErrInvalidReport indicates a report that does not match the report schema.
var ErrInvalidReport = errors.New("report does not match the schema")

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	var nocolor, quiet bool

	cmd := &cobra.Command{
		Use:   "validate <report.json|->",
		Short: "Validate a JSON report against the report schema",
		Long: `Validate a report produced by "pkglister scan --format json" against the
embedded JSON schema.

Examples:
  pkglister validate report.json
  pkglister scan --format json | pkglister validate -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args[0], quiet, nocolor)
		},
	}

	cmd.Flags().BoolVar(&nocolor, flagNoColor, false, "disable colored output")
	cmd.Flags().BoolVar(&quiet, "silent", false, "print nothing when the report is valid")

	return cmd
}

func runValidate(cmd *cobra.Command, inputPath string, quiet, nocolor bool) error {
	data, label, err := readInput(cmd.InOrStdin(), inputPath)
	if err != nil {
		return err
	}

	result, err := report.Validate(data)
	if err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}

	out := cmd.OutOrStdout()
	green := newColor(nocolor, color.FgGreen)
	red := newColor(nocolor, color.FgRed)

	if result.Valid {
		if !quiet {
			green.Fprintf(out, "report is valid (%s)\n", label)
		}

		return nil
	}

	red.Fprintf(out, "report validation failed (%s)\n", label)

	fmt.Fprintf(out, "\nErrors:\n")

	for _, msg := range result.Errors {
		red.Fprintf(out, "  - %s\n", msg)
	}

	return fmt.Errorf("%w: %s", ErrInvalidReport, label)
}

//nolint:nonamedreturns // named returns needed for gocritic unnamedResult
func readInput(stdin io.Reader, path string) (data []byte, label string, err error) {
	if path == "-" {
		data, err = io.ReadAll(stdin)
		if err != nil {
			return nil, "", fmt.Errorf("read stdin: %w", err)
		}

		return data, "stdin", nil
	}

	data, err = os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read report: %w", err)
	}

	return data, path, nil
}

func newColor(disabled bool, attr color.Attribute) *color.Color {
	c := color.New(attr)
	if disabled {
		c.DisableColor()
	}

	return c
}
