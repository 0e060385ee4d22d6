package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/pkglister/pkg/pyimports"
)

// NewImportsCommand creates the imports command.
func NewImportsCommand() *cobra.Command {
	var lines bool

	cmd := &cobra.Command{
		Use:   "imports <file>...",
		Short: "Print the top-level modules imported by Python files",
		Long: `Print the sorted top-level module names each file imports, without
resolving them. Files that fail to parse are reported and the remaining
files are still printed.

Examples:
  pkglister imports app.py
  pkglister imports --lines src/*.py`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImports(cmd.OutOrStdout(), args, lines)
		},
	}

	cmd.Flags().BoolVar(&lines, "lines", false, "print one import statement per line with its line number")

	return cmd
}

func runImports(w io.Writer, paths []string, lines bool) error {
	extractor := pyimports.NewExtractor()

	var errs []error

	for _, path := range paths {
		source, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("read %s: %w", path, err))

			continue
		}

		statements, err := extractor.Statements(source)
		if err != nil {
			errs = append(errs, fmt.Errorf("parse %s: %w", path, err))

			continue
		}

		if lines {
			printStatements(w, path, statements)

			continue
		}

		fmt.Fprintf(w, "%s: %s\n", path, strings.Join(pyimports.TopLevelNames(statements), " "))
	}

	return errors.Join(errs...)
}

func printStatements(w io.Writer, path string, statements []pyimports.Statement) {
	for _, stmt := range statements {
		switch s := stmt.(type) {
		case pyimports.PlainImport:
			fmt.Fprintf(w, "%s:%d: import %s\n", path, s.Line, strings.Join(s.Modules, ", "))
		case pyimports.FromImport:
			fmt.Fprintf(w, "%s:%d: from %s%s import ...\n", path, s.Line, strings.Repeat(".", s.Level), s.Module)
		}
	}
}
