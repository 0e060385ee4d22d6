package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/pkglister/internal/config"
	"github.com/Sumatoshi-tech/pkglister/pkg/importmodel"
	"github.com/Sumatoshi-tech/pkglister/pkg/observability"
	"github.com/Sumatoshi-tech/pkglister/pkg/report"
	"github.com/Sumatoshi-tech/pkglister/pkg/resolver"
	"github.com/Sumatoshi-tech/pkglister/pkg/scanner"
	"github.com/Sumatoshi-tech/pkglister/pkg/stdlib"
)

// Scan flag names that override config values only when set.
const (
	flagFormat        = "format"
	flagSpecifier     = "specifier"
	flagKeepGoing     = "keep-going"
	flagExclude       = "exclude"
	flagGitignore     = "gitignore"
	flagSkipVendor    = "skip-vendor"
	flagPython        = "python"
	flagProbe         = "probe"
	flagSitePackages  = "site-packages"
	flagPythonVersion = "python-version"
	flagMetricsFile   = "metrics-file"
	flagNoColor       = "no-color"
)

// scanFlags holds the raw scan command flags.
type scanFlags struct {
	format        string
	specifier     string
	output        string
	builtins      bool
	files         bool
	keepGoing     bool
	exclude       []string
	gitignore     bool
	skipVendor    bool
	python        string
	probe         bool
	sitePackages  []string
	pythonVersion string
	check         string
	metricsFile   string
	noColor       bool
}

// NewScanCommand creates the scan command.
func NewScanCommand(globals *GlobalOptions) *cobra.Command {
	flags := &scanFlags{}

	cmd := &cobra.Command{
		Use:   "scan [dir]",
		Short: "Scan a directory and list the packages it imports",
		Long: `Scan every Python file below dir (default: the current directory), extract
its imports and resolve them to builtin modules or installed distributions.

Examples:
  pkglister scan
  pkglister scan ./src --format requirements --specifier ">=" -o requirements.txt
  pkglister scan . --check requirements.txt --specifier "=="
  pkglister scan . --format json --site-packages .venv/lib/python3.12/site-packages`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) > 0 {
				root = args[0]
			}

			return runScan(cmd, globals, flags, root)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.format, flagFormat, config.DefaultOutputFormat, "output format: text, json, yaml or requirements")
	f.StringVar(&flags.specifier, flagSpecifier, "", "version specifier for requirement lines (e.g. == or >=)")
	f.StringVarP(&flags.output, "output", "o", "", "write the report to a file instead of stdout")
	f.BoolVar(&flags.builtins, "builtins", false, "list builtin modules in text output")
	f.BoolVar(&flags.files, "files", false, "show importing files per package in text output")
	f.BoolVar(&flags.keepGoing, flagKeepGoing, false, "skip unreadable or unparsable files instead of failing")
	f.StringArrayVar(&flags.exclude, flagExclude, nil, "glob of paths to skip, relative to dir (repeatable)")
	f.BoolVar(&flags.gitignore, flagGitignore, config.DefaultScanGitignore, "honor .gitignore files")
	f.BoolVar(&flags.skipVendor, flagSkipVendor, config.DefaultScanSkipVendor, "skip vendored directories")
	f.StringVar(&flags.python, flagPython, "", "python interpreter to probe for installed packages")
	f.BoolVar(&flags.probe, flagProbe, config.DefaultPythonProbe, "probe the python interpreter for installed packages")
	f.StringArrayVar(&flags.sitePackages, flagSitePackages, nil, "site-packages directory to resolve from (repeatable)")
	f.StringVar(&flags.pythonVersion, flagPythonVersion, "", "python version selecting the standard library table (e.g. 3.11)")
	f.StringVar(&flags.check, "check", "", "fail when the generated requirements differ from this file")
	f.StringVar(&flags.metricsFile, flagMetricsFile, "", "write scan metrics to this Prometheus textfile")
	f.BoolVar(&flags.noColor, flagNoColor, false, "disable colored output")

	return cmd
}

// apply overrides config values with the flags set on cmd.
func (f *scanFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	changed := cmd.Flags().Changed

	if changed(flagFormat) {
		cfg.Output.Format = f.format
	}

	if changed(flagSpecifier) {
		cfg.Output.Specifier = f.specifier
	}

	if changed(flagNoColor) {
		cfg.Output.NoColor = f.noColor
	}

	if changed(flagKeepGoing) {
		cfg.Scan.KeepGoing = f.keepGoing
	}

	if changed(flagExclude) {
		cfg.Scan.Exclude = append(cfg.Scan.Exclude, f.exclude...)
	}

	if changed(flagGitignore) {
		cfg.Scan.Gitignore = f.gitignore
	}

	if changed(flagSkipVendor) {
		cfg.Scan.SkipVendor = f.skipVendor
	}

	if changed(flagPython) {
		cfg.Python.Interpreter = f.python
	}

	if changed(flagProbe) {
		cfg.Python.Probe = f.probe
	}

	if changed(flagSitePackages) {
		cfg.Python.SitePackages = f.sitePackages
	}

	if changed(flagPythonVersion) {
		cfg.Python.Version = f.pythonVersion
	}

	if changed(flagMetricsFile) {
		cfg.Observability.MetricsFile = f.metricsFile
	}

	err := cfg.Validate()
	if err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	return nil
}

func runScan(cmd *cobra.Command, globals *GlobalOptions, flags *scanFlags, root string) error {
	cfg, err := config.LoadConfig(globals.ConfigPath)
	if err != nil {
		return err
	}

	err = flags.apply(cmd, cfg)
	if err != nil {
		return err
	}

	providers, err := initObservability(cfg, globals, observability.ModeCLI, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer shutdownObservability(providers)

	ctx := cmd.Context()

	pyVersion, registry, err := resolveEnvironment(ctx, cfg, providers.Logger)
	if err != nil {
		return err
	}

	metrics, err := observability.NewScanMetrics(providers.Meter)
	if err != nil {
		return err
	}

	opts, err := cfg.ScanOptions()
	if err != nil {
		return err
	}

	sc := scanner.New(resolver.New(stdlib.ForVersion(pyVersion), registry), opts, scanner.Deps{
		Logger:  providers.Logger,
		Tracer:  providers.Tracer,
		Metrics: metrics,
	})

	project, err := sc.ScanDir(ctx, root)
	if err != nil {
		return err
	}

	format, err := report.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	err = writeReport(cmd.OutOrStdout(), flags.output, project, report.Options{
		Format:        format,
		Specifier:     cfg.Output.Specifier,
		PythonVersion: pyVersion.String(),
		ShowBuiltins:  flags.builtins,
		ShowFiles:     flags.files,
		NoColor:       cfg.Output.NoColor,
	})
	if err != nil {
		return err
	}

	if flags.check == "" {
		return nil
	}

	return checkRequirements(cmd.ErrOrStderr(), flags.check, project.FormattedRequirements(cfg.Output.Specifier))
}

func writeReport(stdout io.Writer, path string, project *importmodel.Project, opts report.Options) error {
	if path == "" {
		return report.Write(stdout, project, opts)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	// Files never get ANSI sequences.
	opts.NoColor = true

	writeErr := report.Write(file, project, opts)
	closeErr := file.Close()

	return errors.Join(writeErr, closeErr)
}

func checkRequirements(w io.Writer, path string, generated []string) error {
	result, err := report.CheckFile(path, generated)
	if err != nil {
		return err
	}

	if !result.Equal {
		fmt.Fprintf(w, "--- %s\n+++ generated\n%s", path, result.Diff)
	}

	return result.Err()
}
