// Package config loads pkglister settings from .pkglister.yaml, PKGLISTER_*
// environment variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dustin/go-humanize"

	"github.com/Sumatoshi-tech/pkglister/pkg/importmodel"
	"github.com/Sumatoshi-tech/pkglister/pkg/observability"
	"github.com/Sumatoshi-tech/pkglister/pkg/report"
	"github.com/Sumatoshi-tech/pkglister/pkg/scanner"
	"github.com/Sumatoshi-tech/pkglister/pkg/stdlib"
)

// Config is the top-level configuration struct for pkglister.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Scan          ScanConfig          `mapstructure:"scan"`
	Python        PythonConfig        `mapstructure:"python"`
	Output        OutputConfig        `mapstructure:"output"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// ScanConfig holds file selection and failure policy settings.
type ScanConfig struct {
	Extensions    []string `mapstructure:"extensions"`
	Exclude       []string `mapstructure:"exclude"`
	Gitignore     bool     `mapstructure:"gitignore"`
	SkipVendor    bool     `mapstructure:"skip_vendor"`
	DetectScripts bool     `mapstructure:"detect_scripts"`
	KeepGoing     bool     `mapstructure:"keep_going"`
	MaxFileSize   string   `mapstructure:"max_file_size"`
}

// PythonConfig selects the environment imports are resolved against.
type PythonConfig struct {
	Interpreter  string   `mapstructure:"interpreter"`
	Version      string   `mapstructure:"version"`
	SitePackages []string `mapstructure:"site_packages"`
	Probe        bool     `mapstructure:"probe"`
}

// OutputConfig holds report rendering settings.
type OutputConfig struct {
	Format    string `mapstructure:"format"`
	Specifier string `mapstructure:"specifier"`
	NoColor   bool   `mapstructure:"no_color"`
}

// ObservabilityConfig holds logging and telemetry settings.
type ObservabilityConfig struct {
	LogLevel     string `mapstructure:"log_level"`
	LogJSON      bool   `mapstructure:"log_json"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure"`
	OTLPHeaders  string `mapstructure:"otlp_headers"`
	MetricsFile  string `mapstructure:"metrics_file"`
}

// Sentinel errors for configuration validation.
var (
	// ErrInvalidMaxFileSize indicates scan.max_file_size is not a byte size.
	ErrInvalidMaxFileSize = errors.New("scan.max_file_size must be a byte size such as 10MiB")
	// ErrInvalidExclude indicates a malformed scan.exclude glob.
	ErrInvalidExclude = errors.New("scan.exclude contains an invalid glob")
	// ErrInvalidExtension indicates an empty entry in scan.extensions.
	ErrInvalidExtension = errors.New("scan.extensions entries must be non-empty")
	// ErrInvalidPythonVersion indicates python.version is not MAJOR.MINOR.
	ErrInvalidPythonVersion = errors.New("python.version must look like 3.12")
	// ErrInvalidFormat indicates an unsupported output.format.
	ErrInvalidFormat = errors.New("output.format is not supported")
	// ErrInvalidSpecifier indicates an unsupported output.specifier.
	ErrInvalidSpecifier = errors.New("output.specifier is not supported")
	// ErrInvalidLogLevel indicates an unknown observability.log_level.
	ErrInvalidLogLevel = errors.New("observability.log_level must be debug, info, warn or error")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	err := c.validateScan()
	if err != nil {
		return err
	}

	if c.Python.Version != "" {
		_, err = stdlib.ParseVersion(c.Python.Version)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidPythonVersion, err)
		}
	}

	if c.Output.Format != "" {
		_, err = report.ParseFormat(c.Output.Format)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidFormat, err)
		}
	}

	err = importmodel.ValidateSpecifier(c.Output.Specifier)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSpecifier, err)
	}

	_, err = c.LogLevel()

	return err
}

func (c *Config) validateScan() error {
	for _, ext := range c.Scan.Extensions {
		if strings.Trim(ext, ". ") == "" {
			return ErrInvalidExtension
		}
	}

	for _, pattern := range c.Scan.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("%w: %q", ErrInvalidExclude, pattern)
		}
	}

	_, err := c.MaxFileSizeBytes()

	return err
}

// MaxFileSizeBytes parses scan.max_file_size. Empty or "0" means unlimited.
func (c *Config) MaxFileSizeBytes() (int64, error) {
	raw := strings.TrimSpace(c.Scan.MaxFileSize)
	if raw == "" {
		return 0, nil
	}

	size, err := humanize.ParseBytes(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidMaxFileSize, err)
	}

	return int64(size), nil //nolint:gosec // sizes far below MaxInt64.
}

// LogLevel parses observability.log_level. Empty means warn.
func (c *Config) LogLevel() (slog.Level, error) {
	if c.Observability.LogLevel == "" {
		return slog.LevelWarn, nil
	}

	var level slog.Level

	err := level.UnmarshalText([]byte(c.Observability.LogLevel))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Observability.LogLevel)
	}

	return level, nil
}

// ScanOptions converts the scan section into scanner options.
func (c *Config) ScanOptions() (scanner.Options, error) {
	maxSize, err := c.MaxFileSizeBytes()
	if err != nil {
		return scanner.Options{}, err
	}

	return scanner.Options{
		Extensions:    slices.Clone(c.Scan.Extensions),
		Exclude:       slices.Clone(c.Scan.Exclude),
		Gitignore:     c.Scan.Gitignore,
		SkipVendor:    c.Scan.SkipVendor,
		DetectScripts: c.Scan.DetectScripts,
		KeepGoing:     c.Scan.KeepGoing,
		MaxFileSize:   maxSize,
	}, nil
}

// Telemetry converts the observability section for the given mode.
func (c *Config) Telemetry(mode observability.AppMode, version string) (observability.Config, error) {
	level, err := c.LogLevel()
	if err != nil {
		return observability.Config{}, err
	}

	cfg := observability.DefaultConfig()
	cfg.Mode = mode
	cfg.ServiceVersion = version
	cfg.LogLevel = level
	cfg.LogJSON = c.Observability.LogJSON
	cfg.OTLPEndpoint = c.Observability.OTLPEndpoint
	cfg.OTLPInsecure = c.Observability.OTLPInsecure
	cfg.OTLPHeaders = observability.ParseOTLPHeaders(c.Observability.OTLPHeaders)
	cfg.MetricsFile = c.Observability.MetricsFile

	return cfg, nil
}
