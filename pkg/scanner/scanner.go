// Package scanner turns Python source files and directory trees into
// resolved import data.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/pkglister/pkg/importmodel"
	"github.com/Sumatoshi-tech/pkglister/pkg/observability"
	"github.com/Sumatoshi-tech/pkglister/pkg/pyimports"
	"github.com/Sumatoshi-tech/pkglister/pkg/resolver"
)

// DefaultExtensions lists the file extensions scanned when none are configured.
var DefaultExtensions = []string{".py"} //nolint:gochecknoglobals // read-only default.

// Options control file selection and the failure policy of a scan.
type Options struct {
	// Extensions selects files by suffix. Empty means DefaultExtensions.
	Extensions []string

	// Exclude holds doublestar globs matched against root-relative slash paths.
	Exclude []string

	// Gitignore honors .gitignore files found in the scanned tree.
	Gitignore bool

	// SkipVendor prunes vendored paths such as virtualenvs and node_modules.
	SkipVendor bool

	// DetectScripts scans extensionless files with a Python shebang.
	DetectScripts bool

	// KeepGoing records failing files in Project.Skipped instead of aborting.
	KeepGoing bool

	// MaxFileSize is the largest file read, in bytes. Zero means unlimited.
	MaxFileSize int64
}

// Deps holds the optional collaborators of a Scanner.
type Deps struct {
	Logger  *slog.Logger
	Tracer  trace.Tracer
	Metrics *observability.ScanMetrics
}

// Scanner extracts and resolves imports file by file. It is not safe for
// concurrent use: scans are sequential.
type Scanner struct {
	opts      Options
	extractor *pyimports.Extractor
	resolver  *resolver.Resolver
	logger    *slog.Logger
	tracer    trace.Tracer
	metrics   *observability.ScanMetrics
}

// New creates a Scanner resolving imports with res.
func New(res *resolver.Resolver, opts Options, deps Deps) *Scanner {
	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultExtensions
	}

	if deps.Logger == nil {
		deps.Logger = observability.DiscardLogger()
	}

	if deps.Tracer == nil {
		deps.Tracer = nooptrace.NewTracerProvider().Tracer("")
	}

	return &Scanner{
		opts:      opts,
		extractor: pyimports.NewExtractor(),
		resolver:  res,
		logger:    deps.Logger,
		tracer:    deps.Tracer,
		metrics:   deps.Metrics,
	}
}

// ScanFile extracts the imports of one file, drops names that refer to the
// file's own location and resolves the rest in sorted order.
func (s *Scanner) ScanFile(ctx context.Context, path string) (importmodel.File, error) {
	err := ctx.Err()
	if err != nil {
		return importmodel.File{}, fmt.Errorf("scan %s: %w", path, err)
	}

	return s.scanFile(ctx, path)
}

func (s *Scanner) scanFile(ctx context.Context, path string) (importmodel.File, error) {
	source, err := s.read(path)
	if err != nil {
		return importmodel.File{}, &FileError{Path: path, Op: OpRead, Err: err}
	}

	names, err := s.extractor.Extract(source)
	if err != nil {
		return importmodel.File{}, &FileError{Path: path, Op: OpParse, Err: err}
	}

	self := selfNames(path)
	kept := names[:0]

	for _, name := range names {
		if _, ok := self[name]; ok {
			continue
		}

		kept = append(kept, name)
	}

	s.logger.DebugContext(ctx, "scanned file", "path", path, "imports", len(kept), "self_references", len(names)-len(kept))

	return importmodel.File{Path: path, Packages: s.resolver.ResolveAll(kept)}, nil
}

func (s *Scanner) read(path string) ([]byte, error) {
	if s.opts.MaxFileSize > 0 {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}

		if info.Size() > s.opts.MaxFileSize {
			return nil, fmt.Errorf("%w: %s exceeds %s", ErrFileTooLarge,
				humanize.IBytes(uint64(info.Size())), humanize.IBytes(uint64(s.opts.MaxFileSize)))
		}
	}

	return os.ReadFile(path)
}

// selfNames returns every component of the path as walked plus the file
// stem. An import matching one of them refers to the project itself. A
// relative root contributes only the components below the working directory.
func selfNames(path string) map[string]struct{} {
	clean := filepath.Clean(path)
	names := make(map[string]struct{})

	for part := range strings.SplitSeq(filepath.ToSlash(clean), "/") {
		if part != "" && part != "." && part != ".." {
			names[part] = struct{}{}
		}
	}

	base := filepath.Base(clean)
	names[strings.TrimSuffix(base, filepath.Ext(base))] = struct{}{}

	return names
}

// ScanDir walks root in lexical order and scans every selected file,
// including files without imports. By default the first failing file aborts
// the scan; with KeepGoing it is recorded in Project.Skipped.
func (s *Scanner) ScanDir(ctx context.Context, root string) (*importmodel.Project, error) {
	ctx, span := s.tracer.Start(ctx, "pkglister.scan.dir", trace.WithAttributes(attribute.String("pkglister.root", root)))
	defer span.End()

	start := time.Now()

	info, err := os.Stat(root)
	if err != nil {
		return nil, &FileError{Path: root, Op: OpRead, Err: err}
	}

	if !info.IsDir() {
		return nil, &FileError{Path: root, Op: OpRead, Err: fmt.Errorf("%w: not a directory", fs.ErrInvalid)}
	}

	filter, err := newPathFilter(root, s.opts)
	if err != nil {
		return nil, err
	}

	project := &importmodel.Project{Root: root}

	err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return s.fail(ctx, project, &FileError{Path: path, Op: OpRead, Err: walkErr}, entry)
		}

		if entry.IsDir() {
			if filter.skipDir(path) {
				return filepath.SkipDir
			}

			return nil
		}

		regular, statErr := isRegular(path, entry)
		if (statErr == nil && !regular) || !filter.selectFile(path) {
			return nil
		}

		if statErr != nil {
			return s.fail(ctx, project, &FileError{Path: path, Op: OpRead, Err: statErr}, entry)
		}

		ctxErr := ctx.Err()
		if ctxErr != nil {
			return ctxErr
		}

		file, scanErr := s.scanFile(ctx, path)
		if scanErr != nil {
			return s.fail(ctx, project, scanErr, entry)
		}

		project.Files = append(project.Files, file)

		return nil
	})
	if err != nil {
		span.RecordError(err)

		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	s.record(ctx, project, time.Since(start))

	return project, nil
}

// isRegular reports whether entry is a regular file, following symlinks.
func isRegular(path string, entry fs.DirEntry) (bool, error) {
	if entry.Type()&fs.ModeSymlink == 0 {
		return entry.Type().IsRegular(), nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}

	return info.Mode().IsRegular(), nil
}

// fail applies the failure policy: abort, or skip and remember the file.
func (s *Scanner) fail(ctx context.Context, project *importmodel.Project, err error, entry fs.DirEntry) error {
	if !s.opts.KeepGoing {
		return err
	}

	var fileErr *FileError

	reason := OpRead
	path := ""

	if errors.As(err, &fileErr) {
		reason = fileErr.Op
		path = fileErr.Path
	}

	s.logger.WarnContext(ctx, "skipping file", "path", path, "error", err)
	s.metrics.RecordSkipped(ctx, reason)

	project.Skipped = append(project.Skipped, importmodel.SkippedFile{Path: path, Err: err})

	if entry != nil && entry.IsDir() {
		return filepath.SkipDir
	}

	return nil
}

func (s *Scanner) record(ctx context.Context, project *importmodel.Project, elapsed time.Duration) {
	packages := project.Packages()

	stats := observability.ScanStats{
		Files:      len(project.Files),
		Builtin:    len(packages.Builtin()),
		ThirdParty: len(packages.ThirdParty()),
		Unresolved: len(packages.Unresolved()),
		Duration:   elapsed,
	}

	s.metrics.RecordScan(ctx, stats)

	s.logger.InfoContext(ctx, "scan complete",
		"root", project.Root,
		"files", stats.Files,
		"packages", len(packages),
		"third_party", stats.ThirdParty,
		"skipped", len(project.Skipped),
		"duration", elapsed.Round(time.Millisecond))
}
