package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricFilesScanned     = "pkglister.scan.files.total"
	metricFilesSkipped     = "pkglister.scan.skipped.total"
	metricPackagesResolved = "pkglister.scan.packages.total"
	metricScanDuration     = "pkglister.scan.duration.seconds"

	attrKind   = "kind"
	attrReason = "reason"

	// KindBuiltin labels standard library packages.
	KindBuiltin = "builtin"
	// KindThirdParty labels packages with a resolved distribution.
	KindThirdParty = "third_party"
	// KindUnresolved labels non-builtin packages without a distribution.
	KindUnresolved = "unresolved"
)

// durationBucketBoundaries covers 1ms to 120s, from a single file to a large monorepo.
var durationBucketBoundaries = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120} //nolint:gochecknoglobals // bucket layout.

// ScanStats summarizes one completed directory scan.
type ScanStats struct {
	Files      int
	Builtin    int
	ThirdParty int
	Unresolved int
	Duration   time.Duration
}

// ScanMetrics holds the OTel instruments recorded by the scanner.
type ScanMetrics struct {
	filesScanned     metric.Int64Counter
	filesSkipped     metric.Int64Counter
	packagesResolved metric.Int64Counter
	scanDuration     metric.Float64Histogram
}

// NewScanMetrics creates scan metric instruments from the given meter.
func NewScanMetrics(mt metric.Meter) (*ScanMetrics, error) {
	files, err := mt.Int64Counter(metricFilesScanned,
		metric.WithDescription("Python source files scanned"),
		metric.WithUnit("{file}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricFilesScanned, err)
	}

	skipped, err := mt.Int64Counter(metricFilesSkipped,
		metric.WithDescription("Files skipped because they could not be read or parsed"),
		metric.WithUnit("{file}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricFilesSkipped, err)
	}

	packages, err := mt.Int64Counter(metricPackagesResolved,
		metric.WithDescription("Unique packages found per scan by kind"),
		metric.WithUnit("{package}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricPackagesResolved, err)
	}

	duration, err := mt.Float64Histogram(metricScanDuration,
		metric.WithDescription("Directory scan duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricScanDuration, err)
	}

	return &ScanMetrics{
		filesScanned:     files,
		filesSkipped:     skipped,
		packagesResolved: packages,
		scanDuration:     duration,
	}, nil
}

// RecordSkipped counts one skipped file. Safe to call on a nil receiver.
func (sm *ScanMetrics) RecordSkipped(ctx context.Context, reason string) {
	if sm == nil {
		return
	}

	sm.filesSkipped.Add(ctx, 1, metric.WithAttributes(attribute.String(attrReason, reason)))
}

// RecordScan records the totals of a completed scan. Safe to call on a nil receiver.
func (sm *ScanMetrics) RecordScan(ctx context.Context, stats ScanStats) {
	if sm == nil {
		return
	}

	sm.filesScanned.Add(ctx, int64(stats.Files))
	sm.scanDuration.Record(ctx, stats.Duration.Seconds())

	sm.packagesResolved.Add(ctx, int64(stats.Builtin), metric.WithAttributes(attribute.String(attrKind, KindBuiltin)))
	sm.packagesResolved.Add(ctx, int64(stats.ThirdParty), metric.WithAttributes(attribute.String(attrKind, KindThirdParty)))
	sm.packagesResolved.Add(ctx, int64(stats.Unresolved), metric.WithAttributes(attribute.String(attrKind, KindUnresolved)))
}
