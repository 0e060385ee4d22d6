// Package distreg builds a read-only snapshot of installed Python distributions
// from site-packages metadata, mapping import names to distribution names and
// distribution names to versions.
package distreg

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

// Metadata directory suffixes recognized in a site-packages directory.
const (
	distInfoSuffix = ".dist-info"
	eggInfoSuffix  = ".egg-info"
)

var nameSeparators = regexp.MustCompile(`[-_.]+`)

// NormalizeName applies PEP 503 normalization to a distribution name.
func NormalizeName(name string) string {
	return strings.ToLower(nameSeparators.ReplaceAllString(name, "-"))
}

// Distribution is one installed distribution found in a site-packages directory.
type Distribution struct {
	Name     string
	Version  string
	TopLevel []string
	Path     string
}

// Registry is an immutable snapshot of installed distributions.
type Registry struct {
	byImport map[string][]string
	versions map[string]string
	dists    []Distribution
}

// Empty returns a registry with no distributions.
func Empty() *Registry {
	return &Registry{
		byImport: map[string][]string{},
		versions: map[string]string{},
	}
}

// New builds a registry from distributions in discovery order. The first
// distribution registered for a normalized name determines its version.
func New(dists []Distribution) *Registry {
	reg := Empty()

	for _, dist := range dists {
		reg.add(dist)
	}

	return reg
}

// NewFromMap builds a registry from an import name to distribution mapping and a
// distribution to version mapping.
func NewFromMap(byImport map[string][]string, versions map[string]string) *Registry {
	reg := Empty()

	for name, dists := range byImport {
		reg.byImport[name] = slices.Clone(dists)
	}

	for dist, version := range versions {
		reg.versions[NormalizeName(dist)] = version
	}

	return reg
}

func (r *Registry) add(dist Distribution) {
	r.dists = append(r.dists, dist)

	key := NormalizeName(dist.Name)
	if _, exists := r.versions[key]; !exists {
		r.versions[key] = dist.Version
	}

	for _, name := range dist.TopLevel {
		if !slices.Contains(r.byImport[name], dist.Name) {
			r.byImport[name] = append(r.byImport[name], dist.Name)
		}
	}
}

// Distributions returns the names of the distributions providing importName,
// in discovery order.
func (r *Registry) Distributions(importName string) []string {
	return slices.Clone(r.byImport[importName])
}

// Version returns the installed version of a distribution.
func (r *Registry) Version(distribution string) (string, bool) {
	version, ok := r.versions[NormalizeName(distribution)]

	return version, ok
}

// Len returns the number of import names known to the registry.
func (r *Registry) Len() int {
	return len(r.byImport)
}

// Installed returns the distributions found while loading, in discovery order.
func (r *Registry) Installed() []Distribution {
	return slices.Clone(r.dists)
}

// Load reads every site-packages directory in paths, in order. Missing
// directories are ignored; a distribution whose metadata cannot be read is
// logged and left out of the snapshot.
func Load(paths []string, logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var dists []Distribution

	for _, dir := range paths {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}

			return nil, fmt.Errorf("read site-packages %s: %w", dir, err)
		}

		for _, entry := range entries {
			name := entry.Name()
			if !entry.IsDir() || !(strings.HasSuffix(name, distInfoSuffix) || strings.HasSuffix(name, eggInfoSuffix)) {
				continue
			}

			dist, readErr := readDistribution(dir, filepath.Join(dir, name))
			if readErr != nil {
				logger.Debug("skipping distribution metadata", "path", filepath.Join(dir, name), "error", readErr)

				continue
			}

			dists = append(dists, dist)
		}
	}

	reg := New(dists)

	logger.Debug("loaded distribution registry",
		"site_packages", len(paths), "distributions", len(reg.dists), "import_names", reg.Len())

	return reg, nil
}
