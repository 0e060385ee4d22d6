// Package resolver maps top-level import names to package metadata.
package resolver

import (
	"github.com/Sumatoshi-tech/pkglister/pkg/distreg"
	"github.com/Sumatoshi-tech/pkglister/pkg/importmodel"
	"github.com/Sumatoshi-tech/pkglister/pkg/stdlib"
)

// Registry is the read side of an installed distribution snapshot.
type Registry interface {
	Distributions(importName string) []string
	Version(distribution string) (string, bool)
}

// Resolver classifies import names as builtin or third-party and attaches
// distribution metadata. Resolution never fails: unknown names get empty
// distribution and version fields. A Resolver is not safe for concurrent use.
type Resolver struct {
	builtins stdlib.Set
	registry Registry
	resolved map[string]importmodel.Package
}

// New creates a Resolver over a builtin module set and a distribution registry.
// A nil registry resolves every non-builtin name to empty metadata.
func New(builtins stdlib.Set, registry Registry) *Resolver {
	if registry == nil {
		registry = distreg.Empty()
	}

	return &Resolver{
		builtins: builtins,
		registry: registry,
		resolved: make(map[string]importmodel.Package),
	}
}

// Resolve returns the package metadata for a top-level import name.
func (r *Resolver) Resolve(name string) importmodel.Package {
	if pkg, ok := r.resolved[name]; ok {
		return pkg
	}

	pkg := importmodel.Package{Name: name}

	if r.builtins.Contains(name) {
		pkg.Builtin = true
	} else if dists := r.registry.Distributions(name); len(dists) > 0 {
		pkg.DistributionName = dists[0]
		pkg.Version, _ = r.registry.Version(pkg.DistributionName)
	}

	r.resolved[name] = pkg

	return pkg
}

// ResolveAll resolves names in order.
func (r *Resolver) ResolveAll(names []string) importmodel.PackageList {
	packages := make(importmodel.PackageList, 0, len(names))
	for _, name := range names {
		packages = append(packages, r.Resolve(name))
	}

	return packages
}
