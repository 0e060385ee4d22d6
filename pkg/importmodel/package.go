// Package importmodel defines the data model for Python import analysis:
// resolved packages, scanned files and the project-level views derived from them.
package importmodel

import (
	"errors"
	"fmt"
	"slices"
)

// ErrInvalidSpecifier indicates a version specifier that is not a PEP 440 operator.
var ErrInvalidSpecifier = errors.New("version specifier must be one of == >= <= ~= != > < ===")

// Specifiers lists the PEP 440 comparison operators accepted for requirement lines.
func Specifiers() []string {
	return []string{"==", ">=", "<=", "~=", "!=", ">", "<", "==="}
}

// ValidateSpecifier accepts an empty specifier, which writes bare names, or
// one of Specifiers.
func ValidateSpecifier(specifier string) error {
	if specifier == "" || slices.Contains(Specifiers(), specifier) {
		return nil
	}

	return fmt.Errorf("%w: %q", ErrInvalidSpecifier, specifier)
}

// Package is an imported top-level module together with the distribution
// that provides it. Empty DistributionName and Version mean the metadata is unknown.
type Package struct {
	Name             string
	DistributionName string
	Version          string
	Builtin          bool
}

// HasDistribution reports whether an installed distribution provides the package.
func (p Package) HasDistribution() bool {
	return p.DistributionName != ""
}

// ThirdParty reports whether the package can be written as a requirement.
func (p Package) ThirdParty() bool {
	return !p.Builtin && p.HasDistribution()
}

// FormatRequirement renders the package as distribution+specifier+version,
// e.g. "numpy==1.26.0" for specifier "==".
func (p Package) FormatRequirement(specifier string) string {
	return p.DistributionName + specifier + p.Version
}

// PackageList is an ordered list of packages with filtering helpers.
type PackageList []Package

// Names returns the package names in list order.
func (l PackageList) Names() []string {
	names := make([]string, 0, len(l))
	for _, pkg := range l {
		names = append(names, pkg.Name)
	}

	return names
}

// ThirdParty returns the packages that are not builtin and have a known distribution.
func (l PackageList) ThirdParty() PackageList {
	return l.filter(Package.ThirdParty)
}

// Builtin returns the standard library packages.
func (l PackageList) Builtin() PackageList {
	return l.filter(func(p Package) bool { return p.Builtin })
}

// Unresolved returns non-builtin packages without a known distribution.
func (l PackageList) Unresolved() PackageList {
	return l.filter(func(p Package) bool { return !p.Builtin && !p.HasDistribution() })
}

// Contains reports whether a package named name is in the list.
func (l PackageList) Contains(name string) bool {
	for _, pkg := range l {
		if pkg.Name == name {
			return true
		}
	}

	return false
}

func (l PackageList) filter(keep func(Package) bool) PackageList {
	out := PackageList{}

	for _, pkg := range l {
		if keep(pkg) {
			out = append(out, pkg)
		}
	}

	return out
}
