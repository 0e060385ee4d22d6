package importmodel

import (
	"slices"
	"strings"
)

// Project is the result of scanning a directory. Every view is derived from
// Files on demand, so they always reflect the current file list.
type Project struct {
	Root    string
	Files   []File
	Skipped []SkippedFile
}

// Packages returns every package imported by the project, deduplicated by
// name and sorted by name. The first occurrence of a name wins.
func (p *Project) Packages() PackageList {
	seen := make(map[string]struct{})
	packages := PackageList{}

	for _, file := range p.Files {
		for _, pkg := range file.Packages {
			if _, dup := seen[pkg.Name]; dup {
				continue
			}

			seen[pkg.Name] = struct{}{}
			packages = append(packages, pkg)
		}
	}

	slices.SortStableFunc(packages, func(a, b Package) int {
		return strings.Compare(a.Name, b.Name)
	})

	return packages
}

// Requirements returns the third-party packages of the project.
func (p *Project) Requirements() PackageList {
	return p.Packages().ThirdParty()
}

// Builtins returns the standard library packages imported by the project.
func (p *Project) Builtins() PackageList {
	return p.Packages().Builtin()
}

// Unresolved returns imported names that are neither builtin nor provided by
// an installed distribution.
func (p *Project) Unresolved() PackageList {
	return p.Packages().Unresolved()
}

// FormattedRequirements renders the requirements of the project. With a
// non-empty specifier ("==", ">=", ...) each entry is distribution+specifier+version;
// otherwise entries are bare distribution names.
func (p *Project) FormattedRequirements(specifier string) []string {
	requirements := p.Requirements()
	lines := make([]string, 0, len(requirements))

	for _, pkg := range requirements {
		switch {
		case specifier != "":
			lines = append(lines, pkg.FormatRequirement(specifier))
		case pkg.DistributionName != "":
			lines = append(lines, pkg.DistributionName)
		default:
			lines = append(lines, pkg.Name)
		}
	}

	return lines
}

// FilesByPackage maps each package name to the paths of the files importing it,
// in file order.
func (p *Project) FilesByPackage() map[string][]string {
	byPackage := make(map[string][]string)

	for _, pkg := range p.Packages() {
		for _, file := range p.Files {
			if file.Imports(pkg.Name) {
				byPackage[pkg.Name] = append(byPackage[pkg.Name], file.Path)
			}
		}
	}

	return byPackage
}
