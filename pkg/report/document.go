// Package report renders scan results as text tables, JSON, YAML and
// requirements files.
package report

import (
	"github.com/Sumatoshi-tech/pkglister/pkg/importmodel"
)

// Document is the serialized form of a scanned project shared by the JSON
// and YAML formats. Missing distributions and versions encode as null.
type Document struct {
	Root          string         `json:"root"              yaml:"root"`
	PythonVersion string         `json:"python_version"    yaml:"python_version"    schema:"pattern=^[0-9]+[.][0-9]+$"`
	Summary       Summary        `json:"summary"           yaml:"summary"`
	Packages      []PackageEntry `json:"packages"          yaml:"packages"`
	Files         []FileEntry    `json:"files"             yaml:"files"`
	Skipped       []SkippedEntry `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// Summary holds the headline counts of a scan.
type Summary struct {
	Files      int `json:"files"       yaml:"files"       schema:"minimum=0"`
	Packages   int `json:"packages"    yaml:"packages"    schema:"minimum=0"`
	Builtin    int `json:"builtin"     yaml:"builtin"     schema:"minimum=0"`
	ThirdParty int `json:"third_party" yaml:"third_party" schema:"minimum=0"`
	Unresolved int `json:"unresolved"  yaml:"unresolved"  schema:"minimum=0"`
	Skipped    int `json:"skipped"     yaml:"skipped"     schema:"minimum=0"`
}

// PackageEntry describes one unique package and the files importing it.
type PackageEntry struct {
	Name         string   `json:"name"         yaml:"name"         schema:"minLength=1"`
	Distribution *string  `json:"distribution" yaml:"distribution"`
	Version      *string  `json:"version"      yaml:"version"`
	Builtin      bool     `json:"builtin"      yaml:"builtin"`
	Files        []string `json:"files"        yaml:"files"`
}

// FileEntry lists the package names a file imports.
type FileEntry struct {
	Path    string   `json:"path"    yaml:"path"`
	Imports []string `json:"imports" yaml:"imports"`
}

// SkippedEntry records a file left out of a keep-going scan.
type SkippedEntry struct {
	Path  string `json:"path"  yaml:"path"`
	Error string `json:"error" yaml:"error"`
}

// NewDocument builds the serialized view of project.
func NewDocument(project *importmodel.Project, pythonVersion string) Document {
	packages := project.Packages()
	byPackage := project.FilesByPackage()

	doc := Document{
		Root:          project.Root,
		PythonVersion: pythonVersion,
		Summary: Summary{
			Files:      len(project.Files),
			Packages:   len(packages),
			Builtin:    len(packages.Builtin()),
			ThirdParty: len(packages.ThirdParty()),
			Unresolved: len(packages.Unresolved()),
			Skipped:    len(project.Skipped),
		},
		Packages: make([]PackageEntry, 0, len(packages)),
		Files:    make([]FileEntry, 0, len(project.Files)),
	}

	for _, pkg := range packages {
		files := byPackage[pkg.Name]
		if files == nil {
			files = []string{}
		}

		doc.Packages = append(doc.Packages, PackageEntry{
			Name:         pkg.Name,
			Distribution: nullable(pkg.DistributionName),
			Version:      nullable(pkg.Version),
			Builtin:      pkg.Builtin,
			Files:        files,
		})
	}

	for _, file := range project.Files {
		doc.Files = append(doc.Files, FileEntry{Path: file.Path, Imports: file.Packages.Names()})
	}

	for _, skipped := range project.Skipped {
		doc.Skipped = append(doc.Skipped, SkippedEntry{Path: skipped.Path, Error: skipped.Err.Error()})
	}

	return doc
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}
