package importmodel

// File represents a scanned source file with the packages it imports.
type File struct {
	Path     string
	Packages PackageList
}

// Imports reports whether the file imports a package named name.
func (f File) Imports(name string) bool {
	return f.Packages.Contains(name)
}

// SkippedFile records a file left out of a project because it could not be
// read or parsed.
type SkippedFile struct {
	Path string
	Err  error
}
