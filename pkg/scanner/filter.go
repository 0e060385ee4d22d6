package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/denormal/go-gitignore"
	"github.com/src-d/enry/v2"
)

const (
	gitignoreFile = ".gitignore"
	gitDir        = ".git"
	pythonLang    = "Python"

	// shebangProbeSize bounds how much of an extensionless file is read to detect a script.
	shebangProbeSize = 512
)

// ignoreMatcher pairs a .gitignore with the directory it was found in.
type ignoreMatcher struct {
	base    string
	ignorer gitignore.GitIgnore
}

// pathFilter decides which walked entries are scanned.
type pathFilter struct {
	root       string
	exclude    []string
	extensions map[string]struct{}
	gitignore  bool
	skipVendor bool
	scripts    bool
	matchers   []ignoreMatcher
}

func newPathFilter(root string, opts Options) (*pathFilter, error) {
	for _, pattern := range opts.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
		}
	}

	extensions := make(map[string]struct{}, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}

		extensions[ext] = struct{}{}
	}

	return &pathFilter{
		root:       root,
		exclude:    opts.Exclude,
		extensions: extensions,
		gitignore:  opts.Gitignore,
		skipVendor: opts.SkipVendor,
		scripts:    opts.DetectScripts,
	}, nil
}

// skipDir reports whether a directory is pruned. A kept directory's own
// .gitignore is loaded so that it applies to everything below it.
func (f *pathFilter) skipDir(path string) bool {
	rel := f.rel(path)
	if rel == "." {
		f.loadIgnore(path)

		return false
	}

	if f.gitignore && filepath.Base(path) == gitDir {
		return true
	}

	if f.excluded(rel) || (f.skipVendor && enry.IsVendor(rel+"/")) || f.ignored(path, true) {
		return true
	}

	f.loadIgnore(path)

	return false
}

// selectFile reports whether a regular file is a Python source to scan.
func (f *pathFilter) selectFile(path string) bool {
	rel := f.rel(path)

	if f.excluded(rel) || (f.skipVendor && enry.IsVendor(rel)) || f.ignored(path, false) {
		return false
	}

	ext := filepath.Ext(path)
	if _, ok := f.extensions[ext]; ok {
		return true
	}

	return ext == "" && f.scripts && isPythonScript(path)
}

func (f *pathFilter) rel(path string) string {
	rel, err := filepath.Rel(f.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}

	return filepath.ToSlash(rel)
}

func (f *pathFilter) excluded(rel string) bool {
	for _, pattern := range f.exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}

	return false
}

func (f *pathFilter) ignored(path string, isDir bool) bool {
	for _, m := range f.matchers {
		rel, err := filepath.Rel(m.base, path)
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			continue
		}

		match := m.ignorer.Relative(filepath.ToSlash(rel), isDir)
		if match != nil && match.Ignore() {
			return true
		}
	}

	return false
}

func (f *pathFilter) loadIgnore(dir string) {
	if !f.gitignore {
		return
	}

	data, err := os.ReadFile(filepath.Join(dir, gitignoreFile))
	if err != nil {
		return
	}

	f.matchers = append(f.matchers, ignoreMatcher{
		base:    dir,
		ignorer: gitignore.New(strings.NewReader(string(data)), dir, nil),
	})
}

// isPythonScript sniffs the head of an extensionless file for a Python shebang.
func isPythonScript(path string) bool {
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()

	head := make([]byte, shebangProbeSize)

	n, _ := file.Read(head)
	if n == 0 {
		return false
	}

	lang, _ := enry.GetLanguageByShebang(head[:n])

	return lang == pythonLang
}
