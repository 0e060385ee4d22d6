// Package pyimports extracts import statements from Python source code.
package pyimports

import "strings"

// Statement is one import statement found in a source file.
// It is implemented by PlainImport and FromImport only.
type Statement interface {
	// TopLevel returns the top-level module names the statement refers to.
	// Statements without an explicit module return nothing.
	TopLevel() []string

	statement()
}

// PlainImport is an "import a.b, c as d" statement.
type PlainImport struct {
	Modules []string
	Line    int
}

// FromImport is a "from a.b import c" statement. Level counts the leading dots
// of a relative import; Module is empty for "from . import x".
type FromImport struct {
	Module string
	Level  int
	Line   int
}

// TopLevel returns the first dotted component of every imported module.
func (p PlainImport) TopLevel() []string {
	names := make([]string, 0, len(p.Modules))

	for _, module := range p.Modules {
		if top := topLevel(module); top != "" {
			names = append(names, top)
		}
	}

	return names
}

// TopLevel returns the first dotted component of the source module, if any.
func (f FromImport) TopLevel() []string {
	if top := topLevel(f.Module); top != "" {
		return []string{top}
	}

	return nil
}

// Relative reports whether the statement is a relative import.
func (f FromImport) Relative() bool {
	return f.Level > 0
}

func (PlainImport) statement() {}
func (FromImport) statement()  {}

// topLevel truncates a dotted module path to its first component.
func topLevel(module string) string {
	module = strings.TrimLeft(module, ".")

	head, _, _ := strings.Cut(module, ".")

	return head
}
