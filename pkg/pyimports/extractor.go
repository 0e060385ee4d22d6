package pyimports

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"unicode"

	"github.com/alexaandru/go-sitter-forest/python"
	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// Sentinel errors for import extraction.
var (
	// ErrSyntax indicates the source text is not valid Python.
	ErrSyntax = errors.New("invalid python syntax")
	// ErrNoRootNode indicates tree-sitter produced an empty tree.
	ErrNoRootNode = errors.New("python parser: no root node")
)

// Tree-sitter node and field names from the Python grammar.
const (
	nodeImport         = "import_statement"
	nodeImportFrom     = "import_from_statement"
	nodeFutureImport   = "future_import_statement"
	nodeDottedName     = "dotted_name"
	nodeAliasedImport  = "aliased_import"
	nodeRelativeImport = "relative_import"
	nodeImportPrefix   = "import_prefix"
	nodeError          = "ERROR"

	nodePrint      = "print_statement"
	nodeExec       = "exec_statement"
	nodeChevron    = "chevron"
	nodeComparison = "comparison_operator"
	nodeExcept     = "except_clause"
	nodeRaise      = "raise_statement"
	nodeExprList   = "expression_list"

	tokenNotEqual = "<>"
	tokenComma    = ","

	fieldName       = "name"
	fieldModuleName = "module_name"

	futureModule = "__future__"
)

// ParseError reports the first syntax error found in a source text.
// Construct names a Python 2 form the grammar accepts but Python 3 rejects.
type ParseError struct {
	Line      int
	Column    int
	Construct string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Construct != "" {
		return fmt.Sprintf("%s at line %d, column %d: %s", ErrSyntax, e.Line, e.Column, e.Construct)
	}

	return fmt.Sprintf("%s at line %d, column %d", ErrSyntax, e.Line, e.Column)
}

// Unwrap lets errors.Is match ErrSyntax.
func (e *ParseError) Unwrap() error {
	return ErrSyntax
}

var (
	languageOnce sync.Once        //nolint:gochecknoglobals // grammar is process-wide and immutable
	language     *sitter.Language //nolint:gochecknoglobals // see languageOnce
)

func pythonLanguage() *sitter.Language {
	languageOnce.Do(func() {
		language = sitter.NewLanguage(python.GetLanguage())
	})

	return language
}

// Extractor parses Python source and collects its import statements.
// An Extractor reuses one tree-sitter parser and is not safe for concurrent use.
type Extractor struct {
	parser *sitter.Parser
}

// NewExtractor creates an Extractor bound to the Python grammar.
func NewExtractor() *Extractor {
	parser := sitter.NewParser()
	parser.SetLanguage(pythonLanguage())

	return &Extractor{parser: parser}
}

// Extract returns the sorted, unique top-level module names imported by source.
func Extract(source []byte) ([]string, error) {
	return NewExtractor().Extract(source)
}

// Extract returns the sorted, unique top-level module names imported by source.
// Invalid source yields a *ParseError and no names.
func (e *Extractor) Extract(source []byte) ([]string, error) {
	statements, err := e.Statements(source)
	if err != nil {
		return nil, err
	}

	return TopLevelNames(statements), nil
}

// Statements parses source and returns every import statement in document order,
// including statements nested in functions, classes and conditional blocks.
func (e *Extractor) Statements(source []byte) ([]Statement, error) {
	tree, err := e.parser.ParseString(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("python parser: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.IsNull() {
		return nil, ErrNoRootNode
	}

	if root.HasError() {
		return nil, locateError(root)
	}

	if perr := findLegacy(root); perr != nil {
		return nil, perr
	}

	var statements []Statement

	walk(root, func(n sitter.Node) bool {
		switch n.Type() {
		case nodeImport:
			statements = append(statements, plainImport(n, source))

			return false
		case nodeImportFrom:
			statements = append(statements, fromImport(n, source))

			return false
		case nodeFutureImport:
			statements = append(statements, FromImport{Module: futureModule, Line: line(n)})

			return false
		}

		return true
	})

	return statements, nil
}

// TopLevelNames flattens statements into sorted, unique top-level names.
func TopLevelNames(statements []Statement) []string {
	seen := make(map[string]struct{})
	names := make([]string, 0, len(statements))

	for _, stmt := range statements {
		for _, name := range stmt.TopLevel() {
			if _, dup := seen[name]; dup {
				continue
			}

			seen[name] = struct{}{}
			names = append(names, name)
		}
	}

	slices.Sort(names)

	return names
}

// walk visits named nodes in pre-order. Returning false from visit skips the subtree.
func walk(n sitter.Node, visit func(sitter.Node) bool) {
	if !visit(n) {
		return
	}

	for idx := range n.NamedChildCount() {
		walk(n.NamedChild(idx), visit)
	}
}

func plainImport(n sitter.Node, source []byte) PlainImport {
	stmt := PlainImport{Line: line(n)}

	for idx := range n.NamedChildCount() {
		child := n.NamedChild(idx)

		switch child.Type() {
		case nodeDottedName:
			stmt.Modules = append(stmt.Modules, dottedText(child, source))
		case nodeAliasedImport:
			if name := child.ChildByFieldName(fieldName); !name.IsNull() {
				stmt.Modules = append(stmt.Modules, dottedText(name, source))
			}
		}
	}

	return stmt
}

func fromImport(n sitter.Node, source []byte) FromImport {
	stmt := FromImport{Line: line(n)}

	module := n.ChildByFieldName(fieldModuleName)
	if module.IsNull() {
		return stmt
	}

	switch module.Type() {
	case nodeDottedName:
		stmt.Module = dottedText(module, source)
	case nodeRelativeImport:
		for idx := range module.NamedChildCount() {
			part := module.NamedChild(idx)

			switch part.Type() {
			case nodeImportPrefix:
				stmt.Level = strings.Count(nodeText(part, source), ".")
			case nodeDottedName:
				stmt.Module = dottedText(part, source)
			}
		}
	}

	return stmt
}

// locateError finds the first ERROR or MISSING node below root.
func locateError(root sitter.Node) *ParseError {
	n := root

	for {
		if n.Type() == nodeError || n.IsMissing() {
			break
		}

		next, found := firstFaultyChild(n)
		if !found {
			break
		}

		n = next
	}

	return errorAt(n, "")
}

func errorAt(n sitter.Node, construct string) *ParseError {
	start := n.StartPoint()

	return &ParseError{
		Line:      int(start.Row) + 1,    //nolint:gosec // tree-sitter coordinates fit in int
		Column:    int(start.Column) + 1, //nolint:gosec // tree-sitter coordinates fit in int
		Construct: construct,
	}
}

// findLegacy returns the first Python 2 construct below n in document order.
// The grammar parses these without ERROR nodes, Python 3 does not.
func findLegacy(n sitter.Node) *ParseError {
	if construct := legacyConstruct(n); construct != "" {
		return errorAt(n, construct)
	}

	for idx := range n.NamedChildCount() {
		if perr := findLegacy(n.NamedChild(idx)); perr != nil {
			return perr
		}
	}

	return nil
}

func legacyConstruct(n sitter.Node) string {
	switch n.Type() {
	case nodePrint:
		// "print >>f, x" is a valid Python 3 expression statement.
		if hasChild(n, nodeChevron, true) {
			return ""
		}

		return "print statement"
	case nodeExec:
		return "exec statement"
	case nodeComparison:
		if hasChild(n, tokenNotEqual, false) {
			return "<> operator"
		}
	case nodeExcept:
		if hasChild(n, tokenComma, false) {
			return "comma in except clause"
		}
	case nodeRaise:
		if hasChild(n, nodeExprList, true) {
			return "comma in raise statement"
		}
	}

	return ""
}

// hasChild reports whether a direct child of n has the given type.
func hasChild(n sitter.Node, kind string, named bool) bool {
	if named {
		for idx := range n.NamedChildCount() {
			if n.NamedChild(idx).Type() == kind {
				return true
			}
		}

		return false
	}

	for idx := range n.ChildCount() {
		if n.Child(idx).Type() == kind {
			return true
		}
	}

	return false
}

func firstFaultyChild(n sitter.Node) (sitter.Node, bool) {
	for idx := range n.ChildCount() {
		child := n.Child(idx)
		if child.Type() == nodeError || child.IsMissing() || child.HasError() {
			return child, true
		}
	}

	return sitter.Node{}, false
}

func line(n sitter.Node) int {
	return int(n.StartPoint().Row) + 1 //nolint:gosec // tree-sitter coordinates fit in int
}

func nodeText(n sitter.Node, source []byte) string {
	start, end := n.StartByte(), n.EndByte()
	if end > uint(len(source)) || start > end {
		return ""
	}

	return string(source[start:end])
}

// dottedText returns a dotted name with any interior whitespace removed,
// so "a . b" and "a.b" are the same module.
func dottedText(n sitter.Node, source []byte) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '\\' {
			return -1
		}

		return r
	}, nodeText(n, source))
}
