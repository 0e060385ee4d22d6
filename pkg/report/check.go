package report

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// ErrRequirementsDrift indicates the generated requirements differ from a file on disk.
var ErrRequirementsDrift = errors.New("requirements out of date")

// CheckResult is the outcome of comparing generated requirements to a file.
type CheckResult struct {
	Path  string
	Diff  string
	Equal bool
}

// CheckFile compares generated requirement lines against the requirements
// file at path. Blank lines, comments and line order are ignored.
func CheckFile(path string, generated []string) (CheckResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return CheckResult{}, fmt.Errorf("read requirements %s: %w", path, err)
	}

	result := CheckResult{Path: path}
	result.Diff, result.Equal = DiffRequirements(string(data), strings.Join(generated, "\n"))

	return result, nil
}

// Err returns ErrRequirementsDrift naming the file when the requirements
// differ, or nil. The diff itself stays in Diff.
func (r CheckResult) Err() error {
	if r.Equal {
		return nil
	}

	return fmt.Errorf("%w: %s", ErrRequirementsDrift, r.Path)
}

// DiffRequirements returns a line diff from existing to generated with "-"
// and "+" prefixes, and whether both sides hold the same requirements.
func DiffRequirements(existing, generated string) (string, bool) {
	from := normalizeRequirements(existing)
	to := normalizeRequirements(generated)

	if from == to {
		return "", true
	}

	dmp := diffmatchpatch.New()
	src, dst, lines := dmp.DiffLinesToRunes(from, to)
	diffs := dmp.DiffCharsToLines(dmp.DiffMainRunes(src, dst, false), lines)

	var out strings.Builder

	for _, d := range diffs {
		prefix := "  "

		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffEqual:
		}

		for line := range strings.Lines(d.Text) {
			out.WriteString(prefix)
			out.WriteString(line)
		}
	}

	return out.String(), false
}

// commentPattern matches a pip comment: "#" at line start or after whitespace,
// so URL fragments such as "x.whl#sha256=..." survive.
var commentPattern = regexp.MustCompile(`(^|\s+)#.*$`) //nolint:gochecknoglobals // compiled once.

// normalizeRequirements drops comments and blank lines, trims whitespace and
// sorts case-insensitively, one requirement per line.
func normalizeRequirements(text string) string {
	var lines []string

	for line := range strings.Lines(text) {
		line = strings.TrimSpace(commentPattern.ReplaceAllString(strings.TrimRight(line, "\r\n"), ""))
		if line != "" {
			lines = append(lines, line)
		}
	}

	slices.SortFunc(lines, func(a, b string) int {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	})

	if len(lines) == 0 {
		return ""
	}

	return strings.Join(lines, "\n") + "\n"
}
