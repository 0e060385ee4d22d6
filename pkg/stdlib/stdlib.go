// Package stdlib provides the table of Python standard library module names
// used to classify imports as builtin.
package stdlib

import (
	"bufio"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

//go:embed modules.txt
var modulesTable string

// ErrInvalidVersion is returned when a Python version string cannot be parsed.
var ErrInvalidVersion = errors.New("invalid python version")

// unbounded marks an open since/until column in the module table.
const unbounded = "-"

// Version is a Python major.minor version.
type Version struct {
	Major int
	Minor int
}

// DefaultVersion is used when the interpreter version is unknown.
var DefaultVersion = Version{Major: 3, Minor: 12} //nolint:gochecknoglobals,mnd // well-known default

// ParseVersion parses "3.11" or "3.11.4" into a Version. Patch components are ignored.
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) < 2 { //nolint:mnd // major and minor
		return Version{}, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}

	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return Version{}, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}

	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return Version{}, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}

	return Version{Major: major, Minor: minor}, nil
}

// String formats the version as major.minor.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Less reports whether v is older than other.
func (v Version) Less(other Version) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}

	return v.Minor < other.Minor
}

// Set is an immutable set of standard library module names.
type Set struct {
	names map[string]struct{}
}

// Contains reports whether name is a standard library module. Matching is exact.
func (s Set) Contains(name string) bool {
	_, ok := s.names[name]

	return ok
}

// Len returns the number of module names in the set.
func (s Set) Len() int {
	return len(s.names)
}

// NewSet builds a Set from explicit names.
func NewSet(names ...string) Set {
	set := Set{names: make(map[string]struct{}, len(names))}
	for _, name := range names {
		set.names[name] = struct{}{}
	}

	return set
}

// Default returns the module set for DefaultVersion.
func Default() Set {
	return ForVersion(DefaultVersion)
}

// ForVersion returns the module set shipped with the given Python version.
func ForVersion(v Version) Set {
	set := Set{names: make(map[string]struct{}, 320)} //nolint:mnd // approximate table size

	scanner := bufio.NewScanner(strings.NewReader(modulesTable))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if !availableIn(fields, v) {
			continue
		}

		set.names[fields[0]] = struct{}{}
	}

	return set
}

// availableIn evaluates the optional since/until columns of a table row.
func availableIn(fields []string, v Version) bool {
	if len(fields) > 1 && fields[1] != unbounded {
		since, err := ParseVersion(fields[1])
		if err == nil && v.Less(since) {
			return false
		}
	}

	if len(fields) > 2 && fields[2] != unbounded { //nolint:mnd // until column
		until, err := ParseVersion(fields[2])
		if err == nil && !v.Less(until) {
			return false
		}
	}

	return true
}
