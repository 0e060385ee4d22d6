package version_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/pkglister/pkg/version"
)

func TestString(t *testing.T) {
	t.Parallel()

	line := version.String()

	assert.True(t, strings.HasPrefix(line, "pkglister "))
	assert.Contains(t, line, "commit: ")
	assert.Contains(t, line, "built: ")
}

func TestInitBinaryVersion_KeepsValues(t *testing.T) { //nolint:paralleltest // mutates package state.
	version.InitBinaryVersion()

	assert.NotEmpty(t, version.Version)
	assert.NotEmpty(t, version.Commit)
	assert.NotEmpty(t, version.Date)
}
