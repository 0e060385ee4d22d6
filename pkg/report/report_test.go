package report_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/pkglister/pkg/importmodel"
	"github.com/Sumatoshi-tech/pkglister/pkg/report"
)

var (
	numpy    = importmodel.Package{Name: "numpy", DistributionName: "numpy", Version: "1.26.0"}
	yamlPkg  = importmodel.Package{Name: "yaml", DistributionName: "PyYAML", Version: "6.0.1"}
	osPkg    = importmodel.Package{Name: "os", Builtin: true}
	mystery  = importmodel.Package{Name: "mystery"}
	testRoot = "src"
)

func sampleProject() *importmodel.Project {
	return &importmodel.Project{
		Root: testRoot,
		Files: []importmodel.File{
			{Path: "src/a.py", Packages: importmodel.PackageList{numpy, osPkg}},
			{Path: "src/b.py", Packages: importmodel.PackageList{mystery, numpy, yamlPkg}},
			{Path: "src/empty.py", Packages: importmodel.PackageList{}},
		},
		Skipped: []importmodel.SkippedFile{{Path: "src/bad.py", Err: errors.New("parse src/bad.py: invalid python syntax")}},
	}
}

func TestNewDocument(t *testing.T) {
	t.Parallel()

	doc := report.NewDocument(sampleProject(), "3.12")

	assert.Equal(t, "src", doc.Root)
	assert.Equal(t, "3.12", doc.PythonVersion)
	assert.Equal(t, report.Summary{Files: 3, Packages: 4, Builtin: 1, ThirdParty: 2, Unresolved: 1, Skipped: 1}, doc.Summary)

	require.Len(t, doc.Packages, 4)
	assert.Equal(t, "mystery", doc.Packages[0].Name)
	assert.Nil(t, doc.Packages[0].Distribution)
	assert.Nil(t, doc.Packages[0].Version)
	assert.Equal(t, []string{"src/a.py", "src/b.py"}, doc.Packages[1].Files)
	require.NotNil(t, doc.Packages[3].Distribution)
	assert.Equal(t, "PyYAML", *doc.Packages[3].Distribution)

	assert.Equal(t, []string{}, doc.Files[2].Imports)
	assert.Equal(t, []report.SkippedEntry{{Path: "src/bad.py", Error: "parse src/bad.py: invalid python syntax"}}, doc.Skipped)
}

func TestWriteJSON_NullMetadataAndValidSchema(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, report.Write(&buf, sampleProject(), report.Options{Format: report.FormatJSON, PythonVersion: "3.12"}))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	packages, ok := decoded["packages"].([]any)
	require.True(t, ok)

	first, ok := packages[0].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, first, "distribution")
	assert.Nil(t, first["distribution"])

	result, err := report.Validate(buf.Bytes())
	require.NoError(t, err)
	assert.True(t, result.Valid, result.Errors)
}

func TestWriteYAML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, report.Write(&buf, sampleProject(), report.Options{Format: report.FormatYAML, PythonVersion: "3.11"}))

	var doc report.Document
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "3.11", doc.PythonVersion)
	assert.Equal(t, 2, doc.Summary.ThirdParty)
	assert.Contains(t, buf.String(), "distribution: null")
}

func TestWriteRequirements(t *testing.T) {
	t.Parallel()

	tests := []struct {
		specifier string
		want      string
	}{
		{"", "numpy\nPyYAML\n"},
		{"==", "numpy==1.26.0\nPyYAML==6.0.1\n"},
		{">=", "numpy>=1.26.0\nPyYAML>=6.0.1\n"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer

		opts := report.Options{Format: report.FormatRequirements, Specifier: tt.specifier}
		require.NoError(t, report.Write(&buf, sampleProject(), opts))
		assert.Equal(t, tt.want, buf.String(), tt.specifier)
	}
}

func TestWriteText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, report.Write(&buf, sampleProject(), report.Options{NoColor: true}))

	out := buf.String()
	assert.Contains(t, out, "PyYAML")
	assert.Contains(t, out, "third-party")
	assert.Contains(t, out, "unresolved")
	assert.NotContains(t, out, "builtin ")
	assert.Contains(t, out, "3 files scanned, 4 packages (2 third-party, 1 builtin, 1 unresolved), 1 file skipped")
	assert.Contains(t, out, "skipped src/bad.py")
}

func TestWriteText_BuiltinsAndFiles(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	opts := report.Options{ShowBuiltins: true, ShowFiles: true, NoColor: true}
	require.NoError(t, report.Write(&buf, sampleProject(), opts))

	out := buf.String()
	assert.Contains(t, out, "FILES")
	assert.Contains(t, out, "src/b.py")

	var osLine string

	for line := range strings.Lines(out) {
		if strings.HasPrefix(strings.TrimSpace(line), "os ") {
			osLine = line
		}
	}

	assert.Contains(t, osLine, "builtin")
}

func TestWriteText_EmptyProject(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, report.WriteText(&buf, &importmodel.Project{}, report.Options{NoColor: true}))

	assert.Equal(t, "0 files scanned, 0 packages (0 third-party, 0 builtin, 0 unresolved)\n", buf.String())
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for _, name := range report.Formats() {
		f, err := report.ParseFormat(strings.ToUpper(name))
		require.NoError(t, err)
		assert.Equal(t, report.Format(name), f)
	}

	f, err := report.ParseFormat("txt")
	require.NoError(t, err)
	assert.Equal(t, report.FormatRequirements, f)

	_, err = report.ParseFormat("xml")
	require.ErrorIs(t, err, report.ErrUnknownFormat)

	err = report.Write(&bytes.Buffer{}, sampleProject(), report.Options{Format: "xml"})
	require.ErrorIs(t, err, report.ErrUnknownFormat)
}

func TestValidate_RejectsMalformedReport(t *testing.T) {
	t.Parallel()

	result, err := report.Validate([]byte(`{"root": "x", "packages": [{"name": ""}]}`))
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.NotEmpty(t, result.Errors)

	_, err = report.Validate([]byte("not json"))
	require.Error(t, err)
}

func TestDiffRequirements(t *testing.T) {
	t.Parallel()

	diff, equal := report.DiffRequirements("# pinned\nPyYAML==6.0.1\n\nnumpy==1.26.0\n", "numpy==1.26.0\nPyYAML==6.0.1")
	assert.True(t, equal)
	assert.Empty(t, diff)

	diff, equal = report.DiffRequirements("numpy==1.25.0\nrequests==2.31.0\n", "numpy==1.26.0\nrequests==2.31.0\n")
	assert.False(t, equal)
	assert.Contains(t, diff, "- numpy==1.25.0\n")
	assert.Contains(t, diff, "+ numpy==1.26.0\n")
	assert.Contains(t, diff, "  requests==2.31.0\n")
}

func TestDiffRequirements_CommentsNeedWhitespace(t *testing.T) {
	t.Parallel()

	wheel := "pkg @ https://host/pkg-1.0-py3-none-any.whl#sha256=abc123"

	diff, equal := report.DiffRequirements(wheel+"  # pinned wheel\n# header\n", wheel)
	assert.True(t, equal, diff)

	diff, equal = report.DiffRequirements("pkg @ https://host/pkg-1.0-py3-none-any.whl#sha256=old\n", wheel)
	assert.False(t, equal)
	assert.Contains(t, diff, "- pkg @ https://host/pkg-1.0-py3-none-any.whl#sha256=old\n")
	assert.Contains(t, diff, "+ "+wheel)

	_, equal = report.DiffRequirements("numpy==1.26.0\t# tab comment\n", "numpy==1.26.0\n")
	assert.True(t, equal)
}

func TestCheckFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "requirements.txt")
	require.NoError(t, os.WriteFile(path, []byte("numpy==1.26.0\n"), 0o600))

	result, err := report.CheckFile(path, []string{"numpy==1.26.0"})
	require.NoError(t, err)
	require.NoError(t, result.Err())

	result, err = report.CheckFile(path, []string{"numpy==1.26.0", "PyYAML==6.0.1"})
	require.NoError(t, err)
	assert.False(t, result.Equal)
	require.ErrorIs(t, result.Err(), report.ErrRequirementsDrift)
	assert.Contains(t, result.Diff, "+ PyYAML==6.0.1")

	_, err = report.CheckFile(filepath.Join(t.TempDir(), "missing.txt"), nil)
	require.Error(t, err)
}
