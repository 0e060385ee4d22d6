package commands_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/pkglister/cmd/pkglister/commands"
)

// testConfig disables interpreter probing so tests never depend on a local Python.
const testConfig = "python:\n  probe: false\noutput:\n  no_color: true\n"

type result struct {
	stdout string
	stderr string
	err    error
}

func execute(t *testing.T, stdin string, args ...string) result {
	t.Helper()

	cfgPath := filepath.Join(t.TempDir(), "pkglister.yaml")
	writeFile(t, cfgPath, testConfig)

	var stdout, stderr bytes.Buffer

	cmd := commands.NewRootCommand()
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.ExecuteContext(context.Background())

	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// newProject lays out a small project and a site-packages directory with
// numpy and PyYAML installed.
func newProject(t *testing.T) (root, site string) {
	t.Helper()

	root = t.TempDir()
	writeFile(t, filepath.Join(root, "app.py"), "import os\nimport numpy as np\nfrom yaml import safe_load\n")
	writeFile(t, filepath.Join(root, "lib", "helpers.py"), "import json\nimport mystery\n")

	site = t.TempDir()
	writeFile(t, filepath.Join(site, "numpy-1.26.0.dist-info", "METADATA"), "Metadata-Version: 2.1\nName: numpy\nVersion: 1.26.0\n\n")
	writeFile(t, filepath.Join(site, "numpy-1.26.0.dist-info", "top_level.txt"), "numpy\n")
	writeFile(t, filepath.Join(site, "PyYAML-6.0.1.dist-info", "METADATA"), "Metadata-Version: 2.1\nName: PyYAML\nVersion: 6.0.1\n\n")
	writeFile(t, filepath.Join(site, "PyYAML-6.0.1.dist-info", "top_level.txt"), "_yaml\nyaml\n")

	return root, site
}
