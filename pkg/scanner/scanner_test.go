package scanner_test

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/pkglister/pkg/distreg"
	"github.com/Sumatoshi-tech/pkglister/pkg/importmodel"
	"github.com/Sumatoshi-tech/pkglister/pkg/pyimports"
	"github.com/Sumatoshi-tech/pkglister/pkg/resolver"
	"github.com/Sumatoshi-tech/pkglister/pkg/scanner"
	"github.com/Sumatoshi-tech/pkglister/pkg/stdlib"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func newScanner(opts scanner.Options) *scanner.Scanner {
	registry := distreg.NewFromMap(
		map[string][]string{
			"numpy":    {"numpy"},
			"requests": {"requests"},
			"yaml":     {"PyYAML"},
		},
		map[string]string{
			"numpy":    "1.26.0",
			"requests": "2.31.0",
			"PyYAML":   "6.0.1",
		},
	)

	return scanner.New(resolver.New(stdlib.Default(), registry), opts, scanner.Deps{})
}

func relPaths(t *testing.T, root string, project *importmodel.Project) []string {
	t.Helper()

	paths := make([]string, 0, len(project.Files))

	for _, file := range project.Files {
		rel, err := filepath.Rel(root, file.Path)
		require.NoError(t, err)

		paths = append(paths, filepath.ToSlash(rel))
	}

	return paths
}

func TestScanFile_ResolvesImports(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "app.py")
	writeFile(t, path, "import os\nimport numpy as np\nfrom requests import get\nimport mystery.sub\n")

	file, err := newScanner(scanner.Options{}).ScanFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, path, file.Path)
	assert.Equal(t, importmodel.PackageList{
		{Name: "mystery"},
		{Name: "numpy", DistributionName: "numpy", Version: "1.26.0"},
		{Name: "os", Builtin: true},
		{Name: "requests", DistributionName: "requests", Version: "2.31.0"},
	}, file.Packages)
}

func TestScanFile_DropsSelfReferences(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "project", "project", "utils.py")
	writeFile(t, path, "import project\nimport utils\nfrom project.core import thing\nimport os\n")

	file, err := newScanner(scanner.Options{}).ScanFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, []string{"os"}, file.Packages.Names())
}

func TestScanFile_NoImports(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.py")
	writeFile(t, path, "x = 1\n")

	file, err := newScanner(scanner.Options{}).ScanFile(context.Background(), path)
	require.NoError(t, err)

	assert.Empty(t, file.Packages)
}

func TestScanFile_ParseError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.py")
	writeFile(t, path, "import os\ndef broken(:\n")

	_, err := newScanner(scanner.Options{}).ScanFile(context.Background(), path)
	require.Error(t, err)

	var fileErr *scanner.FileError
	require.ErrorAs(t, err, &fileErr)
	assert.Equal(t, scanner.OpParse, fileErr.Op)
	assert.Equal(t, path, fileErr.Path)
	require.ErrorIs(t, err, pyimports.ErrSyntax)
	assert.NotErrorIs(t, err, scanner.ErrRead)
}

func TestScanFile_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := newScanner(scanner.Options{}).ScanFile(context.Background(), filepath.Join(t.TempDir(), "nope.py"))
	require.ErrorIs(t, err, scanner.ErrRead)
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestScanFile_TooLarge(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "big.py")
	writeFile(t, path, "import os\nimport sys\n")

	_, err := newScanner(scanner.Options{MaxFileSize: 4}).ScanFile(context.Background(), path)
	require.ErrorIs(t, err, scanner.ErrFileTooLarge)
	require.ErrorIs(t, err, scanner.ErrRead)
}

func TestScanFile_Canceled(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "app.py")
	writeFile(t, path, "import os\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newScanner(scanner.Options{}).ScanFile(ctx, path)
	require.ErrorIs(t, err, context.Canceled)
}

func TestScanDir_LexicalOrderIncludesEmptyFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.py"), "import requests\n")
	writeFile(t, filepath.Join(root, "a.py"), "import numpy\nimport os\n")
	writeFile(t, filepath.Join(root, "empty.py"), "")
	writeFile(t, filepath.Join(root, "notes.txt"), "import numpy\n")
	writeFile(t, filepath.Join(root, "sub", "c.py"), "import yaml\n")

	project, err := newScanner(scanner.Options{}).ScanDir(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, root, project.Root)
	assert.Equal(t, []string{"a.py", "b.py", "empty.py", "sub/c.py"}, relPaths(t, root, project))
	assert.Equal(t, []string{"numpy", "os", "requests", "yaml"}, project.Packages().Names())
	assert.Equal(t, []string{"numpy==1.26.0", "requests==2.31.0", "PyYAML==6.0.1"}, project.FormattedRequirements("=="))
	assert.Empty(t, project.Skipped)
}

func TestScanDir_AbortsOnFirstFailure(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.py"), "import os\n")
	writeFile(t, filepath.Join(root, "b.py"), "def broken(:\n")

	project, err := newScanner(scanner.Options{}).ScanDir(context.Background(), root)
	require.Error(t, err)
	assert.Nil(t, project)

	var fileErr *scanner.FileError
	require.ErrorAs(t, err, &fileErr)
	assert.Equal(t, filepath.Join(root, "b.py"), fileErr.Path)
	require.ErrorIs(t, err, pyimports.ErrSyntax)
}

func TestScanDir_KeepGoingRecordsSkipped(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.py"), "import os\n")
	writeFile(t, filepath.Join(root, "b.py"), "def broken(:\n")
	writeFile(t, filepath.Join(root, "c.py"), "import numpy\n")

	project, err := newScanner(scanner.Options{KeepGoing: true}).ScanDir(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.py", "c.py"}, relPaths(t, root, project))
	require.Len(t, project.Skipped, 1)
	assert.Equal(t, filepath.Join(root, "b.py"), project.Skipped[0].Path)
	require.ErrorIs(t, project.Skipped[0].Err, pyimports.ErrSyntax)
}

func TestScanDir_Python2File(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.py"), "import os\n")
	writeFile(t, filepath.Join(root, "legacy.py"), "import urllib2\nprint 'fetching'\n")

	project, err := newScanner(scanner.Options{}).ScanDir(context.Background(), root)
	require.ErrorIs(t, err, pyimports.ErrSyntax)
	assert.Nil(t, project)

	project, err = newScanner(scanner.Options{KeepGoing: true}).ScanDir(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.py"}, relPaths(t, root, project))
	assert.Equal(t, []string{"os"}, project.Packages().Names())
	require.Len(t, project.Skipped, 1)
	assert.Equal(t, filepath.Join(root, "legacy.py"), project.Skipped[0].Path)
	require.ErrorIs(t, project.Skipped[0].Err, pyimports.ErrSyntax)
}

func TestScanDir_FollowsFileSymlinks(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	shared := filepath.Join(t.TempDir(), "shared.py")
	writeFile(t, shared, "import requests\n")
	writeFile(t, filepath.Join(root, "main.py"), "import os\n")

	if err := os.Symlink(shared, filepath.Join(root, "linked.py")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	require.NoError(t, os.Symlink(t.TempDir(), filepath.Join(root, "dir.py")))

	project, err := newScanner(scanner.Options{}).ScanDir(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []string{"linked.py", "main.py"}, relPaths(t, root, project))
	assert.Equal(t, []string{"os", "requests"}, project.Packages().Names())
}

func TestScanDir_BrokenSymlink(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.py"), "import os\n")

	if err := os.Symlink(filepath.Join(root, "gone.py"), filepath.Join(root, "dangling.py")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	_, err := newScanner(scanner.Options{}).ScanDir(context.Background(), root)
	require.ErrorIs(t, err, scanner.ErrRead)

	project, err := newScanner(scanner.Options{KeepGoing: true}).ScanDir(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{"main.py"}, relPaths(t, root, project))
	require.Len(t, project.Skipped, 1)
	assert.Equal(t, filepath.Join(root, "dangling.py"), project.Skipped[0].Path)
}

func TestSelfNames_UsesWalkedPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want []string
	}{
		{"app.py", []string{"app", "app.py"}},
		{"./lib/helpers.py", []string{"helpers", "helpers.py", "lib"}},
		{"../flask/views.py", []string{"flask", "views", "views.py"}},
		{"/work/flask/app.py", []string{"app", "app.py", "flask", "work"}},
	}

	for _, tt := range tests {
		names := scanner.SelfNames(filepath.FromSlash(tt.path))

		got := make([]string, 0, len(names))
		for name := range names {
			got = append(got, name)
		}

		assert.ElementsMatch(t, tt.want, got, tt.path)
	}
}

func TestScanDir_ExcludeGlobs(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.py"), "import os\n")
	writeFile(t, filepath.Join(root, "build", "lib", "gen.py"), "import numpy\n")
	writeFile(t, filepath.Join(root, "pkg", "test_main.py"), "import requests\n")
	writeFile(t, filepath.Join(root, "pkg", "core.py"), "import yaml\n")

	opts := scanner.Options{Exclude: []string{"build", "**/test_*.py"}}

	project, err := newScanner(opts).ScanDir(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []string{"main.py", "pkg/core.py"}, relPaths(t, root, project))
}

func TestScanDir_InvalidExclude(t *testing.T) {
	t.Parallel()

	_, err := newScanner(scanner.Options{Exclude: []string{"[unclosed"}}).ScanDir(context.Background(), t.TempDir())
	require.ErrorIs(t, err, scanner.ErrInvalidPattern)
}

func TestScanDir_Gitignore(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "generated/\n*_pb2.py\n")
	writeFile(t, filepath.Join(root, "main.py"), "import os\n")
	writeFile(t, filepath.Join(root, "generated", "api.py"), "import numpy\n")
	writeFile(t, filepath.Join(root, "proto", "msg_pb2.py"), "import requests\n")
	writeFile(t, filepath.Join(root, "sub", ".gitignore"), "local.py\n")
	writeFile(t, filepath.Join(root, "sub", "local.py"), "import yaml\n")
	writeFile(t, filepath.Join(root, "sub", "kept.py"), "import sys\n")

	project, err := newScanner(scanner.Options{Gitignore: true}).ScanDir(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []string{"main.py", "sub/kept.py"}, relPaths(t, root, project))

	all, err := newScanner(scanner.Options{}).ScanDir(context.Background(), root)
	require.NoError(t, err)
	assert.Len(t, all.Files, 5)
}

func TestScanDir_SkipVendor(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "app.py"), "import os\n")
	writeFile(t, filepath.Join(root, "node_modules", "pkg", "x.py"), "import numpy\n")

	project, err := newScanner(scanner.Options{SkipVendor: true}).ScanDir(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []string{"app.py"}, relPaths(t, root, project))
}

func TestScanDir_DetectScripts(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "manage"), "#!/usr/bin/env python3\nimport requests\n")
	writeFile(t, filepath.Join(root, "run"), "#!/bin/sh\necho hi\n")
	writeFile(t, filepath.Join(root, "main.py"), "import os\n")

	project, err := newScanner(scanner.Options{DetectScripts: true}).ScanDir(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{"main.py", "manage"}, relPaths(t, root, project))

	project, err = newScanner(scanner.Options{}).ScanDir(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{"main.py"}, relPaths(t, root, project))
}

func TestScanDir_CustomExtensions(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.py"), "import os\n")
	writeFile(t, filepath.Join(root, "b.pyi"), "import numpy\n")

	project, err := newScanner(scanner.Options{Extensions: []string{"pyi"}}).ScanDir(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []string{"b.pyi"}, relPaths(t, root, project))
}

func TestScanDir_NotADirectory(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a.py")
	writeFile(t, path, "import os\n")

	_, err := newScanner(scanner.Options{}).ScanDir(context.Background(), path)
	require.ErrorIs(t, err, scanner.ErrRead)

	_, err = newScanner(scanner.Options{}).ScanDir(context.Background(), filepath.Join(path, "missing"))
	require.ErrorIs(t, err, scanner.ErrRead)
}

func TestScanDir_Canceled(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.py"), "import os\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newScanner(scanner.Options{KeepGoing: true}).ScanDir(ctx, root)
	require.ErrorIs(t, err, context.Canceled)
}

func TestFileError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")

	readErr := &scanner.FileError{Path: "a.py", Op: scanner.OpRead, Err: cause}
	require.ErrorIs(t, readErr, scanner.ErrRead)
	require.ErrorIs(t, readErr, cause)
	assert.Equal(t, "read a.py: boom", readErr.Error())

	parseErr := &scanner.FileError{Path: "a.py", Op: scanner.OpParse, Err: cause}
	assert.NotErrorIs(t, parseErr, scanner.ErrRead)
}
