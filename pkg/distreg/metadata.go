package distreg

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
)

// Metadata file names inside *.dist-info and *.egg-info directories.
const (
	metadataFile       = "METADATA"
	pkgInfoFile        = "PKG-INFO"
	topLevelFile       = "top_level.txt"
	recordFile         = "RECORD"
	installedFilesFile = "installed-files.txt"

	headerName    = "Name"
	headerVersion = "Version"

	bytecodeDir = "__pycache__"
)

// Sentinel errors for metadata parsing.
var (
	// ErrNoMetadata indicates a metadata directory has neither METADATA nor PKG-INFO.
	ErrNoMetadata = errors.New("no METADATA or PKG-INFO file")
	// ErrNoName indicates the metadata has no Name header.
	ErrNoName = errors.New("metadata has no Name header")
)

// moduleSuffixes are file suffixes importable as top-level modules.
var moduleSuffixes = []string{".py", ".pyc", ".pyd", ".so", ".pyi"} //nolint:gochecknoglobals // constant table

func readDistribution(siteDir, metaDir string) (Distribution, error) {
	name, version, err := readMetadata(metaDir)
	if err != nil {
		return Distribution{}, err
	}

	topLevel, err := readTopLevel(metaDir)
	if err != nil {
		return Distribution{}, err
	}

	if len(topLevel) == 0 {
		files, filesErr := readFileList(siteDir, metaDir)
		if filesErr != nil {
			return Distribution{}, filesErr
		}

		topLevel = inferTopLevel(files)
	}

	return Distribution{Name: name, Version: version, TopLevel: topLevel, Path: metaDir}, nil
}

// readMetadata parses the RFC 822 style header block of METADATA or PKG-INFO.
func readMetadata(metaDir string) (name, version string, err error) {
	var file *os.File

	for _, candidate := range []string{metadataFile, pkgInfoFile} {
		file, err = os.Open(filepath.Join(metaDir, candidate))
		if err == nil {
			break
		}
	}

	if file == nil {
		return "", "", fmt.Errorf("%w in %s", ErrNoMetadata, metaDir)
	}
	defer file.Close()

	header, err := textproto.NewReader(bufio.NewReader(file)).ReadMIMEHeader()
	if err != nil && !errors.Is(err, io.EOF) {
		return "", "", fmt.Errorf("parse metadata %s: %w", metaDir, err)
	}

	name = strings.TrimSpace(header.Get(headerName))
	if name == "" {
		return "", "", fmt.Errorf("%w in %s", ErrNoName, metaDir)
	}

	return name, strings.TrimSpace(header.Get(headerVersion)), nil
}

// readTopLevel returns the declared top-level names from top_level.txt.
func readTopLevel(metaDir string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(metaDir, topLevelFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("read %s: %w", topLevelFile, err)
	}

	var names []string

	for _, field := range strings.Fields(string(data)) {
		if !slices.Contains(names, field) {
			names = append(names, field)
		}
	}

	return names, nil
}

// readFileList returns the installed files of a distribution as slash
// separated paths relative to siteDir.
func readFileList(siteDir, metaDir string) ([]string, error) {
	record, err := os.Open(filepath.Join(metaDir, recordFile))
	if err == nil {
		defer record.Close()

		return readRecord(record)
	}

	installed, err := os.ReadFile(filepath.Join(metaDir, installedFilesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("read %s: %w", installedFilesFile, err)
	}

	var files []string

	for _, line := range strings.Split(string(installed), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		rel, relErr := filepath.Rel(siteDir, filepath.Join(metaDir, filepath.FromSlash(line)))
		if relErr != nil {
			continue
		}

		files = append(files, filepath.ToSlash(rel))
	}

	return files, nil
}

// readRecord reads the path column of a RECORD file.
func readRecord(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var files []string

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return files, nil
		}

		if err != nil {
			return nil, fmt.Errorf("read %s: %w", recordFile, err)
		}

		if len(row) > 0 && row[0] != "" {
			files = append(files, row[0])
		}
	}
}

// inferTopLevel derives importable top-level names from installed file paths:
// the first directory of nested files, or the module name of top-level files.
// Names containing a dot (metadata directories, .pth files) are not importable.
func inferTopLevel(files []string) []string {
	var names []string

	for _, file := range files {
		file = path.Clean(file)
		if strings.HasPrefix(file, "..") {
			continue
		}

		head, _, nested := strings.Cut(file, "/")

		name := head
		if !nested {
			name = moduleName(head)
		}

		if name == "" || name == bytecodeDir || strings.Contains(name, ".") || slices.Contains(names, name) {
			continue
		}

		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// moduleName strips importable suffixes, including ABI tags such as
// ".cpython-312-x86_64-linux-gnu.so".
func moduleName(file string) string {
	for _, suffix := range moduleSuffixes {
		if strings.HasSuffix(file, suffix) {
			base := strings.TrimSuffix(file, suffix)
			head, _, _ := strings.Cut(base, ".")

			return head
		}
	}

	return file
}
