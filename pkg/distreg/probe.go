package distreg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/Sumatoshi-tech/pkglister/pkg/stdlib"
)

// probeScript prints the interpreter version and its import search path.
const probeScript = `import json, sys
print(json.dumps({"version": list(sys.version_info[:2]), "paths": [p for p in sys.path if p]}))`

// ErrInterpreterNotFound indicates no Python interpreter is available on PATH.
var ErrInterpreterNotFound = errors.New("python interpreter not found")

// Environment describes the Python installation whose packages are resolved against.
type Environment struct {
	Interpreter string
	Version     stdlib.Version
	Paths       []string
}

type probeOutput struct {
	Version []int    `json:"version"`
	Paths   []string `json:"paths"`
}

// DefaultInterpreter returns the first Python interpreter found on PATH.
func DefaultInterpreter() (string, error) {
	candidates := []string{"python3", "python"}
	if runtime.GOOS == "windows" {
		candidates = []string{"py", "python", "python3"}
	}

	for _, candidate := range candidates {
		resolved, err := exec.LookPath(candidate)
		if err == nil {
			return resolved, nil
		}
	}

	return "", ErrInterpreterNotFound
}

// Probe asks the interpreter for its version and sys.path. Only existing
// directories are kept in Paths, in sys.path order.
func Probe(ctx context.Context, interpreter string) (Environment, error) {
	if interpreter == "" {
		found, err := DefaultInterpreter()
		if err != nil {
			return Environment{}, err
		}

		interpreter = found
	}

	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, interpreter, "-c", probeScript) //nolint:gosec // interpreter comes from user config
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		return Environment{}, fmt.Errorf("probe %s: %w: %s", interpreter, err, bytes.TrimSpace(stderr.Bytes()))
	}

	return parseProbeOutput(interpreter, stdout.Bytes())
}

func parseProbeOutput(interpreter string, data []byte) (Environment, error) {
	var out probeOutput

	err := json.Unmarshal(bytes.TrimSpace(data), &out)
	if err != nil {
		return Environment{}, fmt.Errorf("decode probe output of %s: %w", interpreter, err)
	}

	env := Environment{Interpreter: interpreter, Version: stdlib.DefaultVersion}

	if len(out.Version) >= 2 { //nolint:mnd // major, minor
		env.Version = stdlib.Version{Major: out.Version[0], Minor: out.Version[1]}
	}

	for _, dir := range out.Paths {
		info, statErr := os.Stat(dir)
		if statErr != nil || !info.IsDir() {
			continue
		}

		env.Paths = append(env.Paths, dir)
	}

	return env, nil
}
