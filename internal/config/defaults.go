package config

// Scan defaults.
const (
	DefaultScanGitignore     = false
	DefaultScanSkipVendor    = false
	DefaultScanDetectScripts = false
	DefaultScanKeepGoing     = false
	DefaultScanMaxFileSize   = "10MiB"
)

// DefaultScanExtensions lists the file suffixes scanned by default.
func DefaultScanExtensions() []string {
	return []string{".py"}
}

// Python environment defaults. Empty values mean "probe the interpreter".
const (
	DefaultPythonInterpreter = ""
	DefaultPythonVersion     = ""
	DefaultPythonProbe       = true
)

// Output defaults.
const (
	DefaultOutputFormat    = "text"
	DefaultOutputSpecifier = ""
	DefaultOutputNoColor   = false
)

// Observability defaults.
const (
	DefaultLogLevel     = "warn"
	DefaultLogJSON      = false
	DefaultOTLPInsecure = false
)
