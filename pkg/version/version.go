// Package version holds build metadata of the pkglister binary.
package version

import (
	"runtime/debug"
)

const unknown = "unknown"

// Build metadata, overridden at link time with
// -ldflags "-X github.com/Sumatoshi-tech/pkglister/pkg/version.Version=v1.2.3".
var (
	Version = "dev"   //nolint:gochecknoglobals // set by ldflags.
	Commit  = unknown //nolint:gochecknoglobals // set by ldflags.
	Date    = unknown //nolint:gochecknoglobals // set by ldflags.
)

// InitBinaryVersion fills metadata that was not set by ldflags from the
// module and VCS information embedded by the Go toolchain.
func InitBinaryVersion() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if Commit == unknown {
				Commit = setting.Value
			}
		case "vcs.time":
			if Date == unknown {
				Date = setting.Value
			}
		}
	}
}

// String renders the version line printed by the version command.
func String() string {
	return "pkglister " + Version + " (commit: " + Commit + ", built: " + Date + ")"
}
