package cellar

import "fmt"

// Version constants
const (
	// Major is the major version number
	Major = 0

	// Minor is the minor version number
	Minor = 1

	// Patch is the patch version number
	Patch = 0
)

// VersionInfo describes the running build of the engine.
type VersionInfo struct {
	Major    uint8
	Minor    uint8
	Release  uint8
	Revision uint16
	Git      string
	Describe string
	Datetime string
	Tree     string
	Commit   string
	Sourcery string
}

// BuildInfo describes the toolchain and flags used to produce the binary.
type BuildInfo struct {
	Datetime string
	Target   string
	Options  string
	Compiler string
	Flags    string
}

// Version returns the version string of cellar.
func Version() string {
	return fmt.Sprintf("cellar %d.%d.%d (pure Go embedded MVCC key-value store)", Major, Minor, Patch)
}

// GetVersionInfo returns version information for the running build.
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Major:    Major,
		Minor:    Minor,
		Release:  Patch,
		Revision: 0,
		Git:      "",
		Describe: fmt.Sprintf("v%d.%d.%d", Major, Minor, Patch),
		Datetime: "",
		Tree:     "",
		Commit:   "",
		Sourcery: "cellar",
	}
}

// GetBuildInfo returns build information for the running binary.
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Datetime: "",
		Target:   "pure-go",
		Options:  "",
		Compiler: "gc",
		Flags:    "",
	}
}
