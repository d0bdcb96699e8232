// Package version carries the build stamp set through -ldflags.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	// Version is the version of the application, set by build flags
	Version = "dev"
	// Commit is the git commit hash, set by build flags
	Commit = "unknown"
	// BuildDate is the build date, set by build flags
	BuildDate = "unknown"
)

// BuildInfo is the resolved build stamp
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get resolves the build stamp; binaries from `go install` fall back to the module version
func Get() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if info.Version == "dev" {
		if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
	}
	return info
}

// Info returns version information
func Info() string {
	bi := Get()
	return fmt.Sprintf("apprebrand %s\nCommit: %s\nBuilt: %s\nGo: %s\nOS/Arch: %s",
		bi.Version, bi.Commit, bi.BuildDate, bi.GoVersion, bi.Platform)
}

// Short returns short version string
func Short() string {
	return Get().Version
}
