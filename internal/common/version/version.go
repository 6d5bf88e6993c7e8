package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

const (
	// Name is the program name used in messages and request headers
	Name = "bvc"
	// URL is the project home advertised to package indexes
	URL = "https://github.com/obentoo/bvc"
)

// Version information - set at build time via ldflags
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// readBuildInfo is replaced in tests
var readBuildInfo = debug.ReadBuildInfo

// Short returns the version string. Binaries built with "go install" carry
// no ldflags, their module version is used instead.
func Short() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := readBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}

// Info returns formatted version information
func Info() string {
	return fmt.Sprintf("%s version %s\n  commit: %s\n  built: %s\n  go: %s\n  os/arch: %s/%s",
		Name, Short(), Commit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// UserAgent identifies bvc to package indexes
func UserAgent() string {
	return fmt.Sprintf("%s/%s (+%s)", Name, Short(), URL)
}
