package build

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	_ "embed"
)

//go:embed VERSION
var versionFile []byte

// Set through -ldflags at release time; local and container builds fall
// back to the embedded VERSION file.
var (
	Version   = ""
	Commit    = ""
	BuildTime = ""
	GoVersion = runtime.Version()
	Platform  = fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
	StartTime = time.Now()
)

//nolint:gochecknoinits // resolves the version fallback once at startup.
func init() {
	if Version == "" {
		Version = strings.TrimSpace(string(versionFile))
	}
}

// Info is the build identity reported by the version command and the
// build-info endpoint.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	Uptime    string `json:"uptime"`
}

func GetBuildInfo() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		Platform:  Platform,
		Uptime:    time.Since(StartTime).String(),
	}
}

// String renders the info as the multi-line block printed by the CLI.
func (i Info) String() string {
	var sb strings.Builder

	sb.WriteString("Version: " + i.Version + "\n")

	if i.Commit != "" {
		sb.WriteString("Commit: " + i.Commit + "\n")
	}

	if i.BuildTime != "" {
		sb.WriteString("Build Time: " + i.BuildTime + "\n")
	}

	sb.WriteString("Go Version: " + i.GoVersion + "\n")
	sb.WriteString("Platform: " + i.Platform + "\n")
	sb.WriteString("Uptime: " + i.Uptime + "\n")

	return sb.String()
}
