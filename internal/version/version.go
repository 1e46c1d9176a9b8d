package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

// Set at build time via ldflags:
//
//	go build -ldflags="-X github.com/muurk/ssdpd/internal/version.Version=v0.3.0 \
//	                   -X github.com/muurk/ssdpd/internal/version.Commit=abc123"
//
// Unset values come from VCS build info, then fall back to "dev".
var (
	// Version is the semantic version of ssdpd
	Version = ""
	// Commit is the git commit hash
	Commit = ""
)

// Product is the product token used in SSDP SERVER headers
const Product = "ssdpd"

func init() {
	if Version == "" || Commit == "" {
		populateFromBuildInfo()
	}
	if Version == "" {
		Version = "dev"
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

func populateFromBuildInfo() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	if Version == "" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	var revision, modified, vcsTime string
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			modified = setting.Value
		case "vcs.time":
			vcsTime = setting.Value
		}
	}

	if Commit == "" && revision != "" {
		Commit = revision
		if len(Commit) > 7 {
			Commit = Commit[:7]
		}
		if modified == "true" {
			Commit += "-dirty"
		}
	}

	if Version == "" && vcsTime != "" {
		if t, err := time.Parse(time.RFC3339, vcsTime); err == nil {
			Version = "dev-" + t.Format("20060102")
		}
	}
}

// Full returns the full version string including commit
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

// ServerHeader returns the SSDP SERVER header value,
// "<os>/<release> UPnP/1.1 ssdpd/<version>".
func ServerHeader() string {
	return fmt.Sprintf("%s/%s UPnP/1.1 %s/%s", osName(), goVersion(), Product, Version)
}

func osName() string {
	if runtime.GOOS == "" {
		return "unknown"
	}
	return strings.ToUpper(runtime.GOOS[:1]) + runtime.GOOS[1:]
}

func goVersion() string {
	return strings.TrimPrefix(runtime.Version(), "go")
}

// Info is the version summary reported by the status server
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns the version summary
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}
