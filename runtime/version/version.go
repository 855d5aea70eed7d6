// Package version reports the build version of riyu.
// Variables can be overridden at build time using ldflags:
//
//	go build -ldflags "-X github.com/cyberwithvishal/riyu/runtime/version.version=1.2.0"
package version

import (
	"fmt"
	"runtime/debug"
	"strings"
)

const (
	devVersion     = "dev"
	shortCommitLen = 7
	vcsRevisionKey = "vcs.revision"
	vcsModifiedKey = "vcs.modified"
)

// Build-time variables, overridable with -ldflags.
var (
	version   = devVersion
	gitCommit = ""
	buildDate = ""
)

// Info is the version payload returned by the HTTP status endpoint.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
	Built   string `json:"built,omitempty"`
	Dirty   bool   `json:"dirty,omitempty"`
}

// GetVersion returns the current version string.
// Falls back to the module version from build info when not set via ldflags.
func GetVersion() string {
	if version != devVersion {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
	}
	return devVersion
}

// Get collects the version, commit and build date.
func Get() Info {
	info := Info{Version: GetVersion(), Commit: gitCommit, Built: buildDate}
	if info.Commit != "" {
		return info
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch {
		case s.Key == vcsRevisionKey && s.Value != "":
			info.Commit = s.Value[:min(shortCommitLen, len(s.Value))]
		case s.Key == vcsModifiedKey && s.Value == "true":
			info.Dirty = true
		}
	}
	return info
}

// String renders the multi-line form printed by `riyu version`.
func (i Info) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "riyu version %s", i.Version)
	if i.Commit != "" {
		fmt.Fprintf(&b, "\ncommit: %s", i.Commit)
		if i.Dirty {
			b.WriteString(" (dirty)")
		}
	}
	if i.Built != "" {
		fmt.Fprintf(&b, "\nbuilt: %s", i.Built)
	}
	return b.String()
}

// LogAttrs returns the version as slog key-value pairs.
func (i Info) LogAttrs() []any {
	attrs := []any{"version", i.Version}
	if i.Commit != "" {
		attrs = append(attrs, "commit", i.Commit)
	}
	if i.Dirty {
		attrs = append(attrs, "dirty", true)
	}
	if i.Built != "" {
		attrs = append(attrs, "built", i.Built)
	}
	return attrs
}
