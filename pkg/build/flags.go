// SPDX-License-Identifier: MIT
//
// Package build exposes version metadata embedded at link time, for example:
//
//	go build -ldflags "-X hush/pkg/build.buildVersion=v0.3.0 -X hush/pkg/build.buildCommit=$(git rev-parse --short HEAD)"
//
// Values not set through -ldflags are filled from the module build info
// when available, so plain `go build` still reports something useful.
package build

import (
	"fmt"
	"runtime/debug"
)

const (
	defaultName        = "hush"
	defaultDescription = "Real-time microphone denoiser with a wet/dry mix"
	unknown            = "unknown"
)

// Info describes the running binary.
type Info struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// String formats the info for --version output.
func (i Info) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", i.Name, i.Version, i.Commit, i.Time)
}

// Package-level variables populated by -ldflags.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string

	readBuildInfo = debug.ReadBuildInfo
)

// GetInfo merges ldflags values with the module build info.
func GetInfo() Info {
	info := Info{
		Name:        orDefault(buildName, defaultName),
		Description: defaultDescription,
		Time:        buildTime,
		Commit:      buildCommit,
		Version:     buildVersion,
	}

	if bi, ok := readBuildInfo(); ok {
		if info.Version == "" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Commit == "" {
					info.Commit = shorten(s.Value)
				}
			case "vcs.time":
				if info.Time == "" {
					info.Time = s.Value
				}
			}
		}
	}

	info.Time = orDefault(info.Time, unknown)
	info.Commit = orDefault(info.Commit, unknown)
	info.Version = orDefault(info.Version, "dev")
	return info
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func shorten(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}
