// SPDX-License-Identifier: MIT
package build

import (
	"runtime/debug"
	"testing"
)

func withBuild(t *testing.T, name, time, commit, version string, bi *debug.BuildInfo) {
	t.Helper()
	origName, origTime, origCommit, origVersion := buildName, buildTime, buildCommit, buildVersion
	origRead := readBuildInfo
	t.Cleanup(func() {
		buildName, buildTime, buildCommit, buildVersion = origName, origTime, origCommit, origVersion
		readBuildInfo = origRead
	})

	buildName, buildTime, buildCommit, buildVersion = name, time, commit, version
	readBuildInfo = func() (*debug.BuildInfo, bool) { return bi, bi != nil }
}

func TestGetInfo(t *testing.T) {
	tests := []struct {
		name string
		ld   [4]string
		bi   *debug.BuildInfo
		want Info
	}{
		{
			name: "ldflags win",
			ld:   [4]string{"hushd", "2025-04-13", "abcdef1", "v1.0.0"},
			bi: &debug.BuildInfo{
				Main:     debug.Module{Version: "v0.9.0"},
				Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "0123456789abcdef"}},
			},
			want: Info{Name: "hushd", Time: "2025-04-13", Commit: "abcdef1", Version: "v1.0.0"},
		},
		{
			name: "module build info fills gaps",
			bi: &debug.BuildInfo{
				Main: debug.Module{Version: "v0.9.0"},
				Settings: []debug.BuildSetting{
					{Key: "vcs.revision", Value: "0123456789abcdef"},
					{Key: "vcs.time", Value: "2025-05-01T10:00:00Z"},
				},
			},
			want: Info{Name: "hush", Time: "2025-05-01T10:00:00Z", Commit: "0123456789ab", Version: "v0.9.0"},
		},
		{
			name: "devel build",
			bi:   &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}},
			want: Info{Name: "hush", Time: "unknown", Commit: "unknown", Version: "dev"},
		},
		{
			name: "no build info",
			want: Info{Name: "hush", Time: "unknown", Commit: "unknown", Version: "dev"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withBuild(t, tt.ld[0], tt.ld[1], tt.ld[2], tt.ld[3], tt.bi)

			got := GetInfo()
			tt.want.Description = defaultDescription
			if got != tt.want {
				t.Errorf("GetInfo() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestInfoString(t *testing.T) {
	i := Info{Name: "hush", Version: "v1.2.3", Commit: "abc", Time: "now"}
	if got, want := i.String(), "hush v1.2.3 (commit abc, built now)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
