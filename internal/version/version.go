// Package version provides build information for nessharp.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
)

// Set at build time with -ldflags "-X github.com/AndrewNeo/nessharp/internal/version.Version=...".
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// BuildInfo contains detailed build information
type BuildInfo struct {
	Version   string   `json:"version"`
	GitCommit string   `json:"git_commit"`
	BuildTime string   `json:"build_time"`
	GoVersion string   `json:"go_version"`
	Platform  string   `json:"platform"`
	Arch      string   `json:"arch"`
	Tags      []string `json:"tags,omitempty"`
	Modified  bool     `json:"modified"`
}

// GetBuildInfo returns the linker-provided values, filled in from the
// module's embedded VCS settings when they were not set.
func GetBuildInfo() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS,
		Arch:      runtime.GOARCH,
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if GitCommit == "unknown" {
				info.GitCommit = s.Value
			}
		case "vcs.time":
			if BuildTime == "unknown" {
				info.BuildTime = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		case "-tags":
			if s.Value != "" {
				info.Tags = append(info.Tags, s.Value)
			}
		}
	}
	return info
}

// GetVersion returns a short version string.
func GetVersion() string {
	if Version != "dev" {
		return Version
	}
	info := GetBuildInfo()
	if len(info.GitCommit) >= 7 && info.GitCommit != "unknown" {
		return "dev-" + info.GitCommit[:7]
	}
	return Version
}

// String formats the build information on one line.
func (b BuildInfo) String() string {
	s := "nessharp " + b.Version
	if b.GitCommit != "unknown" {
		commit := b.GitCommit
		if len(commit) > 7 {
			commit = commit[:7]
		}
		s += " (commit " + commit
		if b.Modified {
			s += ", modified"
		}
		s += ")"
	}
	if b.BuildTime != "unknown" {
		if t, err := time.Parse(time.RFC3339, b.BuildTime); err == nil {
			s += " built " + t.Format("2006-01-02 15:04:05")
		} else {
			s += " built " + b.BuildTime
		}
	}
	return s + fmt.Sprintf(" with %s for %s/%s", b.GoVersion, b.Platform, b.Arch)
}

// PrintBuildInfo prints formatted build information
func PrintBuildInfo() {
	info := GetBuildInfo()
	fmt.Println(info.String())
	fmt.Printf("Version:    %s\n", info.Version)
	fmt.Printf("Git Commit: %s\n", info.GitCommit)
	fmt.Printf("Build Time: %s\n", info.BuildTime)
	fmt.Printf("Go Version: %s\n", info.GoVersion)
	fmt.Printf("Platform:   %s/%s\n", info.Platform, info.Arch)
	if len(info.Tags) > 0 {
		fmt.Printf("Build Tags: %v\n", info.Tags)
	}
}
