package version

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildInfoString(t *testing.T) {
	tests := []struct {
		name string
		info BuildInfo
		want string
	}{
		{
			name: "bare",
			info: BuildInfo{Version: "dev", GitCommit: "unknown", BuildTime: "unknown", GoVersion: "go1.23", Platform: "linux", Arch: "amd64"},
			want: "nessharp dev with go1.23 for linux/amd64",
		},
		{
			name: "released",
			info: BuildInfo{Version: "v1.0.0", GitCommit: "0123456789abcdef", BuildTime: "2024-05-01T10:00:00Z",
				GoVersion: "go1.23", Platform: "darwin", Arch: "arm64", Modified: true},
			want: "nessharp v1.0.0 (commit 0123456, modified) built 2024-05-01 10:00:00 with go1.23 for darwin/arm64",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.info.String())
		})
	}
}

func TestGetBuildInfo_Runtime(t *testing.T) {
	info := GetBuildInfo()
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS, info.Platform)
	assert.True(t, strings.HasPrefix(GetVersion(), "dev") || GetVersion() == Version)
}
