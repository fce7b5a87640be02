package versions

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionInfoFrom(t *testing.T) {
	t.Parallel()

	vcs := func() map[string]string {
		return map[string]string{
			"vcs.revision": "0123456789abcdef",
			"vcs.time":     "2026-02-01T10:30:00Z",
		}
	}
	noVCS := func() map[string]string { return map[string]string{} }

	tests := []struct {
		name          string
		version       string
		commit        string
		buildDate     string
		vcs           func() map[string]string
		wantVersion   string
		wantCommit    string
		wantBuildDate string
	}{
		{
			name:          "release build keeps ldflags values",
			version:       "v1.4.0",
			commit:        "abc",
			buildDate:     "2026-01-15T08:00:00Z",
			vcs:           vcs,
			wantVersion:   "v1.4.0",
			wantCommit:    "abc",
			wantBuildDate: "2026-01-15 08:00:00 UTC",
		},
		{
			name:          "dev build uses vcs stamp",
			version:       "dev",
			commit:        unknownStr,
			buildDate:     unknownStr,
			vcs:           vcs,
			wantVersion:   "build-01234567",
			wantCommit:    "0123456789abcdef",
			wantBuildDate: "2026-02-01 10:30:00 UTC",
		},
		{
			name:          "dev build without vcs stamp",
			version:       "dev",
			commit:        unknownStr,
			buildDate:     unknownStr,
			vcs:           noVCS,
			wantVersion:   "build-unknown",
			wantCommit:    unknownStr,
			wantBuildDate: unknownStr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			info := versionInfoFrom(tt.version, tt.commit, tt.buildDate, tt.vcs)
			assert.Equal(t, tt.wantVersion, info.Version)
			assert.Equal(t, tt.wantCommit, info.Commit)
			assert.Equal(t, tt.wantBuildDate, info.BuildDate)
			assert.Equal(t, runtime.Version(), info.GoVersion)
			assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
			assert.Contains(t, info.String(), info.Version)
		})
	}
}
