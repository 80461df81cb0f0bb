package buildinfo

import "time"

// Set via -ldflags at build time
var (
	Version    = "dev"
	BuildTime  string // when the binary was compiled
	CommitHash string // short git commit hash
)

// StartTime is recorded when the process starts
var StartTime = time.Now().UTC().Format(time.RFC3339)

// Info is reported by /api/status
type Info struct {
	Version    string `json:"version"`
	BuildTime  string `json:"buildTime,omitempty"`
	CommitHash string `json:"commitHash,omitempty"`
	StartTime  string `json:"startTime"`
}

// Current returns the build information of the running binary
func Current() Info {
	return Info{Version: Version, BuildTime: BuildTime, CommitHash: CommitHash, StartTime: StartTime}
}
