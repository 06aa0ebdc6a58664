// Package version reports what was built. The values are stamped at link time:
//
//	go build -ldflags "-X unievents/internal/core/version.version=v0.3.0 -X unievents/internal/core/version.commit=$(git rev-parse --short HEAD)"
package version

// BuildInfo describes the running binary
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Info returns the build info for service
func Info(service string) BuildInfo {
	return BuildInfo{Service: service, Version: version, Commit: commit, Date: date}
}
