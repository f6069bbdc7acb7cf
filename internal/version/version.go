package version

// Version can be overridden at build time:
// go build -ldflags "-X github.com/ild-thl/motbot-sub000/internal/version.Version=v1.2.3"
var Version = "dev"

var BuildTime = "unknown"

var GitCommit = "unknown"

func GetVersion() string {
	if Version == "" {
		return "dev"
	}
	return Version
}

// GetBuildInfo returns complete build information
func GetBuildInfo() map[string]string {
	return map[string]string{
		"version":    GetVersion(),
		"build_time": BuildTime,
		"git_commit": GitCommit,
	}
}
