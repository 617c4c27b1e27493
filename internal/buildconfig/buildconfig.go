package buildconfig

import "runtime"

// Set with -ldflags "-X github.com/Harshitk-cp/augur/internal/buildconfig.version=..."
var (
	version = "dev"
	commit  = "unknown"
	date    = ""
)

func Version() string {
	return version
}

func Commit() string {
	return commit
}

// VersionInfo describes the running binary for /version and `augur version`.
func VersionInfo() map[string]string {
	info := map[string]string{
		"version":    version,
		"commit":     commit,
		"go_version": runtime.Version(),
	}
	if date != "" {
		info["build_date"] = date
	}
	return info
}
