// Package buildinfo carries version details stamped in at link time:
//
//	go build -ldflags "-X github.com/otmeal-dev/otmeal/internal/buildinfo.Version=v1.2.0"
package buildinfo

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)
