// Package buildinfo carries version details stamped at link time:
//
//	go build -ldflags "-X github.com/ppiankov/trustfuse/internal/buildinfo.Version=v0.2.0 \
//	  -X github.com/ppiankov/trustfuse/internal/buildinfo.Commit=$(git rev-parse --short HEAD)"
package buildinfo

import (
	"fmt"
	"runtime"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String returns a one-line version description
func String() string {
	return fmt.Sprintf("trustfuse %s (commit %s, built %s, %s)", Version, Commit, Date, runtime.Version())
}
