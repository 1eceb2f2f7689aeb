// Package buildinfo carries values stamped by the linker.
package buildinfo

// Set via -ldflags at build time, e.g.
//
//	-X 'github.com/m3rciful/taxibot/core/buildinfo.Version=v0.3.0'
//	-X 'github.com/m3rciful/taxibot/core/buildinfo.Commit=1c9e2f4'
//	-X 'github.com/m3rciful/taxibot/core/buildinfo.Date=2026-10-16T09:00:00Z'
var (
	// Version is the release tag of the taxibot binary.
	Version = "dev"
	// Commit is the git revision the binary was built from.
	Commit = "local"
	// Date is the RFC3339 build timestamp; empty for local builds.
	Date = ""
)
