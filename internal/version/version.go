// Package version holds the static module metadata.
package version

import "fmt"

const (
	Name       = "PID Controller Crate"
	Release    = "0.1.0"
	Author     = "R.A.G.P"
	LastUpdate = "2026-01-13"
)

// Version is set at build time:
//
//	go build -ldflags "-X github.com/san-kum/pidctrl/internal/version.Version=$(git describe)"
var Version = "dev"

// Info formats the metadata record.
func Info() string {
	return fmt.Sprintf("Crate name: %s\nCrate release: %s\nCrate author: %s\nCrate last update: %s\n",
		Name, Release, Author, LastUpdate)
}
