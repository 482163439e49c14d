// Package version exposes build metadata injected at link time.
package version

import "fmt"

// Set by the linker, e.g.
// -ldflags "-X .../internal/version.Version=v1.2.0".
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// String renders the composite version line shown by the version command.
func String() string {
	out := Version
	if Commit != "" {
		out = fmt.Sprintf("%s (%s)", out, Commit)
	}
	if Date != "" {
		out = fmt.Sprintf("%s built %s", out, Date)
	}
	return out
}
