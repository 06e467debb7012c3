// Package meta exposes the build identity reported by the ping endpoint
// and the --version flag.
package meta

import "runtime/debug"

// ServerName identifies this server on the wire.
const ServerName = "flightbridge"

// Version is stamped at link time via -ldflags; module-aware builds fall
// back to the embedded build info.
var Version = "dev"

func ResolveVersion() string {
	if Version != "dev" {
		return Version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return Version
}
