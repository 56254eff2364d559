// Package version reports the driver version.
package version

import "runtime/debug"

// Version is the driver release. Overridden at link time for tagged
// builds:
//
//	go build -ldflags "-X github.com/clink-protocol/clink-go/pkg/version.Version=v1.2.0"
var Version = "dev"

// String returns the release plus the VCS revision when the build
// carries one.
func String() string {
	rev := revision()
	if rev == "" {
		return Version
	}
	return Version + " (" + rev + ")"
}

func revision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			if len(s.Value) > 12 {
				return s.Value[:12]
			}
			return s.Value
		}
	}
	return ""
}
