package piperutils

import "runtime/debug"

// GetVersion returns the module version of the binary or "n/a" if it is unknown.
func GetVersion() string {
	if build, ok := debug.ReadBuildInfo(); ok && build != nil && len(build.Main.Version) > 0 {
		return build.Main.Version
	}
	return "n/a"
}
