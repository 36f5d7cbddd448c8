package version

import "runtime/debug"

// Version is the current application version. It can be overridden at
// build time:
//
//	go build -ldflags "-X github.com/vanderheijden86/commitspread/pkg/version.Version=v0.2.0"
var Version = "v0.1.0"

// Full returns the version with the VCS revision when the binary carries
// build info.
func Full() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return Version
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			return Version + " (" + s.Value[:7] + ")"
		}
	}
	return Version
}
