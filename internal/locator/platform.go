package locator

import "runtime"

// Platform captures the per-OS constants used by discovery.
type Platform struct {
	GOOS          string
	LibraryFile   string
	GlobalSDKPath string // empty when the OS has no well-known install location
	UserSDKSuffix string // joined onto $HOME; empty disables per-user probing
}

// HostPlatform returns the Platform for the OS this binary was built for.
func HostPlatform() Platform { return PlatformFor(runtime.GOOS) }

// PlatformFor returns discovery constants for goos.
//
// Only Unix-like systems have default SDK locations. Other systems still
// honour both override variables.
func PlatformFor(goos string) Platform {
	p := Platform{GOOS: goos}
	switch {
	case goos == "darwin" || goos == "ios":
		p.LibraryFile = "libcoreclr.dylib"
	case isUnix(goos):
		p.LibraryFile = "libcoreclr.so"
	default:
		p.LibraryFile = "coreclr.dll"
		return p
	}
	p.GlobalSDKPath = "/usr/share/dotnet"
	p.UserSDKSuffix = ".dotnet"
	return p
}

// Discovery reports whether default SDK locations exist for the platform.
func (p Platform) Discovery() bool { return p.GlobalSDKPath != "" || p.UserSDKSuffix != "" }

func isUnix(goos string) bool {
	switch goos {
	case "aix", "android", "darwin", "dragonfly", "freebsd", "hurd", "illumos",
		"ios", "linux", "netbsd", "openbsd", "solaris":
		return true
	}
	return false
}
