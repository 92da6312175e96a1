package native

import (
	"path/filepath"
	"runtime"
)

// Platform names a host operating system family the native artifact is built for
type Platform string

const (
	PlatformLinux       Platform = "linux"
	PlatformMacOS       Platform = "macos"
	PlatformWindows     Platform = "windows"
	PlatformUnsupported Platform = "unsupported"
)

// DefaultLibraryName is the base name of the native artifact
const DefaultLibraryName = "helios"

// SupportedPlatforms lists every platform the artifact can be built for
func SupportedPlatforms() []Platform {
	return []Platform{PlatformLinux, PlatformMacOS, PlatformWindows}
}

// DetectPlatform maps the running GOOS onto a Platform
func DetectPlatform() Platform {
	return platformForGOOS(runtime.GOOS)
}

func platformForGOOS(goos string) Platform {
	switch goos {
	case "linux":
		return PlatformLinux
	case "darwin":
		return PlatformMacOS
	case "windows":
		return PlatformWindows
	default:
		return PlatformUnsupported
	}
}

// ParsePlatform converts a user supplied platform name, accepting GOOS spellings
func ParsePlatform(s string) (Platform, bool) {
	switch s {
	case "linux":
		return PlatformLinux, true
	case "macos", "darwin", "osx":
		return PlatformMacOS, true
	case "windows", "win32":
		return PlatformWindows, true
	default:
		return PlatformUnsupported, false
	}
}

// Supported reports whether the artifact can exist for this platform
func (p Platform) Supported() bool {
	return p == PlatformLinux || p == PlatformMacOS || p == PlatformWindows
}

func (p Platform) String() string {
	return string(p)
}

// LibrarySuffix returns the dynamic library extension for the platform
func (p Platform) LibrarySuffix() string {
	switch p {
	case PlatformLinux:
		return ".so"
	case PlatformMacOS:
		return ".dylib"
	case PlatformWindows:
		return ".dll"
	default:
		return ""
	}
}

// CandidateNames returns the ordered artifact filenames to try on a platform.
// The first entry is the primary name.
func CandidateNames(p Platform, name string) []string {
	if name == "" {
		name = DefaultLibraryName
	}

	switch p {
	case PlatformLinux:
		return []string{"lib" + name + ".so", name + ".so", "lib" + name + ".so.1"}
	case PlatformMacOS:
		return []string{"lib" + name + ".dylib", name + ".dylib", "lib" + name + ".so"}
	case PlatformWindows:
		return []string{name + ".dll", "lib" + name + ".dll"}
	default:
		return nil
	}
}

// SearchDirs returns the directories under root searched for the artifact, in order
func SearchDirs(root string) []string {
	return []string{
		root,
		filepath.Join(root, "lib"),
		filepath.Join(root, "build", "lib"),
		filepath.Join(root, "plugins", "lib"),
	}
}

// CandidatePaths combines SearchDirs and CandidateNames: every name is tried in
// a directory before moving on to the next directory.
func CandidatePaths(p Platform, root, name string) []string {
	names := CandidateNames(p, name)
	if len(names) == 0 {
		return nil
	}

	var paths []string
	for _, dir := range SearchDirs(root) {
		for _, n := range names {
			paths = append(paths, filepath.Join(dir, n))
		}
	}
	return paths
}
