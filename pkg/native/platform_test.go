package native

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlatformForGOOS(t *testing.T) {
	tests := map[string]Platform{
		"linux":   PlatformLinux,
		"darwin":  PlatformMacOS,
		"windows": PlatformWindows,
		"plan9":   PlatformUnsupported,
		"js":      PlatformUnsupported,
	}
	for goos, want := range tests {
		assert.Equal(t, want, platformForGOOS(goos), goos)
	}
}

func TestParsePlatform(t *testing.T) {
	p, ok := ParsePlatform("darwin")
	assert.True(t, ok)
	assert.Equal(t, PlatformMacOS, p)

	_, ok = ParsePlatform("beos")
	assert.False(t, ok)
}

func TestCandidateNames(t *testing.T) {
	assert.Equal(t, []string{"libhelios.so", "helios.so", "libhelios.so.1"}, CandidateNames(PlatformLinux, ""))
	assert.Equal(t, []string{"libhelios.dylib", "helios.dylib", "libhelios.so"}, CandidateNames(PlatformMacOS, "helios"))
	assert.Equal(t, []string{"engine.dll", "libengine.dll"}, CandidateNames(PlatformWindows, "engine"))
	assert.Nil(t, CandidateNames(PlatformUnsupported, "helios"))
}

func TestCandidateNames_PrimaryUsesPlatformSuffix(t *testing.T) {
	for _, p := range SupportedPlatforms() {
		names := CandidateNames(p, "helios")
		assert.NotEmpty(t, names)
		assert.Equal(t, p.LibrarySuffix(), filepath.Ext(names[0]), p)
	}
}

func TestCandidatePaths_Order(t *testing.T) {
	paths := CandidatePaths(PlatformWindows, "/opt/h", "helios")

	assert.Equal(t, []string{
		filepath.Join("/opt/h", "helios.dll"),
		filepath.Join("/opt/h", "libhelios.dll"),
		filepath.Join("/opt/h", "lib", "helios.dll"),
		filepath.Join("/opt/h", "lib", "libhelios.dll"),
		filepath.Join("/opt/h", "build", "lib", "helios.dll"),
		filepath.Join("/opt/h", "build", "lib", "libhelios.dll"),
		filepath.Join("/opt/h", "plugins", "lib", "helios.dll"),
		filepath.Join("/opt/h", "plugins", "lib", "libhelios.dll"),
	}, paths)

	assert.Nil(t, CandidatePaths(PlatformUnsupported, "/opt/h", "helios"))
}

func TestPlatformSupported(t *testing.T) {
	for _, p := range SupportedPlatforms() {
		assert.True(t, p.Supported())
	}
	assert.False(t, PlatformUnsupported.Supported())
	assert.False(t, Platform("").Supported())
}
