//go:build !darwin && !linux && !windows

package native

import "fmt"

func openLibrary(path string) (library, error) {
	return nil, fmt.Errorf("%w: no dynamic loader for this platform", ErrUnsupportedPlatform)
}

func callAddr(uintptr, ...uintptr) (uintptr, error) {
	return 0, fmt.Errorf("%w: no dynamic loader for this platform", ErrUnsupportedPlatform)
}
