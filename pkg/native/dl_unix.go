//go:build darwin || linux

package native

import (
	"github.com/ebitengine/purego"
)

type dlLibrary struct {
	handle uintptr
}

func (l *dlLibrary) Lookup(symbol string) (uintptr, error) {
	return purego.Dlsym(l.handle, symbol)
}

// openLibrary opens the artifact with dlopen. RTLD_GLOBAL lets plugin objects
// loaded by the engine itself resolve symbols from it.
func openLibrary(path string) (library, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, err
	}
	return &dlLibrary{handle: handle}, nil
}

func callAddr(addr uintptr, args ...uintptr) (uintptr, error) {
	r1, _, _ := purego.SyscallN(addr, args...)
	return r1, nil
}
