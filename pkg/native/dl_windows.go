//go:build windows

package native

import (
	"github.com/ebitengine/purego"
	"golang.org/x/sys/windows"
)

type dllLibrary struct {
	dll *windows.DLL
}

func (l *dllLibrary) Lookup(symbol string) (uintptr, error) {
	proc, err := l.dll.FindProc(symbol)
	if err != nil {
		return 0, err
	}
	return proc.Addr(), nil
}

func openLibrary(path string) (library, error) {
	dll, err := windows.LoadDLL(path)
	if err != nil {
		return nil, err
	}
	return &dllLibrary{dll: dll}, nil
}

func callAddr(addr uintptr, args ...uintptr) (uintptr, error) {
	r1, _, _ := purego.SyscallN(addr, args...)
	return r1, nil
}
