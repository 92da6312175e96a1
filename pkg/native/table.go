package native

import (
	"fmt"
	"sort"
)

// SymbolTable is an in-process function table served through the Handle
// interface, for engines linked into the binary and for tests.
type SymbolTable map[string]Func

type tableLibrary struct {
	addrs map[string]uintptr
	funcs map[uintptr]Func
}

func newTableLibrary(table SymbolTable) *tableLibrary {
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)

	lib := &tableLibrary{
		addrs: make(map[string]uintptr, len(names)),
		funcs: make(map[uintptr]Func, len(names)),
	}
	for i, name := range names {
		// addresses are opaque tokens, zero is reserved for "missing"
		addr := uintptr(i + 1)
		lib.addrs[name] = addr
		lib.funcs[addr] = table[name]
	}
	return lib
}

func (t *tableLibrary) Lookup(symbol string) (uintptr, error) {
	addr, ok := t.addrs[symbol]
	if !ok {
		return 0, fmt.Errorf("not in symbol table")
	}
	return addr, nil
}

func (t *tableLibrary) call(addr uintptr, args ...uintptr) (uintptr, error) {
	fn, ok := t.funcs[addr]
	if !ok || fn == nil {
		return 0, fmt.Errorf("no function at table address %d", addr)
	}
	return fn(args...)
}

// NewTableHandle serves a SymbolTable as a live handle
func NewTableHandle(platform Platform, root string, table SymbolTable) *LiveHandle {
	lib := newTableLibrary(table)
	return newLiveHandle(platform, root, "", nil, nil, lib, lib.call, nil)
}
