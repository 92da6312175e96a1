package native

import (
	"fmt"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/platinummonkey/capgate/pkg/observability"
)

// symbolCacheSize bounds the number of resolved symbols kept per live handle
const symbolCacheSize = 512

// Func is a bound native entry point
type Func func(args ...uintptr) (uintptr, error)

// Handle is the process view of the native artifact. Call sites never need to
// know whether a real library was loaded: a stand-in answers every entry point
// with a callable that fails with a *StandInError.
type Handle interface {
	// ID identifies this handle instance; it changes after a loader reset
	ID() string
	Platform() Platform
	IsStandIn() bool
	// Root is the directory the loader searched and where the artifact expects its assets
	Root() string
	// Path is the loaded artifact, empty for a stand-in
	Path() string
	// Tried lists every candidate path attempted, in order
	Tried() []string
	// LoadErr is the last candidate failure, if any
	LoadErr() error

	Lookup(symbol string) (uintptr, error)
	HasSymbol(symbol string) bool
	Bind(entryPoint string) Func
	Invoke(entryPoint string, args ...uintptr) (uintptr, error)
}

// library is an opened artifact
type library interface {
	Lookup(symbol string) (uintptr, error)
}

// opener opens an artifact at a path using the platform primitive
type opener func(path string) (library, error)

// caller invokes a native function address
type caller func(addr uintptr, args ...uintptr) (uintptr, error)

type symbolEntry struct {
	addr uintptr
	err  error
}

// LiveHandle wraps a successfully loaded and validated native artifact
type LiveHandle struct {
	id       string
	platform Platform
	root     string
	path     string
	tried    []string
	loadErr  error
	lib      library
	call     caller
	symbols  *lru.Cache[string, symbolEntry]
	metrics  *observability.Metrics
}

func newLiveHandle(platform Platform, root, path string, tried []string, loadErr error, lib library, call caller, metrics *observability.Metrics) *LiveHandle {
	// lru.New only fails for a non-positive size
	cache, _ := lru.New[string, symbolEntry](symbolCacheSize)

	return &LiveHandle{
		id:       uuid.NewString(),
		platform: platform,
		root:     root,
		path:     path,
		tried:    append([]string(nil), tried...),
		loadErr:  loadErr,
		lib:      lib,
		call:     call,
		symbols:  cache,
		metrics:  metrics,
	}
}

func (h *LiveHandle) ID() string         { return h.id }
func (h *LiveHandle) Platform() Platform { return h.platform }
func (h *LiveHandle) IsStandIn() bool    { return false }
func (h *LiveHandle) Root() string       { return h.root }
func (h *LiveHandle) Path() string       { return h.path }
func (h *LiveHandle) LoadErr() error     { return h.loadErr }

func (h *LiveHandle) Tried() []string {
	return append([]string(nil), h.tried...)
}

// Lookup resolves a symbol address. Results, including misses, are cached.
func (h *LiveHandle) Lookup(symbol string) (uintptr, error) {
	if entry, ok := h.symbols.Get(symbol); ok {
		return entry.addr, entry.err
	}

	addr, err := h.lib.Lookup(symbol)
	if err == nil && addr == 0 {
		err = fmt.Errorf("%w: %s resolved to a nil address", ErrSymbolNotFound, symbol)
	} else if err != nil {
		err = fmt.Errorf("%w: %s: %v", ErrSymbolNotFound, symbol, err)
	}

	if h.metrics != nil {
		result := "found"
		if err != nil {
			result = "missing"
		}
		h.metrics.SymbolLookups.WithLabelValues(result).Inc()
	}

	h.symbols.Add(symbol, symbolEntry{addr: addr, err: err})
	return addr, err
}

// HasSymbol reports whether the symbol resolves
func (h *LiveHandle) HasSymbol(symbol string) bool {
	_, err := h.Lookup(symbol)
	return err == nil
}

// Bind returns a callable for an entry point. Resolution is deferred to the first call.
func (h *LiveHandle) Bind(entryPoint string) Func {
	return func(args ...uintptr) (uintptr, error) {
		return h.Invoke(entryPoint, args...)
	}
}

// Invoke calls an entry point with raw word-sized arguments
func (h *LiveHandle) Invoke(entryPoint string, args ...uintptr) (uintptr, error) {
	addr, err := h.Lookup(entryPoint)
	if err != nil {
		return 0, fmt.Errorf("cannot call %q: %w", entryPoint, err)
	}
	return h.call(addr, args...)
}
