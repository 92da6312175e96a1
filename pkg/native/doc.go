// Package native locates, loads and validates the externally built engine library.
//
// # Overview
//
// The engine is a dynamic library built separately for each platform. This
// package finds it under an install root, opens it with the platform loader
// (dlopen through purego on Linux and macOS, LoadDLL on Windows) and checks it
// before handing out a Handle.
//
// # Candidate Search
//
// Directories, in order: <root>, <root>/lib, <root>/build/lib, <root>/plugins/lib.
// Filenames, in order:
//
//	linux:   libhelios.so, helios.so, libhelios.so.1
//	macos:   libhelios.dylib, helios.dylib, libhelios.so
//	windows: helios.dll, libhelios.dll
//
// A candidate is accepted when it is a regular file of at least MinSize bytes
// and the canary symbol (createContext) resolves.
//
// # Stand-in Handle
//
// When nothing loads, or the platform has no build, Acquire returns a *StandIn.
// It answers every entry point with a callable that fails:
//
//	h, _ := loader.Acquire()
//	_, err := h.Invoke("createRadiationModel")
//	if errors.Is(err, native.ErrStandIn) {
//		fmt.Println(err) // cannot call "createRadiationModel": native library unavailable ...
//	}
//
// Strict mode (Options.Strict) is the only way Acquire returns an error.
//
// # Related Packages
//
//   - pkg/plugins: probes plugin test symbols against a Handle
//   - pkg/engine: owns the process-wide Loader
package native
