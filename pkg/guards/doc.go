// Package guards gates capability-specific calls behind plugin availability.
//
// A Guard checks availability before every call and can re-raise failures as
// the caller's own error type:
//
//	g := guards.New(registry, "radiation", guards.WithErrorWrapper(func(err error) error {
//		return &RadiationError{Err: err}
//	}))
//	err := g.Call("run radiation model", func() error {
//		_, err := handle.Invoke("runBand", band)
//		return err
//	})
//
// Calls whose native side resolves assets relative to the working directory
// run through InDir, Guard.CallInDir or an explicit AssetScope. The original
// directory is restored on every exit path, and nested redirections restore to
// the enclosing directory.
//
// Redirections nest in any combination: a guarded call made from inside
// another guarded call, InDir or AssetScope restores to the enclosing
// directory when it returns. Each directory switch is serialized, but the
// working directory is process-wide, so goroutines that redirect
// concurrently see each other's changes.
package guards
