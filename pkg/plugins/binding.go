package plugins

import "github.com/platinummonkey/capgate/pkg/native"

// Binding is the outcome of binding a wrapper to a plugin: either Available
// or Unavailable. Wrappers receive one at construction instead of probing.
type Binding interface {
	Plugin() string
	IsAvailable() bool
	// Invoke calls an entry point, or returns the unavailability error
	Invoke(entryPoint string, args ...uintptr) (uintptr, error)

	sealed()
}

// Available binds a plugin that was compiled into the handle
type Available struct {
	Name   string
	Handle native.Handle
}

func (a Available) Plugin() string    { return a.Name }
func (a Available) IsAvailable() bool { return true }
func (a Available) sealed()           {}

func (a Available) Invoke(entryPoint string, args ...uintptr) (uintptr, error) {
	return a.Handle.Invoke(entryPoint, args...)
}

// Unavailable carries the reason a plugin cannot be used
type Unavailable struct {
	Name string
	Err  error
}

func (u Unavailable) Plugin() string    { return u.Name }
func (u Unavailable) IsAvailable() bool { return false }
func (u Unavailable) sealed()           {}

func (u Unavailable) Invoke(string, ...uintptr) (uintptr, error) {
	return 0, u.Err
}
