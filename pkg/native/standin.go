package native

import "github.com/google/uuid"

// StandIn replaces the native library when none could be loaded. Every
// reference succeeds and every invocation fails with a *StandInError naming
// the entry point.
type StandIn struct {
	id       string
	platform Platform
	root     string
	tried    []string
	reason   error
}

// NewStandIn creates a stand-in handle. reason is the last load failure, if any.
func NewStandIn(platform Platform, root string, tried []string, reason error) *StandIn {
	return &StandIn{
		id:       uuid.NewString(),
		platform: platform,
		root:     root,
		tried:    append([]string(nil), tried...),
		reason:   reason,
	}
}

func (s *StandIn) ID() string         { return s.id }
func (s *StandIn) Platform() Platform { return s.platform }
func (s *StandIn) IsStandIn() bool    { return true }
func (s *StandIn) Root() string       { return s.root }
func (s *StandIn) Path() string       { return "" }
func (s *StandIn) LoadErr() error     { return s.reason }

func (s *StandIn) Tried() []string {
	return append([]string(nil), s.tried...)
}

// Lookup never resolves
func (s *StandIn) Lookup(symbol string) (uintptr, error) {
	return 0, s.errorFor(symbol)
}

// HasSymbol is always false
func (s *StandIn) HasSymbol(string) bool {
	return false
}

// Bind returns a callable that always fails
func (s *StandIn) Bind(entryPoint string) Func {
	return func(...uintptr) (uintptr, error) {
		return 0, s.errorFor(entryPoint)
	}
}

// Invoke always fails with a *StandInError
func (s *StandIn) Invoke(entryPoint string, _ ...uintptr) (uintptr, error) {
	return 0, s.errorFor(entryPoint)
}

func (s *StandIn) errorFor(entryPoint string) error {
	return &StandInError{
		EntryPoint: entryPoint,
		Platform:   s.platform,
		Root:       s.root,
		Reason:     s.reason,
	}
}
