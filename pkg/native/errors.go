package native

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrStandIn is matched by every error a stand-in handle returns
	ErrStandIn = errors.New("native library unavailable")

	// ErrUnsupportedPlatform is returned in strict mode when no artifact can exist for the host
	ErrUnsupportedPlatform = errors.New("unsupported platform")

	// ErrInvalidLibrary marks a candidate that opened but failed validation
	ErrInvalidLibrary = errors.New("invalid native library")

	// ErrSymbolNotFound is returned when a live library lacks a symbol
	ErrSymbolNotFound = errors.New("symbol not found")
)

// LoadError is the fatal loader error. It is only returned in strict mode.
type LoadError struct {
	Platform Platform
	Path     string
	Tried    []string
	Err      error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "failed to load native library for platform %s", e.Platform)
	if e.Path != "" {
		fmt.Fprintf(&b, " from %s", e.Path)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if len(e.Tried) > 0 {
		fmt.Fprintf(&b, " (tried %d candidates)", len(e.Tried))
	}
	return b.String()
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// StandInError is returned by every invocation on a stand-in handle
type StandInError struct {
	EntryPoint string
	Platform   Platform
	Root       string
	Reason     error
}

func (e *StandInError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "cannot call %q: native library unavailable (stand-in handle active)", e.EntryPoint)
	if e.Reason != nil {
		fmt.Fprintf(&b, "; last load error: %v", e.Reason)
	}
	if e.Platform.Supported() {
		fmt.Fprintf(&b, "; build the native library for %s and place it under %q, or set CAPGATE_LIBRARY_DIR to its location",
			e.Platform, e.Root)
	} else {
		b.WriteString("; this platform has no native library build, only diagnostics are available")
	}
	return b.String()
}

func (e *StandInError) Is(target error) bool {
	return target == ErrStandIn
}

func (e *StandInError) Unwrap() error {
	return e.Reason
}
