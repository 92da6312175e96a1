package plugins

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownPlugin is returned for names missing from the catalog
	ErrUnknownPlugin = errors.New("unknown plugin")

	// ErrUnknownProfile is returned for profile names missing from the profile set
	ErrUnknownProfile = errors.New("unknown profile")

	// ErrPluginNotAvailable is matched by every *PluginNotAvailableError
	ErrPluginNotAvailable = errors.New("plugin not available")
)

// PluginNotAvailableError explains why a capability-specific call was refused
type PluginNotAvailableError struct {
	Plugin       string
	Action       string
	Reason       string
	Remediation  string
	Alternatives []string
	Err          error
}

func (e *PluginNotAvailableError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "plugin %q is not available", e.Plugin)
	if e.Action != "" {
		fmt.Fprintf(&b, ", cannot %s", e.Action)
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, ": %s", e.Reason)
	}
	if e.Remediation != "" {
		fmt.Fprintf(&b, ". %s", e.Remediation)
	}
	if len(e.Alternatives) > 0 {
		fmt.Fprintf(&b, ". Available alternatives: %s", strings.Join(e.Alternatives, ", "))
	}
	return b.String()
}

func (e *PluginNotAvailableError) Is(target error) bool {
	return target == ErrPluginNotAvailable
}

func (e *PluginNotAvailableError) Unwrap() error {
	return e.Err
}
