package config

import (
	"fmt"
	"strings"
)

// ConfigurationError reports a malformed or self-contradictory configuration
type ConfigurationError struct {
	Path     string
	Problems []string
	Err      error
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder
	b.WriteString("invalid configuration")
	if e.Path != "" {
		fmt.Fprintf(&b, " %s", e.Path)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if len(e.Problems) > 0 {
		fmt.Fprintf(&b, ": %s", strings.Join(e.Problems, "; "))
	}
	return b.String()
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
