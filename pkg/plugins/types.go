package plugins

import (
	"time"

	"github.com/platinummonkey/capgate/pkg/native"
)

// Metadata describes one plugin of the native engine. Catalog entries are
// never mutated after the catalog is built.
type Metadata struct {
	Name               string            `yaml:"name" json:"name"`
	Description        string            `yaml:"description" json:"description"`
	SystemDependencies []string          `yaml:"system_dependencies,omitempty" json:"system_dependencies,omitempty"` // Host checks, e.g. cuda, opengl
	PluginDependencies []string          `yaml:"plugin_dependencies,omitempty" json:"plugin_dependencies,omitempty"` // Sibling plugin names
	Platforms          []native.Platform `yaml:"platforms" json:"platforms"`
	GPURequired        bool              `yaml:"gpu_required" json:"gpu_required"`
	Optional           bool              `yaml:"optional" json:"optional"`
	ProfileTags        []string          `yaml:"profile_tags,omitempty" json:"profile_tags,omitempty"`
	TestSymbols        []string          `yaml:"test_symbols" json:"test_symbols"` // Entry points proving the plugin was compiled in
}

// SupportsPlatform reports whether the plugin can be built for p
func (m *Metadata) SupportsPlatform(p native.Platform) bool {
	for _, candidate := range m.Platforms {
		if candidate == p {
			return true
		}
	}
	return false
}

// HasTag reports whether the plugin carries a profile tag
func (m *Metadata) HasTag(tag string) bool {
	for _, t := range m.ProfileTags {
		if t == tag {
			return true
		}
	}
	return false
}

// Profile is a named, ordered plugin selection for a common use case
type Profile struct {
	Name           string   `yaml:"name" json:"name"`
	Description    string   `yaml:"description" json:"description"`
	Plugins        []string `yaml:"plugins" json:"plugins"`
	RecommendedFor []string `yaml:"recommended_for,omitempty" json:"recommended_for,omitempty"`
	RequiresGPU    bool     `yaml:"requires_gpu" json:"requires_gpu"`
}

// Availability is the probe result for one plugin
type Availability struct {
	Available      bool     `json:"available"`
	Note           string   `json:"note,omitempty"`
	MissingSymbols []string `json:"missing_symbols,omitempty"`
}

// Snapshot holds availability for every catalog plugin, probed against one handle
type Snapshot struct {
	HandleID string                  `json:"handle_id"`
	StandIn  bool                    `json:"stand_in"`
	Platform native.Platform         `json:"platform"`
	ProbedAt time.Time               `json:"probed_at"`
	Entries  map[string]Availability `json:"entries"`
}

// Capability is the diagnostic report for one plugin
type Capability struct {
	Name               string            `json:"name"`
	Description        string            `json:"description"`
	Available          bool              `json:"available"`
	Note               string            `json:"note,omitempty"`
	GPURequired        bool              `json:"gpu_required"`
	Optional           bool              `json:"optional"`
	PluginDependencies []string          `json:"plugin_dependencies,omitempty"`
	SystemDependencies []string          `json:"system_dependencies,omitempty"`
	Platforms          []native.Platform `json:"platforms"`
	ProfileTags        []string          `json:"profile_tags,omitempty"`
}

// ValidationError represents a catalog or configuration validation problem
type ValidationError struct {
	Field    string `json:"field"`
	Message  string `json:"message"`
	Severity string `json:"severity"` // error, warning
}

const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)
