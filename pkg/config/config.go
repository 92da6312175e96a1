package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/capgate/pkg/plugins"
)

// Selection modes
const (
	ModeProfile  = "profile"
	ModeExplicit = "explicit"
)

const (
	DefaultMode      = ModeProfile
	DefaultProfile   = plugins.DefaultProfileName
	DefaultBuildType = "Release"
	DefaultLogLevel  = "info"
)

// BuildTypes lists the accepted build_type values
var BuildTypes = []string{"Debug", "Release", "RelWithDebInfo", "MinSizeRel"}

// Document is the persisted configuration. Every field is optional.
type Document struct {
	PluginSelection PluginSelection `yaml:"plugin_selection"`
	Build           BuildOptions    `yaml:"build"`
	Logging         LoggingOptions  `yaml:"logging"`
}

// PluginSelection chooses the requested plugin set
type PluginSelection struct {
	Mode              string                      `yaml:"mode"`
	Profile           string                      `yaml:"profile"`
	ExplicitPlugins   []string                    `yaml:"explicit_plugins,omitempty"`
	ExcludedPlugins   []string                    `yaml:"excluded_plugins,omitempty"`
	PlatformOverrides map[string]PlatformOverride `yaml:"platform_overrides,omitempty"`
}

// PlatformOverride adjusts the selection on one platform
type PlatformOverride struct {
	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`
}

// BuildOptions are passed through to the native build
type BuildOptions struct {
	BuildType string `yaml:"build_type"`
	Verbose   bool   `yaml:"verbose"`
}

// LoggingOptions configures logging
type LoggingOptions struct {
	Level string `yaml:"level"`
}

// Default returns a document with every default filled in
func Default() *Document {
	doc := &Document{}
	doc.applyDefaults()
	return doc
}

// applyDefaults fills unset fields and normalizes empty lists to nil so
// documents compare equal after a save/load cycle
func (d *Document) applyDefaults() {
	sel := &d.PluginSelection
	if sel.Mode == "" {
		sel.Mode = DefaultMode
	}
	if sel.Profile == "" {
		sel.Profile = DefaultProfile
	}
	sel.ExplicitPlugins = normalizeList(sel.ExplicitPlugins)
	sel.ExcludedPlugins = normalizeList(sel.ExcludedPlugins)

	if len(sel.PlatformOverrides) == 0 {
		sel.PlatformOverrides = nil
	}
	for platform, override := range sel.PlatformOverrides {
		override.Include = normalizeList(override.Include)
		override.Exclude = normalizeList(override.Exclude)
		sel.PlatformOverrides[platform] = override
	}

	if d.Build.BuildType == "" {
		d.Build.BuildType = DefaultBuildType
	}
	if d.Logging.Level == "" {
		d.Logging.Level = DefaultLogLevel
	}
}

// Clone returns a deep copy
func (d *Document) Clone() *Document {
	out := *d
	out.PluginSelection.ExplicitPlugins = append([]string(nil), d.PluginSelection.ExplicitPlugins...)
	out.PluginSelection.ExcludedPlugins = append([]string(nil), d.PluginSelection.ExcludedPlugins...)
	if d.PluginSelection.PlatformOverrides != nil {
		out.PluginSelection.PlatformOverrides = make(map[string]PlatformOverride, len(d.PluginSelection.PlatformOverrides))
		for platform, override := range d.PluginSelection.PlatformOverrides {
			out.PluginSelection.PlatformOverrides[platform] = PlatformOverride{
				Include: append([]string(nil), override.Include...),
				Exclude: append([]string(nil), override.Exclude...),
			}
		}
	}
	return &out
}

// Load reads a configuration document. A missing file yields the defaults.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, &ConfigurationError{Path: path, Err: fmt.Errorf("failed to read config: %w", err)}
	}

	return Parse(path, data)
}

// Parse decodes a configuration document; path is only used in errors
func Parse(path string, data []byte) (*Document, error) {
	doc := &Document{}
	if strings.TrimSpace(string(data)) != "" {
		if err := yaml.Unmarshal(data, doc); err != nil {
			return nil, &ConfigurationError{Path: path, Err: fmt.Errorf("failed to parse config: %w", err)}
		}
	}

	doc.applyDefaults()
	return doc, nil
}

// Save writes a configuration document, creating parent directories
func Save(path string, doc *Document) error {
	out := doc.Clone()
	out.applyDefaults()

	data, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

func normalizeList(names []string) []string {
	var out []string
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}
