package plugins

import (
	"fmt"
	"sort"
	"strings"

	"github.com/platinummonkey/capgate/pkg/native"
)

// Catalog is the immutable set of plugin metadata and profiles the engine knows about
type Catalog struct {
	order        []string
	plugins      map[string]Metadata
	profileOrder []string
	profiles     map[string]Profile
}

// NewCatalog builds a catalog and rejects it if validation reports any error
func NewCatalog(plugins []Metadata, profiles []Profile) (*Catalog, error) {
	c := &Catalog{
		plugins:  make(map[string]Metadata, len(plugins)),
		profiles: make(map[string]Profile, len(profiles)),
	}

	for _, p := range plugins {
		if _, exists := c.plugins[p.Name]; exists {
			return nil, fmt.Errorf("duplicate plugin in catalog: %s", p.Name)
		}
		c.order = append(c.order, p.Name)
		c.plugins[p.Name] = cloneMetadata(p)
	}

	for _, p := range profiles {
		if _, exists := c.profiles[p.Name]; exists {
			return nil, fmt.Errorf("duplicate profile in catalog: %s", p.Name)
		}
		c.profileOrder = append(c.profileOrder, p.Name)
		c.profiles[p.Name] = cloneProfile(p)
	}

	var problems []string
	for _, v := range c.Validate() {
		if v.Severity == SeverityError {
			problems = append(problems, v.Field+": "+v.Message)
		}
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("invalid catalog: %s", strings.Join(problems, "; "))
	}

	return c, nil
}

// Get returns a copy of a plugin's metadata
func (c *Catalog) Get(name string) (Metadata, bool) {
	m, ok := c.plugins[name]
	if !ok {
		return Metadata{}, false
	}
	return cloneMetadata(m), true
}

// Has reports whether a plugin is in the catalog
func (c *Catalog) Has(name string) bool {
	_, ok := c.plugins[name]
	return ok
}

// Names returns plugin names in catalog order
func (c *Catalog) Names() []string {
	return append([]string(nil), c.order...)
}

// Plugins returns all metadata in catalog order
func (c *Catalog) Plugins() []Metadata {
	result := make([]Metadata, 0, len(c.order))
	for _, name := range c.order {
		result = append(result, cloneMetadata(c.plugins[name]))
	}
	return result
}

// Profile returns a profile by name
func (c *Catalog) Profile(name string) (Profile, error) {
	p, ok := c.profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s (known: %s)", ErrUnknownProfile, name, strings.Join(c.profileOrder, ", "))
	}
	return cloneProfile(p), nil
}

// HasProfile reports whether a profile exists
func (c *Catalog) HasProfile(name string) bool {
	_, ok := c.profiles[name]
	return ok
}

// Profiles returns every profile in declaration order
func (c *Catalog) Profiles() []Profile {
	result := make([]Profile, 0, len(c.profileOrder))
	for _, name := range c.profileOrder {
		result = append(result, cloneProfile(c.profiles[name]))
	}
	return result
}

// ProfileNames returns profile names in declaration order
func (c *Catalog) ProfileNames() []string {
	return append([]string(nil), c.profileOrder...)
}

// PluginsWithTag returns plugins carrying a profile tag, in catalog order
func (c *Catalog) PluginsWithTag(tag string) []string {
	var result []string
	for _, name := range c.order {
		m := c.plugins[name]
		if m.HasTag(tag) {
			result = append(result, name)
		}
	}
	return result
}

// PluginsForPlatform returns plugins that can be built for p, in catalog order
func (c *Catalog) PluginsForPlatform(p native.Platform) []string {
	var result []string
	for _, name := range c.order {
		m := c.plugins[name]
		if m.SupportsPlatform(p) {
			result = append(result, name)
		}
	}
	return result
}

// Validate checks the catalog invariants: every reference resolves and the
// dependency graph is acyclic.
func (c *Catalog) Validate() []ValidationError {
	var errs []ValidationError
	add := func(field, severity, format string, args ...interface{}) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Severity: severity})
	}

	for _, name := range c.order {
		m := c.plugins[name]
		field := "plugins." + name

		if name == "" {
			add("plugins", SeverityError, "plugin name is required")
			continue
		}
		if len(m.TestSymbols) == 0 {
			add(field+".test_symbols", SeverityError, "at least one test symbol is required")
		}
		if len(m.Platforms) == 0 {
			add(field+".platforms", SeverityError, "at least one platform is required")
		}
		for _, p := range m.Platforms {
			if !p.Supported() {
				add(field+".platforms", SeverityError, "unknown platform %q", p)
			}
		}
		for _, dep := range m.PluginDependencies {
			if dep == name {
				add(field+".plugin_dependencies", SeverityError, "plugin depends on itself")
			} else if !c.Has(dep) {
				add(field+".plugin_dependencies", SeverityError, "unknown plugin dependency %q", dep)
			}
		}
	}

	if cycle := c.findCycle(); len(cycle) > 0 {
		add("plugins", SeverityError, "dependency cycle: %s", strings.Join(cycle, " -> "))
	}

	for _, name := range c.profileOrder {
		p := c.profiles[name]
		field := "profiles." + name

		if len(p.Plugins) == 0 {
			add(field+".plugins", SeverityWarning, "profile selects no plugins")
		}

		seen := make(map[string]bool)
		needsGPU := false
		for _, plugin := range p.Plugins {
			if seen[plugin] {
				add(field+".plugins", SeverityWarning, "plugin %q listed twice", plugin)
			}
			seen[plugin] = true

			m, ok := c.plugins[plugin]
			if !ok {
				add(field+".plugins", SeverityError, "unknown plugin %q", plugin)
				continue
			}
			needsGPU = needsGPU || m.GPURequired
		}
		if needsGPU && !p.RequiresGPU {
			add(field+".requires_gpu", SeverityWarning, "profile contains GPU plugins but requires_gpu is false")
		}
	}

	return errs
}

// findCycle returns one dependency cycle, if any, starting and ending at the same plugin
func (c *Catalog) findCycle() []string {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(c.order))
	var stack []string
	var cycle []string

	var visit func(name string) bool
	visit = func(name string) bool {
		state[name] = visiting
		stack = append(stack, name)

		for _, dep := range c.plugins[name].PluginDependencies {
			if _, ok := c.plugins[dep]; !ok || dep == name {
				continue
			}
			switch state[dep] {
			case visiting:
				for i, s := range stack {
					if s == dep {
						cycle = append(append([]string(nil), stack[i:]...), dep)
						break
					}
				}
				return true
			case unvisited:
				if visit(dep) {
					return true
				}
			}
		}

		stack = stack[:len(stack)-1]
		state[name] = done
		return false
	}

	for _, name := range c.order {
		if state[name] == unvisited && visit(name) {
			return cycle
		}
	}
	return nil
}

// FilterProfileByPlatform returns the profile's plugins that support p, keeping profile order
func (c *Catalog) FilterProfileByPlatform(profile Profile, p native.Platform) []string {
	result := make([]string, 0, len(profile.Plugins))
	for _, name := range profile.Plugins {
		m, ok := c.plugins[name]
		if ok && m.SupportsPlatform(p) {
			result = append(result, name)
		}
	}
	return result
}

// ProfilesForPlatform returns profiles whose every plugin supports p
func (c *Catalog) ProfilesForPlatform(p native.Platform) []Profile {
	var result []Profile
	for _, profile := range c.Profiles() {
		if len(c.FilterProfileByPlatform(profile, p)) == len(profile.Plugins) {
			result = append(result, profile)
		}
	}
	return result
}

// RecommendProfile picks a default profile for a host
func (c *Catalog) RecommendProfile(hasGPU bool) string {
	if hasGPU && c.HasProfile(ProfileGPUAccelerated) {
		return ProfileGPUAccelerated
	}
	if c.HasProfile(DefaultProfileName) {
		return DefaultProfileName
	}
	if len(c.profileOrder) > 0 {
		return c.profileOrder[0]
	}
	return ""
}

// Alternatives returns other plugins sharing a profile tag with name, sorted
func (c *Catalog) Alternatives(name string) []string {
	m, ok := c.plugins[name]
	if !ok {
		return nil
	}

	seen := make(map[string]bool)
	for _, tag := range m.ProfileTags {
		for _, other := range c.PluginsWithTag(tag) {
			if other != name {
				seen[other] = true
			}
		}
	}

	result := make([]string, 0, len(seen))
	for other := range seen {
		result = append(result, other)
	}
	sort.Strings(result)
	return result
}

func cloneMetadata(m Metadata) Metadata {
	m.SystemDependencies = append([]string(nil), m.SystemDependencies...)
	m.PluginDependencies = append([]string(nil), m.PluginDependencies...)
	m.Platforms = append([]native.Platform(nil), m.Platforms...)
	m.ProfileTags = append([]string(nil), m.ProfileTags...)
	m.TestSymbols = append([]string(nil), m.TestSymbols...)
	return m
}

func cloneProfile(p Profile) Profile {
	p.Plugins = append([]string(nil), p.Plugins...)
	p.RecommendedFor = append([]string(nil), p.RecommendedFor...)
	return p
}
