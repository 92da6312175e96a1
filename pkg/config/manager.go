package config

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/capgate/pkg/dependencies"
	"github.com/platinummonkey/capgate/pkg/native"
	"github.com/platinummonkey/capgate/pkg/observability"
	"github.com/platinummonkey/capgate/pkg/plugins"
)

// ResolvedConfiguration is a document resolved into a concrete plugin list
type ResolvedConfiguration struct {
	SelectionMode     string                         `json:"selection_mode"`
	Profile           string                         `json:"profile,omitempty"`
	ExplicitPlugins   []string                       `json:"explicit_plugins,omitempty"`
	ExcludedPlugins   []string                       `json:"excluded_plugins,omitempty"`
	PlatformOverrides map[string]PlatformOverride    `json:"platform_overrides,omitempty"`
	Requested         []string                       `json:"requested"`
	Plugins           []string                       `json:"plugins"`
	Resolution        *dependencies.ResolutionResult `json:"resolution"`
	Build             BuildOptions                   `json:"build"`
	Logging           LoggingOptions                 `json:"logging"`
}

// Document converts back to the persisted shape
func (r *ResolvedConfiguration) Document() *Document {
	doc := &Document{
		PluginSelection: PluginSelection{
			Mode:              r.SelectionMode,
			Profile:           r.Profile,
			ExplicitPlugins:   append([]string(nil), r.ExplicitPlugins...),
			ExcludedPlugins:   append([]string(nil), r.ExcludedPlugins...),
			PlatformOverrides: r.PlatformOverrides,
		},
		Build:   r.Build,
		Logging: r.Logging,
	}
	doc = doc.Clone()
	doc.applyDefaults()
	return doc
}

// Manager combines a document's selection into one request for the resolver
type Manager struct {
	resolver       *dependencies.Resolver
	catalog        *plugins.Catalog
	platform       native.Platform
	filterProfiles bool
	log            *logrus.Logger
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithLogger sets the manager logger
func WithLogger(log *logrus.Logger) ManagerOption {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithProfileFiltering controls whether profile lists are filtered by platform
// before resolution. It is on by default.
func WithProfileFiltering(enabled bool) ManagerOption {
	return func(m *Manager) {
		m.filterProfiles = enabled
	}
}

// NewManager creates a configuration manager over a resolver
func NewManager(resolver *dependencies.Resolver, opts ...ManagerOption) *Manager {
	m := &Manager{
		resolver:       resolver,
		catalog:        resolver.Catalog(),
		platform:       resolver.Platform(),
		filterProfiles: true,
		log:            logrus.New(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Request computes the plugin list a document asks for, before resolution
func (m *Manager) Request(doc *Document) ([]string, error) {
	doc = doc.Clone()
	doc.applyDefaults()
	sel := doc.PluginSelection

	var requested []string
	switch sel.Mode {
	case ModeProfile:
		profile, err := m.catalog.Profile(sel.Profile)
		if err != nil {
			return nil, &ConfigurationError{Err: err}
		}
		requested = profile.Plugins
		if m.filterProfiles {
			requested = m.catalog.FilterProfileByPlatform(profile, m.platform)
		}
	case ModeExplicit:
		requested = append([]string(nil), sel.ExplicitPlugins...)
	default:
		return nil, &ConfigurationError{
			Problems: []string{fmt.Sprintf("unknown selection mode %q (must be %s or %s)", sel.Mode, ModeProfile, ModeExplicit)},
		}
	}

	if override, ok := sel.PlatformOverrides[string(m.platform)]; ok {
		requested = appendMissing(requested, override.Include)
		requested = removeAll(requested, override.Exclude)
	}

	return requested, nil
}

// Resolve turns a document into a resolved configuration. Exclusions are
// subtracted by the resolver after every other step.
func (m *Manager) Resolve(ctx context.Context, doc *Document) (*ResolvedConfiguration, error) {
	requested, err := m.Request(doc)
	if err != nil {
		return nil, err
	}

	normalized := doc.Clone()
	normalized.applyDefaults()
	sel := normalized.PluginSelection

	result := m.resolver.Resolve(ctx, requested, dependencies.WithExclusions(sel.ExcludedPlugins...))

	m.log.WithFields(logrus.Fields{
		"mode":     sel.Mode,
		"profile":  sel.Profile,
		"platform": m.platform,
		"status":   result.Status,
		"plugins":  len(result.FinalPlugins),
	}).Info("Resolved configuration")

	return &ResolvedConfiguration{
		SelectionMode:     sel.Mode,
		Profile:           sel.Profile,
		ExplicitPlugins:   sel.ExplicitPlugins,
		ExcludedPlugins:   sel.ExcludedPlugins,
		PlatformOverrides: sel.PlatformOverrides,
		Requested:         requested,
		Plugins:           append([]string(nil), result.FinalPlugins...),
		Resolution:        result,
		Build:             normalized.Build,
		Logging:           normalized.Logging,
	}, nil
}

// LoadAndResolve loads a document, applies environment overrides, rejects
// invalid documents and resolves the rest
func (m *Manager) LoadAndResolve(ctx context.Context, path string) (*ResolvedConfiguration, error) {
	doc, err := Load(path)
	if err != nil {
		return nil, err
	}
	doc = ApplyEnv(doc)

	if report := m.Validate(doc); !report.Valid() {
		return nil, report.Err(path)
	}

	return m.Resolve(ctx, doc)
}

// ValidityReport lists every problem found in a document
type ValidityReport struct {
	Issues []plugins.ValidationError `json:"issues"`
}

// Valid reports whether no issue has error severity
func (r *ValidityReport) Valid() bool {
	return len(r.Errors()) == 0
}

// Errors returns the error severity issues
func (r *ValidityReport) Errors() []plugins.ValidationError {
	return r.filter(plugins.SeverityError)
}

// Warnings returns the warning severity issues
func (r *ValidityReport) Warnings() []plugins.ValidationError {
	return r.filter(plugins.SeverityWarning)
}

func (r *ValidityReport) filter(severity string) []plugins.ValidationError {
	var out []plugins.ValidationError
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			out = append(out, issue)
		}
	}
	return out
}

// Err converts the errors of the report into a *ConfigurationError, or nil
func (r *ValidityReport) Err(path string) error {
	errs := r.Errors()
	if len(errs) == 0 {
		return nil
	}
	problems := make([]string, 0, len(errs))
	for _, issue := range errs {
		problems = append(problems, issue.Field+": "+issue.Message)
	}
	return &ConfigurationError{Path: path, Problems: problems}
}

func (r *ValidityReport) add(field, severity, format string, args ...interface{}) {
	r.Issues = append(r.Issues, plugins.ValidationError{
		Field:    field,
		Message:  fmt.Sprintf(format, args...),
		Severity: severity,
	})
}

// Validate checks a document and reports every problem at once. It never fails.
func (m *Manager) Validate(doc *Document) *ValidityReport {
	report := &ValidityReport{Issues: []plugins.ValidationError{}}
	doc = doc.Clone()
	doc.applyDefaults()
	sel := doc.PluginSelection

	switch sel.Mode {
	case ModeProfile:
		if !m.catalog.HasProfile(sel.Profile) {
			report.add("plugin_selection.profile", plugins.SeverityError, "unknown profile %q (known: %v)", sel.Profile, m.catalog.ProfileNames())
		}
		if len(sel.ExplicitPlugins) > 0 {
			report.add("plugin_selection.explicit_plugins", plugins.SeverityWarning, "explicit plugins are ignored in profile mode")
		}
	case ModeExplicit:
		if len(sel.ExplicitPlugins) == 0 {
			report.add("plugin_selection.explicit_plugins", plugins.SeverityError, "explicit mode requires at least one plugin")
		}
	default:
		report.add("plugin_selection.mode", plugins.SeverityError, "unknown selection mode %q (must be %s or %s)", sel.Mode, ModeProfile, ModeExplicit)
	}

	m.checkNames(report, "plugin_selection.explicit_plugins", sel.ExplicitPlugins)
	m.checkNames(report, "plugin_selection.excluded_plugins", sel.ExcludedPlugins)

	for _, name := range intersect(sel.ExplicitPlugins, sel.ExcludedPlugins) {
		report.add("plugin_selection", plugins.SeverityError, "plugin %q is both selected and excluded", name)
	}

	platforms := make([]string, 0, len(sel.PlatformOverrides))
	for platform := range sel.PlatformOverrides {
		platforms = append(platforms, platform)
	}
	sort.Strings(platforms)

	for _, platform := range platforms {
		override := sel.PlatformOverrides[platform]
		field := "plugin_selection.platform_overrides." + platform

		if p, ok := native.ParsePlatform(platform); !ok || string(p) != platform {
			report.add(field, plugins.SeverityError, "unknown platform %q (must be one of %v)", platform, native.SupportedPlatforms())
		}
		m.checkNames(report, field+".include", override.Include)
		m.checkNames(report, field+".exclude", override.Exclude)
		for _, name := range intersect(override.Include, override.Exclude) {
			report.add(field, plugins.SeverityError, "plugin %q is both included and excluded", name)
		}
	}

	if !contains(BuildTypes, doc.Build.BuildType) {
		report.add("build.build_type", plugins.SeverityError, "invalid build type %q (must be one of %v)", doc.Build.BuildType, BuildTypes)
	}
	if !observability.ValidLogLevel(doc.Logging.Level) {
		report.add("logging.level", plugins.SeverityError, "invalid log level %q", doc.Logging.Level)
	}

	return report
}

func (m *Manager) checkNames(report *ValidityReport, field string, names []string) {
	for _, name := range names {
		if !m.catalog.Has(name) {
			report.add(field, plugins.SeverityError, "unknown plugin %q", name)
		}
	}
}

func appendMissing(list, extra []string) []string {
	out := append([]string(nil), list...)
	for _, name := range extra {
		if !contains(out, name) {
			out = append(out, name)
		}
	}
	return out
}

func removeAll(list, remove []string) []string {
	out := make([]string, 0, len(list))
	for _, name := range list {
		if !contains(remove, name) {
			out = append(out, name)
		}
	}
	return out
}

func intersect(a, b []string) []string {
	var out []string
	for _, name := range a {
		if contains(b, name) && !contains(out, name) {
			out = append(out, name)
		}
	}
	return out
}

func contains(list []string, name string) bool {
	for _, item := range list {
		if item == name {
			return true
		}
	}
	return false
}
