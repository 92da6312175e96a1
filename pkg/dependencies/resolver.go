package dependencies

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/capgate/pkg/native"
	"github.com/platinummonkey/capgate/pkg/observability"
	"github.com/platinummonkey/capgate/pkg/plugins"
)

// Status summarizes a resolution
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusWarning Status = "WARNING"
	StatusFailure Status = "FAILURE"
)

// DropReason says why a plugin is missing from the final set
type DropReason string

const (
	DropUnknown    DropReason = "unknown"
	DropPlatform   DropReason = "platform"
	DropSystem     DropReason = "system"
	DropDependency DropReason = "dependency"
	DropExcluded   DropReason = "excluded"
)

// DroppedPlugin records one plugin removed during resolution
type DroppedPlugin struct {
	Name   string     `json:"name"`
	Reason DropReason `json:"reason"`
	Detail string     `json:"detail"`
}

// ResolutionResult is the outcome of one Resolve call. It is never shared
// between calls.
type ResolutionResult struct {
	Status       Status          `json:"status"`
	Platform     native.Platform `json:"platform"`
	Requested    []string        `json:"requested"`
	FinalPlugins []string        `json:"final_plugins"`
	Dropped      []DroppedPlugin `json:"dropped,omitempty"`
	Warnings     []string        `json:"warnings,omitempty"`
	Errors       []string        `json:"errors,omitempty"`
	SystemChecks map[string]bool `json:"system_checks"`
}

// OK reports whether the result is usable
func (r *ResolutionResult) OK() bool {
	return r.Status != StatusFailure
}

// Includes reports whether a plugin is in the final set
func (r *ResolutionResult) Includes(name string) bool {
	for _, p := range r.FinalPlugins {
		if p == name {
			return true
		}
	}
	return false
}

// Options configures a Resolver
type Options struct {
	Catalog  *plugins.Catalog
	Platform native.Platform
	Checker  SystemChecker
	Logger   *logrus.Logger
	Metrics  *observability.Metrics
}

// Resolver turns a requested plugin list into a usable one for a platform.
// It has no side effects beyond logging and metrics.
type Resolver struct {
	catalog  *plugins.Catalog
	graph    *DependencyGraph
	platform native.Platform
	checker  SystemChecker
	log      *logrus.Logger
	metrics  *observability.Metrics
}

// NewResolver creates a new dependency resolver
func NewResolver(opts Options) *Resolver {
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	if opts.Catalog == nil {
		opts.Catalog = plugins.DefaultCatalog()
	}
	if opts.Platform == "" {
		opts.Platform = native.DetectPlatform()
	}
	if opts.Checker == nil {
		opts.Checker = NewHostChecker(opts.Logger)
	}

	return &Resolver{
		catalog:  opts.Catalog,
		graph:    NewGraphFromCatalog(opts.Catalog),
		platform: opts.Platform,
		checker:  opts.Checker,
		log:      opts.Logger,
		metrics:  opts.Metrics,
	}
}

// Catalog returns the catalog plugins are resolved against
func (r *Resolver) Catalog() *plugins.Catalog { return r.catalog }

// Graph returns the catalog dependency graph
func (r *Resolver) Graph() *DependencyGraph { return r.graph }

// Platform returns the platform plugins are resolved for
func (r *Resolver) Platform() native.Platform { return r.platform }

type resolveOptions struct {
	exclusions []string
	checker    SystemChecker
	platform   native.Platform
}

// ResolveOption customizes a single Resolve call
type ResolveOption func(*resolveOptions)

// WithExclusions removes plugins after every other step, along with anything depending on them
func WithExclusions(names ...string) ResolveOption {
	return func(o *resolveOptions) {
		o.exclusions = append(o.exclusions, names...)
	}
}

// WithSystemChecks replaces the resolver's checker for one call
func WithSystemChecks(checker SystemChecker) ResolveOption {
	return func(o *resolveOptions) {
		o.checker = checker
	}
}

// WithPlatform resolves for another platform
func WithPlatform(p native.Platform) ResolveOption {
	return func(o *resolveOptions) {
		o.platform = p
	}
}

// resolution carries state through the resolve steps
type resolution struct {
	result  *ResolutionResult
	dropped map[string]bool
}

func (s *resolution) drop(name string, reason DropReason, detail string, warn bool) {
	s.dropped[name] = true
	s.result.Dropped = append(s.result.Dropped, DroppedPlugin{Name: name, Reason: reason, Detail: detail})
	if warn {
		s.result.Warnings = append(s.result.Warnings, detail)
	}
}

// Resolve validates, expands and filters the requested plugins
func (r *Resolver) Resolve(ctx context.Context, requested []string, opts ...ResolveOption) *ResolutionResult {
	o := resolveOptions{checker: r.checker, platform: r.platform}
	for _, opt := range opts {
		opt(&o)
	}

	state := &resolution{
		result: &ResolutionResult{
			Platform:     o.platform,
			Requested:    dedupe(requested),
			FinalPlugins: []string{},
			SystemChecks: make(map[string]bool),
		},
		dropped: make(map[string]bool),
	}
	result := state.result

	// 1. unknown names
	known := make([]string, 0, len(result.Requested))
	for _, name := range result.Requested {
		if !r.catalog.Has(name) {
			detail := fmt.Sprintf("unknown plugin %q", name)
			result.Errors = append(result.Errors, detail)
			state.drop(name, DropUnknown, detail, false)
			continue
		}
		known = append(known, name)
	}

	// 2. transitive expansion, dependencies first
	expanded, err := r.graph.Expand(known)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return r.finish(result, known)
	}
	requestedSet := toSet(known)
	for _, name := range expanded {
		if !requestedSet[name] {
			r.log.WithField("plugin", name).Debug("Added plugin dependency")
		}
	}

	// 3. platform
	for _, name := range expanded {
		meta, _ := r.catalog.Get(name)
		if !meta.SupportsPlatform(o.platform) {
			state.drop(name, DropPlatform, fmt.Sprintf("plugin %s does not support platform %s (supported: %s)",
				name, o.platform, joinPlatforms(meta.Platforms)), true)
		}
	}

	// 4. system dependencies
	tags := r.systemTags(expanded, state.dropped)
	if len(tags) > 0 {
		checks := o.checker.Check(ctx, tags)
		for _, tag := range tags {
			ok, recognized := checks[tag]
			if !recognized {
				r.log.WithField("tag", tag).Debug("Unknown system dependency, assuming satisfied")
				ok = true
			}
			result.SystemChecks[tag] = ok
		}

		for _, name := range expanded {
			if state.dropped[name] {
				continue
			}
			meta, _ := r.catalog.Get(name)
			if unmet := unmetTags(pluginTags(meta), result.SystemChecks); len(unmet) > 0 {
				state.drop(name, DropSystem, fmt.Sprintf("plugin %s dropped: system dependency %s not satisfied",
					name, strings.Join(unmet, ", ")), true)
			}
		}
	}

	// 5. dependents of dropped plugins
	for _, name := range expanded {
		if state.dropped[name] {
			continue
		}
		for _, dep := range r.graph.GetDependencies(name) {
			if state.dropped[dep.Plugin] {
				state.drop(name, DropDependency, fmt.Sprintf("plugin %s dropped: depends on %s which was dropped",
					name, dep.Plugin), true)
				break
			}
		}
	}

	// 6. exclusions, subtracted last
	excluded := toSet(o.exclusions)
	for _, name := range dedupe(o.exclusions) {
		if !r.catalog.Has(name) {
			result.Warnings = append(result.Warnings, fmt.Sprintf("excluded plugin %q is not in the catalog", name))
		}
	}
	removed := make(map[string]bool)
	for _, name := range expanded {
		if state.dropped[name] {
			continue
		}
		if excluded[name] {
			removed[name] = true
			state.drop(name, DropExcluded, fmt.Sprintf("plugin %s excluded", name), false)
			continue
		}
		for _, dep := range r.graph.GetDependencies(name) {
			if removed[dep.Plugin] {
				removed[name] = true
				state.drop(name, DropDependency, fmt.Sprintf("plugin %s dropped: depends on excluded plugin %s",
					name, dep.Plugin), true)
				break
			}
		}
	}

	for _, name := range expanded {
		if !state.dropped[name] {
			result.FinalPlugins = append(result.FinalPlugins, name)
		}
	}

	var wanted []string
	for _, name := range known {
		if !excluded[name] {
			wanted = append(wanted, name)
		}
	}
	return r.finish(result, wanted)
}

// finish computes the status. wanted is the known, non-excluded requested set.
func (r *Resolver) finish(result *ResolutionResult, wanted []string) *ResolutionResult {
	survivors := 0
	for _, name := range wanted {
		if result.Includes(name) {
			survivors++
		}
	}

	warned := false
	for _, d := range result.Dropped {
		if d.Reason != DropUnknown && d.Reason != DropExcluded {
			warned = true
		}
	}

	switch {
	case len(result.Errors) > 0:
		result.Status = StatusFailure
	case len(wanted) > 0 && survivors == 0:
		result.Status = StatusFailure
		result.Errors = append(result.Errors, "none of the requested plugins can be used on this platform")
	case warned || len(result.Warnings) > 0:
		result.Status = StatusWarning
	default:
		result.Status = StatusSuccess
	}

	if r.metrics != nil {
		r.metrics.ResolutionsTotal.WithLabelValues(string(result.Status)).Inc()
		for _, d := range result.Dropped {
			r.metrics.DroppedPluginTotal.WithLabelValues(string(d.Reason)).Inc()
		}
	}

	r.log.WithFields(logrus.Fields{
		"status":    result.Status,
		"platform":  result.Platform,
		"requested": len(result.Requested),
		"final":     len(result.FinalPlugins),
		"dropped":   len(result.Dropped),
	}).Info("Resolved plugin set")

	return result
}

// systemTags collects the sorted system tags of plugins not yet dropped
func (r *Resolver) systemTags(names []string, dropped map[string]bool) []string {
	set := make(map[string]bool)
	for _, name := range names {
		if dropped[name] {
			continue
		}
		meta, _ := r.catalog.Get(name)
		for _, tag := range pluginTags(meta) {
			set[tag] = true
		}
	}

	tags := make([]string, 0, len(set))
	for tag := range set {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// pluginTags is the plugin's system dependencies plus gpu for GPU plugins
func pluginTags(meta plugins.Metadata) []string {
	tags := append([]string(nil), meta.SystemDependencies...)
	if meta.GPURequired {
		tags = append(tags, TagGPU)
	}
	return dedupe(tags)
}

func unmetTags(tags []string, checks map[string]bool) []string {
	var unmet []string
	for _, tag := range tags {
		if ok, known := checks[tag]; known && !ok {
			unmet = append(unmet, tag)
		}
	}
	return unmet
}

// AuditReport is a non-mutating pre-flight audit of a plugin list
type AuditReport struct {
	Valid                []string            `json:"valid"`
	Invalid              []string            `json:"invalid"`
	PlatformIncompatible []string            `json:"platform_incompatible"`
	DependencyUnmet      map[string][]string `json:"dependency_unmet"`
}

// OK reports whether every plugin in the audited list is usable as given
func (a *AuditReport) OK() bool {
	return len(a.Invalid) == 0 && len(a.PlatformIncompatible) == 0 && len(a.DependencyUnmet) == 0
}

// ValidateConfiguration audits a plugin list without expanding dependencies
func (r *Resolver) ValidateConfiguration(list []string) *AuditReport {
	report := &AuditReport{
		Valid:                []string{},
		Invalid:              []string{},
		PlatformIncompatible: []string{},
		DependencyUnmet:      make(map[string][]string),
	}

	names := dedupe(list)
	present := toSet(names)

	for _, name := range names {
		meta, ok := r.catalog.Get(name)
		if !ok {
			report.Invalid = append(report.Invalid, name)
			continue
		}

		valid := true
		if !meta.SupportsPlatform(r.platform) {
			report.PlatformIncompatible = append(report.PlatformIncompatible, name)
			valid = false
		}

		var missing []string
		for _, dep := range meta.PluginDependencies {
			if !present[dep] {
				missing = append(missing, dep)
			}
		}
		if len(missing) > 0 {
			report.DependencyUnmet[name] = missing
			valid = false
		}

		if valid {
			report.Valid = append(report.Valid, name)
		}
	}

	return report
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	result := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		result = append(result, name)
	}
	return result
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[strings.TrimSpace(name)] = true
	}
	return set
}

func joinPlatforms(platforms []native.Platform) string {
	parts := make([]string, len(platforms))
	for i, p := range platforms {
		parts[i] = string(p)
	}
	return strings.Join(parts, ", ")
}
