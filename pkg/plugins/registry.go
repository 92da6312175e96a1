package plugins

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/capgate/pkg/native"
	"github.com/platinummonkey/capgate/pkg/observability"
)

// DefaultBuildCommand is shown in remediation messages; %s is the plugin name
const DefaultBuildCommand = "build-engine --plugins %s"

// HandleSource provides the current native handle. *native.Loader satisfies it.
type HandleSource interface {
	Acquire() (native.Handle, error)
}

// Option configures a Registry
type Option func(*Registry)

// WithLogger sets the registry logger
func WithLogger(log *logrus.Logger) Option {
	return func(r *Registry) {
		if log != nil {
			r.log = log
		}
	}
}

// WithMetrics attaches Prometheus metrics
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

// WithBuildCommand overrides the build command used in remediation text
func WithBuildCommand(format string) Option {
	return func(r *Registry) {
		if format != "" {
			r.buildCommand = format
		}
	}
}

// Registry answers which plugins were compiled into the current handle. The
// snapshot is probed lazily and re-probed whenever the handle changes.
type Registry struct {
	catalog      *Catalog
	source       HandleSource
	log          *logrus.Logger
	metrics      *observability.Metrics
	buildCommand string

	mu       sync.Mutex
	snapshot *Snapshot
}

// NewRegistry creates a capability registry over a catalog and handle source
func NewRegistry(catalog *Catalog, source HandleSource, opts ...Option) *Registry {
	if catalog == nil {
		catalog = DefaultCatalog()
	}

	r := &Registry{
		catalog:      catalog,
		source:       source,
		log:          logrus.New(),
		buildCommand: DefaultBuildCommand,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Catalog returns the catalog the registry probes
func (r *Registry) Catalog() *Catalog {
	return r.catalog
}

// Snapshot returns availability for every catalog plugin against the current handle
func (r *Registry) Snapshot() Snapshot {
	_, snap, _ := r.current()
	return snap.clone()
}

// IsAvailable reports whether every test symbol of the plugin resolves.
// Unknown plugins are never available.
func (r *Registry) IsAvailable(name string) bool {
	_, snap, _ := r.current()
	return snap.Entries[name].Available
}

// Available returns available plugins in catalog order
func (r *Registry) Available() []string {
	return r.filter(true)
}

// Unavailable returns unavailable plugins in catalog order
func (r *Registry) Unavailable() []string {
	return r.filter(false)
}

func (r *Registry) filter(available bool) []string {
	_, snap, _ := r.current()

	var result []string
	for _, name := range r.catalog.Names() {
		if snap.Entries[name].Available == available {
			result = append(result, name)
		}
	}
	return result
}

// Alternatives returns available plugins sharing a profile tag with name, sorted
func (r *Registry) Alternatives(name string) []string {
	_, snap, _ := r.current()
	return r.alternatives(snap, name)
}

func (r *Registry) alternatives(snap *Snapshot, name string) []string {
	var result []string
	for _, other := range r.catalog.Alternatives(name) {
		if snap.Entries[other].Available {
			result = append(result, other)
		}
	}
	return result
}

// Require re-checks a plugin against the current handle and explains why it
// cannot be used. action describes what the caller was trying to do.
func (r *Registry) Require(name, action string) error {
	meta, ok := r.catalog.Get(name)
	if !ok {
		return &PluginNotAvailableError{
			Plugin:      name,
			Action:      action,
			Reason:      "not in catalog",
			Remediation: "Check the plugin name against `capgate status`",
			Err:         ErrUnknownPlugin,
		}
	}

	handle, snap, err := r.current()
	if err != nil {
		return r.refuse(meta, action, snap, fmt.Sprintf("native library could not be loaded: %v", err), err)
	}

	avail := probePlugin(handle, meta)
	r.mu.Lock()
	if r.snapshot != nil && r.snapshot.HandleID == handle.ID() {
		// published snapshots are never mutated
		updated := r.snapshot.clone()
		updated.Entries[name] = avail
		r.snapshot = &updated
	}
	r.mu.Unlock()

	if avail.Available {
		return nil
	}

	cause := native.ErrSymbolNotFound
	if handle.IsStandIn() {
		cause = native.ErrStandIn
	}
	return r.refuse(meta, action, snap, avail.Note, cause)
}

func (r *Registry) refuse(meta Metadata, action string, snap *Snapshot, reason string, cause error) error {
	if r.metrics != nil {
		r.metrics.RequireFailuresTotal.WithLabelValues(meta.Name).Inc()
	}

	err := &PluginNotAvailableError{
		Plugin:       meta.Name,
		Action:       action,
		Reason:       reason,
		Remediation:  r.remediation(meta),
		Alternatives: r.alternatives(snap, meta.Name),
		Err:          cause,
	}

	r.log.WithFields(logrus.Fields{
		"plugin": meta.Name,
		"action": action,
	}).Debug("Refused capability call")

	return err
}

func (r *Registry) remediation(meta Metadata) string {
	command := r.buildCommand
	if strings.Contains(command, "%s") {
		command = fmt.Sprintf(command, meta.Name)
	} else {
		command = command + " " + meta.Name
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Rebuild the native library with the plugin enabled: %s", command)
	if meta.GPURequired {
		b.WriteString(" (requires an NVIDIA GPU with the CUDA toolkit")
		if len(meta.SystemDependencies) > 0 {
			fmt.Fprintf(&b, "; system dependencies: %s", strings.Join(meta.SystemDependencies, ", "))
		}
		b.WriteString(")")
	}
	if len(meta.PluginDependencies) > 0 {
		fmt.Fprintf(&b, ". It also requires: %s", strings.Join(meta.PluginDependencies, ", "))
	}
	return b.String()
}

// Capabilities returns the diagnostic report for every plugin in catalog order
func (r *Registry) Capabilities() []Capability {
	_, snap, _ := r.current()

	result := make([]Capability, 0, len(r.catalog.Names()))
	for _, meta := range r.catalog.Plugins() {
		avail := snap.Entries[meta.Name]
		result = append(result, Capability{
			Name:               meta.Name,
			Description:        meta.Description,
			Available:          avail.Available,
			Note:               avail.Note,
			GPURequired:        meta.GPURequired,
			Optional:           meta.Optional,
			PluginDependencies: meta.PluginDependencies,
			SystemDependencies: meta.SystemDependencies,
			Platforms:          meta.Platforms,
			ProfileTags:        meta.ProfileTags,
		})
	}
	return result
}

// Bind produces the binding a wrapper is constructed with
func (r *Registry) Bind(name, action string) Binding {
	if err := r.Require(name, action); err != nil {
		return Unavailable{Name: name, Err: err}
	}

	handle, err := r.source.Acquire()
	if err != nil {
		return Unavailable{Name: name, Err: err}
	}
	return Available{Name: name, Handle: handle}
}

// Reset drops the cached snapshot so the next query re-probes
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshot = nil
}

// current returns the handle and its snapshot, probing when the handle changed.
// When no handle can be acquired every plugin is reported unavailable and
// nothing is cached.
func (r *Registry) current() (native.Handle, *Snapshot, error) {
	if r.source == nil {
		err := errors.New("no native handle source configured")
		return nil, r.unavailableSnapshot(err), err
	}

	handle, err := r.source.Acquire()
	if err != nil {
		r.log.WithError(err).Warn("Failed to acquire native handle")
		return nil, r.unavailableSnapshot(err), err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.snapshot == nil || r.snapshot.HandleID != handle.ID() {
		r.snapshot = r.probe(handle)
	}
	return handle, r.snapshot, nil
}

func (r *Registry) probe(handle native.Handle) *Snapshot {
	start := time.Now()

	snap := &Snapshot{
		HandleID: handle.ID(),
		StandIn:  handle.IsStandIn(),
		Platform: handle.Platform(),
		ProbedAt: start,
		Entries:  make(map[string]Availability, len(r.catalog.Names())),
	}

	available := 0
	for _, meta := range r.catalog.Plugins() {
		avail := probePlugin(handle, meta)
		snap.Entries[meta.Name] = avail
		if avail.Available {
			available++
		}

		if r.metrics != nil {
			value := 0.0
			if avail.Available {
				value = 1
			}
			r.metrics.PluginAvailable.WithLabelValues(meta.Name).Set(value)
		}
	}

	if r.metrics != nil {
		r.metrics.ProbeDuration.Observe(time.Since(start).Seconds())
	}

	r.log.WithFields(logrus.Fields{
		"handle":    handle.ID(),
		"stand_in":  handle.IsStandIn(),
		"available": available,
		"total":     len(snap.Entries),
	}).Info("Probed plugin availability")

	return snap
}

func (r *Registry) unavailableSnapshot(err error) *Snapshot {
	snap := &Snapshot{
		ProbedAt: time.Now(),
		StandIn:  true,
		Entries:  make(map[string]Availability, len(r.catalog.Names())),
	}
	for _, name := range r.catalog.Names() {
		snap.Entries[name] = Availability{Note: err.Error()}
	}
	return snap
}

// probePlugin checks every test symbol of a plugin against a handle
func probePlugin(handle native.Handle, meta Metadata) Availability {
	var missing []string
	for _, symbol := range meta.TestSymbols {
		if !handle.HasSymbol(symbol) {
			missing = append(missing, symbol)
		}
	}

	if len(missing) == 0 {
		return Availability{Available: true}
	}

	if handle.IsStandIn() {
		return Availability{
			Note:           "native library unavailable (stand-in handle active)",
			MissingSymbols: missing,
		}
	}

	library := "the loaded library"
	if handle.Path() != "" {
		library = filepath.Base(handle.Path())
	}
	return Availability{
		Note:           fmt.Sprintf("not compiled into %s (missing %s)", library, strings.Join(missing, ", ")),
		MissingSymbols: missing,
	}
}

func (s *Snapshot) clone() Snapshot {
	out := *s
	out.Entries = make(map[string]Availability, len(s.Entries))
	for name, avail := range s.Entries {
		avail.MissingSymbols = append([]string(nil), avail.MissingSymbols...)
		out.Entries[name] = avail
	}
	return out
}
