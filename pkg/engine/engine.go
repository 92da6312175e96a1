package engine

import (
	"errors"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/capgate/pkg/config"
	"github.com/platinummonkey/capgate/pkg/dependencies"
	"github.com/platinummonkey/capgate/pkg/guards"
	"github.com/platinummonkey/capgate/pkg/native"
	"github.com/platinummonkey/capgate/pkg/observability"
	"github.com/platinummonkey/capgate/pkg/plugins"
)

// Options configures an Engine. Zero values select the defaults.
type Options struct {
	Loader       native.Options
	Catalog      *plugins.Catalog
	Checker      dependencies.SystemChecker
	BuildCommand string

	Logger  *logrus.Logger
	Metrics *observability.Metrics
}

// Engine holds the loader, registry, resolver and configuration manager
// for one native artifact. Tests build their own; programs usually share
// Default.
type Engine struct {
	loader   *native.Loader
	registry *plugins.Registry
	resolver *dependencies.Resolver
	manager  *config.Manager
	checker  dependencies.SystemChecker
	log      *logrus.Logger
	metrics  *observability.Metrics
}

// New wires an engine. Nothing is loaded until the handle is first needed.
func New(opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	if opts.Catalog == nil {
		opts.Catalog = plugins.DefaultCatalog()
	}
	if opts.Checker == nil {
		opts.Checker = dependencies.NewHostChecker(opts.Logger)
	}

	loaderOpts := opts.Loader
	if loaderOpts.Logger == nil {
		loaderOpts.Logger = opts.Logger
	}
	if loaderOpts.Metrics == nil {
		loaderOpts.Metrics = opts.Metrics
	}
	loader := native.NewLoader(loaderOpts)

	registryOpts := []plugins.Option{
		plugins.WithLogger(opts.Logger),
		plugins.WithMetrics(opts.Metrics),
	}
	if opts.BuildCommand != "" {
		registryOpts = append(registryOpts, plugins.WithBuildCommand(opts.BuildCommand))
	}

	resolver := dependencies.NewResolver(dependencies.Options{
		Catalog:  opts.Catalog,
		Platform: loader.Platform(),
		Checker:  opts.Checker,
		Logger:   opts.Logger,
		Metrics:  opts.Metrics,
	})

	return &Engine{
		loader:   loader,
		registry: plugins.NewRegistry(opts.Catalog, loader, registryOpts...),
		resolver: resolver,
		manager:  config.NewManager(resolver, config.WithLogger(opts.Logger)),
		checker:  opts.Checker,
		log:      opts.Logger,
		metrics:  opts.Metrics,
	}
}

// FromEnv builds an engine from process settings. A catalog.yaml in the
// library directory replaces the built-in catalog.
func FromEnv(settings config.EnvSettings, opts Options) (*Engine, error) {
	opts.Loader.Root = settings.LibraryDir
	opts.Loader.LibraryName = settings.LibraryName
	opts.Loader.Strict = settings.StrictPlatform

	if opts.Catalog == nil && settings.LibraryDir != "" {
		catalog, err := plugins.LoadCatalogFromDir(settings.LibraryDir)
		switch {
		case err == nil:
			opts.Catalog = catalog
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, err
		}
	}

	return New(opts), nil
}

// Loader returns the native loader
func (e *Engine) Loader() *native.Loader { return e.loader }

// Registry returns the capability registry
func (e *Engine) Registry() *plugins.Registry { return e.registry }

// Resolver returns the dependency resolver
func (e *Engine) Resolver() *dependencies.Resolver { return e.resolver }

// Config returns the configuration manager
func (e *Engine) Config() *config.Manager { return e.manager }

// Checker returns the host system checker used for resolution
func (e *Engine) Checker() dependencies.SystemChecker { return e.checker }

// Catalog returns the plugin catalog
func (e *Engine) Catalog() *plugins.Catalog { return e.registry.Catalog() }

// Platform returns the platform the engine targets
func (e *Engine) Platform() native.Platform { return e.loader.Platform() }

// Handle returns the native handle, loading it on first use
func (e *Engine) Handle() (native.Handle, error) {
	return e.loader.Acquire()
}

// Guard returns a guard for plugin backed by this engine's registry
func (e *Engine) Guard(plugin string, opts ...guards.Option) *guards.Guard {
	opts = append([]guards.Option{guards.WithLogger(e.log), guards.WithMetrics(e.metrics)}, opts...)
	return guards.New(e.registry, plugin, opts...)
}

// AssetRoot is the directory the artifact resolves its assets against
func (e *Engine) AssetRoot() string {
	handle, err := e.Handle()
	if err != nil || handle.Root() == "" {
		return e.loader.Root()
	}
	return filepath.Clean(handle.Root())
}

// Health returns a health checker over the handle and registry
func (e *Engine) Health(version string) *observability.HealthChecker {
	library := func() (observability.LibraryInfo, error) {
		handle, err := e.Handle()
		if err != nil {
			return nil, err
		}
		return handle, nil
	}
	return observability.NewHealthChecker(library, e.registry, version)
}

// Reset drops the handle and the availability snapshot. The next use
// re-detects the artifact and re-probes every plugin.
func (e *Engine) Reset() {
	e.loader.Reset()
	e.registry.Reset()
	e.log.Debug("Engine reset")
}

var (
	defaultMu     sync.Mutex
	defaultEngine *Engine
)

// Default returns the process engine, building it from the environment on
// first use. A broken catalog.yaml is logged and the built-in catalog is used.
func Default() *Engine {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultEngine != nil {
		return defaultEngine
	}

	settings := config.LoadEnvSettings()
	level := settings.LogLevel
	if level == "" {
		level = config.DefaultLogLevel
	}
	log := observability.NewLogger(level, nil)

	e, err := FromEnv(settings, Options{Logger: log})
	if err != nil {
		log.WithError(err).Warn("Failed to load plugin catalog, using built-in catalog")
		e, _ = FromEnv(settings, Options{Logger: log, Catalog: plugins.DefaultCatalog()})
	}

	defaultEngine = e
	return defaultEngine
}

// ResetDefault discards the process engine so the next Default rebuilds it
func ResetDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultEngine = nil
}
