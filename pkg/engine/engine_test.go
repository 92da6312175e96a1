package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/capgate/pkg/config"
	"github.com/platinummonkey/capgate/pkg/dependencies"
	"github.com/platinummonkey/capgate/pkg/native"
	"github.com/platinummonkey/capgate/pkg/observability"
	"github.com/platinummonkey/capgate/pkg/plugins"
)

func newTestEngine(t *testing.T, metrics *observability.Metrics) *Engine {
	t.Helper()
	return New(Options{
		Loader: native.Options{
			Root:     t.TempDir(),
			Platform: native.PlatformLinux,
		},
		Checker: dependencies.StaticChecks{},
		Logger:  observability.DiscardLogger(),
		Metrics: metrics,
	})
}

func TestEngine_StandInWhenArtifactMissing(t *testing.T) {
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	e := newTestEngine(t, metrics)

	handle, err := e.Handle()
	require.NoError(t, err)
	assert.True(t, handle.IsStandIn())
	assert.NotEmpty(t, handle.Tried())
	assert.Equal(t, native.PlatformLinux, e.Platform())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StandInActive))

	again, err := e.Handle()
	require.NoError(t, err)
	assert.Equal(t, handle.ID(), again.ID())

	assert.Empty(t, e.Registry().Available())
	assert.False(t, e.Registry().IsAvailable("radiation"))

	err = e.Registry().Require("radiation", "run radiation model")
	var notAvailable *plugins.PluginNotAvailableError
	require.True(t, errors.As(err, &notAvailable))
	assert.ErrorIs(t, err, native.ErrStandIn)
}

func TestEngine_GuardUsesRegistry(t *testing.T) {
	e := newTestEngine(t, nil)
	called := false

	err := e.Guard("visualizer").Call("render", func() error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, plugins.ErrPluginNotAvailable)
	assert.False(t, called)
}

func TestEngine_ResetReprobes(t *testing.T) {
	e := newTestEngine(t, nil)

	first, err := e.Handle()
	require.NoError(t, err)
	firstSnapshot := e.Registry().Snapshot()

	e.Reset()

	second, err := e.Handle()
	require.NoError(t, err)
	assert.NotEqual(t, first.ID(), second.ID())
	assert.Equal(t, second.ID(), e.Registry().Snapshot().HandleID)
	assert.NotEqual(t, firstSnapshot.HandleID, e.Registry().Snapshot().HandleID)
}

func TestEngine_ResolveAndConfigShareCatalog(t *testing.T) {
	e := newTestEngine(t, nil)

	assert.Same(t, e.Catalog(), e.Resolver().Catalog())

	doc := config.Default()
	doc.PluginSelection.Profile = plugins.ProfileMinimal
	resolved, err := e.Config().Resolve(context.Background(), doc)

	require.NoError(t, err)
	assert.Equal(t, []string{"weberpenntree", "solarposition"}, resolved.Plugins)
}

func TestEngine_Health(t *testing.T) {
	e := newTestEngine(t, nil)

	status := e.Health("test").Check()

	assert.Equal(t, "test", status.Version)
	assert.NotEqual(t, observability.StatusHealthy, status.Status)
}

func TestFromEnv_LoadsCatalogFromLibraryDir(t *testing.T) {
	dir := t.TempDir()
	catalog, err := plugins.NewCatalog([]plugins.Metadata{{
		Name:        "custom",
		Description: "custom plugin",
		Platforms:   []native.Platform{native.PlatformLinux},
		TestSymbols: []string{"createCustom"},
	}}, nil)
	require.NoError(t, err)
	require.NoError(t, plugins.SaveCatalog(catalog, filepath.Join(dir, plugins.CatalogFileName)))

	e, err := FromEnv(config.EnvSettings{LibraryDir: dir}, Options{Logger: observability.DiscardLogger()})

	require.NoError(t, err)
	assert.Equal(t, []string{"custom"}, e.Catalog().Names())
	assert.Equal(t, dir, e.Loader().Root())
}

func TestFromEnv_MalformedCatalog(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, plugins.CatalogFileName), []byte("plugins: {"), 0644))

	_, err := FromEnv(config.EnvSettings{LibraryDir: dir}, Options{Logger: observability.DiscardLogger()})

	assert.Error(t, err)
}

func TestFromEnv_NoCatalogUsesBuiltin(t *testing.T) {
	e, err := FromEnv(config.EnvSettings{LibraryDir: t.TempDir(), StrictPlatform: true},
		Options{Logger: observability.DiscardLogger()})

	require.NoError(t, err)
	assert.Same(t, plugins.DefaultCatalog(), e.Catalog())
}

func TestDefault(t *testing.T) {
	t.Setenv(config.EnvLibraryDir, t.TempDir())
	t.Setenv(config.EnvLogLevel, "error")
	ResetDefault()
	t.Cleanup(ResetDefault)

	first := Default()
	assert.Same(t, first, Default())

	ResetDefault()
	assert.NotSame(t, first, Default())
}

func TestDefault_MalformedCatalogKeepsLibraryDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, plugins.CatalogFileName), []byte("plugins: {"), 0644))
	t.Setenv(config.EnvLibraryDir, dir)
	t.Setenv(config.EnvLogLevel, "error")
	ResetDefault()
	t.Cleanup(ResetDefault)

	e := Default()

	assert.Equal(t, dir, e.Loader().Root())
	assert.Same(t, plugins.DefaultCatalog(), e.Catalog())
}
