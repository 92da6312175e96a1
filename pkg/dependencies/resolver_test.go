package dependencies

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/platinummonkey/capgate/pkg/native"
	"github.com/platinummonkey/capgate/pkg/observability"
	"github.com/platinummonkey/capgate/pkg/plugins"
)

var allTags = []string{TagCUDA, TagOptiX, TagGPU, TagOpenGL, TagX11}

func checksAll(ok bool) StaticChecks {
	checks := StaticChecks{}
	for _, tag := range allTags {
		checks[tag] = ok
	}
	return checks
}

func newTestResolver(platform native.Platform, checks SystemChecker) *Resolver {
	return NewResolver(Options{
		Catalog:  plugins.DefaultCatalog(),
		Platform: platform,
		Checker:  checks,
		Logger:   observability.DiscardLogger(),
	})
}

func droppedReasons(result *ResolutionResult) map[string]DropReason {
	reasons := make(map[string]DropReason)
	for _, d := range result.Dropped {
		reasons[d.Name] = d.Reason
	}
	return reasons
}

func TestResolve_Success(t *testing.T) {
	resolver := newTestResolver(native.PlatformLinux, checksAll(true))

	result := resolver.Resolve(context.Background(), []string{"weberpenntree", "solarposition"})

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, []string{"weberpenntree", "solarposition"}, result.FinalPlugins)
	assert.Empty(t, result.Warnings)
	assert.Empty(t, result.Errors)
	assert.True(t, result.OK())
}

func TestResolve_GPUUnavailableDropsPlugin(t *testing.T) {
	resolver := newTestResolver(native.PlatformLinux, checksAll(true))
	checks := StaticChecks{TagGPU: false, TagCUDA: true, TagOptiX: true}

	result := resolver.Resolve(context.Background(), []string{"radiation", "solarposition"}, WithSystemChecks(checks))

	assert.Equal(t, StatusWarning, result.Status)
	assert.NotContains(t, result.FinalPlugins, "radiation")
	assert.Equal(t, []string{"solarposition"}, result.FinalPlugins)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "radiation")
	assert.Contains(t, result.Warnings[0], "gpu")
	assert.False(t, result.SystemChecks[TagGPU])
	assert.Equal(t, DropSystem, droppedReasons(result)["radiation"])
}

func TestResolve_UnknownPluginFails(t *testing.T) {
	resolver := newTestResolver(native.PlatformLinux, checksAll(true))

	result := resolver.Resolve(context.Background(), []string{"solarposition", "ghost"})

	assert.Equal(t, StatusFailure, result.Status)
	assert.Equal(t, []string{"solarposition"}, result.FinalPlugins)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "ghost")
	assert.Equal(t, DropUnknown, droppedReasons(result)["ghost"])
}

func TestResolve_PlatformDrop(t *testing.T) {
	resolver := newTestResolver(native.PlatformMacOS, checksAll(true))

	result := resolver.Resolve(context.Background(), []string{"radiation", "weberpenntree"})

	assert.Equal(t, StatusWarning, result.Status)
	assert.Equal(t, []string{"weberpenntree"}, result.FinalPlugins)
	assert.Equal(t, DropPlatform, droppedReasons(result)["radiation"])
	assert.Contains(t, result.Warnings[0], "macos")
}

func TestResolve_NothingSurvivesFails(t *testing.T) {
	resolver := newTestResolver(native.PlatformMacOS, checksAll(true))

	result := resolver.Resolve(context.Background(), []string{"radiation", "lidar"})

	assert.Equal(t, StatusFailure, result.Status)
	assert.Empty(t, result.FinalPlugins)
	assert.NotEmpty(t, result.Warnings)
}

func TestResolve_ExpandsDependencies(t *testing.T) {
	resolver := newTestResolver(native.PlatformLinux, checksAll(true))

	result := resolver.Resolve(context.Background(), []string{"aeriallidar"})

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, []string{"lidar", "aeriallidar"}, result.FinalPlugins)
	assert.Equal(t, []string{"aeriallidar"}, result.Requested)
}

func TestResolve_DropsDependentsOfDroppedPlugins(t *testing.T) {
	checks := checksAll(true)
	checks[TagOpenGL] = false
	resolver := newTestResolver(native.PlatformLinux, checks)

	result := resolver.Resolve(context.Background(), []string{"syntheticannotation", "solarposition"})

	reasons := droppedReasons(result)
	assert.Equal(t, DropSystem, reasons["visualizer"])
	assert.Equal(t, DropDependency, reasons["syntheticannotation"])
	assert.Equal(t, []string{"radiation", "solarposition"}, result.FinalPlugins)
	assert.Equal(t, StatusWarning, result.Status)
}

func TestResolve_ExclusionsSubtractLast(t *testing.T) {
	resolver := newTestResolver(native.PlatformLinux, checksAll(true))

	result := resolver.Resolve(context.Background(),
		[]string{"syntheticannotation", "solarposition"},
		WithExclusions("visualizer"))

	reasons := droppedReasons(result)
	assert.Equal(t, DropExcluded, reasons["visualizer"])
	assert.Equal(t, DropDependency, reasons["syntheticannotation"])
	assert.Equal(t, []string{"radiation", "solarposition"}, result.FinalPlugins)
	assert.Equal(t, StatusWarning, result.Status)
}

func TestResolve_PlainExclusionIsNotAWarning(t *testing.T) {
	resolver := newTestResolver(native.PlatformLinux, checksAll(true))

	result := resolver.Resolve(context.Background(),
		[]string{"weberpenntree", "solarposition"},
		WithExclusions("weberpenntree"))

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, []string{"solarposition"}, result.FinalPlugins)
}

func TestResolve_UnknownExclusionWarns(t *testing.T) {
	resolver := newTestResolver(native.PlatformLinux, checksAll(true))

	result := resolver.Resolve(context.Background(), []string{"solarposition"}, WithExclusions("ghost"))

	assert.Equal(t, StatusWarning, result.Status)
	assert.Contains(t, result.Warnings[0], "ghost")
}

func TestResolve_UnknownSystemTagIsSatisfied(t *testing.T) {
	catalog, err := plugins.NewCatalog([]plugins.Metadata{{
		Name:               "vulkanrender",
		SystemDependencies: []string{"vulkan"},
		Platforms:          []native.Platform{native.PlatformLinux},
		TestSymbols:        []string{"createVulkanRenderer"},
	}}, nil)
	require.NoError(t, err)

	resolver := NewResolver(Options{
		Catalog:  catalog,
		Platform: native.PlatformLinux,
		Checker:  StaticChecks{},
		Logger:   observability.DiscardLogger(),
	})

	result := resolver.Resolve(context.Background(), []string{"vulkanrender"})

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, []string{"vulkanrender"}, result.FinalPlugins)
	assert.True(t, result.SystemChecks["vulkan"])
}

func TestResolve_EmptyRequest(t *testing.T) {
	resolver := newTestResolver(native.PlatformLinux, checksAll(true))

	result := resolver.Resolve(context.Background(), nil)

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Empty(t, result.FinalPlugins)
	assert.NotNil(t, result.FinalPlugins)
}

func TestResolve_Metrics(t *testing.T) {
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	resolver := NewResolver(Options{
		Platform: native.PlatformMacOS,
		Checker:  checksAll(true),
		Logger:   observability.DiscardLogger(),
		Metrics:  metrics,
	})

	resolver.Resolve(context.Background(), []string{"radiation", "weberpenntree"})

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ResolutionsTotal.WithLabelValues(string(StatusWarning))))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DroppedPluginTotal.WithLabelValues(string(DropPlatform))))
}

func TestResolve_Deterministic(t *testing.T) {
	names := plugins.DefaultCatalog().Names()

	rapid.Check(t, func(t *rapid.T) {
		requested := rapid.SliceOfDistinct(rapid.SampledFrom(names), func(s string) string { return s }).Draw(t, "requested")
		excluded := rapid.SliceOfDistinct(rapid.SampledFrom(names), func(s string) string { return s }).Draw(t, "excluded")
		platform := rapid.SampledFrom(native.SupportedPlatforms()).Draw(t, "platform")

		checks := StaticChecks{}
		for _, tag := range allTags {
			checks[tag] = rapid.Bool().Draw(t, tag)
		}

		resolver := newTestResolver(platform, checks)
		first := resolver.Resolve(context.Background(), requested, WithExclusions(excluded...))
		second := resolver.Resolve(context.Background(), requested, WithExclusions(excluded...))

		if !assert.ObjectsAreEqual(first, second) {
			t.Fatalf("resolution differs between calls:\n%v\n%v", first, second)
		}

		// every final plugin was requested or is a dependency of one, and
		// follows its own dependencies
		graph := resolver.Graph()
		allowed := map[string]bool{}
		for _, name := range requested {
			allowed[name] = true
			for _, dep := range graph.GetTransitiveDependencies(name) {
				allowed[dep.Plugin] = true
			}
		}
		position := map[string]int{}
		for i, name := range first.FinalPlugins {
			position[name] = i
		}
		for i, name := range first.FinalPlugins {
			if !allowed[name] {
				t.Fatalf("%s is neither requested nor a dependency", name)
			}
			for _, dep := range graph.GetDependencies(name) {
				j, ok := position[dep.Plugin]
				if !ok || j > i {
					t.Fatalf("%s is kept without its dependency %s before it", name, dep.Plugin)
				}
			}
		}
	})
}

func TestValidateConfiguration(t *testing.T) {
	resolver := newTestResolver(native.PlatformMacOS, checksAll(true))

	report := resolver.ValidateConfiguration([]string{"aeriallidar", "ghost", "weberpenntree", "projectbuilder", "visualizer"})

	assert.Equal(t, []string{"ghost"}, report.Invalid)
	assert.Equal(t, []string{"aeriallidar"}, report.PlatformIncompatible)
	assert.Equal(t, map[string][]string{"aeriallidar": {"lidar"}}, report.DependencyUnmet)
	assert.Equal(t, []string{"weberpenntree", "projectbuilder", "visualizer"}, report.Valid)
	assert.False(t, report.OK())
}

func TestValidateConfiguration_OK(t *testing.T) {
	resolver := newTestResolver(native.PlatformLinux, checksAll(true))

	report := resolver.ValidateConfiguration([]string{"lidar", "aeriallidar"})

	assert.True(t, report.OK())
	assert.Equal(t, []string{"lidar", "aeriallidar"}, report.Valid)
}
