// Package dependencies resolves a requested plugin set into one that can be
// built and used on the current host.
//
// # Overview
//
// Resolution validates names against the catalog, expands plugin
// dependencies (dependencies first), drops plugins the platform or host
// cannot support and finally subtracts exclusions. The result is a
// structured report; nothing is raised for dropped plugins.
//
// # Usage Example
//
//	resolver := dependencies.NewResolver(dependencies.Options{Catalog: plugins.DefaultCatalog()})
//	result := resolver.Resolve(ctx, []string{"syntheticannotation"}, dependencies.WithExclusions("visualizer"))
//
//	fmt.Println(result.Status, result.FinalPlugins)
//	for _, w := range result.Warnings {
//		fmt.Println("warning:", w)
//	}
//
// Pre-flight audit without expansion:
//
//	report := resolver.ValidateConfiguration([]string{"aeriallidar"})
//	// report.DependencyUnmet["aeriallidar"] == []string{"lidar"}
//
// System dependencies such as cuda or opengl are answered by a SystemChecker.
// HostChecker probes the running machine; StaticChecks fixes the answers,
// which keeps resolution reproducible in tests and CI.
package dependencies
